package commands

import (
	"context"
	"os/signal"
	"syscall"
)

// ConvertCmd implements the 'convert' command.
type ConvertCmd struct {
	BookFlags

	DryRun bool `name:"dry-run" help:"Render without writing the output file"`
}

func (c *ConvertCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	req, err := c.request(cfg)
	if err != nil {
		return err
	}
	req.DryRun = c.DryRun

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, shutdown := newService(cfg)
	defer shutdown()

	res, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}
	printResult(g.out(), res, c.DryRun)
	return nil
}

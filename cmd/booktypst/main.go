package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/booktypst/cmd/booktypst/commands"
	"git.home.luguber.info/inful/booktypst/internal/errors"
)

func main() {
	var cli commands.CLI
	kctx := kong.Parse(&cli,
		kong.Name("booktypst"),
		kong.Description("Convert mdBook sources into a Typst document"),
		kong.UsageOnError(),
		commands.Vars(),
	)

	err := kctx.Run(&commands.Global{Logger: slog.Default(), Out: os.Stdout}, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}

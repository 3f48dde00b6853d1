package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/booktypst/internal/build"
	"git.home.luguber.info/inful/booktypst/internal/config"
	"git.home.luguber.info/inful/booktypst/internal/convert"
	"git.home.luguber.info/inful/booktypst/internal/errors"
	"git.home.luguber.info/inful/booktypst/internal/observability"
	"git.home.luguber.info/inful/booktypst/internal/retry"
	"git.home.luguber.info/inful/booktypst/internal/version"
)

// Global carries shared state into subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing output; os.Stdout when nil.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"booktypst.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Convert ConvertCmd `cmd:"" help:"Convert an mdBook into a Typst document"`
	Watch   WatchCmd   `cmd:"" help:"Convert on every change to the book sources"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Events  EventsCmd  `cmd:"" help:"Print the converted event stream for debugging"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	setupLogging(level, config.LogFormatText)
	return nil
}

func setupLogging(level slog.Level, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the configuration (defaults when the file is missing) and
// applies its logging section unless --verbose overrides it.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(root.Config)
	if err != nil {
		return nil, err
	}
	if !root.Verbose {
		setupLogging(cfg.Logging.Level.SlogLevel(), cfg.Logging.Format)
	} else if cfg.Logging.Format == config.LogFormatJSON {
		setupLogging(slog.LevelDebug, config.LogFormatJSON)
	}
	return cfg, nil
}

// BookFlags are shared by the commands that convert a book.
type BookFlags struct {
	Book    string   `help:"Book root directory (overrides book.root)" type:"path"`
	Output  string   `short:"o" help:"Output Typst file (overrides book.output)"`
	Disable []string `help:"Comma-separated pipeline stages to disable (${stages})" sep:","`
}

// request builds a conversion request from configuration and flags.
func (f BookFlags) request(cfg *config.Config) (build.Request, error) {
	opts, err := cfg.Options()
	if err != nil {
		return build.Request{}, err
	}
	for _, name := range f.Disable {
		if err := opts.Set(name, false); err != nil {
			return build.Request{}, errors.ValidationFailed("disable", err.Error())
		}
	}

	req := build.Request{
		BookRoot: cfg.Book.Root,
		Output:   cfg.Book.Output,
		Options:  opts,
	}
	if f.Book != "" {
		req.BookRoot = f.Book
	}
	if f.Output != "" {
		req.Output = f.Output
	}
	return req, nil
}

// newService wires metrics and tracing into a build service. The returned
// function flushes tracing and must be called before exit.
func newService(cfg *config.Config) (*build.DefaultService, func()) {
	svc := build.NewService().WithRetryPolicy(retry.FromConfig(cfg.Retry))
	if !cfg.Monitoring.Tracing.Enabled {
		return svc, func() {}
	}
	shutdown := observability.InstallLogTracer()
	svc.WithSpanManager(observability.NewSpanManager())
	return svc, func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("Failed to shut down tracing", "error", err)
		}
	}
}

func printResult(w io.Writer, res *build.Result, dryRun bool) {
	took := res.Duration.Round(time.Millisecond)
	switch {
	case res.Skipped:
		fmt.Fprintf(w, "Unchanged, skipped (%s)\n", res.SkipReason)
	case dryRun:
		fmt.Fprintf(w, "Dry run: %d chapters, %d bytes in %s\n", res.Chapters, res.Bytes, took)
	default:
		fmt.Fprintf(w, "Wrote %s (%d chapters, %d bytes) in %s\n", res.OutputPath, res.Chapters, res.Bytes, took)
	}
}

// Vars are the kong interpolation variables the CLI grammar refers to.
func Vars() kong.Vars {
	return kong.Vars{
		"version": version.String(),
		"stages":  strings.Join(convert.StageNames(), ","),
	}
}

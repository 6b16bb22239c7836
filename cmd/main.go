// philekit is the command line toolkit for flat-file sites: secure tokens,
// encryption key setup, secret hashing and content file helpers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/philecms/philekit/internal/config"
	"github.com/philecms/philekit/internal/version"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	a := newApp(os.Stdout, os.Stderr)
	if err := a.command().Run(ctx, os.Args); err != nil {
		if errors.Is(err, errPluginInactive) {
			return ExitFailure
		}
		a.logger.Error("command failed", "error", err)
		return ExitFailure
	}

	return ExitSuccess
}

// app carries the writers and logger shared by all commands
type app struct {
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:    out,
		errOut: errOut,
		logger: newLogger(errOut, slog.LevelInfo),
	}
}

// newLogger writes text logs to w. Logs go to stderr so command output on
// stdout stays machine readable.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func (a *app) command() *cli.Command {
	cli.VersionPrinter = func(cmd *cli.Command) {
		_, _ = fmt.Fprintf(cmd.Root().Writer, "%s\nCommit:  %s\nBuilt:   %s\n",
			version.UserAgent(), version.Commit, version.Date)
	}

	return &cli.Command{
		Name:      "philekit",
		Usage:     "Secure tokens, encryption keys and content helpers for flat-file sites",
		Version:   version.Version,
		Writer:    a.out,
		ErrWriter: a.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfigPath,
				Usage:   "Path to the configuration file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging (most verbose)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Show only warnings and errors",
			},
			&cli.BoolFlag{
				Name:  "silent",
				Usage: "Show only errors (most quiet)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			// Hierarchy: debug > default > quiet > silent
			var level slog.Level
			switch {
			case cmd.Bool("debug"):
				level = slog.LevelDebug
			case cmd.Bool("silent"):
				level = slog.LevelError
			case cmd.Bool("quiet"):
				level = slog.LevelWarn
			default:
				level = slog.LevelInfo
			}
			a.logger = newLogger(a.errOut, level)
			a.logger.Debug("starting", "version", version.UserAgent())
			return ctx, nil
		},
		Commands: []*cli.Command{
			a.tokenCommand(),
			a.intCommand(),
			a.idCommand(),
			a.hashCommand(),
			a.verifyCommand(),
			a.resolveCommand(),
			a.filesCommand(),
			a.urlCommand(),
			a.pluginCommand(),
			a.setupCommand(),
		},
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artorize/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:   "artorize",
		Usage:  "Reconstruction mask codec and overlay renderer",
		Flags:  loggingFlags(),
		Before: setupLogging,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			encodeCmd(),
			inspectCmd(),
			renderCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging installs the logger chosen by flags or the config file into
// the command context.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	applyLoggingConfig(cmd, LoadConfig())
	level := logLevel
	if debug {
		level = "debug"
	}
	log, err := logger.Setup(os.Stderr, logFormat, level)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

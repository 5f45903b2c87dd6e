package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rbtl/internal/logger"
	"github.com/samcharles93/rbtl/internal/version"
)

func main() {
	app := &cli.Command{
		Name:    "rbtl",
		Usage:   "Spectral calibration inference CLI",
		Version: version.String(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			fitCmd(),
			sampleCmd(),
			deriveCmd(),
			serveCmd(),
			synthCmd(),
		},
	}

	ctx := logger.WithContext(context.Background(), logger.Default())
	if err := app.Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

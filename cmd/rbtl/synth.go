package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rbtl/internal/dataset"
	"github.com/samcharles93/rbtl/internal/logger"
)

func synthCmd() *cli.Command {
	var (
		outPath string
		targets int
		spectra int
		wave    int
		seed    int64
	)

	return &cli.Command{
		Name:  "synth",
		Usage: "Write a synthetic dataset for testing and benchmarking",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "output JSON file", Value: "synth.json", Destination: &outPath},
			&cli.IntFlag{Name: "targets", Usage: "number of targets", Value: 10, Destination: &targets},
			&cli.IntFlag{Name: "spectra", Usage: "number of spectra", Value: 50, Destination: &spectra},
			&cli.IntFlag{Name: "wave", Usage: "number of wavelength bins", Value: 100, Destination: &wave},
			&cli.Int64Flag{Name: "seed", Usage: "generator seed", Value: 1, Destination: &seed},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			d := dataset.Synthetic(targets, spectra, wave, seed)
			if err := d.Save(outPath); err != nil {
				return err
			}
			log.Info("synthetic dataset written",
				"out", outPath, "targets", targets, "spectra", spectra, "wave", wave)
			return nil
		},
	}
}

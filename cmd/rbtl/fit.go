package main

import (
	"context"
	"errors"
	"math"

	"bitbucket.org/dtolpin/infergo/infer"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rbtl/internal/dataset"
	"github.com/samcharles93/rbtl/internal/logger"
	"github.com/samcharles93/rbtl/internal/model"
	"github.com/samcharles93/rbtl/internal/resultstore"
)

func fitCmd() *cli.Command {
	var (
		dataPath string
		storeDir string
		rate     float64
		iters    int
		tol      float64
		noCache  bool
	)

	return &cli.Command{
		Name:  "fit",
		Usage: "Find the posterior mode of the calibration model",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Usage: "dataset JSON file", Required: true, Destination: &dataPath},
			&cli.StringFlag{Name: "store", Usage: "result store directory", Value: "results", Destination: &storeDir},
			&cli.Float64Flag{Name: "rate", Usage: "optimizer learning rate", Value: 0.01, Destination: &rate},
			&cli.IntFlag{Name: "iters", Usage: "maximum optimizer iterations", Value: 5000, Destination: &iters},
			&cli.Float64Flag{Name: "tol", Usage: "stop when the log-density delta falls below this", Value: 1e-8, Destination: &tol},
			&cli.BoolFlag{Name: "no-cache", Usage: "refit even if a cached result exists", Destination: &noCache},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyFitConfig(cmd, LoadConfig(), &storeDir, &rate, &iters)

			data, err := dataset.Load(dataPath)
			if err != nil {
				return err
			}
			m, err := model.New(data)
			if err != nil {
				return err
			}

			store, err := resultstore.Open(storeDir)
			if err != nil {
				return err
			}
			key := data.Hash() + "-fit"
			if !noCache {
				if cached, err := store.Load(key); err == nil {
					log.Info("using cached fit", "key", key, "log_density", cached.LogDensity)
					return nil
				} else if !errors.Is(err, resultstore.ErrNotFound) {
					return err
				}
			}

			log.Info("fitting",
				"targets", data.NumTargets,
				"spectra", data.NumSpectra,
				"wave", data.NumWave,
				"dim", m.Dim())

			x := make([]float64, m.Dim())
			opt := &infer.Adam{Rate: rate}
			ll := math.Inf(-1)
			iter := 0
			for ; iter < iters; iter++ {
				ll0 := ll
				ll, _ = opt.Step(m, x)
				if iter > 0 && math.Abs(ll-ll0) < tol {
					break
				}
			}
			log.Info("fit finished", "iterations", iter, "log_density", ll)

			return store.Save(&resultstore.Result{
				Key:        key,
				Mode:       "fit",
				LogDensity: ll,
				Params:     x,
			})
		},
	}
}

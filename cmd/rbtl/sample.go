package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"bitbucket.org/dtolpin/infergo/infer"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rbtl/internal/dataset"
	"github.com/samcharles93/rbtl/internal/logger"
	"github.com/samcharles93/rbtl/internal/model"
	"github.com/samcharles93/rbtl/internal/resultstore"
)

func sampleCmd() *cli.Command {
	var (
		dataPath string
		storeDir string
		eps      float64
		chains   int
		warmup   int
		draws    int
		seed     int64
	)

	return &cli.Command{
		Name:  "sample",
		Usage: "Draw posterior samples with NUTS",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Usage: "dataset JSON file", Required: true, Destination: &dataPath},
			&cli.StringFlag{Name: "store", Usage: "result store directory", Value: "results", Destination: &storeDir},
			&cli.Float64Flag{Name: "eps", Usage: "leapfrog step size", Value: 0.05, Destination: &eps},
			&cli.IntFlag{Name: "chains", Usage: "independent chains", Value: 4, Destination: &chains},
			&cli.IntFlag{Name: "warmup", Usage: "warmup iterations per chain", Value: 500, Destination: &warmup},
			&cli.IntFlag{Name: "draws", Usage: "retained draws per chain", Value: 1000, Destination: &draws},
			&cli.Int64Flag{Name: "seed", Usage: "chain initialization seed", Value: 1, Destination: &seed},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applySampleConfig(cmd, LoadConfig(), &storeDir, &eps, &chains, &warmup, &draws, &seed)
			if chains < 1 {
				return fmt.Errorf("need at least one chain, got %d", chains)
			}

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

			// Start chains from the cached MAP point when one exists, with a
			// small per-chain jitter to decorrelate them.
			init := make([]float64, m.Dim())
			if fit, err := store.Load(data.Hash() + "-fit"); err == nil {
				copy(init, fit.Params)
				log.Info("initializing chains from cached fit", "log_density", fit.LogDensity)
			} else if !errors.Is(err, resultstore.ErrNotFound) {
				return err
			}

			log.Info("sampling",
				"chains", chains, "warmup", warmup, "draws", draws,
				"eps", eps, "dim", m.Dim())

			chainDraws := make([][][]float64, chains)
			var wg sync.WaitGroup
			for c := 0; c < chains; c++ {
				cm := m.Clone()
				rng := rand.New(rand.NewSource(seed + int64(c)))
				x := make([]float64, len(init))
				for i := range x {
					x[i] = init[i] + 0.01*rng.NormFloat64()
				}
				wg.Add(1)
				go func(c int, cm *model.Model, x []float64) {
					defer wg.Done()
					nuts := &infer.NUTS{Eps: eps}
					samples := make(chan []float64)
					nuts.Sample(cm, x, samples)
					kept := make([][]float64, 0, draws)
					for i := 0; i < warmup+draws; i++ {
						draw := <-samples
						if len(draw) == 0 {
							break
						}
						if i >= warmup {
							kept = append(kept, append([]float64(nil), draw...))
						}
					}
					nuts.Stop()
					chainDraws[c] = kept
					total := nuts.NAcc + nuts.NRej
					if total > 0 {
						log.Info("chain finished",
							"chain", c,
							"draws", len(kept),
							"accept", float64(nuts.NAcc)/float64(total))
					}
				}(c, cm, x)
			}
			wg.Wait()

			var all [][]float64
			for _, kept := range chainDraws {
				all = append(all, kept...)
			}
			if len(all) == 0 {
				return errors.New("sampling produced no draws")
			}

			last := all[len(all)-1]
			ll := m.Observe(last)
			return store.Save(&resultstore.Result{
				Key:        data.Hash() + "-sample",
				Mode:       "sample",
				LogDensity: ll,
				Draws:      all,
			})
		},
	}
}

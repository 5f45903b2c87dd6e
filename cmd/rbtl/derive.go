package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rbtl/internal/dataset"
	"github.com/samcharles93/rbtl/internal/logger"
	"github.com/samcharles93/rbtl/internal/model"
	"github.com/samcharles93/rbtl/internal/resultstore"
)

// derivedSummary is the posterior mean of the generated quantities over all
// retained draws, written for the reporting pipeline.
type derivedSummary struct {
	NumDraws     int       `json:"num_draws"`
	NumTargets   int       `json:"num_targets"`
	NumWave      int       `json:"num_wave"`
	TargetFlux   []float64 `json:"target_flux"`
	ScaleSpectra []float64 `json:"scale_spectra"`
	ScaleFlux    []float64 `json:"scale_flux"`
	ScaleFluxErr []float64 `json:"scale_fluxerr"`
}

func deriveCmd() *cli.Command {
	var (
		dataPath string
		storeDir string
		outPath  string
	)

	return &cli.Command{
		Name:  "derive",
		Usage: "Compute calibration-removed quantities from stored draws",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Usage: "dataset JSON file", Required: true, Destination: &dataPath},
			&cli.StringFlag{Name: "store", Usage: "result store directory", Value: "results", Destination: &storeDir},
			&cli.StringFlag{Name: "out", Usage: "output JSON file", Value: "derived.json", Destination: &outPath},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

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

			// Prefer posterior draws; fall back to the MAP point.
			var points [][]float64
			if res, err := store.Load(data.Hash() + "-sample"); err == nil {
				points = res.Draws
			} else if !errors.Is(err, resultstore.ErrNotFound) {
				return err
			} else if res, err := store.Load(data.Hash() + "-fit"); err == nil {
				points = [][]float64{res.Params}
			} else if errors.Is(err, resultstore.ErrNotFound) {
				return errors.New("no stored fit or sample result for this dataset; run fit or sample first")
			} else {
				return err
			}

			n := data.NumTargets * data.NumWave
			sum := derivedSummary{
				NumDraws:     len(points),
				NumTargets:   data.NumTargets,
				NumWave:      data.NumWave,
				TargetFlux:   make([]float64, n),
				ScaleSpectra: make([]float64, n),
				ScaleFlux:    make([]float64, n),
				ScaleFluxErr: make([]float64, n),
			}
			for _, x := range points {
				if len(x) != m.Dim() {
					return fmt.Errorf("stored draw has length %d, want %d", len(x), m.Dim())
				}
				out := m.Derive(x)
				for i := 0; i < n; i++ {
					sum.TargetFlux[i] += out.TargetFlux[i]
					sum.ScaleSpectra[i] += out.ScaleSpectra[i]
					sum.ScaleFlux[i] += out.ScaleFlux[i]
					sum.ScaleFluxErr[i] += out.ScaleFluxErr[i]
				}
			}
			inv := 1 / float64(len(points))
			for i := 0; i < n; i++ {
				sum.TargetFlux[i] *= inv
				sum.ScaleSpectra[i] *= inv
				sum.ScaleFlux[i] *= inv
				sum.ScaleFluxErr[i] *= inv
			}

			payload, err := json.MarshalIndent(&sum, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, payload, 0o644); err != nil {
				return err
			}
			log.Info("derived quantities written", "draws", len(points), "out", outPath)
			return nil
		},
	}
}

// Package dataset holds the immutable set of observed spectra consumed by
// the calibration model. A Dataset is loaded (or synthesized) once, validated,
// and then shared read-only across every density evaluation and chain.
package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

var ErrDimensionMismatch = errors.New("dataset: dimension mismatch")

// Dataset is the observed data for one calibration run. Flux and FluxErr are
// row-major [NumSpectra][NumWave] buffers; ColorLaw has one entry per
// wavelength bin; Phases and TargetMap have one entry per spectrum.
// TargetMap entries are 1-based.
type Dataset struct {
	NumTargets int `json:"num_targets"`
	NumSpectra int `json:"num_spectra"`
	NumWave    int `json:"num_wave"`

	Flux    []float64 `json:"flux"`
	FluxErr []float64 `json:"fluxerr"`

	ColorLaw []float64 `json:"color_law"`
	Phases   []float64 `json:"phases"`

	TargetMap []int `json:"target_map"`
}

// Validate checks the declared dimensions against every field. A Dataset
// that fails validation must not be handed to the model.
func (d *Dataset) Validate() error {
	if d.NumTargets < 1 {
		return fmt.Errorf("dataset: need at least one target, got %d", d.NumTargets)
	}
	if d.NumWave < 1 {
		return fmt.Errorf("dataset: need at least one wavelength bin, got %d", d.NumWave)
	}
	if d.NumSpectra < 0 {
		return fmt.Errorf("dataset: negative spectrum count %d", d.NumSpectra)
	}
	sw := d.NumSpectra * d.NumWave
	if len(d.Flux) != sw {
		return fmt.Errorf("%w: flux has %d values, want %d", ErrDimensionMismatch, len(d.Flux), sw)
	}
	if len(d.FluxErr) != sw {
		return fmt.Errorf("%w: fluxerr has %d values, want %d", ErrDimensionMismatch, len(d.FluxErr), sw)
	}
	if len(d.ColorLaw) != d.NumWave {
		return fmt.Errorf("%w: color law has %d values, want %d", ErrDimensionMismatch, len(d.ColorLaw), d.NumWave)
	}
	if len(d.Phases) != d.NumSpectra {
		return fmt.Errorf("%w: phases has %d values, want %d", ErrDimensionMismatch, len(d.Phases), d.NumSpectra)
	}
	if len(d.TargetMap) != d.NumSpectra {
		return fmt.Errorf("%w: target map has %d entries, want %d", ErrDimensionMismatch, len(d.TargetMap), d.NumSpectra)
	}
	for s, t := range d.TargetMap {
		if t < 1 || t > d.NumTargets {
			return fmt.Errorf("dataset: target map entry %d is %d, want 1..%d", s, t, d.NumTargets)
		}
	}
	return nil
}

// SpectrumFlux returns the measured flux row for spectrum s. The returned
// slice aliases the dataset and must not be written.
func (d *Dataset) SpectrumFlux(s int) []float64 {
	return d.Flux[s*d.NumWave : (s+1)*d.NumWave]
}

// SpectrumFluxErr returns the measured flux uncertainty row for spectrum s.
func (d *Dataset) SpectrumFluxErr(s int) []float64 {
	return d.FluxErr[s*d.NumWave : (s+1)*d.NumWave]
}

// Hash returns a hex digest of the dataset content, used to key cached
// results so that reruns on identical inputs are served from disk.
func (d *Dataset) Hash() string {
	data, err := json.Marshal(d)
	if err != nil {
		// Marshal of a plain struct of slices cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// Load reads and validates a dataset from a JSON file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Save writes the dataset as JSON.
func (d *Dataset) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

package dataset

import (
	"math"
	"math/rand"
)

// Synthetic builds a small self-consistent dataset for tests, benchmarks and
// the synth command. Spectra are drawn around a smooth mean spectrum with
// per-target magnitude and color offsets, mild phase evolution, and Gaussian
// measurement noise. The generator is deterministic for a given seed.
func Synthetic(numTargets, numSpectra, numWave int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))

	d := &Dataset{
		NumTargets: numTargets,
		NumSpectra: numSpectra,
		NumWave:    numWave,
		Flux:       make([]float64, numSpectra*numWave),
		FluxErr:    make([]float64, numSpectra*numWave),
		ColorLaw:   make([]float64, numWave),
		Phases:     make([]float64, numSpectra),
		TargetMap:  make([]int, numSpectra),
	}

	// A Fitzpatrick-like color law shape: smoothly declining with wavelength.
	for w := 0; w < numWave; w++ {
		frac := float64(w) / math.Max(1, float64(numWave-1))
		d.ColorLaw[w] = 2.0 - 1.5*frac
	}

	meanSpec := make([]float64, numWave)
	for w := range meanSpec {
		frac := float64(w) / math.Max(1, float64(numWave-1))
		meanSpec[w] = 0.5*math.Sin(3*frac) + 0.1*rng.NormFloat64()
	}

	mags := make([]float64, numTargets)
	colors := make([]float64, numTargets)
	for t := range mags {
		mags[t] = 0.1 * rng.NormFloat64()
		colors[t] = 0.05 * rng.NormFloat64()
	}

	for s := 0; s < numSpectra; s++ {
		t := s % numTargets
		d.TargetMap[s] = t + 1
		d.Phases[s] = -4 + 8*rng.Float64()

		p := d.Phases[s]
		for w := 0; w < numWave; w++ {
			spec := meanSpec[w] + mags[t] + d.ColorLaw[w]*colors[t] +
				0.01*p + 0.002*p*p + 0.02*rng.NormFloat64()
			flux := math.Pow(10, -0.4*spec)
			err := 0.02 * flux
			d.Flux[s*numWave+w] = flux + err*rng.NormFloat64()
			d.FluxErr[s*numWave+w] = err
		}
	}

	return d
}

package model

// DerivedOutputs are the calibration diagnostics computed once per retained
// posterior draw. ScaleSpectra is the per-target spectrum with the
// photometric zero point and color removed, referenced back to the common
// mean; ScaleFlux and ScaleFluxErr are its flux-space image with the
// intrinsic floor term. All buffers are row-major [NumTargets][NumWave].
type DerivedOutputs struct {
	TargetFlux   []float64 `json:"target_flux"`
	ScaleSpectra []float64 `json:"scale_spectra"`
	ScaleFlux    []float64 `json:"scale_flux"`
	ScaleFluxErr []float64 `json:"scale_fluxerr"`
}

// Derive maps one posterior parameter vector to its derived outputs. It is
// not part of the density hot path and allocates its result; the model's
// scratch is left untouched, so Derive may run beside Observe on a clone.
func (m *Model) Derive(x []float64) *DerivedOutputs {
	m.checkLen(x)
	p := m.split(x)
	d := m.data
	T := d.NumTargets
	W := d.NumWave

	colors := make([]float64, T)
	mags := make([]float64, T)
	m.basis.Apply(colors, p.colorsRaw)
	m.basis.Apply(mags, p.magsRaw)
	floor := logistic(p.floorU)

	out := &DerivedOutputs{
		TargetFlux:   make([]float64, T*W),
		ScaleSpectra: make([]float64, T*W),
		ScaleFlux:    make([]float64, T*W),
		ScaleFluxErr: make([]float64, T*W),
	}

	for t := 0; t < T; t++ {
		ts := p.targetSpec[t*W : (t+1)*W]
		for w := 0; w < W; w++ {
			i := t*W + w
			out.TargetFlux[i] = fluxTransform(ts[w])
			scale := ts[w] - mags[t] - d.ColorLaw[w]*colors[t]
			out.ScaleSpectra[i] = scale
			out.ScaleFlux[i] = fluxTransform(scale)
			out.ScaleFluxErr[i] = floor * out.ScaleFlux[i]
		}
	}
	return out
}

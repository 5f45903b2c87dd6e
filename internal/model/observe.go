package model

import (
	"math"

	"bitbucket.org/dtolpin/infergo/dist"
)

// priorScale is the standard deviation of the zero-mean Normal priors on
// the mean and per-target spectra.
const priorScale = 10.0

// Observe returns the log-density at the unconstrained parameter vector x
// and leaves its gradient behind for Gradient. A vector of the wrong length
// is an invalid call and panics; a parameter point that drives any
// intermediate non-finite yields -Inf with a zero gradient, which the
// sampler treats as a rejected proposal.
func (m *Model) Observe(x []float64) float64 {
	m.checkLen(x)
	p := m.split(x)

	m.eval(p)
	ll := m.logDensity(p)

	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		return m.reject()
	}
	for _, g := range m.s.grad {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return m.reject()
		}
	}
	return ll
}

// Gradient returns the gradient of the last Observe with respect to every
// unconstrained parameter. The slice is owned by the model and overwritten
// on the next call.
func (m *Model) Gradient() []float64 {
	return m.s.grad
}

func (m *Model) reject() float64 {
	for i := range m.s.grad {
		m.s.grad[i] = 0
	}
	return math.Inf(-1)
}

// eval recomputes the full derived state for one parameter point: the
// sum-to-zero colors and magnitudes, the constrained dispersions with their
// log-Jacobian, and the per-target and per-spectrum quantities. Everything
// is independent per wavelength bin; nothing is cached across calls.
func (m *Model) eval(p params) {
	d := m.data
	s := &m.s
	W := d.NumWave

	m.basis.Apply(s.colors, p.colorsRaw)
	m.basis.Apply(s.mags, p.magsRaw)

	s.logJac = constrainUnit(s.targetDisp, p.targetDispU)
	s.logJac += constrainUnit(s.phaseDisp, p.phaseDispU)
	s.floor = logistic(p.floorU)
	s.logJac += logisticLogJacobian(p.floorU)

	for t := 0; t < d.NumTargets; t++ {
		ts := p.targetSpec[t*W : (t+1)*W]
		dev := s.dev[t*W : (t+1)*W]
		for w := 0; w < W; w++ {
			ref := p.meanSpec[w] + s.mags[t] + d.ColorLaw[w]*s.colors[t]
			dev[w] = ts[w] - ref
		}
	}

	for sp := 0; sp < d.NumSpectra; sp++ {
		t := d.TargetMap[sp] - 1
		ph := d.Phases[sp]
		ph2 := ph * ph
		ts := p.targetSpec[t*W : (t+1)*W]
		fe := d.FluxErr[sp*W : (sp+1)*W]
		mf := s.modelFlux[sp*W : (sp+1)*W]
		me := s.modelFluxErr[sp*W : (sp+1)*W]
		for w := 0; w < W; w++ {
			spec := ts[w] + p.phaseSlope[w]*ph + p.phaseQuad[w]*ph2
			f := fluxTransform(spec)
			pq := s.phaseDisp[w] * ph2
			mf[w] = f
			me[w] = math.Sqrt(fe[w]*fe[w] + s.floor*f*s.floor*f + pq*pq)
		}
	}
}

// logDensity accumulates every prior and likelihood term over the derived
// state filled by eval, together with the analytic gradient over the
// unconstrained coordinates.
func (m *Model) logDensity(p params) float64 {
	d := m.data
	s := &m.s
	W := d.NumWave

	g := s.grad
	for i := range g {
		g[i] = 0
	}
	for t := range s.gradColors {
		s.gradColors[t] = 0
		s.gradMags[t] = 0
	}
	for w := range s.gradTargetDisp {
		s.gradTargetDisp[w] = 0
		s.gradPhaseDisp[w] = 0
	}
	s.gradFloor = 0
	gp := m.split(g)

	ll := s.logJac

	// Priors on the mean and per-target spectra.
	for w, v := range p.meanSpec {
		ll += dist.Normal.Logp(0, priorScale, v)
		gp.meanSpec[w] -= v / (priorScale * priorScale)
	}
	for i, v := range p.targetSpec {
		ll += dist.Normal.Logp(0, priorScale, v)
		gp.targetSpec[i] -= v / (priorScale * priorScale)
	}

	// Hierarchical term: per-target deviation from the reference spectrum,
	// scaled by the per-wavelength target dispersion.
	for t := 0; t < d.NumTargets; t++ {
		dev := s.dev[t*W : (t+1)*W]
		for w := 0; w < W; w++ {
			td := s.targetDisp[w]
			dv := dev[w]
			ll += dist.Normal.Logp(0, td, dv)
			q := dv / (td * td)
			gp.targetSpec[t*W+w] -= q
			gp.meanSpec[w] += q
			s.gradMags[t] += q
			s.gradColors[t] += q * d.ColorLaw[w]
			s.gradTargetDisp[w] += dv*q/td - 1/td
		}
	}

	// Likelihood: measured flux against model flux under the heteroscedastic
	// error model.
	c := s.floor
	for sp := 0; sp < d.NumSpectra; sp++ {
		t := d.TargetMap[sp] - 1
		ph := d.Phases[sp]
		ph2 := ph * ph
		ph4 := ph2 * ph2
		y := d.Flux[sp*W : (sp+1)*W]
		mf := s.modelFlux[sp*W : (sp+1)*W]
		me := s.modelFluxErr[sp*W : (sp+1)*W]
		for w := 0; w < W; w++ {
			f := mf[w]
			sig := me[w]
			ll += dist.Normal.Logp(f, sig, y[w])

			sig2 := sig * sig
			res := y[w] - f
			r2 := res * res / sig2
			// d/df includes the sigma dependence on the model flux.
			gf := res/sig2 + (r2-1)*c*c*f/sig2
			gspec := -pogson * f * gf
			gp.targetSpec[t*W+w] += gspec
			gp.phaseSlope[w] += gspec * ph
			gp.phaseQuad[w] += gspec * ph2
			s.gradFloor += (r2 - 1) * c * f * f / sig2
			s.gradPhaseDisp[w] += (r2 - 1) * s.phaseDisp[w] * ph4 / sig2
		}
	}

	// Chain the dispersion gradients through the logistic transform; the
	// second term is the derivative of the log-Jacobian itself.
	for w := 0; w < W; w++ {
		td := s.targetDisp[w]
		gp.targetDispU[w] = s.gradTargetDisp[w]*td*(1-td) + (1 - 2*td)
		pd := s.phaseDisp[w]
		gp.phaseDispU[w] = s.gradPhaseDisp[w]*pd*(1-pd) + (1 - 2*pd)
	}
	g[m.lay.floor] = s.gradFloor*c*(1-c) + (1 - 2*c)

	// Pull the color and magnitude gradients back to the raw basis.
	m.basis.ApplyT(gp.colorsRaw, s.gradColors)
	m.basis.ApplyT(gp.magsRaw, s.gradMags)

	return ll
}

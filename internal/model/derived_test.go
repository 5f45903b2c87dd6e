package model

import (
	"math"
	"testing"

	"github.com/samcharles93/rbtl/internal/dataset"
)

func TestDeriveScaleSpectraRemoveCalibration(t *testing.T) {
	d := dataset.Synthetic(3, 6, 5, 31)
	m, err := New(d)
	if err != nil {
		t.Fatal(err)
	}
	x := testParams(m, 100)
	out := m.Derive(x)

	// The scale spectrum is the target spectrum with magnitude and color
	// removed, which is identically the mean spectrum plus the deviation.
	m.Observe(x)
	p := m.split(x)
	W := d.NumWave
	for ti := 0; ti < d.NumTargets; ti++ {
		for w := 0; w < W; w++ {
			i := ti*W + w
			want := p.meanSpec[w] + m.s.dev[i]
			if math.Abs(out.ScaleSpectra[i]-want) > 1e-12 {
				t.Fatalf("scale spectrum [%d] = %g, want %g", i, out.ScaleSpectra[i], want)
			}
		}
	}
}

func TestDeriveFluxOutputs(t *testing.T) {
	d := dataset.Synthetic(2, 4, 6, 32)
	m, err := New(d)
	if err != nil {
		t.Fatal(err)
	}
	x := testParams(m, 101)
	out := m.Derive(x)
	p := m.split(x)
	floor := logistic(p.floorU)

	W := d.NumWave
	for ti := 0; ti < d.NumTargets; ti++ {
		for w := 0; w < W; w++ {
			i := ti*W + w
			if got, want := out.TargetFlux[i], fluxTransform(p.targetSpec[i]); got != want {
				t.Fatalf("target flux [%d] = %g, want %g", i, got, want)
			}
			if got, want := out.ScaleFlux[i], fluxTransform(out.ScaleSpectra[i]); got != want {
				t.Fatalf("scale flux [%d] = %g, want %g", i, got, want)
			}
			if got, want := out.ScaleFluxErr[i], floor*out.ScaleFlux[i]; got != want {
				t.Fatalf("scale fluxerr [%d] = %g, want %g", i, got, want)
			}
			if !(out.TargetFlux[i] > 0 && out.ScaleFlux[i] > 0) {
				t.Fatalf("flux outputs not strictly positive at [%d]", i)
			}
		}
	}
}

func TestDeriveLeavesScratchUntouched(t *testing.T) {
	d := dataset.Synthetic(2, 3, 4, 33)
	m, err := New(d)
	if err != nil {
		t.Fatal(err)
	}
	x := testParams(m, 102)
	ll := m.Observe(x)
	grad := append([]float64(nil), m.Gradient()...)

	m.Derive(testParams(m, 103))

	if got := m.Observe(x); got != ll {
		t.Fatalf("Derive perturbed the density: %v vs %v", got, ll)
	}
	for i, g := range m.Gradient() {
		if g != grad[i] {
			t.Fatalf("Derive perturbed gradient[%d]", i)
		}
	}
}

func TestDerivePanicsOnWrongLength(t *testing.T) {
	d := dataset.Synthetic(2, 3, 4, 34)
	m, err := New(d)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for wrong parameter length")
		}
	}()
	m.Derive(make([]float64, m.Dim()+1))
}

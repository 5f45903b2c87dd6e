package basis

import (
	"math"
	"math/rand"
	"testing"
)

func TestSumZeroOutputSumsToZero(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 1; n <= 8; n++ {
		sz, err := NewSumZero(n)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		for trial := 0; trial < 20; trial++ {
			raw := make([]float64, n-1)
			for i := range raw {
				raw[i] = 10 * rng.NormFloat64()
			}
			out := make([]float64, n)
			sz.Apply(out, raw)
			sum := 0.0
			for _, v := range out {
				sum += v
			}
			if math.Abs(sum) > 1e-10 {
				t.Fatalf("n=%d: output sums to %g", n, sum)
			}
		}
	}
}

func TestSumZeroOrthonormal(t *testing.T) {
	for n := 2; n <= 6; n++ {
		sz, err := NewSumZero(n)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		// B'B must be the identity on the raw space.
		for j := 0; j < n-1; j++ {
			for k := 0; k < n-1; k++ {
				dot := 0.0
				for i := 0; i < n; i++ {
					dot += sz.b[i*(n-1)+j] * sz.b[i*(n-1)+k]
				}
				want := 0.0
				if j == k {
					want = 1
				}
				if math.Abs(dot-want) > 1e-12 {
					t.Fatalf("n=%d: (B'B)[%d,%d]=%g want %g", n, j, k, dot, want)
				}
			}
		}
	}
}

func TestSumZeroReachesEverySumZeroVector(t *testing.T) {
	// Pull an arbitrary sum-zero vector back through B' and forward again;
	// an orthonormal basis of the subspace must reproduce it.
	const n = 5
	sz, err := NewSumZero(n)
	if err != nil {
		t.Fatal(err)
	}
	v := []float64{1.5, -0.5, 2.0, -2.5, -0.5}
	raw := make([]float64, n-1)
	sz.ApplyT(raw, v)
	back := make([]float64, n)
	sz.Apply(back, raw)
	for i := range v {
		if math.Abs(back[i]-v[i]) > 1e-12 {
			t.Fatalf("round trip [%d]=%g want %g", i, back[i], v[i])
		}
	}
}

func TestSumZeroSingleTarget(t *testing.T) {
	sz, err := NewSumZero(1)
	if err != nil {
		t.Fatal(err)
	}
	if sz.RawDim() != 0 {
		t.Fatalf("raw dim = %d, want 0", sz.RawDim())
	}
	out := []float64{123}
	sz.Apply(out, nil)
	if out[0] != 0 {
		t.Fatalf("single-target output = %g, want 0", out[0])
	}
}

func TestSumZeroRejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -3} {
		if _, err := NewSumZero(n); err == nil {
			t.Fatalf("n=%d: expected error", n)
		}
	}
}

func TestSumZeroApplyPanicsOnMismatch(t *testing.T) {
	sz, err := NewSumZero(3)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	sz.Apply(make([]float64, 3), make([]float64, 3))
}

// Package basis provides the orthonormal sum-to-zero parameterization that
// removes the additive degeneracy of per-target magnitudes and colors. The
// raw parameter space has one fewer dimension than the number of targets;
// the basis maps it onto the subspace of vectors summing to zero, so the
// sampler never sees a hard constraint.
package basis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// rankTol guards the QR factor against degeneracy. The construction is
// fixed, so a trigger means a broken build rather than bad data.
const rankTol = 1e-12

// SumZero is a fixed orthonormal n x (n-1) map. It is immutable after
// construction and safe to share across concurrent evaluations.
type SumZero struct {
	n int
	b []float64 // n x (n-1), row-major
}

// NewSumZero builds the basis for n targets. n = 1 is the degenerate case:
// the raw space is empty and Apply always produces [0].
func NewSumZero(n int) (*SumZero, error) {
	if n < 1 {
		return nil, fmt.Errorf("basis: need at least one target, got %d", n)
	}
	sz := &SumZero{n: n, b: make([]float64, n*(n-1))}
	if n == 1 {
		return sz, nil
	}

	// Identity with the last row overwritten so its first n-1 entries are -1
	// and the corner is 0. The first n-1 columns then each sum to zero, and
	// the Q factor of this matrix gives an orthonormal basis of the
	// sum-to-zero subspace.
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n-1; i++ {
		a.Set(i, i, 1)
	}
	for j := 0; j < n-1; j++ {
		a.Set(n-1, j, -1)
	}

	var qr mat.QR
	qr.Factorize(a)
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)
	for j := 0; j < n-1; j++ {
		if math.Abs(r.At(j, j)) < rankTol {
			return nil, fmt.Errorf("basis: rank-deficient construction at column %d", j)
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n-1; j++ {
			sz.b[i*(n-1)+j] = q.At(i, j)
		}
	}
	return sz, nil
}

// Dim returns the constrained dimension n.
func (sz *SumZero) Dim() int { return sz.n }

// RawDim returns the unconstrained dimension n-1.
func (sz *SumZero) RawDim() int { return sz.n - 1 }

// Apply computes dst = B*raw. dst has length Dim, raw has length RawDim.
func (sz *SumZero) Apply(dst, raw []float64) {
	if len(dst) != sz.n || len(raw) != sz.n-1 {
		panic("basis: apply dimension mismatch")
	}
	for i := 0; i < sz.n; i++ {
		row := sz.b[i*(sz.n-1) : (i+1)*(sz.n-1)]
		sum := 0.0
		for j, v := range row {
			sum += v * raw[j]
		}
		dst[i] = sum
	}
}

// ApplyT computes dst = Bᵀ*v, pulling a gradient over the constrained
// vector back onto the raw coordinates. dst has length RawDim.
func (sz *SumZero) ApplyT(dst, v []float64) {
	if len(dst) != sz.n-1 || len(v) != sz.n {
		panic("basis: applyT dimension mismatch")
	}
	for j := range dst {
		dst[j] = 0
	}
	for i := 0; i < sz.n; i++ {
		row := sz.b[i*(sz.n-1) : (i+1)*(sz.n-1)]
		for j, bij := range row {
			dst[j] += bij * v[i]
		}
	}
}

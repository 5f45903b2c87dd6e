// Package model implements the hierarchical spectral calibration model: a
// deterministic log-density over a dataset of phase-tagged spectra, with
// hand-derived analytic gradients. It satisfies infergo's elemental-model
// contract, so the infergo samplers and optimizers consume it directly.
package model

import (
	"fmt"

	infergomodel "bitbucket.org/dtolpin/infergo/model"

	"github.com/samcharles93/rbtl/internal/basis"
	"github.com/samcharles93/rbtl/internal/dataset"
)

// Model evaluates the calibration log-density for one dataset. The dataset
// and basis are immutable and shared; the scratch buffers are per-instance,
// so a Model must only be used from one goroutine at a time. Use Clone to
// obtain an independent evaluator for a parallel chain.
type Model struct {
	data  *dataset.Dataset
	basis *basis.SumZero
	lay   layout
	s     scratch
}

var _ infergomodel.ElementalModel = (*Model)(nil)

// layout records the starting offset of every block of the flat
// unconstrained parameter vector.
type layout struct {
	meanSpec   int // W
	targetSpec int // T*W
	phaseSlope int // W
	phaseQuad  int // W
	targetDisp int // W, unconstrained
	floor      int // 1, unconstrained
	phaseDisp  int // W, unconstrained
	colorsRaw  int // T-1
	magsRaw    int // T-1
	dim        int
}

func newLayout(numTargets, numWave int) layout {
	var l layout
	off := 0
	next := func(n int) int {
		start := off
		off += n
		return start
	}
	l.meanSpec = next(numWave)
	l.targetSpec = next(numTargets * numWave)
	l.phaseSlope = next(numWave)
	l.phaseQuad = next(numWave)
	l.targetDisp = next(numWave)
	l.floor = next(1)
	l.phaseDisp = next(numWave)
	l.colorsRaw = next(numTargets - 1)
	l.magsRaw = next(numTargets - 1)
	l.dim = off
	return l
}

// params is a read-only view of one parameter vector, split into the named
// blocks of the model. All slices alias the caller's vector.
type params struct {
	meanSpec    []float64
	targetSpec  []float64
	phaseSlope  []float64
	phaseQuad   []float64
	targetDispU []float64
	floorU      float64
	phaseDispU  []float64
	colorsRaw   []float64
	magsRaw     []float64
}

func (m *Model) split(x []float64) params {
	l := m.lay
	return params{
		meanSpec:    x[l.meanSpec:l.targetSpec],
		targetSpec:  x[l.targetSpec:l.phaseSlope],
		phaseSlope:  x[l.phaseSlope:l.phaseQuad],
		phaseQuad:   x[l.phaseQuad:l.targetDisp],
		targetDispU: x[l.targetDisp:l.floor],
		floorU:      x[l.floor],
		phaseDispU:  x[l.phaseDisp:l.colorsRaw],
		colorsRaw:   x[l.colorsRaw:l.magsRaw],
		magsRaw:     x[l.magsRaw:l.dim],
	}
}

// scratch holds every derived quantity of one evaluation. It is rebuilt in
// full on each Observe; nothing carries over between calls.
type scratch struct {
	colors []float64 // T, sums to zero
	mags   []float64 // T, sums to zero

	targetDisp []float64 // W, constrained to (0,1)
	phaseDisp  []float64 // W, constrained to (0,1)
	floor      float64   // constrained to (0,1)
	logJac     float64   // summed log-Jacobian of the constraining transforms

	dev          []float64 // T*W, target spectrum minus reference
	modelFlux    []float64 // S*W
	modelFluxErr []float64 // S*W

	gradColors     []float64 // T, constrained-space accumulators
	gradMags       []float64 // T
	gradTargetDisp []float64 // W
	gradPhaseDisp  []float64 // W
	gradFloor      float64

	grad []float64 // layout.dim, gradient of the last Observe
}

// New validates the dataset, builds the sum-to-zero basis for its target
// count and returns a ready evaluator.
func New(data *dataset.Dataset) (*Model, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	b, err := basis.NewSumZero(data.NumTargets)
	if err != nil {
		return nil, err
	}
	m := &Model{
		data:  data,
		basis: b,
		lay:   newLayout(data.NumTargets, data.NumWave),
	}
	m.allocScratch()
	return m, nil
}

// Clone returns an evaluator sharing the dataset and basis with fresh
// scratch, for use by a concurrent chain.
func (m *Model) Clone() *Model {
	nm := &Model{data: m.data, basis: m.basis, lay: m.lay}
	nm.allocScratch()
	return nm
}

func (m *Model) allocScratch() {
	T := m.data.NumTargets
	W := m.data.NumWave
	S := m.data.NumSpectra
	m.s = scratch{
		colors:         make([]float64, T),
		mags:           make([]float64, T),
		targetDisp:     make([]float64, W),
		phaseDisp:      make([]float64, W),
		dev:            make([]float64, T*W),
		modelFlux:      make([]float64, S*W),
		modelFluxErr:   make([]float64, S*W),
		gradColors:     make([]float64, T),
		gradMags:       make([]float64, T),
		gradTargetDisp: make([]float64, W),
		gradPhaseDisp:  make([]float64, W),
		grad:           make([]float64, m.lay.dim),
	}
}

// Dim returns the required length of the flat parameter vector.
func (m *Model) Dim() int { return m.lay.dim }

// Data returns the dataset the model was built for.
func (m *Model) Data() *dataset.Dataset { return m.data }

func (m *Model) checkLen(x []float64) {
	if len(x) != m.lay.dim {
		panic(fmt.Sprintf("model: parameter vector has length %d, want %d", len(x), m.lay.dim))
	}
}

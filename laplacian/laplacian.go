// Package laplacian normalizes an affinity graph into a graph Laplacian,
// the operator whose leading eigenvectors form the spectral embedding.
//
// Two variants, both accepting sparse (*matrix.CSR) or dense
// (*matrix.Dense) affinities and preserving the input representation:
//
//	SymmetricNormal:  L = D^(−1/2) · A · D^(−1/2)
//	RandomWalkNormal: L = D^(−1) · A
//
// Isolated-node policy: the inverse degree is zero-guarded: d^(−1/2)
// (resp. d^(−1)) is defined as 0 when d == 0. For a nonnegative affinity a
// zero degree implies an all-zero row, so the row stays all-zero and the
// isolated sample's embedding coordinates come out zero downstream.
package laplacian

import (
	"fmt"
	"math"

	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/pipeline"
)

// ErrBadInput is returned when the stage input is neither a square CSR nor
// a square Dense affinity matrix.
var ErrBadInput = fmt.Errorf("laplacian: input is not a square affinity matrix: %w", pipeline.ErrShape)

// Operator is the node kind of a Laplacian stage (see pipeline.Task); both
// normalizations implement it.
type Operator interface {
	pipeline.Processor
	laplacianOperator()
}

// SymmetricNormal computes the symmetric normalized Laplacian.
type SymmetricNormal struct {
	pipeline.Base
}

func (*SymmetricNormal) laplacianOperator() {}

// NewSymmetricNormal constructs the processor (no domain parameters).
func NewSymmetricNormal(opts ...pipeline.Option) (*SymmetricNormal, error) {
	base, err := pipeline.NewBase("laplacian.SymmetricNormal", pipeline.BaseRegistry(), opts...)
	if err != nil {
		return nil, err
	}

	return &SymmetricNormal{Base: base}, nil
}

// Function maps an affinity matrix to D^(−1/2)·A·D^(−1/2).
func (p *SymmetricNormal) Function(data any) (any, error) {
	return normalize(data, func(d float64) float64 {
		if d <= 0 {
			return 0
		}

		return 1 / math.Sqrt(d)
	}, true)
}

// RandomWalkNormal computes the random-walk normalized Laplacian.
type RandomWalkNormal struct {
	pipeline.Base
}

func (*RandomWalkNormal) laplacianOperator() {}

// NewRandomWalkNormal constructs the processor (no domain parameters).
func NewRandomWalkNormal(opts ...pipeline.Option) (*RandomWalkNormal, error) {
	base, err := pipeline.NewBase("laplacian.RandomWalkNormal", pipeline.BaseRegistry(), opts...)
	if err != nil {
		return nil, err
	}

	return &RandomWalkNormal{Base: base}, nil
}

// Function maps an affinity matrix to D^(−1)·A.
func (p *RandomWalkNormal) Function(data any) (any, error) {
	return normalize(data, func(d float64) float64 {
		if d <= 0 {
			return 0
		}

		return 1 / d
	}, false)
}

// normalize applies diag(f(deg))·A(·diag(f(deg))) for either representation.
func normalize(data any, invDegree func(float64) float64, twoSided bool) (any, error) {
	switch a := data.(type) {
	case *matrix.CSR:
		if a.Rows() != a.Cols() {
			return nil, fmt.Errorf("%dx%d: %w", a.Rows(), a.Cols(), ErrBadInput)
		}
		scale := scaleVector(a.RowSums(), invDegree)
		if twoSided {
			return a.ScaleRowsCols(scale, scale)
		}

		return a.ScaleRowsCols(scale, nil)
	case *matrix.Dense:
		if a.Rows() != a.Cols() {
			return nil, fmt.Errorf("%dx%d: %w", a.Rows(), a.Cols(), ErrBadInput)
		}
		scale := scaleVector(a.RowSums(), invDegree)
		if twoSided {
			return a.ScaleRowsCols(scale, scale)
		}

		return a.ScaleRowsCols(scale, nil)
	default:
		return nil, fmt.Errorf("got %T: %w", data, ErrBadInput)
	}
}

func scaleVector(degrees []float64, invDegree func(float64) float64) []float64 {
	out := make([]float64, len(degrees))
	for i, d := range degrees {
		out[i] = invDegree(d)
	}

	return out
}

// Package affinity builds the similarity graph of the spectral pipeline: a
// distance matrix goes in, a nonnegative affinity matrix comes out.
//
// Two processors:
//   - SparseKNN: directed k-nearest-neighbor graph in CSR form, optionally
//     symmetrized to (A + Aᵀ)/2, which Laplacian normalization requires
//   - RadialBasis: dense Gaussian kernel exp(−d / (2σ²))
package affinity

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
)

var (
	// ErrBadInput is returned when the stage input is not a square dense
	// distance matrix.
	ErrBadInput = fmt.Errorf("affinity: input is not a square distance matrix: %w", pipeline.ErrShape)

	// ErrBadNeighbors is returned at construction for n_neighbors < 1.
	ErrBadNeighbors = fmt.Errorf("affinity: n_neighbors must be >= 1: %w", pipeline.ErrConfiguration)

	// ErrBadSigma is returned at construction for sigma <= 0.
	ErrBadSigma = fmt.Errorf("affinity: sigma must be > 0: %w", pipeline.ErrConfiguration)
)

var sparseKNNRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "n_neighbors", Types: param.Types(param.Int), Default: 10},
	param.Spec{Name: "symmetric", Types: param.Types(param.Bool), Default: true},
	// distance_weights=false stores edge weight 1; true stores the raw
	// distance at each selected cell.
	param.Spec{Name: "distance_weights", Types: param.Types(param.Bool), Default: false},
)

// Kernel is the node kind of an affinity stage (see pipeline.Task);
// SparseKNN and RadialBasis implement it.
type Kernel interface {
	pipeline.Processor
	affinityKernel()
}

// SparseKNN selects, for every sample, its k nearest other samples by
// ascending distance (ties broken by index order) and emits a sparse
// affinity graph. k is silently capped at N−1.
type SparseKNN struct {
	pipeline.Base
}

func (*SparseKNN) affinityKernel() {}

// NewSparseKNN constructs the processor. Parameters: n_neighbors (int, 10),
// symmetric (bool, true), distance_weights (bool, false).
func NewSparseKNN(opts ...pipeline.Option) (*SparseKNN, error) {
	base, err := pipeline.NewBase("affinity.SparseKNN", sparseKNNRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &SparseKNN{Base: base}
	if p.Params().Int("n_neighbors") < 1 {
		return nil, fmt.Errorf("n_neighbors=%d: %w", p.Params().Int("n_neighbors"), ErrBadNeighbors)
	}

	return p, nil
}

// Function maps an N×N distance matrix to a *matrix.CSR affinity graph with
// exactly min(k, N−1) entries per row before symmetrization.
func (p *SparseKNN) Function(data any) (any, error) {
	dist, ok := data.(*matrix.Dense)
	if !ok || dist.Rows() != dist.Cols() {
		return nil, fmt.Errorf("got %T: %w", data, ErrBadInput)
	}
	n := dist.Rows()
	k := p.Params().Int("n_neighbors")
	if k > n-1 {
		k = n - 1 // maximal usable k, no error
	}
	weighted := p.Params().Bool("distance_weights")

	entries := make([]matrix.Entry, 0, n*k)
	order := make([]int, n)
	for i := 0; i < n; i++ {
		row := dist.Row(i)
		for j := range order {
			order[j] = j
		}
		// Ascending distance, ties by array order; the sample itself sits at
		// distance 0 and is skipped below.
		sort.SliceStable(order, func(a, b int) bool { return row[order[a]] < row[order[b]] })
		taken := 0
		for _, j := range order {
			if j == i {
				continue
			}
			if taken == k {
				break
			}
			w := 1.0
			if weighted {
				w = row[j]
			}
			entries = append(entries, matrix.Entry{Row: i, Col: j, Val: w})
			taken++
		}
	}
	graph, err := matrix.NewCSR(n, n, entries)
	if err != nil {
		return nil, err
	}
	if p.Params().Bool("symmetric") {
		return graph.SymmetrizeMean()
	}

	return graph, nil
}

var radialBasisRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "sigma", Types: param.Types(param.Float), Default: 1.0},
)

// RadialBasis computes the dense Gaussian-kernel affinity
// exp(−d / (2σ²)) element-wise over a distance matrix.
type RadialBasis struct {
	pipeline.Base
}

func (*RadialBasis) affinityKernel() {}

// NewRadialBasis constructs the processor. Parameter: sigma (float64, 1.0).
func NewRadialBasis(opts ...pipeline.Option) (*RadialBasis, error) {
	base, err := pipeline.NewBase("affinity.RadialBasis", radialBasisRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &RadialBasis{Base: base}
	if p.Params().Float("sigma") <= 0 {
		return nil, fmt.Errorf("sigma=%v: %w", p.Params().Float("sigma"), ErrBadSigma)
	}

	return p, nil
}

// Function maps an N×N distance matrix to a dense affinity matrix.
func (p *RadialBasis) Function(data any) (any, error) {
	dist, ok := data.(*matrix.Dense)
	if !ok || dist.Rows() != dist.Cols() {
		return nil, fmt.Errorf("got %T: %w", data, ErrBadInput)
	}
	sigma := p.Params().Float("sigma")
	out := dist.Clone()
	raw := out.Data()
	denom := 2 * sigma * sigma
	for i, v := range raw {
		raw[i] = math.Exp(-v / denom)
	}

	return out, nil
}

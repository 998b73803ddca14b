package embedding

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
)

var tsneRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "n_components", Types: param.Types(param.Int), Default: 2},
	param.Spec{Name: "perplexity", Types: param.Types(param.Float), Default: 30.0},
	param.Spec{Name: "iterations", Types: param.Types(param.Int), Default: 500},
	param.Spec{Name: "learning_rate", Types: param.Types(param.Float), Default: 200.0},
	param.Spec{Name: "seed", Types: param.Types(param.Int), Default: 0},
)

// TSNE computes an exact (non-approximated) t-SNE layout: Gaussian input
// affinities calibrated per sample to the target perplexity, Student-t
// output affinities, gradient descent with momentum and early exaggeration.
//
// Complexity: O(N²) per iteration. Exact t-SNE is meant for the thousands
// of samples a per-class analysis produces, not for whole datasets.
type TSNE struct {
	pipeline.Base
}

func (*TSNE) embeds() {}

// NewTSNE constructs the processor. Parameters: n_components (int, 2),
// perplexity (float64, 30), iterations (int, 500), learning_rate
// (float64, 200), seed (int, 0).
func NewTSNE(opts ...pipeline.Option) (*TSNE, error) {
	base, err := pipeline.NewBase("embedding.TSNE", tsneRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &TSNE{Base: base}
	if p.Params().Int("n_components") < 1 {
		return nil, fmt.Errorf("n_components=%d: %w", p.Params().Int("n_components"), ErrBadRank)
	}

	return p, nil
}

// Function maps samples×features data to a samples×n_components layout.
func (p *TSNE) Function(data any) (any, error) {
	x, err := Matrix(data)
	if err != nil {
		return nil, err
	}
	var (
		n     = x.Rows()
		dims  = p.Params().Int("n_components")
		iters = p.Params().Int("iterations")
		eta   = p.Params().Float("learning_rate")
		perp  = p.Params().Float("perplexity")
		rng   = rand.New(rand.NewSource(int64(p.Params().Int("seed"))))
	)
	if n < 2 {
		return nil, fmt.Errorf("t-SNE needs at least 2 samples, got %d: %w", n, pipeline.ErrShape)
	}
	// Effective perplexity cannot exceed the neighbor count.
	if maxPerp := float64(n - 1); perp > maxPerp {
		perp = maxPerp
	}

	pj := inputAffinities(x, perp)

	// Early exaggeration for the first quarter of the schedule.
	exaggerate := iters / 4
	for i := range pj {
		pj[i] *= 12
	}

	y := make([]float64, n*dims)
	for i := range y {
		y[i] = rng.NormFloat64() * 1e-4
	}
	update := make([]float64, n*dims)
	grad := make([]float64, n*dims)
	q := make([]float64, n*n)

	for iter := 0; iter < iters; iter++ {
		if iter == exaggerate {
			for i := range pj {
				pj[i] /= 12
			}
		}
		// Student-t output affinities.
		var qsum float64
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				var d2 float64
				for d := 0; d < dims; d++ {
					diff := y[i*dims+d] - y[j*dims+d]
					d2 += diff * diff
				}
				w := 1 / (1 + d2)
				q[i*n+j] = w
				q[j*n+i] = w
				qsum += 2 * w
			}
		}
		if qsum == 0 {
			qsum = 1
		}

		// Gradient: 4·Σ_j (p_ij − q_ij)·w_ij·(y_i − y_j).
		for i := range grad {
			grad[i] = 0
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				w := q[i*n+j]
				coeff := 4 * (pj[i*n+j] - w/qsum) * w
				for d := 0; d < dims; d++ {
					grad[i*dims+d] += coeff * (y[i*dims+d] - y[j*dims+d])
				}
			}
		}

		momentum := 0.5
		if iter >= exaggerate {
			momentum = 0.8
		}
		for i := range y {
			update[i] = momentum*update[i] - eta*grad[i]
			y[i] += update[i]
		}
	}

	return matrix.NewDenseData(n, dims, y)
}

// inputAffinities builds the symmetrized input probability matrix: per-row
// Gaussian bandwidths found by bisection on the perplexity, then
// P = (P + Pᵀ) / (2N).
func inputAffinities(x *matrix.Dense, perplexity float64) []float64 {
	n := x.Rows()
	target := math.Log(perplexity)
	d2 := make([]float64, n*n)
	for i := 0; i < n; i++ {
		xi := x.Row(i)
		for j := i + 1; j < n; j++ {
			xj := x.Row(j)
			var sum float64
			for t := range xi {
				diff := xi[t] - xj[t]
				sum += diff * diff
			}
			d2[i*n+j] = sum
			d2[j*n+i] = sum
		}
	}

	pj := make([]float64, n*n)
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		lo, hi := 0.0, math.Inf(1)
		beta := 1.0
		for attempt := 0; attempt < 50; attempt++ {
			var sum float64
			for j := 0; j < n; j++ {
				if j == i {
					row[j] = 0

					continue
				}
				row[j] = math.Exp(-d2[i*n+j] * beta)
				sum += row[j]
			}
			var entropy float64
			if sum > 0 {
				for j := 0; j < n; j++ {
					if row[j] > 0 {
						pij := row[j] / sum
						entropy -= pij * math.Log(pij)
					}
				}
			}
			if math.Abs(entropy-target) < 1e-5 {
				break
			}
			if entropy > target {
				lo = beta
				if math.IsInf(hi, 1) {
					beta *= 2
				} else {
					beta = (beta + hi) / 2
				}
			} else {
				hi = beta
				beta = (beta + lo) / 2
			}
		}
		var sum float64
		for j := 0; j < n; j++ {
			sum += row[j]
		}
		if sum == 0 {
			sum = 1
		}
		for j := 0; j < n; j++ {
			pj[i*n+j] = row[j] / sum
		}
	}

	// Symmetrize and renormalize over all pairs.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := (pj[i*n+j] + pj[j*n+i]) / (2 * float64(n))
			// Floor keeps the KL gradient defined for far-apart pairs.
			v = math.Max(v, 1e-12)
			pj[i*n+j] = v
			pj[j*n+i] = v
		}
	}

	return pj
}

// Package distance provides pairwise-distance processors: the stage that
// turns N feature vectors into an N×N distance matrix.
//
// Guarantees for every metric: deterministic, symmetric output with a zero
// diagonal. Complexity: O(N²·d).
package distance

import (
	"fmt"
	"math"

	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
)

var (
	// ErrUnknownMetric is returned at construction for a metric name this
	// package does not implement.
	ErrUnknownMetric = fmt.Errorf("distance: unknown metric: %w", pipeline.ErrConfiguration)

	// ErrBadInput is returned when the stage input is not a samples×features
	// dense matrix.
	ErrBadInput = fmt.Errorf("distance: input is not a samples-by-features matrix: %w", pipeline.ErrShape)
)

// Metric names accepted by NewPairwise.
const (
	Euclidean   = "euclidean"
	SqEuclidean = "sqeuclidean"
	Manhattan   = "manhattan"
	Cosine      = "cosine"
	Chebyshev   = "chebyshev"
)

var pairwiseRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "metric", Types: param.Types(param.String), Default: Euclidean},
)

// Metric is the node kind of a pairwise-distance stage (see pipeline.Task);
// every distance processor in this package implements it.
type Metric interface {
	pipeline.Processor
	pairwiseMetric()
}

// Pairwise computes the full pairwise distance matrix of its input under the
// configured metric.
type Pairwise struct {
	pipeline.Base
	fn func(x, y []float64) float64
}

func (*Pairwise) pairwiseMetric() {}

// NewPairwise constructs the processor. The metric name is resolved at
// configuration time: an unknown name fails here, not at call time.
func NewPairwise(opts ...pipeline.Option) (*Pairwise, error) {
	base, err := pipeline.NewBase("distance.Pairwise", pairwiseRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &Pairwise{Base: base}
	metric := p.Params().String("metric")
	if p.fn = kernels[metric]; p.fn == nil {
		return nil, fmt.Errorf("%q: %w", metric, ErrUnknownMetric)
	}

	return p, nil
}

// Function maps a samples×features *matrix.Dense to the N×N distance
// matrix. The upper triangle is computed once and mirrored, so the result is
// exactly symmetric with a zero diagonal.
func (p *Pairwise) Function(data any) (any, error) {
	samples, ok := data.(*matrix.Dense)
	if !ok {
		return nil, fmt.Errorf("got %T: %w", data, ErrBadInput)
	}
	n := samples.Rows()
	out, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		xi := samples.Row(i)
		for j := i + 1; j < n; j++ {
			d := p.fn(xi, samples.Row(j))
			_ = out.Set(i, j, d)
			_ = out.Set(j, i, d)
		}
	}

	return out, nil
}

var kernels = map[string]func(x, y []float64) float64{
	Euclidean:   euclidean,
	SqEuclidean: sqeuclidean,
	Manhattan:   manhattan,
	Cosine:      cosine,
	Chebyshev:   chebyshev,
}

func sqeuclidean(x, y []float64) float64 {
	var sum float64
	for i := range x {
		d := x[i] - y[i]
		sum += d * d
	}

	return sum
}

func euclidean(x, y []float64) float64 { return math.Sqrt(sqeuclidean(x, y)) }

func manhattan(x, y []float64) float64 {
	var sum float64
	for i := range x {
		sum += math.Abs(x[i] - y[i])
	}

	return sum
}

func chebyshev(x, y []float64) float64 {
	var best float64
	for i := range x {
		if d := math.Abs(x[i] - y[i]); d > best {
			best = d
		}
	}

	return best
}

// cosine distance = 1 − cos(x, y); zero vectors are treated as maximally
// distant from everything (distance 1), mirroring scipy's convention of not
// producing NaN for them in practice.
func cosine(x, y []float64) float64 {
	var dot, nx, ny float64
	for i := range x {
		dot += x[i] * y[i]
		nx += x[i] * x[i]
		ny += y[i] * y[i]
	}
	if nx == 0 || ny == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(nx)*math.Sqrt(ny))
}

// Metrics returns the supported metric names; handy for config validation.
func Metrics() []string {
	return []string{Euclidean, SqEuclidean, Manhattan, Cosine, Chebyshev}
}

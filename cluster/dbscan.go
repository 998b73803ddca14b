package cluster

import (
	"fmt"

	"github.com/katalvlaran/spectral/embedding"
	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
)

// Noise is the label density methods assign to unclustered samples.
const Noise = -1

// ErrBadEps is returned at construction for eps <= 0.
var ErrBadEps = fmt.Errorf("cluster: eps must be > 0: %w", pipeline.ErrConfiguration)

var dbscanRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "eps", Types: param.Types(param.Float), Default: 0.5},
	param.Spec{Name: "min_samples", Types: param.Types(param.Int), Default: 5},
)

// DBSCAN clusters by density: a sample with at least min_samples neighbors
// within eps (itself included) is a core point; clusters are the connected
// components of core points plus their border neighbors; the rest is Noise.
type DBSCAN struct {
	pipeline.Base
}

func (*DBSCAN) clusters() {}

// NewDBSCAN constructs the processor. Parameters: eps (float64, 0.5),
// min_samples (int, 5).
func NewDBSCAN(opts ...pipeline.Option) (*DBSCAN, error) {
	base, err := pipeline.NewBase("cluster.DBSCAN", dbscanRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &DBSCAN{Base: base}
	if p.Params().Float("eps") <= 0 {
		return nil, fmt.Errorf("eps=%v: %w", p.Params().Float("eps"), ErrBadEps)
	}

	return p, nil
}

// Function maps samples×features data to []int labels; Noise (−1) marks
// low-density samples. Cluster ids follow discovery order, which is scan
// order over sample indices, so labels are deterministic.
func (p *DBSCAN) Function(data any) (any, error) {
	x, err := embedding.Matrix(data)
	if err != nil {
		return nil, err
	}
	var (
		n          = x.Rows()
		eps2       = p.Params().Float("eps") * p.Params().Float("eps")
		minSamples = p.Params().Int("min_samples")
	)

	const unvisited = -2
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}

	neighborhood := func(i int) []int {
		var out []int
		xi := x.Row(i)
		for j := 0; j < n; j++ {
			if sqDist(xi, x.Row(j)) <= eps2 {
				out = append(out, j) // includes i itself
			}
		}

		return out
	}

	next := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}
		seeds := neighborhood(i)
		if len(seeds) < minSamples {
			labels[i] = Noise

			continue
		}
		cluster := next
		next++
		labels[i] = cluster
		// Expand the component breadth-first over core points.
		for q := 0; q < len(seeds); q++ {
			j := seeds[q]
			if labels[j] == Noise {
				labels[j] = cluster // border point
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = cluster
			if reach := neighborhood(j); len(reach) >= minSamples {
				seeds = append(seeds, reach...)
			}
		}
	}

	return labels, nil
}

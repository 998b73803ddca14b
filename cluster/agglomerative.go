package cluster

import (
	"fmt"
	"math"

	"github.com/katalvlaran/spectral/embedding"
	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
)

// ErrUnknownLinkage is returned at construction for a linkage name outside
// ward, complete, average, single.
var ErrUnknownLinkage = fmt.Errorf("cluster: unknown linkage: %w", pipeline.ErrConfiguration)

// Linkage names accepted by Agglomerative.
const (
	Ward     = "ward"
	Complete = "complete"
	Average  = "average"
	Single   = "single"
)

var agglomerativeRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "n_clusters", Types: param.Types(param.Int), Default: 5},
	param.Spec{Name: "linkage", Types: param.Types(param.String), Default: Ward},
)

// Agglomerative clusters bottom-up: every sample starts as its own cluster
// and the closest pair merges until n_clusters remain. Inter-cluster
// distances after a merge follow the Lance–Williams recurrence for the
// chosen linkage; ward operates on squared Euclidean distances.
type Agglomerative struct {
	pipeline.Base
}

func (*Agglomerative) clusters() {}

// NewAgglomerative constructs the processor. Parameters: n_clusters
// (int, 5), linkage (string, "ward").
func NewAgglomerative(opts ...pipeline.Option) (*Agglomerative, error) {
	base, err := pipeline.NewBase("cluster.Agglomerative", agglomerativeRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &Agglomerative{Base: base}
	if p.Params().Int("n_clusters") < 1 {
		return nil, fmt.Errorf("n_clusters=%d: %w", p.Params().Int("n_clusters"), ErrBadClusterCount)
	}
	switch p.Params().String("linkage") {
	case Ward, Complete, Average, Single:
	default:
		return nil, fmt.Errorf("linkage=%q: %w", p.Params().String("linkage"), ErrUnknownLinkage)
	}

	return p, nil
}

// Function maps samples×features data to []int labels in [0, n_clusters).
// Cluster ids follow first-sample order, so labels are deterministic.
func (p *Agglomerative) Function(data any) (any, error) {
	x, err := embedding.Matrix(data)
	if err != nil {
		return nil, err
	}
	n := x.Rows()
	k := p.Params().Int("n_clusters")
	linkage := p.Params().String("linkage")
	if k > n {
		return nil, fmt.Errorf("n_clusters=%d for %d samples: %w", k, n, ErrTooFewSamples)
	}

	// Ward's recurrence is stated on squared distances; the other linkages
	// use plain Euclidean ones.
	dist := make([]float64, n*n)
	for i := 0; i < n; i++ {
		xi := x.Row(i)
		for j := i + 1; j < n; j++ {
			d := sqDist(xi, x.Row(j))
			if linkage != Ward {
				d = math.Sqrt(d)
			}
			dist[i*n+j] = d
			dist[j*n+i] = d
		}
	}

	active := make([]bool, n)
	sizes := make([]int, n)
	member := make([]int, n) // sample -> current cluster representative
	for i := 0; i < n; i++ {
		active[i] = true
		sizes[i] = 1
		member[i] = i
	}

	for remaining := n; remaining > k; remaining-- {
		// Closest active pair; ties break on the lower index pair.
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i*n+j] < best {
					bi, bj, best = i, j, dist[i*n+j]
				}
			}
		}

		// Merge bj into bi and refresh distances to every other cluster.
		ni, nj := float64(sizes[bi]), float64(sizes[bj])
		for t := 0; t < n; t++ {
			if !active[t] || t == bi || t == bj {
				continue
			}
			di, dj := dist[bi*n+t], dist[bj*n+t]
			var d float64
			switch linkage {
			case Single:
				d = math.Min(di, dj)
			case Complete:
				d = math.Max(di, dj)
			case Average:
				d = (ni*di + nj*dj) / (ni + nj)
			case Ward:
				nt := float64(sizes[t])
				total := ni + nj + nt
				d = ((ni+nt)*di + (nj+nt)*dj - nt*best) / total
			}
			dist[bi*n+t] = d
			dist[t*n+bi] = d
		}
		sizes[bi] += sizes[bj]
		active[bj] = false
		for s := range member {
			if member[s] == bj {
				member[s] = bi
			}
		}
	}

	// Compact representatives into labels ordered by first appearance.
	labels := make([]int, n)
	ids := make(map[int]int, k)
	for s, rep := range member {
		id, ok := ids[rep]
		if !ok {
			id = len(ids)
			ids[rep] = id
		}
		labels[s] = id
	}

	return labels, nil
}

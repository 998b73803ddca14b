package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/spectral/embedding"
	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
)

var (
	// ErrBadClusterCount is returned at construction for n_clusters < 1 and
	// at call time when n_clusters exceeds the sample count.
	ErrBadClusterCount = fmt.Errorf("cluster: invalid cluster count: %w", pipeline.ErrConfiguration)

	// ErrTooFewSamples is returned when the input has fewer samples than
	// the method needs.
	ErrTooFewSamples = fmt.Errorf("cluster: too few samples: %w", pipeline.ErrShape)
)

var kmeansRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "n_clusters", Types: param.Types(param.Int), Default: 2},
	param.Spec{Name: "max_iter", Types: param.Types(param.Int), Default: 300},
	param.Spec{Name: "seed", Types: param.Types(param.Int), Default: 0},
)

// Clusterer is the node kind of a clustering stage (see pipeline.Task);
// every labeling processor in this package implements it.
type Clusterer interface {
	pipeline.Processor
	clusters()
}

// KMeans clusters samples into n_clusters groups: k-means++ seeding, then
// Lloyd iterations until assignments settle or max_iter is reached.
type KMeans struct {
	pipeline.Base
}

func (*KMeans) clusters() {}

// NewKMeans constructs the processor. Parameters: n_clusters (int, 2),
// max_iter (int, 300), seed (int, 0).
func NewKMeans(opts ...pipeline.Option) (*KMeans, error) {
	base, err := pipeline.NewBase("cluster.KMeans", kmeansRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &KMeans{Base: base}
	if p.Params().Int("n_clusters") < 1 {
		return nil, fmt.Errorf("n_clusters=%d: %w", p.Params().Int("n_clusters"), ErrBadClusterCount)
	}

	return p, nil
}

// Function maps samples×features data to []int labels in [0, n_clusters).
func (p *KMeans) Function(data any) (any, error) {
	x, err := embedding.Matrix(data)
	if err != nil {
		return nil, err
	}
	n, d := x.Rows(), x.Cols()
	k := p.Params().Int("n_clusters")
	if k > n {
		return nil, fmt.Errorf("n_clusters=%d for %d samples: %w", k, n, ErrTooFewSamples)
	}
	rng := rand.New(rand.NewSource(int64(p.Params().Int("seed"))))

	centroids := plusPlusInit(x, k, rng)
	labels := make([]int, n)
	next := make([]float64, k*d)
	counts := make([]int, k)

	for iter := 0; iter < p.Params().Int("max_iter"); iter++ {
		changed := false
		for i := 0; i < n; i++ {
			c := nearestCentroid(x.Row(i), centroids, d)
			if labels[i] != c {
				labels[i] = c
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		for i := range next {
			next[i] = 0
		}
		for i := range counts {
			counts[i] = 0
		}
		for i := 0; i < n; i++ {
			c := labels[i]
			counts[c]++
			row := x.Row(i)
			for j, v := range row {
				next[c*d+j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Empty cluster: reseed on the sample farthest from its
				// centroid, the standard Lloyd repair.
				far, best := 0, -1.0
				for i := 0; i < n; i++ {
					if dist := sqDist(x.Row(i), centroids[labels[i]*d:labels[i]*d+d]); dist > best {
						far, best = i, dist
					}
				}
				copy(next[c*d:(c+1)*d], x.Row(far))
				counts[c] = 1
			}
			inv := 1 / float64(counts[c])
			for j := 0; j < d; j++ {
				centroids[c*d+j] = next[c*d+j] * inv
			}
		}
	}

	return labels, nil
}

// plusPlusInit seeds centroids with k-means++: first uniform, the rest
// sampled proportionally to squared distance from the nearest chosen one.
func plusPlusInit(x *matrix.Dense, k int, rng *rand.Rand) []float64 {
	n, d := x.Rows(), x.Cols()
	centroids := make([]float64, k*d)
	copy(centroids[:d], x.Row(rng.Intn(n)))

	dist := make([]float64, n)
	for c := 1; c < k; c++ {
		var total float64
		for i := 0; i < n; i++ {
			best := math.Inf(1)
			for prev := 0; prev < c; prev++ {
				if dd := sqDist(x.Row(i), centroids[prev*d:(prev+1)*d]); dd < best {
					best = dd
				}
			}
			dist[i] = best
			total += best
		}
		pick := 0
		if total > 0 {
			r := rng.Float64() * total
			var acc float64
			for i := 0; i < n; i++ {
				acc += dist[i]
				if acc >= r {
					pick = i

					break
				}
			}
		} else {
			pick = rng.Intn(n)
		}
		copy(centroids[c*d:(c+1)*d], x.Row(pick))
	}

	return centroids
}

func nearestCentroid(row, centroids []float64, d int) int {
	best, bestDist := 0, math.Inf(1)
	for c := 0; c*d < len(centroids); c++ {
		if dd := sqDist(row, centroids[c*d:(c+1)*d]); dd < bestDist {
			best, bestDist = c, dd
		}
	}

	return best
}

func sqDist(x, y []float64) float64 {
	var sum float64
	for i := range x {
		diff := x[i] - y[i]
		sum += diff * diff
	}

	return sum
}

package embedding

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
)

var umapRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "n_components", Types: param.Types(param.Int), Default: 2},
	param.Spec{Name: "n_neighbors", Types: param.Types(param.Int), Default: 15},
	param.Spec{Name: "min_dist", Types: param.Types(param.Float), Default: 0.1},
	param.Spec{Name: "epochs", Types: param.Types(param.Int), Default: 200},
	param.Spec{Name: "seed", Types: param.Types(param.Int), Default: 0},
)

// UMAP computes a uniform-manifold layout: a fuzzy simplicial set over the
// k-NN graph (per-sample bandwidth calibrated to log2(k)), PCA
// initialization, then stochastic gradient descent with negative sampling
// on the cross-entropy between high- and low-dimensional fuzzy sets.
type UMAP struct {
	pipeline.Base
}

func (*UMAP) embeds() {}

// NewUMAP constructs the processor. Parameters: n_components (int, 2),
// n_neighbors (int, 15), min_dist (float64, 0.1), epochs (int, 200),
// seed (int, 0).
func NewUMAP(opts ...pipeline.Option) (*UMAP, error) {
	base, err := pipeline.NewBase("embedding.UMAP", umapRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &UMAP{Base: base}
	if p.Params().Int("n_components") < 1 {
		return nil, fmt.Errorf("n_components=%d: %w", p.Params().Int("n_components"), ErrBadRank)
	}
	if p.Params().Int("n_neighbors") < 2 {
		return nil, fmt.Errorf("n_neighbors=%d: %w", p.Params().Int("n_neighbors"),
			fmt.Errorf("embedding: n_neighbors must be >= 2: %w", pipeline.ErrConfiguration))
	}

	return p, nil
}

// umapEdge is one weighted edge of the fuzzy simplicial set.
type umapEdge struct {
	from, to int
	weight   float64
}

// Function maps samples×features data to a samples×n_components layout.
func (p *UMAP) Function(data any) (any, error) {
	x, err := Matrix(data)
	if err != nil {
		return nil, err
	}
	var (
		n      = x.Rows()
		dims   = p.Params().Int("n_components")
		epochs = p.Params().Int("epochs")
		rng    = rand.New(rand.NewSource(int64(p.Params().Int("seed"))))
	)
	if n < 3 {
		return nil, fmt.Errorf("UMAP needs at least 3 samples, got %d: %w", n, pipeline.ErrShape)
	}
	k := p.Params().Int("n_neighbors")
	if k > n-1 {
		k = n - 1
	}

	edges := fuzzySimplicialSet(x, k)
	a, b := fitCurve(p.Params().Float("min_dist"))

	// PCA initialization keeps the layout deterministic for a fixed seed.
	init, err := pcaInit(x, dims)
	if err != nil {
		return nil, err
	}
	y := init.Data()
	scaleToUnitRange(y)

	negativeRate := 5
	for epoch := 0; epoch < epochs; epoch++ {
		alpha := 1.0 - float64(epoch)/float64(epochs)
		for _, e := range edges {
			// Sample the edge proportionally to its membership weight.
			if rng.Float64() > e.weight {
				continue
			}
			attract(y, dims, e.from, e.to, a, b, alpha)
			for s := 0; s < negativeRate; s++ {
				j := rng.Intn(n)
				if j == e.from {
					continue
				}
				repel(y, dims, e.from, j, a, b, alpha)
			}
		}
	}

	return matrix.NewDenseData(n, dims, y)
}

// fuzzySimplicialSet builds the symmetrized membership graph: per-row
// smooth nearest-neighbor weights exp(−(d − ρ)/σ) with σ solved so the
// weight mass is log2(k), combined by probabilistic union a+b−ab.
func fuzzySimplicialSet(x *matrix.Dense, k int) []umapEdge {
	n := x.Rows()
	target := math.Log2(float64(k))

	memberships := make(map[[2]int]float64, n*k)
	neighbors := make([]knnNeighbor, 0, n)
	for i := 0; i < n; i++ {
		xi := x.Row(i)
		neighbors = neighbors[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			xj := x.Row(j)
			var sum float64
			for t := range xi {
				diff := xi[t] - xj[t]
				sum += diff * diff
			}
			neighbors = append(neighbors, knnNeighbor{index: j, dist: math.Sqrt(sum)})
		}
		sort.SliceStable(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })
		neighbors = neighbors[:k]

		rho := neighbors[0].dist
		sigma := smoothBandwidth(neighbors, rho, target)
		for _, nb := range neighbors {
			w := 1.0
			if nb.dist > rho && sigma > 0 {
				w = math.Exp(-(nb.dist - rho) / sigma)
			}
			memberships[[2]int{i, nb.index}] = w
		}
	}

	seen := make(map[[2]int]bool, len(memberships))
	edges := make([]umapEdge, 0, len(memberships))
	for key, w := range memberships {
		i, j := key[0], key[1]
		lo, hi := i, j
		if lo > hi {
			lo, hi = hi, lo
		}
		if seen[[2]int{lo, hi}] {
			continue
		}
		seen[[2]int{lo, hi}] = true
		wr := memberships[[2]int{j, i}]
		union := w + wr - w*wr
		edges = append(edges, umapEdge{from: lo, to: hi, weight: union})
	}
	// Map iteration order is random; sort for a deterministic SGD schedule.
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].from != edges[b].from {
			return edges[a].from < edges[b].from
		}

		return edges[a].to < edges[b].to
	})

	return edges
}

// knnNeighbor is one (index, distance) pair of a k-NN row.
type knnNeighbor struct {
	index int
	dist  float64
}

// smoothBandwidth bisects σ so that Σ exp(−(d−ρ)/σ) ≈ target.
func smoothBandwidth(neighbors []knnNeighbor, rho, target float64) float64 {
	lo, hi := 0.0, math.Inf(1)
	sigma := 1.0
	for attempt := 0; attempt < 64; attempt++ {
		var sum float64
		for _, nb := range neighbors {
			if nb.dist <= rho {
				sum++
			} else {
				sum += math.Exp(-(nb.dist - rho) / sigma)
			}
		}
		if math.Abs(sum-target) < 1e-5 {
			break
		}
		if sum > target {
			hi = sigma
			sigma = (lo + sigma) / 2
		} else {
			lo = sigma
			if math.IsInf(hi, 1) {
				sigma *= 2
			} else {
				sigma = (sigma + hi) / 2
			}
		}
	}

	return sigma
}

// fitCurve fits the low-dimensional membership curve 1/(1+a·d^(2b)) to the
// desired min_dist by deterministic coordinate descent on a coarse grid of
// offsets, mirroring the reference implementation's least-squares fit.
func fitCurve(minDist float64) (a, b float64) {
	// Target: ψ(d) = 1 for d ≤ min_dist, exp(−(d − min_dist)) beyond.
	const samples = 300
	xs := make([]float64, samples)
	ys := make([]float64, samples)
	for i := 0; i < samples; i++ {
		d := 3.0 * float64(i+1) / samples
		xs[i] = d
		if d <= minDist {
			ys[i] = 1
		} else {
			ys[i] = math.Exp(-(d - minDist))
		}
	}
	loss := func(a, b float64) float64 {
		var sum float64
		for i := range xs {
			fit := 1 / (1 + a*math.Pow(xs[i], 2*b))
			diff := fit - ys[i]
			sum += diff * diff
		}

		return sum
	}
	a, b = 1.0, 1.0
	step := 0.5
	for round := 0; round < 12; round++ {
		improved := true
		for improved {
			improved = false
			for _, cand := range [][2]float64{{a + step, b}, {a - step, b}, {a, b + step}, {a, b - step}} {
				if cand[0] <= 0 || cand[1] <= 0 {
					continue
				}
				if loss(cand[0], cand[1]) < loss(a, b) {
					a, b = cand[0], cand[1]
					improved = true
				}
			}
		}
		step /= 2
	}

	return a, b
}

func pcaInit(x *matrix.Dense, dims int) (*matrix.Dense, error) {
	pca, err := NewPCA(pipeline.WithParam("n_components", dims))
	if err != nil {
		return nil, err
	}
	out, err := pca.Function(x)
	if err != nil {
		return nil, err
	}

	return out.(*matrix.Dense), nil
}

func scaleToUnitRange(y []float64) {
	var max float64
	for _, v := range y {
		max = math.Max(max, math.Abs(v))
	}
	if max == 0 {
		return
	}
	for i := range y {
		y[i] = 10 * y[i] / max
	}
}

func attract(y []float64, dims, i, j int, a, b, alpha float64) {
	var d2 float64
	for d := 0; d < dims; d++ {
		diff := y[i*dims+d] - y[j*dims+d]
		d2 += diff * diff
	}
	if d2 == 0 {
		return
	}
	grad := -2 * a * b * math.Pow(d2, b-1) / (1 + a*math.Pow(d2, b))
	applyForce(y, dims, i, j, grad, alpha)
}

func repel(y []float64, dims, i, j int, a, b, alpha float64) {
	var d2 float64
	for d := 0; d < dims; d++ {
		diff := y[i*dims+d] - y[j*dims+d]
		d2 += diff * diff
	}
	grad := 2 * b / ((0.001 + d2) * (1 + a*math.Pow(d2, b)))
	applyForce(y, dims, i, j, grad, alpha)
}

// applyForce moves point i along (y_i − y_j), clipping per-coordinate steps
// to ±4 the way the reference implementation does.
func applyForce(y []float64, dims, i, j int, grad, alpha float64) {
	for d := 0; d < dims; d++ {
		step := grad * (y[i*dims+d] - y[j*dims+d])
		if step > 4 {
			step = 4
		} else if step < -4 {
			step = -4
		}
		y[i*dims+d] += alpha * step
	}
}

package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/spectral/embedding"
	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
)

// ErrBadClusterSize is returned at construction for min_cluster_size < 2.
var ErrBadClusterSize = fmt.Errorf("cluster: min_cluster_size must be >= 2: %w", pipeline.ErrConfiguration)

var hdbscanRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "min_cluster_size", Types: param.Types(param.Int), Default: 5},
	param.Spec{Name: "min_samples", Types: param.Types(param.Int), Default: 0},
)

// HDBSCAN clusters by hierarchical density: mutual-reachability distances
// built from per-sample core distances, a Prim minimum spanning tree over
// them, a single-linkage hierarchy from the sorted tree edges, and
// excess-of-mass extraction of the most stable clusters. Samples that never
// join a stable cluster are labeled Noise.
//
// Determinism: the tree and the hierarchy break ties by sample index, so
// identical inputs always produce identical labels.
type HDBSCAN struct {
	pipeline.Base
}

func (*HDBSCAN) clusters() {}

// NewHDBSCAN constructs the processor. Parameters: min_cluster_size
// (int, 5), min_samples (int, 0 = use min_cluster_size).
func NewHDBSCAN(opts ...pipeline.Option) (*HDBSCAN, error) {
	base, err := pipeline.NewBase("cluster.HDBSCAN", hdbscanRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &HDBSCAN{Base: base}
	if p.Params().Int("min_cluster_size") < 2 {
		return nil, fmt.Errorf("min_cluster_size=%d: %w", p.Params().Int("min_cluster_size"), ErrBadClusterSize)
	}

	return p, nil
}

// Function maps samples×features data to []int labels; Noise (−1) marks
// samples outside every stable cluster.
func (p *HDBSCAN) Function(data any) (any, error) {
	x, err := embedding.Matrix(data)
	if err != nil {
		return nil, err
	}
	n := x.Rows()
	mcs := p.Params().Int("min_cluster_size")
	minSamples := p.Params().Int("min_samples")
	if minSamples <= 0 {
		minSamples = mcs
	}
	if n < mcs {
		return nil, fmt.Errorf("min_cluster_size=%d for %d samples: %w", mcs, n, ErrTooFewSamples)
	}

	dist := pairwise(x)
	core := coreDistances(dist, n, minSamples)
	edges := reachabilityMST(dist, core, n)

	tree := singleLinkage(edges, n)
	clusters := condense(tree, n, mcs)

	return label(clusters, n), nil
}

// pairwise returns the full n×n Euclidean distance matrix, row-major.
func pairwise(x *matrix.Dense) []float64 {
	n := x.Rows()
	dist := make([]float64, n*n)
	for i := 0; i < n; i++ {
		xi := x.Row(i)
		for j := i + 1; j < n; j++ {
			d := math.Sqrt(sqDist(xi, x.Row(j)))
			dist[i*n+j] = d
			dist[j*n+i] = d
		}
	}

	return dist
}

// coreDistances returns, per sample, the distance to its minSamples-th
// nearest neighbor (the sample itself counts as the first).
func coreDistances(dist []float64, n, minSamples int) []float64 {
	if minSamples > n {
		minSamples = n
	}
	core := make([]float64, n)
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		copy(row, dist[i*n:(i+1)*n])
		sort.Float64s(row)
		core[i] = row[minSamples-1]
	}

	return core
}

// mstEdge is one edge of the mutual-reachability spanning tree.
type mstEdge struct {
	a, b int
	w    float64
}

// reachabilityMST runs Prim over the complete graph of mutual-reachability
// distances max(core_a, core_b, d_ab) and returns its n−1 edges.
func reachabilityMST(dist, core []float64, n int) []mstEdge {
	mutual := func(a, b int) float64 {
		w := dist[a*n+b]
		if core[a] > w {
			w = core[a]
		}
		if core[b] > w {
			w = core[b]
		}

		return w
	}

	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}
	inTree[0] = true
	for j := 1; j < n; j++ {
		best[j] = mutual(0, j)
		from[j] = 0
	}

	edges := make([]mstEdge, 0, n-1)
	for len(edges) < n-1 {
		next, w := -1, math.Inf(1)
		for j := 0; j < n; j++ {
			if !inTree[j] && best[j] < w {
				next, w = j, best[j]
			}
		}
		inTree[next] = true
		edges = append(edges, mstEdge{a: from[next], b: next, w: w})
		for j := 0; j < n; j++ {
			if !inTree[j] {
				if m := mutual(next, j); m < best[j] {
					best[j] = m
					from[j] = next
				}
			}
		}
	}

	return edges
}

// slNode is one merge of the single-linkage dendrogram. Ids < n are leaf
// samples; ids >= n index into the node slice as id−n.
type slNode struct {
	left, right int
	dist        float64
	size        int
}

// singleLinkage folds the sorted spanning-tree edges into a dendrogram via
// union-find; the last node is the root covering all samples.
func singleLinkage(edges []mstEdge, n int) []slNode {
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].w < edges[j].w })

	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(v int) int {
		for parent[v] != v {
			parent[v] = parent[parent[v]]
			v = parent[v]
		}

		return v
	}
	sizeOf := func(nodes []slNode, id int) int {
		if id < n {
			return 1
		}

		return nodes[id-n].size
	}

	nodes := make([]slNode, 0, n-1)
	for _, e := range edges {
		ra, rb := find(e.a), find(e.b)
		id := n + len(nodes)
		nodes = append(nodes, slNode{
			left:  ra,
			right: rb,
			dist:  e.w,
			size:  sizeOf(nodes, ra) + sizeOf(nodes, rb),
		})
		parent[ra] = id
		parent[rb] = id
	}

	return nodes
}

// condCluster is one cluster of the condensed hierarchy.
type condCluster struct {
	parent    int
	children  []int
	points    []int
	stability float64
	selected  bool
}

const densityFloor = 1e-12

// condense walks the dendrogram top-down, shedding sides smaller than
// minClusterSize and recording true splits as child clusters. Stability is
// the excess of mass Σ_p (λ_departure(p) − λ_birth), λ = 1/distance.
func condense(tree []slNode, n, minClusterSize int) []condCluster {
	if len(tree) == 0 {
		return nil
	}
	lambdaOf := func(d float64) float64 {
		if d < densityFloor {
			d = densityFloor
		}

		return 1 / d
	}
	sizeOf := func(id int) int {
		if id < n {
			return 1
		}

		return tree[id-n].size
	}
	var leaves func(id int, out []int) []int
	leaves = func(id int, out []int) []int {
		if id < n {
			return append(out, id)
		}
		out = leaves(tree[id-n].left, out)

		return leaves(tree[id-n].right, out)
	}

	root := n + len(tree) - 1
	clusters := []condCluster{{parent: -1}}

	type frame struct {
		node, cluster int
		birth         float64
	}
	stack := []frame{{node: root, cluster: 0, birth: lambdaOf(tree[root-n].dist)}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, c := f.node, f.cluster
		for {
			v := &tree[node-n]
			lam := lambdaOf(v.dist)
			ls, rs := sizeOf(v.left), sizeOf(v.right)
			switch {
			case ls >= minClusterSize && rs >= minClusterSize:
				// True split: every remaining point departs c here and the
				// sides become child clusters born at this density.
				clusters[c].stability += float64(v.size) * (lam - f.birth)
				for _, side := range []int{v.left, v.right} {
					child := len(clusters)
					clusters = append(clusters, condCluster{parent: c})
					clusters[c].children = append(clusters[c].children, child)
					stack = append(stack, frame{node: side, cluster: child, birth: lam})
				}
			case ls >= minClusterSize || rs >= minClusterSize:
				// One side is too small: its points fall out of c, the chain
				// continues down the big side.
				small, big := v.left, v.right
				if rs < ls {
					small, big = v.right, v.left
				}
				clusters[c].stability += float64(sizeOf(small)) * (lam - f.birth)
				clusters[c].points = leaves(small, clusters[c].points)
				node = big

				continue
			default:
				// Both sides too small: the cluster bottoms out.
				clusters[c].stability += float64(v.size) * (lam - f.birth)
				clusters[c].points = leaves(node, clusters[c].points)
			}

			break
		}
	}

	selectByExcessOfMass(clusters)

	return clusters
}

// selectByExcessOfMass picks the flat clustering: bottom-up, a cluster is
// selected when its own stability beats the sum of its subtree's selection;
// the root never competes, so a single all-covering cluster is not returned.
func selectByExcessOfMass(clusters []condCluster) {
	subtree := make([]float64, len(clusters))
	var unselect func(int)
	unselect = func(c int) {
		for _, child := range clusters[c].children {
			clusters[child].selected = false
			unselect(child)
		}
	}
	// Children always follow their parent in the slice, so reverse order is
	// a valid bottom-up traversal.
	for c := len(clusters) - 1; c >= 0; c-- {
		var childSum float64
		for _, child := range clusters[c].children {
			childSum += subtree[child]
		}
		if len(clusters[c].children) == 0 {
			clusters[c].selected = c != 0
			subtree[c] = clusters[c].stability

			continue
		}
		if c != 0 && clusters[c].stability > childSum {
			clusters[c].selected = true
			unselect(c)
			subtree[c] = clusters[c].stability
		} else {
			subtree[c] = childSum
		}
	}
}

// label assigns sequential ids to selected clusters in slice order (which is
// discovery order) and Noise to everything else. A selected cluster owns its
// own points plus those of all descendants.
func label(clusters []condCluster, n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	var claim func(c, id int)
	claim = func(c, id int) {
		for _, pt := range clusters[c].points {
			labels[pt] = id
		}
		for _, child := range clusters[c].children {
			claim(child, id)
		}
	}
	next := 0
	for c := range clusters {
		if clusters[c].selected {
			claim(c, next)
			next++
		}
	}

	return labels
}

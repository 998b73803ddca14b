package affinity_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spectral/affinity"
	"github.com/katalvlaran/spectral/distance"
	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/pipeline"
)

// lineDistances returns the pairwise Euclidean distances of n points on a
// line at positions 0, 1, ..., n−1.
func lineDistances(t *testing.T, n int) *matrix.Dense {
	t.Helper()
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	samples, err := matrix.NewDenseData(n, 1, data)
	require.NoError(t, err)
	p, err := distance.NewPairwise()
	require.NoError(t, err)
	out, err := p.Function(samples)
	require.NoError(t, err)

	return out.(*matrix.Dense)
}

// TestSparseKNN_RowCounts verifies that before symmetrization every row
// holds exactly min(k, N−1) entries.
func TestSparseKNN_RowCounts(t *testing.T) {
	dist := lineDistances(t, 6)

	knn, err := affinity.NewSparseKNN(
		pipeline.WithParam("n_neighbors", 2),
		pipeline.WithParam("symmetric", false),
	)
	require.NoError(t, err)
	out, err := knn.Function(dist)
	require.NoError(t, err)

	graph := out.(*matrix.CSR)
	for i := 0; i < 6; i++ {
		assert.Equal(t, 2, graph.RowNNZ(i), "row %d", i)
	}
	// No self-loops.
	for i := 0; i < 6; i++ {
		v, atErr := graph.At(i, i)
		require.NoError(t, atErr)
		assert.Zero(t, v)
	}
}

// TestSparseKNN_CapsAtNMinusOne verifies the silent cap for oversized k.
func TestSparseKNN_CapsAtNMinusOne(t *testing.T) {
	dist := lineDistances(t, 4)

	knn, err := affinity.NewSparseKNN(
		pipeline.WithParam("n_neighbors", 100),
		pipeline.WithParam("symmetric", false),
	)
	require.NoError(t, err)
	out, err := knn.Function(dist)
	require.NoError(t, err)

	graph := out.(*matrix.CSR)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 3, graph.RowNNZ(i))
	}
}

// TestSparseKNN_SymmetricOutput verifies A == Aᵀ after (A+Aᵀ)/2 and the half
// weights on one-directional edges.
func TestSparseKNN_SymmetricOutput(t *testing.T) {
	dist := lineDistances(t, 5)

	knn, err := affinity.NewSparseKNN(pipeline.WithParam("n_neighbors", 1))
	require.NoError(t, err)
	out, err := knn.Function(dist)
	require.NoError(t, err)

	graph := out.(*matrix.CSR)
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			vij, _ := graph.At(i, j)
			vji, _ := graph.At(j, i)
			assert.Equal(t, vij, vji, "(%d,%d)", i, j)
		}
	}
	// 0 and 1 pick each other (weight 1), 2 picks 1 but not vice versa (0.5).
	v01, _ := graph.At(0, 1)
	v12, _ := graph.At(1, 2)
	assert.Equal(t, 1.0, v01)
	assert.Equal(t, 0.5, v12)
}

// TestSparseKNN_TiesByIndex verifies the deterministic tie-break: with two
// equidistant neighbors and k=1, the lower index wins.
func TestSparseKNN_TiesByIndex(t *testing.T) {
	// Point 1 sits exactly between 0 and 2.
	samples, err := matrix.NewDenseData(3, 1, []float64{0, 1, 2})
	require.NoError(t, err)
	p, err := distance.NewPairwise()
	require.NoError(t, err)
	d, err := p.Function(samples)
	require.NoError(t, err)

	knn, err := affinity.NewSparseKNN(
		pipeline.WithParam("n_neighbors", 1),
		pipeline.WithParam("symmetric", false),
	)
	require.NoError(t, err)
	out, err := knn.Function(d)
	require.NoError(t, err)

	graph := out.(*matrix.CSR)
	v10, _ := graph.At(1, 0)
	v12, _ := graph.At(1, 2)
	assert.Equal(t, 1.0, v10, "lower index must win the tie")
	assert.Zero(t, v12)
}

// TestSparseKNN_DistanceWeights verifies raw-distance edge weights.
func TestSparseKNN_DistanceWeights(t *testing.T) {
	dist := lineDistances(t, 3)

	knn, err := affinity.NewSparseKNN(
		pipeline.WithParam("n_neighbors", 1),
		pipeline.WithParam("symmetric", false),
		pipeline.WithParam("distance_weights", true),
	)
	require.NoError(t, err)
	out, err := knn.Function(dist)
	require.NoError(t, err)

	graph := out.(*matrix.CSR)
	v01, _ := graph.At(0, 1)
	assert.Equal(t, 1.0, v01, "distance 0→1 is 1")
}

// TestSparseKNN_BadConfig verifies construction-time validation.
func TestSparseKNN_BadConfig(t *testing.T) {
	_, err := affinity.NewSparseKNN(pipeline.WithParam("n_neighbors", 0))
	assert.ErrorIs(t, err, affinity.ErrBadNeighbors)
	assert.ErrorIs(t, err, pipeline.ErrConfiguration)
}

// TestRadialBasis_Values verifies the Gaussian kernel elementwise.
func TestRadialBasis_Values(t *testing.T) {
	dist, err := matrix.NewDenseData(2, 2, []float64{0, 2, 2, 0})
	require.NoError(t, err)

	rbf, err := affinity.NewRadialBasis(pipeline.WithParam("sigma", 1.0))
	require.NoError(t, err)
	out, err := rbf.Function(dist)
	require.NoError(t, err)

	a := out.(*matrix.Dense)
	v00, _ := a.At(0, 0)
	v01, _ := a.At(0, 1)
	assert.Equal(t, 1.0, v00, "zero distance maps to affinity 1")
	assert.InDelta(t, math.Exp(-1), v01, 1e-12)
}

// TestRadialBasis_BadSigma verifies sigma validation at construction.
func TestRadialBasis_BadSigma(t *testing.T) {
	_, err := affinity.NewRadialBasis(pipeline.WithParam("sigma", 0.0))
	assert.ErrorIs(t, err, affinity.ErrBadSigma)
}

package embedding_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spectral/embedding"
	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/pipeline"
)

// diagCSR builds a diagonal CSR with the given entries, a symmetric operator
// with a known spectrum.
func diagCSR(t *testing.T, diag []float64) *matrix.CSR {
	t.Helper()
	entries := make([]matrix.Entry, len(diag))
	for i, v := range diag {
		entries[i] = matrix.Entry{Row: i, Col: i, Val: v}
	}
	m, err := matrix.NewCSR(len(diag), len(diag), entries)
	require.NoError(t, err)

	return m
}

// TestEigenDecomposition_KnownSpectrum verifies the full contract on a
// diagonal operator: eigenvalues reported as 1−λ in non-increasing order,
// unit-norm eigenvector rows.
func TestEigenDecomposition_KnownSpectrum(t *testing.T) {
	op := diagCSR(t, []float64{0.9, 0.5, 0.1})

	eig, err := embedding.NewEigenDecomposition(pipeline.WithParam("n_eigval", 3))
	require.NoError(t, err)
	out, err := eig.Function(op)
	require.NoError(t, err)

	s := out.(*embedding.Spectrum)
	require.Len(t, s.Values, 3)

	// λ ascending {0.1, 0.5, 0.9} → 1−λ = {0.9, 0.5, 0.1}.
	assert.InDelta(t, 0.9, s.Values[0], 1e-8)
	assert.InDelta(t, 0.5, s.Values[1], 1e-8)
	assert.InDelta(t, 0.1, s.Values[2], 1e-8)
	for i := 1; i < len(s.Values); i++ {
		assert.LessOrEqual(t, s.Values[i], s.Values[i-1], "1−λ must be non-increasing")
	}

	require.Equal(t, 3, s.Vectors.Rows())
	require.Equal(t, 3, s.Vectors.Cols())
	for i := 0; i < 3; i++ {
		var norm float64
		for _, v := range s.Vectors.Row(i) {
			norm += v * v
		}
		assert.InDelta(t, 1.0, norm, 1e-8, "row %d must be unit length", i)
	}
}

// TestEigenDecomposition_CapsRank verifies that n_eigval larger than the
// operator silently caps at N.
func TestEigenDecomposition_CapsRank(t *testing.T) {
	op := diagCSR(t, []float64{0.7, 0.3})

	eig, err := embedding.NewEigenDecomposition(pipeline.WithParam("n_eigval", 32))
	require.NoError(t, err)
	out, err := eig.Function(op)
	require.NoError(t, err)

	s := out.(*embedding.Spectrum)
	assert.Len(t, s.Values, 2)
	assert.Equal(t, 2, s.Vectors.Cols())
}

// TestEigenDecomposition_Deterministic verifies seed-stable output.
func TestEigenDecomposition_Deterministic(t *testing.T) {
	op := diagCSR(t, []float64{0.8, 0.6, 0.4, 0.2})

	run := func() *embedding.Spectrum {
		eig, err := embedding.NewEigenDecomposition(
			pipeline.WithParam("n_eigval", 2),
			pipeline.WithParam("seed", 7),
		)
		require.NoError(t, err)
		out, err := eig.Function(op)
		require.NoError(t, err)

		return out.(*embedding.Spectrum)
	}

	a, b := run(), run()
	if diff := cmp.Diff(a.Values, b.Values); diff != "" {
		t.Errorf("values differ between identical runs:\n%s", diff)
	}
	if diff := cmp.Diff(a.Vectors.Data(), b.Vectors.Data()); diff != "" {
		t.Errorf("vectors differ between identical runs:\n%s", diff)
	}
}

// TestEigenDecomposition_RejectsBadInput verifies the input contract.
func TestEigenDecomposition_RejectsBadInput(t *testing.T) {
	eig, err := embedding.NewEigenDecomposition()
	require.NoError(t, err)

	_, err = eig.Function(42)
	assert.ErrorIs(t, err, embedding.ErrBadInput)
	assert.ErrorIs(t, err, pipeline.ErrShape)

	rect, err := matrix.NewDense(2, 3)
	require.NoError(t, err)
	_, err = eig.Function(rect)
	assert.ErrorIs(t, err, embedding.ErrBadInput)
}

// TestMatrix_Coercion verifies the shared input coercion helper.
func TestMatrix_Coercion(t *testing.T) {
	m, err := matrix.NewDenseData(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	got, err := embedding.Matrix(m)
	require.NoError(t, err)
	assert.Same(t, m, got)

	s := &embedding.Spectrum{Vectors: m}
	got, err = embedding.Matrix(s)
	require.NoError(t, err)
	assert.Same(t, m, got, "a Spectrum contributes its eigenvectors")

	_, err = embedding.Matrix("nope")
	assert.ErrorIs(t, err, embedding.ErrBadInput)
}

// TestPCA_RecoversDominantDirection verifies scores on perfectly collinear
// data: points t·(1,2) have variance 5 along (1,2)/√5 and zero across.
func TestPCA_RecoversDominantDirection(t *testing.T) {
	x, err := matrix.NewDenseData(3, 2, []float64{
		-1, -2,
		0, 0,
		1, 2,
	})
	require.NoError(t, err)

	pca, err := embedding.NewPCA(pipeline.WithParam("n_components", 1))
	require.NoError(t, err)
	out, err := pca.Function(x)
	require.NoError(t, err)

	scores := out.(*matrix.Dense)
	require.Equal(t, 3, scores.Rows())
	require.Equal(t, 1, scores.Cols())

	// Sign is arbitrary; compare magnitudes.
	assert.InDelta(t, math.Sqrt(5), math.Abs(scores.Row(0)[0]), 1e-8)
	assert.InDelta(t, 0, scores.Row(1)[0], 1e-8)
	assert.InDelta(t, math.Sqrt(5), math.Abs(scores.Row(2)[0]), 1e-8)
}

// TestTSNE_ShapeAndDeterminism is a smoke test: right shape, finite values,
// identical output for identical seeds.
func TestTSNE_ShapeAndDeterminism(t *testing.T) {
	x := blobs(t)

	run := func() *matrix.Dense {
		tsne, err := embedding.NewTSNE(
			pipeline.WithParam("iterations", 50),
			pipeline.WithParam("perplexity", 3.0),
			pipeline.WithParam("seed", 1),
		)
		require.NoError(t, err)
		out, err := tsne.Function(x)
		require.NoError(t, err)

		return out.(*matrix.Dense)
	}

	a := run()
	require.Equal(t, x.Rows(), a.Rows())
	require.Equal(t, 2, a.Cols())
	for _, v := range a.Data() {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	b := run()
	if diff := cmp.Diff(a.Data(), b.Data()); diff != "" {
		t.Errorf("t-SNE not deterministic for a fixed seed:\n%s", diff)
	}
}

// TestUMAP_ShapeAndDeterminism is the UMAP counterpart of the t-SNE smoke
// test.
func TestUMAP_ShapeAndDeterminism(t *testing.T) {
	x := blobs(t)

	run := func() *matrix.Dense {
		umap, err := embedding.NewUMAP(
			pipeline.WithParam("n_neighbors", 3),
			pipeline.WithParam("epochs", 20),
			pipeline.WithParam("seed", 1),
		)
		require.NoError(t, err)
		out, err := umap.Function(x)
		require.NoError(t, err)

		return out.(*matrix.Dense)
	}

	a := run()
	require.Equal(t, x.Rows(), a.Rows())
	require.Equal(t, 2, a.Cols())
	for _, v := range a.Data() {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	b := run()
	if diff := cmp.Diff(a.Data(), b.Data()); diff != "" {
		t.Errorf("UMAP not deterministic for a fixed seed:\n%s", diff)
	}
}

// blobs returns 10 samples in two well-separated 3-d groups.
func blobs(t *testing.T) *matrix.Dense {
	t.Helper()
	data := []float64{
		0, 0, 0,
		0.1, 0, 0,
		0, 0.1, 0,
		0.1, 0.1, 0,
		0, 0, 0.1,
		10, 10, 10,
		10.1, 10, 10,
		10, 10.1, 10,
		10.1, 10.1, 10,
		10, 10, 10.1,
	}
	m, err := matrix.NewDenseData(10, 3, data)
	require.NoError(t, err)

	return m
}

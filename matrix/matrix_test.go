package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spectral/matrix"
)

const eps = 1e-9

// TestDense_ShapeValidation verifies constructor and accessor bounds.
func TestDense_ShapeValidation(t *testing.T) {
	_, err := matrix.NewDense(0, 3)
	assert.ErrorIs(t, err, matrix.ErrBadShape)

	_, err = matrix.NewDenseData(2, 2, []float64{1, 2, 3})
	assert.ErrorIs(t, err, matrix.ErrBadShape)

	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)
	_, err = m.At(2, 0)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
}

// TestDense_MulDense checks a hand-computed 2×3 · 3×2 product.
func TestDense_MulDense(t *testing.T) {
	a, err := matrix.NewDenseData(2, 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	b, err := matrix.NewDenseData(3, 2, []float64{7, 8, 9, 10, 11, 12})
	require.NoError(t, err)

	c, err := a.MulDense(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data())

	_, err = b.MulDense(b)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

// TestDense_NormalizeRows verifies L2 row normalization with the zero-row
// guard.
func TestDense_NormalizeRows(t *testing.T) {
	m, err := matrix.NewDenseData(3, 2, []float64{3, 4, 0, 0, 0, 2})
	require.NoError(t, err)
	m.NormalizeRows()

	assert.InDelta(t, 0.6, m.Row(0)[0], eps)
	assert.InDelta(t, 0.8, m.Row(0)[1], eps)
	assert.Equal(t, []float64{0, 0}, m.Row(1), "zero rows stay zero")
	assert.InDelta(t, 1.0, m.Row(2)[1], eps)
}

// TestCSR_TripletsAndDuplicates verifies CSR assembly: sorted storage,
// duplicate summation and the At lookup.
func TestCSR_TripletsAndDuplicates(t *testing.T) {
	entries := []matrix.Entry{
		{Row: 1, Col: 0, Val: 2},
		{Row: 0, Col: 1, Val: 3},
		{Row: 1, Col: 0, Val: 5}, // duplicate of (1,0)
		{Row: 2, Col: 2, Val: 1},
	}
	s, err := matrix.NewCSR(3, 3, entries)
	require.NoError(t, err)

	assert.Equal(t, 3, s.NNZ())
	assert.Equal(t, 7.0, csrAt(t, s, 1, 0), "duplicates must sum")
	assert.Equal(t, 3.0, csrAt(t, s, 0, 1))
	assert.Equal(t, 0.0, csrAt(t, s, 0, 0))
	assert.Equal(t, 1, s.RowNNZ(2))
}

// TestCSR_SymmetrizeMean verifies (A+Aᵀ)/2 on an asymmetric sparse matrix.
func TestCSR_SymmetrizeMean(t *testing.T) {
	s, err := matrix.NewCSR(2, 2, []matrix.Entry{{Row: 0, Col: 1, Val: 4}})
	require.NoError(t, err)

	sym, err := s.SymmetrizeMean()
	require.NoError(t, err)
	assert.Equal(t, 2.0, csrAt(t, sym, 0, 1))
	assert.Equal(t, 2.0, csrAt(t, sym, 1, 0))
}

// TestCSR_ScaleRowsCols verifies diagonal scaling L·A·R, the Laplacian
// normalization kernel.
func TestCSR_ScaleRowsCols(t *testing.T) {
	s, err := matrix.NewCSR(2, 2, []matrix.Entry{
		{Row: 0, Col: 1, Val: 8},
		{Row: 1, Col: 0, Val: 8},
	})
	require.NoError(t, err)

	scaled, err := s.ScaleRowsCols([]float64{0.5, 0.25}, []float64{0.5, 0.25})
	require.NoError(t, err)
	assert.Equal(t, 1.0, csrAt(t, scaled, 0, 1), "0.5·8·0.25")
	assert.Equal(t, 1.0, csrAt(t, scaled, 1, 0), "0.25·8·0.5")
}

// TestCSR_MulDenseMatchesDense verifies the sparse product against the dense
// path on the same data.
func TestCSR_MulDenseMatchesDense(t *testing.T) {
	entries := []matrix.Entry{
		{Row: 0, Col: 0, Val: 1}, {Row: 0, Col: 2, Val: 2},
		{Row: 1, Col: 1, Val: 3},
		{Row: 2, Col: 0, Val: 4}, {Row: 2, Col: 2, Val: 5},
	}
	s, err := matrix.NewCSR(3, 3, entries)
	require.NoError(t, err)
	x, err := matrix.NewDenseData(3, 2, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	got, err := s.MulDense(x)
	require.NoError(t, err)
	want, err := s.ToDense().MulDense(x)
	require.NoError(t, err)
	for i, v := range want.Data() {
		assert.InDelta(t, v, got.Data()[i], eps)
	}
}

// TestEigen_Known3x3 decomposes a symmetric matrix with known spectrum:
// diag(1,2,3) rotated is overkill, so a plain tridiagonal is used. The
// eigenvalues of [[2,1,0],[1,2,1],[0,1,2]] are 2−√2, 2, 2+√2.
func TestEigen_Known3x3(t *testing.T) {
	m, err := matrix.NewDenseData(3, 3, []float64{2, 1, 0, 1, 2, 1, 0, 1, 2})
	require.NoError(t, err)

	values, vectors, err := matrix.Eigen(m, 1e-12, 100)
	require.NoError(t, err)
	require.Len(t, values, 3)

	want := []float64{2 - math.Sqrt2, 2, 2 + math.Sqrt2}
	got := append([]float64(nil), values...)
	// Jacobi returns no particular order; compare as sorted sets.
	sortFloats(got)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9)
	}

	// Residual check: M·v == λ·v for each pair.
	for j := 0; j < 3; j++ {
		v := column(vectors, j)
		mv, mulErr := m.MulVec(v)
		require.NoError(t, mulErr)
		for i := range mv {
			assert.InDelta(t, values[j]*v[i], mv[i], 1e-8)
		}
	}
}

// TestEigen_RejectsAsymmetric verifies the symmetry precondition.
func TestEigen_RejectsAsymmetric(t *testing.T) {
	m, err := matrix.NewDenseData(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	_, _, err = matrix.Eigen(m, 1e-12, 100)
	assert.ErrorIs(t, err, matrix.ErrNotSymmetric)
}

// TestQRThin_Orthonormal verifies QᵀQ = I and A = Q·R on a tall panel.
func TestQRThin_Orthonormal(t *testing.T) {
	a, err := matrix.NewDenseData(4, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
		7, 9,
	})
	require.NoError(t, err)

	q, r, err := matrix.QRThin(a)
	require.NoError(t, err)

	qtq, err := q.Transpose().MulDense(q)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			v, _ := qtq.At(i, j)
			assert.InDelta(t, want, v, 1e-9)
		}
	}

	qr, err := q.MulDense(r)
	require.NoError(t, err)
	for i, v := range a.Data() {
		assert.InDelta(t, v, qr.Data()[i], 1e-9)
	}
}

func csrAt(t *testing.T, m *matrix.CSR, r, c int) float64 {
	t.Helper()
	v, err := m.At(r, c)
	require.NoError(t, err)

	return v
}

func sortFloats(v []float64) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
}

func column(m *matrix.Dense, j int) []float64 {
	out := make([]float64, m.Rows())
	for i := range out {
		v, _ := m.At(i, j)
		out[i] = v
	}

	return out
}

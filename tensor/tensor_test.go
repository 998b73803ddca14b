package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spectral/tensor"
)

// TestFromData_ShapeChecks verifies construction errors.
func TestFromData_ShapeChecks(t *testing.T) {
	_, err := tensor.FromData([]float64{1, 2, 3}, 2, 2)
	assert.ErrorIs(t, err, tensor.ErrBadShape)

	_, err = tensor.New(2, 0)
	assert.ErrorIs(t, err, tensor.ErrBadShape)
}

// TestSumAxis verifies the channel-sum reduction on a (2, 2, 3) batch.
func TestSumAxis(t *testing.T) {
	a, err := tensor.FromData([]float64{
		// sample 0, channels 0 and 1
		1, 2, 3,
		4, 5, 6,
		// sample 1
		10, 20, 30,
		40, 50, 60,
	}, 2, 2, 3)
	require.NoError(t, err)

	out, err := a.SumAxis(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, out.Shape())
	assert.Equal(t, []float64{5, 7, 9, 50, 70, 90}, out.Data())

	_, err = a.SumAxis(3)
	assert.ErrorIs(t, err, tensor.ErrBadAxis)
}

// TestAbs verifies the elementwise absolute value and that the source array
// is untouched.
func TestAbs(t *testing.T) {
	a, err := tensor.FromData([]float64{-1, 2, -3, 4}, 2, 2)
	require.NoError(t, err)

	out := a.Abs()
	assert.Equal(t, []float64{1, 2, 3, 4}, out.Data())
	assert.Equal(t, []float64{-1, 2, -3, 4}, a.Data())
}

// TestNormalize verifies per-sample normalization: each sample's values sum
// to one after dividing by the axis-1 group sum; zero groups pass through.
func TestNormalize(t *testing.T) {
	a, err := tensor.FromData([]float64{
		1, 3, // sample 0, sum 4
		0, 0, // sample 1, sum 0 (guarded)
	}, 2, 2)
	require.NoError(t, err)

	out, err := a.Normalize(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75, 0, 0}, out.Data())

	_, err = a.Normalize(5)
	assert.ErrorIs(t, err, tensor.ErrBadAxis)
}

// TestReshapeAndMatrix verifies the flatten path to a dense matrix.
func TestReshapeAndMatrix(t *testing.T) {
	a, err := tensor.FromData([]float64{1, 2, 3, 4, 5, 6}, 1, 2, 3)
	require.NoError(t, err)

	b, err := a.Reshape(2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, b.Shape())

	_, err = a.Reshape(4, 2)
	assert.ErrorIs(t, err, tensor.ErrBadShape)

	m, err := a.Matrix()
	require.NoError(t, err)
	assert.Equal(t, 1, m.Rows())
	assert.Equal(t, 6, m.Cols())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, m.Data())
}

// TestHistogram verifies bin counts and density normalization on a
// (1, 1, 4) cell with range [0, 4] and two bins: 3 values low, 1 high.
func TestHistogram(t *testing.T) {
	a, err := tensor.FromData([]float64{0, 1, 1, 4}, 1, 1, 4)
	require.NoError(t, err)

	h, err := a.Histogram(2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, h.Shape())

	// width = 2; densities: (3/4)/2 and (1/4)/2.
	assert.InDelta(t, 0.375, h.Data()[0], 1e-12)
	assert.InDelta(t, 0.125, h.Data()[1], 1e-12)

	_, err = a.Histogram(0)
	assert.ErrorIs(t, err, tensor.ErrBadShape)
}

package preprocess_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/pipeline"
	"github.com/katalvlaran/spectral/preprocess"
	"github.com/katalvlaran/spectral/tensor"
)

// batch is a (2 samples, 2 channels, 2 values) attribution batch.
func batch(t *testing.T) *tensor.Array {
	t.Helper()
	a, err := tensor.FromData([]float64{
		1, -1,
		2, -2,

		3, -3,
		4, -4,
	}, 2, 2, 2)
	require.NoError(t, err)

	return a
}

// TestFlatten verifies the tensor-to-matrix transition.
func TestFlatten(t *testing.T) {
	p, err := preprocess.NewFlatten()
	require.NoError(t, err)

	out, err := p.Function(batch(t))
	require.NoError(t, err)

	m := out.(*matrix.Dense)
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 4, m.Cols())
	assert.Equal(t, []float64{1, -1, 2, -2}, m.Row(0))
}

// TestAbsolute verifies elementwise |x| and input purity.
func TestAbsolute(t *testing.T) {
	p, err := preprocess.NewAbsolute()
	require.NoError(t, err)

	in := batch(t)
	out, err := p.Function(in)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 1, 2, 2, 3, 3, 4, 4}, out.(*tensor.Array).Data())
	assert.Equal(t, -1.0, in.Data()[1], "input must stay untouched")
}

// TestSumChannel verifies the default axis-1 reduction.
func TestSumChannel(t *testing.T) {
	p, err := preprocess.NewSumChannel()
	require.NoError(t, err)

	out, err := p.Function(batch(t))
	require.NoError(t, err)

	a := out.(*tensor.Array)
	assert.Equal(t, []int{2, 2}, a.Shape())
	assert.Equal(t, []float64{3, -3, 7, -7}, a.Data())
}

// TestNormalize verifies per-group normalization over configurable axes.
func TestNormalize(t *testing.T) {
	p, err := preprocess.NewNormalize(pipeline.WithParam("axes", []int{1, 2}))
	require.NoError(t, err)

	a, err := tensor.FromData([]float64{
		1, 1,
		1, 1, // sample 0 sums to 4

		2, 2,
		2, 2, // sample 1 sums to 8
	}, 2, 2, 2)
	require.NoError(t, err)

	out, err := p.Function(a)
	require.NoError(t, err)
	got := out.(*tensor.Array).Data()
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 0.25, got[i], 1e-12)
		assert.InDelta(t, 0.25, got[4+i], 1e-12)
	}
}

// TestHistogram verifies the (samples, channels, bins) reduction shape.
func TestHistogram(t *testing.T) {
	p, err := preprocess.NewHistogram(pipeline.WithParam("bins", 4))
	require.NoError(t, err)

	out, err := p.Function(batch(t))
	require.NoError(t, err)

	a := out.(*tensor.Array)
	assert.Equal(t, []int{2, 2, 4}, a.Shape())
}

// TestRejectsBadInput verifies the shared input guard on every processor.
func TestRejectsBadInput(t *testing.T) {
	flatten, err := preprocess.NewFlatten()
	require.NoError(t, err)
	_, err = flatten.Function(42)
	assert.ErrorIs(t, err, preprocess.ErrBadInput)
	assert.ErrorIs(t, err, pipeline.ErrShape)

	abs, err := preprocess.NewAbsolute()
	require.NoError(t, err)
	_, err = abs.Function("nope")
	assert.ErrorIs(t, err, preprocess.ErrBadInput)
}

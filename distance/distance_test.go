package distance_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spectral/distance"
	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/pipeline"
)

// pairwise runs a Pairwise processor with the given metric over samples.
func pairwise(t *testing.T, metric string, samples *matrix.Dense) *matrix.Dense {
	t.Helper()
	p, err := distance.NewPairwise(pipeline.WithParam("metric", metric))
	require.NoError(t, err)
	out, err := p.Function(samples)
	require.NoError(t, err)

	return out.(*matrix.Dense)
}

// TestPairwise_SymmetryAndDiagonal verifies the two hard guarantees for
// every supported metric: exact symmetry and a zero diagonal.
func TestPairwise_SymmetryAndDiagonal(t *testing.T) {
	samples, err := matrix.NewDenseData(4, 3, []float64{
		1, 0, 2,
		-1, 3, 0.5,
		2, 2, 2,
		0, 0, 0,
	})
	require.NoError(t, err)

	for _, metric := range distance.Metrics() {
		t.Run(metric, func(t *testing.T) {
			d := pairwise(t, metric, samples)
			require.Equal(t, 4, d.Rows())
			require.Equal(t, 4, d.Cols())
			for i := 0; i < 4; i++ {
				vii, _ := d.At(i, i)
				assert.Zero(t, vii, "diagonal must be exactly zero")
				for j := i + 1; j < 4; j++ {
					vij, _ := d.At(i, j)
					vji, _ := d.At(j, i)
					assert.Equal(t, vij, vji, "mirrored cells must be identical")
				}
			}
		})
	}
}

// TestPairwise_KnownValues checks each metric on the pair (0,0) / (3,4).
func TestPairwise_KnownValues(t *testing.T) {
	samples, err := matrix.NewDenseData(2, 2, []float64{0, 0, 3, 4})
	require.NoError(t, err)

	cases := map[string]float64{
		distance.Euclidean:   5,
		distance.SqEuclidean: 25,
		distance.Manhattan:   7,
		distance.Chebyshev:   4,
		distance.Cosine:      1, // zero vector convention
	}
	for metric, want := range cases {
		t.Run(metric, func(t *testing.T) {
			d := pairwise(t, metric, samples)
			v, _ := d.At(0, 1)
			assert.InDelta(t, want, v, 1e-12)
		})
	}
}

// TestPairwise_CosineOrthogonal verifies 1−cos on perpendicular and parallel
// vectors.
func TestPairwise_CosineOrthogonal(t *testing.T) {
	samples, err := matrix.NewDenseData(3, 2, []float64{1, 0, 0, 2, 3, 0})
	require.NoError(t, err)
	d := pairwise(t, distance.Cosine, samples)

	v01, _ := d.At(0, 1)
	v02, _ := d.At(0, 2)
	assert.InDelta(t, 1.0, v01, 1e-12, "orthogonal vectors")
	assert.InDelta(t, 0.0, v02, 1e-12, "parallel vectors")
	assert.False(t, math.IsNaN(v01))
}

// TestPairwise_UnknownMetric verifies that metric resolution happens at
// construction time with the configuration error class.
func TestPairwise_UnknownMetric(t *testing.T) {
	p, err := distance.NewPairwise(pipeline.WithParam("metric", "minkowski"))
	assert.ErrorIs(t, err, distance.ErrUnknownMetric)
	assert.ErrorIs(t, err, pipeline.ErrConfiguration)
	assert.Nil(t, p)
}

// TestPairwise_RejectsNonMatrix verifies the input shape contract.
func TestPairwise_RejectsNonMatrix(t *testing.T) {
	p, err := distance.NewPairwise()
	require.NoError(t, err)

	_, err = p.Function([]float64{1, 2, 3})
	assert.ErrorIs(t, err, distance.ErrBadInput)
	assert.ErrorIs(t, err, pipeline.ErrShape)
}

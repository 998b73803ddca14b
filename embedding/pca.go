package embedding

import (
	"fmt"
	"math"

	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
)

var pcaRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "n_components", Types: param.Types(param.Int), Default: 2},
	param.Spec{Name: "whiten", Types: param.Types(param.Bool), Default: false},
)

// PCA projects samples onto their top principal components. The covariance
// matrix is eigendecomposed with Jacobi rotations, so the cost is O(d³) in
// the feature count, fine for spectral embeddings, wrong tool for raw
// pixel data.
type PCA struct {
	pipeline.Base
}

func (*PCA) embeds() {}

// NewPCA constructs the processor. Parameters: n_components (int, 2),
// whiten (bool, false).
func NewPCA(opts ...pipeline.Option) (*PCA, error) {
	base, err := pipeline.NewBase("embedding.PCA", pcaRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &PCA{Base: base}
	if p.Params().Int("n_components") < 1 {
		return nil, fmt.Errorf("n_components=%d: %w", p.Params().Int("n_components"), ErrBadRank)
	}

	return p, nil
}

// Function maps samples×features data to samples×n_components scores.
func (p *PCA) Function(data any) (any, error) {
	x, err := Matrix(data)
	if err != nil {
		return nil, err
	}
	n, d := x.Rows(), x.Cols()
	k := p.Params().Int("n_components")
	if k > d {
		k = d
	}

	// Center the columns.
	centered := x.Clone()
	means := make([]float64, d)
	for i := 0; i < n; i++ {
		row := centered.Row(i)
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}
	for i := 0; i < n; i++ {
		row := centered.Row(i)
		for j := range row {
			row[j] -= means[j]
		}
	}

	// Covariance (d×d) and its eigenpairs, largest variance first.
	cov, err := centered.Transpose().MulDense(centered)
	if err != nil {
		return nil, err
	}
	denom := float64(n - 1)
	if n == 1 {
		denom = 1
	}
	cov.Scale(1 / denom)
	values, vectors, err := matrix.Eigen(cov, 1e-12, 200)
	if err != nil {
		return nil, fmt.Errorf("covariance: %v: %w", err, pipeline.ErrNumerical)
	}
	sortEigenpairs(values, vectors)
	// sortEigenpairs is ascending; principal components read from the back.

	out, _ := matrix.NewDense(n, k)
	whiten := p.Params().Bool("whiten")
	for i := 0; i < n; i++ {
		row := centered.Row(i)
		orow := out.Row(i)
		for c := 0; c < k; c++ {
			col := len(values) - 1 - c
			var score float64
			for j := 0; j < d; j++ {
				v, _ := vectors.At(j, col)
				score += row[j] * v
			}
			if whiten && values[col] > 0 {
				score /= math.Sqrt(values[col])
			}
			orow[c] = score
		}
	}

	return out, nil
}

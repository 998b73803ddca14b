package embedding

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
)

var (
	// ErrBadInput is returned when a stage input is neither a dense matrix,
	// a CSR matrix (eigendecomposition only) nor a *Spectrum.
	ErrBadInput = fmt.Errorf("embedding: unsupported input type: %w", pipeline.ErrShape)

	// ErrNoConvergence is returned when the iterative eigensolver exhausts
	// its iteration budget.
	ErrNoConvergence = fmt.Errorf("embedding: eigensolver did not converge: %w", pipeline.ErrNumerical)

	// ErrBadRank is returned at construction for non-positive component or
	// eigenvalue counts.
	ErrBadRank = fmt.Errorf("embedding: component count must be >= 1: %w", pipeline.ErrConfiguration)
)

// Spectrum is the result of the spectral embedding: eigenvalues reported as
// 1−λ (non-increasing) and the N×k eigenvector matrix whose rows are
// samples. It is the only artifact exported to external storage besides
// cluster labels.
type Spectrum struct {
	Values  []float64
	Vectors *matrix.Dense
}

// Matrix coerces a stage input into sample rows: a *Spectrum contributes its
// eigenvectors, a *matrix.Dense passes through. Shared by the clustering
// and non-linear embedding processors, which consume the embedding stage's
// output directly.
func Matrix(data any) (*matrix.Dense, error) {
	switch d := data.(type) {
	case *Spectrum:
		return d.Vectors, nil
	case *matrix.Dense:
		return d, nil
	default:
		return nil, fmt.Errorf("got %T: %w", data, ErrBadInput)
	}
}

var eigenRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "n_eigval", Types: param.Types(param.Int), Default: 32},
	param.Spec{Name: "normalize", Types: param.Types(param.Bool), Default: true},
	param.Spec{Name: "seed", Types: param.Types(param.Int), Default: 0},
	param.Spec{Name: "max_iter", Types: param.Types(param.Int), Default: 1000},
	param.Spec{Name: "tol", Types: param.Types(param.Float), Default: 1e-10},
)

// Embedder is the node kind of an embedding stage (see pipeline.Task);
// every embedding processor in this package implements it.
type Embedder interface {
	pipeline.Processor
	embeds()
}

// EigenDecomposition computes the k largest-magnitude eigenpairs of a
// (sparse or dense) graph Laplacian and packages them as a *Spectrum.
type EigenDecomposition struct {
	pipeline.Base
}

func (*EigenDecomposition) embeds() {}

// NewEigenDecomposition constructs the processor. Parameters: n_eigval
// (int, 32), normalize (bool, true), seed (int, 0), max_iter (int, 1000),
// tol (float64, 1e-10).
func NewEigenDecomposition(opts ...pipeline.Option) (*EigenDecomposition, error) {
	base, err := pipeline.NewBase("embedding.EigenDecomposition", eigenRegistry, opts...)
	if err != nil {
		return nil, err
	}
	p := &EigenDecomposition{Base: base}
	if p.Params().Int("n_eigval") < 1 {
		return nil, fmt.Errorf("n_eigval=%d: %w", p.Params().Int("n_eigval"), ErrBadRank)
	}

	return p, nil
}

// Function maps a Laplacian to its spectral embedding. The eigenvalue of
// L is reported as 1−λ; with eigenvalues sorted ascending by λ (the
// largest-magnitude set), the reported sequence is non-increasing. Rows of
// the eigenvector matrix are L2-normalized unless normalize=false; zero
// rows (isolated samples) are left at zero.
func (p *EigenDecomposition) Function(data any) (any, error) {
	op, ok := data.(matrix.Operator)
	if !ok {
		return nil, fmt.Errorf("got %T: %w", data, ErrBadInput)
	}
	if op.Rows() != op.Cols() {
		return nil, fmt.Errorf("%dx%d Laplacian: %w", op.Rows(), op.Cols(), ErrBadInput)
	}
	k := p.Params().Int("n_eigval")
	if n := op.Rows(); k > n {
		k = n
	}
	values, vectors, err := eigsh(
		op,
		k,
		int64(p.Params().Int("seed")),
		p.Params().Int("max_iter"),
		p.Params().Float("tol"),
	)
	if err != nil {
		return nil, err
	}
	for i := range values {
		values[i] = 1 - values[i]
	}
	if p.Params().Bool("normalize") {
		vectors.NormalizeRows()
	}

	return &Spectrum{Values: values, Vectors: vectors}, nil
}

// eigsh approximates the k largest-magnitude eigenpairs of a symmetric
// operator by subspace iteration:
//
//	X ← seeded random n×k panel, orthonormalized
//	repeat: X ← orth(op·X) until the Ritz values settle within tol
//	Rayleigh–Ritz: T = Xᵀ(op·X), eigendecompose T (Jacobi), rotate X
//
// Eigenvalues are returned in ascending algebraic order, eigenvector
// columns aligned, matching the reference solver's contract.
func eigsh(op matrix.Operator, k int, seed int64, maxIter int, tol float64) ([]float64, *matrix.Dense, error) {
	n := op.Rows()
	rng := rand.New(rand.NewSource(seed))
	x, err := matrix.NewDense(n, k)
	if err != nil {
		return nil, nil, err
	}
	raw := x.Data()
	for i := range raw {
		raw[i] = rng.NormFloat64()
	}
	if x, _, err = matrix.QRThin(x); err != nil {
		return nil, nil, err
	}

	prev := make([]float64, k)
	for i := range prev {
		prev[i] = math.Inf(1)
	}
	for iter := 0; iter < maxIter; iter++ {
		y, mulErr := op.MulDense(x)
		if mulErr != nil {
			return nil, nil, mulErr
		}
		q, _, qrErr := matrix.QRThin(y)
		if qrErr != nil {
			return nil, nil, qrErr
		}
		x = q

		theta, _, ritzErr := rayleighRitz(op, x)
		if ritzErr != nil {
			return nil, nil, ritzErr
		}
		var drift float64
		for i := range theta {
			drift = math.Max(drift, math.Abs(theta[i]-prev[i]))
		}
		copy(prev, theta)
		if drift <= tol {
			return finishRitz(op, x)
		}
	}

	return nil, nil, fmt.Errorf("after %d iterations: %w", maxIter, ErrNoConvergence)
}

// rayleighRitz projects op onto the panel x and eigendecomposes the small
// k×k image with Jacobi rotations. Returns ascending Ritz values and the
// rotation matrix.
func rayleighRitz(op matrix.Operator, x *matrix.Dense) ([]float64, *matrix.Dense, error) {
	lx, err := op.MulDense(x)
	if err != nil {
		return nil, nil, err
	}
	t, err := x.Transpose().MulDense(lx)
	if err != nil {
		return nil, nil, err
	}
	// Numerical noise breaks exact symmetry; restore it before Jacobi.
	t, err = t.SymmetrizeMean()
	if err != nil {
		return nil, nil, err
	}
	values, rotation, err := matrix.Eigen(t, 1e-12, 100)
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, ErrNoConvergence)
	}
	sortEigenpairs(values, rotation)

	return values, rotation, nil
}

// finishRitz produces the final (values, vectors) pair: vectors = X·S with S
// the Ritz rotation, columns aligned with ascending eigenvalues.
func finishRitz(op matrix.Operator, x *matrix.Dense) ([]float64, *matrix.Dense, error) {
	values, rotation, err := rayleighRitz(op, x)
	if err != nil {
		return nil, nil, err
	}
	vectors, err := x.MulDense(rotation)
	if err != nil {
		return nil, nil, err
	}

	return values, vectors, nil
}

// sortEigenpairs orders values ascending, permuting rotation's columns in
// lockstep. Insertion sort: k is small and the permutation must be stable.
func sortEigenpairs(values []float64, rotation *matrix.Dense) {
	k := len(values)
	for i := 1; i < k; i++ {
		for j := i; j > 0 && values[j-1] > values[j]; j-- {
			values[j-1], values[j] = values[j], values[j-1]
			swapColumns(rotation, j-1, j)
		}
	}
}

func swapColumns(m *matrix.Dense, a, b int) {
	for r := 0; r < m.Rows(); r++ {
		row := m.Row(r)
		row[a], row[b] = row[b], row[a]
	}
}

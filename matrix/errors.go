// Package matrix: sentinel error set. Algorithms MUST return these
// sentinels (optionally wrapped with fmt.Errorf("ctx: %w", …)) and tests
// MUST check them via errors.Is. Panics are reserved for programmer errors
// in private helpers.

package matrix

import "errors"

var (
	// ErrBadShape is returned when a requested shape is invalid (r<=0 or
	// c<=0) or when raw data length disagrees with the shape.
	ErrBadShape = errors.New("matrix: invalid shape")

	// ErrOutOfRange indicates a row or column index outside valid bounds.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between
	// operands, e.g. Mul where a.Cols != b.Rows.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrNotSymmetric signals that a symmetric matrix was required and the
	// input violated symmetry beyond the configured tolerance.
	ErrNotSymmetric = errors.New("matrix: matrix is not symmetric")

	// ErrNaNInf signals a NaN or ±Inf where finite values are required.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrEigenFailed indicates an eigendecomposition that did not converge
	// within the configured tolerance and iteration budget.
	ErrEigenFailed = errors.New("matrix: eigen decomposition did not converge")
)

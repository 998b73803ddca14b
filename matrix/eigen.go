package matrix

import (
	"fmt"
	"math"
)

// Eigen computes all eigenvalues and eigenvectors of a real symmetric matrix
// using cyclic Jacobi rotations. It returns the eigenvalues and a matrix
// whose columns are the corresponding eigenvectors, in the order the
// diagonal settles (callers sort as needed).
//
// tol is the convergence threshold on the largest off-diagonal magnitude;
// maxSweeps caps the number of full sweeps.
//
// Errors: ErrNonSquare, ErrNotSymmetric, ErrNaNInf, ErrEigenFailed.
// Complexity: O(n³) per sweep; Memory: O(n²).
func Eigen(m *Dense, tol float64, maxSweeps int) ([]float64, *Dense, error) {
	n := m.Rows()
	if n != m.Cols() {
		return nil, nil, fmt.Errorf("Eigen %dx%d: %w", m.Rows(), m.Cols(), ErrNonSquare)
	}
	if err := m.CheckFinite(); err != nil {
		return nil, nil, fmt.Errorf("Eigen: %w", err)
	}
	if !m.IsSymmetric(tol) {
		return nil, nil, fmt.Errorf("Eigen: %w", ErrNotSymmetric)
	}

	a := m.Clone()
	q, _ := NewDense(n, n)
	for i := 0; i < n; i++ {
		_ = q.Set(i, i, 1)
	}

	for sweep := 0; sweep < maxSweeps; sweep++ {
		// Largest off-diagonal magnitude decides convergence.
		var maxOff float64
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if off := math.Abs(a.data[i*n+j]); off > maxOff {
					maxOff = off
				}
			}
		}
		if maxOff <= tol {
			values := make([]float64, n)
			for i := 0; i < n; i++ {
				values[i] = a.data[i*n+i]
			}

			return values, q, nil
		}

		// One full cyclic sweep, rotating every (p, q) pair in fixed order.
		for p := 0; p < n-1; p++ {
			for r := p + 1; r < n; r++ {
				apr := a.data[p*n+r]
				if math.Abs(apr) <= tol/float64(n) {
					continue
				}
				app := a.data[p*n+p]
				arr := a.data[r*n+r]
				theta := (arr - app) / (2 * apr)
				t := math.Copysign(1/(math.Abs(theta)+math.Sqrt(theta*theta+1)), theta)
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				rotate(a, p, r, c, s)
				rotateColumns(q, p, r, c, s)
			}
		}
	}

	return nil, nil, fmt.Errorf("Eigen: tol=%g after %d sweeps: %w", tol, maxSweeps, ErrEigenFailed)
}

// rotate applies the two-sided Jacobi rotation J(p,r,θ)ᵀ·A·J(p,r,θ) in place.
func rotate(a *Dense, p, r int, c, s float64) {
	n := a.rows
	app := a.data[p*n+p]
	arr := a.data[r*n+r]
	apr := a.data[p*n+r]
	for i := 0; i < n; i++ {
		if i == p || i == r {
			continue
		}
		aip := a.data[i*n+p]
		air := a.data[i*n+r]
		a.data[i*n+p] = c*aip - s*air
		a.data[p*n+i] = a.data[i*n+p]
		a.data[i*n+r] = s*aip + c*air
		a.data[r*n+i] = a.data[i*n+r]
	}
	a.data[p*n+p] = c*c*app - 2*c*s*apr + s*s*arr
	a.data[r*n+r] = s*s*app + 2*c*s*apr + c*c*arr
	a.data[p*n+r] = 0
	a.data[r*n+p] = 0
}

// rotateColumns accumulates the rotation into the eigenvector matrix.
func rotateColumns(q *Dense, p, r int, c, s float64) {
	n := q.rows
	for i := 0; i < n; i++ {
		qip := q.data[i*n+p]
		qir := q.data[i*n+r]
		q.data[i*n+p] = c*qip - s*qir
		q.data[i*n+r] = s*qip + c*qir
	}
}

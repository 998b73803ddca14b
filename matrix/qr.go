package matrix

import (
	"fmt"
	"math"
)

// qrDegenerateTol treats a column whose residual norm falls below this
// threshold as linearly dependent; its Q column is zeroed and R's diagonal
// entry set to 0. Subspace iteration re-seeds such columns itself.
const qrDegenerateTol = 1e-12

// QRThin computes the thin QR factorization of an n×k panel (n ≥ k) via
// modified Gram–Schmidt: a = q·r with q n×k column-orthonormal and r k×k
// upper triangular.
//
// Complexity: O(n·k²); deterministic column order.
func QRThin(a *Dense) (q, r *Dense, err error) {
	n, k := a.Rows(), a.Cols()
	if n < k {
		return nil, nil, fmt.Errorf("QRThin %dx%d: need rows >= cols: %w", n, k, ErrBadShape)
	}
	q = a.Clone()
	r, _ = NewDense(k, k)

	for j := 0; j < k; j++ {
		// Re-orthogonalize column j against the settled columns.
		for i := 0; i < j; i++ {
			var dot float64
			for t := 0; t < n; t++ {
				dot += q.data[t*k+i] * q.data[t*k+j]
			}
			r.data[i*k+j] = dot
			for t := 0; t < n; t++ {
				q.data[t*k+j] -= dot * q.data[t*k+i]
			}
		}
		var norm float64
		for t := 0; t < n; t++ {
			norm += q.data[t*k+j] * q.data[t*k+j]
		}
		norm = math.Sqrt(norm)
		if norm < qrDegenerateTol {
			// Dependent column: leave it zero rather than dividing by ~0.
			r.data[j*k+j] = 0
			for t := 0; t < n; t++ {
				q.data[t*k+j] = 0
			}

			continue
		}
		r.data[j*k+j] = norm
		inv := 1 / norm
		for t := 0; t < n; t++ {
			q.data[t*k+j] *= inv
		}
	}

	return q, r, nil
}

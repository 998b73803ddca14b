package matrix

import (
	"fmt"
	"math"
)

// Operator is the read-only contract the eigensolver needs: shape plus a
// matrix-times-dense product. Both *Dense and *CSR satisfy it.
type Operator interface {
	Rows() int
	Cols() int
	MulDense(x *Dense) (*Dense, error)
}

// Dense is a row-major dense matrix over float64. The zero value is invalid;
// construct through NewDense or NewDenseData.
type Dense struct {
	rows, cols int
	data       []float64
}

// NewDense returns a zero-initialized rows×cols matrix.
// Complexity: O(rows·cols) zero-init.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("NewDense %dx%d: %w", rows, cols, ErrBadShape)
	}

	return &Dense{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// NewDenseData wraps row-major data as a rows×cols matrix without copying.
// The caller must not alias data afterwards.
func NewDenseData(rows, cols int, data []float64) (*Dense, error) {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("NewDenseData %dx%d with %d values: %w", rows, cols, len(data), ErrBadShape)
	}

	return &Dense{rows: rows, cols: cols, data: data}, nil
}

// FromRows copies a rectangular [][]float64 into a Dense.
func FromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("FromRows: empty input: %w", ErrBadShape)
	}
	cols := len(rows[0])
	out, err := NewDense(len(rows), cols)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("FromRows: row %d has %d values, want %d: %w", i, len(row), cols, ErrBadShape)
		}
		copy(out.data[i*cols:(i+1)*cols], row)
	}

	return out, nil
}

// Rows returns the row count.
func (m *Dense) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Dense) Cols() int { return m.cols }

// At returns the element at (r, c).
func (m *Dense) At(r, c int) (float64, error) {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		return 0, fmt.Errorf("At(%d,%d) on %dx%d: %w", r, c, m.rows, m.cols, ErrOutOfRange)
	}

	return m.data[r*m.cols+c], nil
}

// Set writes the element at (r, c).
func (m *Dense) Set(r, c int, v float64) error {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		return fmt.Errorf("Set(%d,%d) on %dx%d: %w", r, c, m.rows, m.cols, ErrOutOfRange)
	}
	m.data[r*m.cols+c] = v

	return nil
}

// Row returns row r as a live view into the backing slice. Mutations write
// through; treat as read-only unless that is intended.
func (m *Dense) Row(r int) []float64 {
	return m.data[r*m.cols : (r+1)*m.cols]
}

// Data exposes the backing row-major slice (live view).
func (m *Dense) Data() []float64 { return m.data }

// Clone returns a deep copy.
func (m *Dense) Clone() *Dense {
	out := &Dense{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	copy(out.data, m.data)

	return out
}

// Transpose returns a new cols×rows matrix with flipped indices.
// Complexity: O(rows·cols).
func (m *Dense) Transpose() *Dense {
	out := &Dense{rows: m.cols, cols: m.rows, data: make([]float64, len(m.data))}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}

	return out
}

// Scale multiplies every element by s, in place, and returns the receiver.
func (m *Dense) Scale(s float64) *Dense {
	for i := range m.data {
		m.data[i] *= s
	}

	return m
}

// MulDense returns m·x. Complexity: O(rows·cols·x.cols), ikj loop order for
// cache-friendly row access.
func (m *Dense) MulDense(x *Dense) (*Dense, error) {
	if m.cols != x.rows {
		return nil, fmt.Errorf("MulDense %dx%d by %dx%d: %w", m.rows, m.cols, x.rows, x.cols, ErrDimensionMismatch)
	}
	out, _ := NewDense(m.rows, x.cols)
	for i := 0; i < m.rows; i++ {
		mrow := m.data[i*m.cols : (i+1)*m.cols]
		orow := out.data[i*x.cols : (i+1)*x.cols]
		for k, mv := range mrow {
			if mv == 0 {
				continue
			}
			xrow := x.data[k*x.cols : (k+1)*x.cols]
			for j, xv := range xrow {
				orow[j] += mv * xv
			}
		}
	}

	return out, nil
}

// MulVec returns m·v as a fresh slice.
func (m *Dense) MulVec(v []float64) ([]float64, error) {
	if m.cols != len(v) {
		return nil, fmt.Errorf("MulVec %dx%d by len %d: %w", m.rows, m.cols, len(v), ErrDimensionMismatch)
	}
	out := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		var sum float64
		for j, rv := range row {
			sum += rv * v[j]
		}
		out[i] = sum
	}

	return out, nil
}

// RowSums returns the per-row sums (degree vector for affinity matrices).
func (m *Dense) RowSums() []float64 {
	out := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		var sum float64
		for _, v := range row {
			sum += v
		}
		out[i] = sum
	}

	return out
}

// ScaleRowsCols returns diag(left)·m·diag(right) as a new matrix. A nil left
// or right skips the corresponding side. Used for Laplacian normalization.
func (m *Dense) ScaleRowsCols(left, right []float64) (*Dense, error) {
	if left != nil && len(left) != m.rows {
		return nil, fmt.Errorf("ScaleRowsCols: left len %d for %d rows: %w", len(left), m.rows, ErrDimensionMismatch)
	}
	if right != nil && len(right) != m.cols {
		return nil, fmt.Errorf("ScaleRowsCols: right len %d for %d cols: %w", len(right), m.cols, ErrDimensionMismatch)
	}
	out := m.Clone()
	for i := 0; i < m.rows; i++ {
		row := out.data[i*m.cols : (i+1)*m.cols]
		for j := range row {
			if left != nil {
				row[j] *= left[i]
			}
			if right != nil {
				row[j] *= right[j]
			}
		}
	}

	return out, nil
}

// SymmetrizeMean returns (m + mᵀ)/2. Requires a square matrix.
func (m *Dense) SymmetrizeMean() (*Dense, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("SymmetrizeMean %dx%d: %w", m.rows, m.cols, ErrNonSquare)
	}
	out := m.Clone()
	for i := 0; i < m.rows; i++ {
		for j := i + 1; j < m.cols; j++ {
			v := (m.data[i*m.cols+j] + m.data[j*m.cols+i]) / 2
			out.data[i*m.cols+j] = v
			out.data[j*m.cols+i] = v
		}
	}

	return out, nil
}

// NormalizeRows scales each row to unit L2 norm, in place. Zero rows are
// left untouched (the isolated-sample policy of the embedding stage).
func (m *Dense) NormalizeRows() {
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		var sq float64
		for _, v := range row {
			sq += v * v
		}
		if sq == 0 {
			continue
		}
		inv := 1 / math.Sqrt(sq)
		for j := range row {
			row[j] *= inv
		}
	}
}

// IsSymmetric reports whether |m[i][j]−m[j][i]| ≤ tol for all i, j.
func (m *Dense) IsSymmetric(tol float64) bool {
	if m.rows != m.cols {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := i + 1; j < m.cols; j++ {
			if math.Abs(m.data[i*m.cols+j]-m.data[j*m.cols+i]) > tol {
				return false
			}
		}
	}

	return true
}

// CheckFinite returns ErrNaNInf if any element is NaN or ±Inf.
func (m *Dense) CheckFinite() error {
	for _, v := range m.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNaNInf
		}
	}

	return nil
}

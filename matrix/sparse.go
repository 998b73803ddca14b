package matrix

import (
	"fmt"
	"sort"
)

// Entry is one (row, col, value) triplet for CSR construction.
type Entry struct {
	Row, Col int
	Val      float64
}

// CSR is a compressed-sparse-row matrix: the natural shape of a k-NN
// affinity graph, where each row holds exactly k edges before
// symmetrization.
type CSR struct {
	rows, cols int
	rowPtr     []int
	colIdx     []int
	vals       []float64
}

// NewCSR builds a CSR from triplets. Entries are sorted by (row, col) and
// duplicates are summed, so construction is deterministic regardless of
// input order. Out-of-range indices fail with ErrOutOfRange.
// Complexity: O(nnz·log nnz).
func NewCSR(rows, cols int, entries []Entry) (*CSR, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("NewCSR %dx%d: %w", rows, cols, ErrBadShape)
	}
	for _, e := range entries {
		if e.Row < 0 || e.Row >= rows || e.Col < 0 || e.Col >= cols {
			return nil, fmt.Errorf("NewCSR: entry (%d,%d) on %dx%d: %w", e.Row, e.Col, rows, cols, ErrOutOfRange)
		}
	}
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}

		return sorted[i].Col < sorted[j].Col
	})

	m := &CSR{rows: rows, cols: cols, rowPtr: make([]int, rows+1)}
	for i := 0; i < len(sorted); {
		j := i + 1
		v := sorted[i].Val
		for j < len(sorted) && sorted[j].Row == sorted[i].Row && sorted[j].Col == sorted[i].Col {
			v += sorted[j].Val
			j++
		}
		m.colIdx = append(m.colIdx, sorted[i].Col)
		m.vals = append(m.vals, v)
		m.rowPtr[sorted[i].Row+1]++
		i = j
	}
	for r := 0; r < rows; r++ {
		m.rowPtr[r+1] += m.rowPtr[r]
	}

	return m, nil
}

// Rows returns the row count.
func (m *CSR) Rows() int { return m.rows }

// Cols returns the column count.
func (m *CSR) Cols() int { return m.cols }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.vals) }

// RowNNZ returns the number of stored entries in row r.
func (m *CSR) RowNNZ(r int) int { return m.rowPtr[r+1] - m.rowPtr[r] }

// Row returns live views of row r's column indices and values.
func (m *CSR) Row(r int) (cols []int, vals []float64) {
	return m.colIdx[m.rowPtr[r]:m.rowPtr[r+1]], m.vals[m.rowPtr[r]:m.rowPtr[r+1]]
}

// At returns the element at (r, c); absent entries read as 0.
func (m *CSR) At(r, c int) (float64, error) {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		return 0, fmt.Errorf("At(%d,%d) on %dx%d: %w", r, c, m.rows, m.cols, ErrOutOfRange)
	}
	cols, vals := m.Row(r)
	// Column indices are sorted within a row; binary search.
	lo, hi := 0, len(cols)
	for lo < hi {
		mid := (lo + hi) / 2
		if cols[mid] < c {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(cols) && cols[lo] == c {
		return vals[lo], nil
	}

	return 0, nil
}

// Entries returns all stored triplets in row-major order.
func (m *CSR) Entries() []Entry {
	out := make([]Entry, 0, len(m.vals))
	for r := 0; r < m.rows; r++ {
		for i := m.rowPtr[r]; i < m.rowPtr[r+1]; i++ {
			out = append(out, Entry{Row: r, Col: m.colIdx[i], Val: m.vals[i]})
		}
	}

	return out
}

// Transpose returns mᵀ as a new CSR.
func (m *CSR) Transpose() *CSR {
	entries := m.Entries()
	for i := range entries {
		entries[i].Row, entries[i].Col = entries[i].Col, entries[i].Row
	}
	out, _ := NewCSR(m.cols, m.rows, entries) // indices already validated

	return out
}

// SymmetrizeMean returns (m + mᵀ)/2, turning a directed k-NN relation into
// an undirected affinity graph.
func (m *CSR) SymmetrizeMean() (*CSR, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("SymmetrizeMean %dx%d: %w", m.rows, m.cols, ErrNonSquare)
	}
	entries := m.Entries()
	for i := range entries {
		entries[i].Val /= 2
	}
	for _, e := range m.Entries() {
		entries = append(entries, Entry{Row: e.Col, Col: e.Row, Val: e.Val / 2})
	}

	return NewCSR(m.rows, m.cols, entries)
}

// RowSums returns the per-row sums (degree vector).
func (m *CSR) RowSums() []float64 {
	out := make([]float64, m.rows)
	for r := 0; r < m.rows; r++ {
		for i := m.rowPtr[r]; i < m.rowPtr[r+1]; i++ {
			out[r] += m.vals[i]
		}
	}

	return out
}

// ScaleRowsCols returns diag(left)·m·diag(right) as a new CSR. A nil left or
// right skips the corresponding side.
func (m *CSR) ScaleRowsCols(left, right []float64) (*CSR, error) {
	if left != nil && len(left) != m.rows {
		return nil, fmt.Errorf("ScaleRowsCols: left len %d for %d rows: %w", len(left), m.rows, ErrDimensionMismatch)
	}
	if right != nil && len(right) != m.cols {
		return nil, fmt.Errorf("ScaleRowsCols: right len %d for %d cols: %w", len(right), m.cols, ErrDimensionMismatch)
	}
	out := &CSR{
		rows:   m.rows,
		cols:   m.cols,
		rowPtr: append([]int(nil), m.rowPtr...),
		colIdx: append([]int(nil), m.colIdx...),
		vals:   append([]float64(nil), m.vals...),
	}
	for r := 0; r < m.rows; r++ {
		for i := out.rowPtr[r]; i < out.rowPtr[r+1]; i++ {
			if left != nil {
				out.vals[i] *= left[r]
			}
			if right != nil {
				out.vals[i] *= right[out.colIdx[i]]
			}
		}
	}

	return out, nil
}

// MulDense returns m·x as a dense matrix.
// Complexity: O(nnz·x.cols).
func (m *CSR) MulDense(x *Dense) (*Dense, error) {
	if m.cols != x.rows {
		return nil, fmt.Errorf("MulDense %dx%d by %dx%d: %w", m.rows, m.cols, x.rows, x.cols, ErrDimensionMismatch)
	}
	out, _ := NewDense(m.rows, x.cols)
	for r := 0; r < m.rows; r++ {
		orow := out.Row(r)
		for i := m.rowPtr[r]; i < m.rowPtr[r+1]; i++ {
			v := m.vals[i]
			xrow := x.Row(m.colIdx[i])
			for j, xv := range xrow {
				orow[j] += v * xv
			}
		}
	}

	return out, nil
}

// ToDense materializes the sparse matrix.
func (m *CSR) ToDense() *Dense {
	out, _ := NewDense(m.rows, m.cols)
	for r := 0; r < m.rows; r++ {
		row := out.Row(r)
		for i := m.rowPtr[r]; i < m.rowPtr[r+1]; i++ {
			row[m.colIdx[i]] = m.vals[i]
		}
	}

	return out
}

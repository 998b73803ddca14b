// Package tensor provides the small N-dimensional array the preprocessing
// stages operate on: raw attribution batches arrive as (samples, channels,
// height, width) or similar, and leave as one feature vector per sample.
//
// The implementation is a shape/stride view over a flat row-major []float64,
// with exactly the reductions the pipeline needs: axis sums, absolute value,
// axis-normalization and per-cell histograms. Deterministic loop orders
// throughout; no global state.
package tensor

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/spectral/matrix"
)

var (
	// ErrBadShape is returned for non-positive dimensions or a data length
	// that disagrees with the shape.
	ErrBadShape = errors.New("tensor: invalid shape")

	// ErrBadAxis is returned for an axis outside the array's rank.
	ErrBadAxis = errors.New("tensor: axis out of range")
)

// Array is a dense row-major N-d array. The first axis is always the sample
// index by pipeline convention.
type Array struct {
	shape   []int
	strides []int
	data    []float64
}

// New returns a zero-initialized array of the given shape.
func New(shape ...int) (*Array, error) {
	size := 1
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("New %v: %w", shape, ErrBadShape)
		}
		size *= d
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("New: empty shape: %w", ErrBadShape)
	}

	return wrap(append([]int(nil), shape...), make([]float64, size)), nil
}

// FromData wraps flat row-major data without copying.
func FromData(data []float64, shape ...int) (*Array, error) {
	a, err := New(shape...)
	if err != nil {
		return nil, err
	}
	if len(data) != len(a.data) {
		return nil, fmt.Errorf("FromData: %d values for shape %v: %w", len(data), shape, ErrBadShape)
	}
	a.data = data

	return a, nil
}

func wrap(shape []int, data []float64) *Array {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}

	return &Array{shape: shape, strides: strides, data: data}
}

// Shape returns the dimension sizes (copy).
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

// Rank returns the number of axes.
func (a *Array) Rank() int { return len(a.shape) }

// Samples returns the size of the first axis.
func (a *Array) Samples() int { return a.shape[0] }

// Data exposes the flat backing slice (live view).
func (a *Array) Data() []float64 { return a.data }

// At reads the element at the given multi-index.
func (a *Array) At(index ...int) (float64, error) {
	off, err := a.offset(index)
	if err != nil {
		return 0, err
	}

	return a.data[off], nil
}

// Set writes the element at the given multi-index.
func (a *Array) Set(v float64, index ...int) error {
	off, err := a.offset(index)
	if err != nil {
		return err
	}
	a.data[off] = v

	return nil
}

func (a *Array) offset(index []int) (int, error) {
	if len(index) != len(a.shape) {
		return 0, fmt.Errorf("index rank %d for shape %v: %w", len(index), a.shape, ErrBadShape)
	}
	off := 0
	for i, x := range index {
		if x < 0 || x >= a.shape[i] {
			return 0, fmt.Errorf("index %v for shape %v: %w", index, a.shape, ErrBadShape)
		}
		off += x * a.strides[i]
	}

	return off, nil
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := wrap(append([]int(nil), a.shape...), make([]float64, len(a.data)))
	copy(out.data, a.data)

	return out
}

// Reshape returns a view with the same data and a new shape of equal size.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	size := 1
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("Reshape %v: %w", shape, ErrBadShape)
		}
		size *= d
	}
	if size != len(a.data) {
		return nil, fmt.Errorf("Reshape %v on %v: %w", shape, a.shape, ErrBadShape)
	}

	return wrap(append([]int(nil), shape...), a.data), nil
}

// Matrix flattens everything after the sample axis into feature columns,
// returning a samples×features dense matrix backed by a copy of the data.
func (a *Array) Matrix() (*matrix.Dense, error) {
	features := 1
	for _, d := range a.shape[1:] {
		features *= d
	}
	if features == 0 {
		return nil, fmt.Errorf("Matrix on shape %v: %w", a.shape, ErrBadShape)
	}
	data := make([]float64, len(a.data))
	copy(data, a.data)

	return matrix.NewDenseData(a.shape[0], features, data)
}

// Abs replaces every element with its absolute value, returning a new array.
func (a *Array) Abs() *Array {
	out := a.Clone()
	for i, v := range out.data {
		out.data[i] = math.Abs(v)
	}

	return out
}

// SumAxis sums over one axis, returning an array of rank−1.
func (a *Array) SumAxis(axis int) (*Array, error) {
	if axis < 0 || axis >= len(a.shape) {
		return nil, fmt.Errorf("SumAxis %d on %v: %w", axis, a.shape, ErrBadAxis)
	}
	if len(a.shape) == 1 {
		return nil, fmt.Errorf("SumAxis on rank-1 array: %w", ErrBadAxis)
	}
	outShape := make([]int, 0, len(a.shape)-1)
	outShape = append(outShape, a.shape[:axis]...)
	outShape = append(outShape, a.shape[axis+1:]...)
	out, _ := New(outShape...)

	// outer × axis × inner decomposition of the flat layout.
	outer := 1
	for _, d := range a.shape[:axis] {
		outer *= d
	}
	inner := 1
	for _, d := range a.shape[axis+1:] {
		inner *= d
	}
	n := a.shape[axis]
	for o := 0; o < outer; o++ {
		for x := 0; x < n; x++ {
			src := (o*n + x) * inner
			dst := o * inner
			for i := 0; i < inner; i++ {
				out.data[dst+i] += a.data[src+i]
			}
		}
	}

	return out, nil
}

// Normalize divides each element by the sum over the given axes within its
// sample/group (numpy keepdims semantics). Groups with sum 0 are left as-is.
func (a *Array) Normalize(axes ...int) (*Array, error) {
	mask := make([]bool, len(a.shape))
	for _, ax := range axes {
		if ax < 0 || ax >= len(a.shape) {
			return nil, fmt.Errorf("Normalize axis %d on %v: %w", ax, a.shape, ErrBadAxis)
		}
		mask[ax] = true
	}

	// Group key = multi-index restricted to the non-reduced axes.
	groupSize := 1
	for i, d := range a.shape {
		if !mask[i] {
			groupSize *= d
		}
	}
	sums := make([]float64, groupSize)
	index := make([]int, len(a.shape))
	groupOf := func() int {
		g := 0
		for i, x := range index {
			if !mask[i] {
				g = g*a.shape[i] + x
			}
		}

		return g
	}
	for off := range a.data {
		sums[groupOf()] += a.data[off]
		a.advance(index)
	}

	out := a.Clone()
	for i := range index {
		index[i] = 0
	}
	for off := range out.data {
		if s := sums[groupOf()]; s != 0 {
			out.data[off] /= s
		}
		a.advance(index)
	}

	return out, nil
}

// advance increments a row-major multi-index in place.
func (a *Array) advance(index []int) {
	for i := len(index) - 1; i >= 0; i-- {
		index[i]++
		if index[i] < a.shape[i] {
			return
		}
		index[i] = 0
	}
}

// Histogram computes a density histogram with the given number of bins over
// the trailing axes of every cell on the first two axes: a (samples,
// channels, …) array becomes (samples, channels, bins). The bin range is the
// per-channel global min/max across samples, matching the reference
// preprocessing. Bins must be positive; rank must be at least 3.
func (a *Array) Histogram(bins int) (*Array, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("Histogram bins=%d: %w", bins, ErrBadShape)
	}
	if len(a.shape) < 3 {
		return nil, fmt.Errorf("Histogram on shape %v: %w", a.shape, ErrBadShape)
	}
	samples, channels := a.shape[0], a.shape[1]
	inner := 1
	for _, d := range a.shape[2:] {
		inner *= d
	}

	// Per-channel value range across all samples.
	lo := make([]float64, channels)
	hi := make([]float64, channels)
	for c := 0; c < channels; c++ {
		lo[c], hi[c] = math.Inf(1), math.Inf(-1)
	}
	for s := 0; s < samples; s++ {
		for c := 0; c < channels; c++ {
			cell := a.data[(s*channels+c)*inner : (s*channels+c+1)*inner]
			for _, v := range cell {
				lo[c] = math.Min(lo[c], v)
				hi[c] = math.Max(hi[c], v)
			}
		}
	}

	out, _ := New(samples, channels, bins)
	for s := 0; s < samples; s++ {
		for c := 0; c < channels; c++ {
			width := (hi[c] - lo[c]) / float64(bins)
			cell := a.data[(s*channels+c)*inner : (s*channels+c+1)*inner]
			hist := out.data[(s*channels+c)*bins : (s*channels+c+1)*bins]
			if width == 0 {
				// Degenerate range: everything lands in the first bin.
				hist[0] = float64(len(cell))
			} else {
				for _, v := range cell {
					b := int((v - lo[c]) / width)
					if b >= bins {
						b = bins - 1 // right edge is inclusive
					}
					hist[b]++
				}
			}
			// Density normalization: sum(hist)·width == 1.
			total := float64(len(cell))
			if width > 0 {
				for i := range hist {
					hist[i] /= total * width
				}
			} else {
				hist[0] = 1
			}
		}
	}

	return out, nil
}

// Package preprocess turns raw attribution tensors into the flat
// samples×features matrices the distance stage consumes.
//
// 🚀 Processors
//
//   - Flatten   : collapse everything after the sample axis into features
//   - Absolute  : elementwise |x|
//   - SumChannel: sum over the channel axis (axis 1)
//   - Normalize : divide by the group sum over the given axes
//   - Histogram : per-channel density histogram, (samples, channels, bins)
//
// All processors are pure: the input array is never written to.
package preprocess

import (
	"fmt"

	"github.com/katalvlaran/spectral/param"
	"github.com/katalvlaran/spectral/pipeline"
	"github.com/katalvlaran/spectral/tensor"
)

// ErrBadInput is returned when a stage receives anything but *tensor.Array.
var ErrBadInput = fmt.Errorf("preprocess: input must be *tensor.Array: %w", pipeline.ErrShape)

func coerce(data any) (*tensor.Array, error) {
	a, ok := data.(*tensor.Array)
	if !ok {
		return nil, fmt.Errorf("got %T: %w", data, ErrBadInput)
	}

	return a, nil
}

// Flatten collapses every axis after the first into feature columns and
// returns a samples×features *matrix.Dense.
type Flatten struct {
	pipeline.Base
}

// NewFlatten constructs the processor. No domain parameters.
func NewFlatten(opts ...pipeline.Option) (*Flatten, error) {
	base, err := pipeline.NewBase("preprocess.Flatten", pipeline.BaseRegistry(), opts...)
	if err != nil {
		return nil, err
	}

	return &Flatten{Base: base}, nil
}

// Function maps a *tensor.Array to a samples×features *matrix.Dense.
func (p *Flatten) Function(data any) (any, error) {
	a, err := coerce(data)
	if err != nil {
		return nil, err
	}

	return a.Matrix()
}

// Absolute replaces every element with its absolute value.
type Absolute struct {
	pipeline.Base
}

// NewAbsolute constructs the processor. No domain parameters.
func NewAbsolute(opts ...pipeline.Option) (*Absolute, error) {
	base, err := pipeline.NewBase("preprocess.Absolute", pipeline.BaseRegistry(), opts...)
	if err != nil {
		return nil, err
	}

	return &Absolute{Base: base}, nil
}

// Function maps a *tensor.Array to a new *tensor.Array of the same shape.
func (p *Absolute) Function(data any) (any, error) {
	a, err := coerce(data)
	if err != nil {
		return nil, err
	}

	return a.Abs(), nil
}

var sumChannelRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "axis", Types: param.Types(param.Int), Default: 1},
)

// SumChannel sums over one axis, by default the channel axis of a
// (samples, channels, height, width) attribution batch.
type SumChannel struct {
	pipeline.Base
}

// NewSumChannel constructs the processor. Parameters: axis (int, 1).
func NewSumChannel(opts ...pipeline.Option) (*SumChannel, error) {
	base, err := pipeline.NewBase("preprocess.SumChannel", sumChannelRegistry, opts...)
	if err != nil {
		return nil, err
	}

	return &SumChannel{Base: base}, nil
}

// Function maps a *tensor.Array to a *tensor.Array of rank−1.
func (p *SumChannel) Function(data any) (any, error) {
	a, err := coerce(data)
	if err != nil {
		return nil, err
	}

	return a.SumAxis(p.Params().Int("axis"))
}

var normalizeRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "axes", Types: param.Types(param.Ints), Default: []int{1, 2}},
)

// Normalize divides every element by the sum over the given axes within its
// group, so each sample (or channel) carries unit mass. Groups summing to
// zero pass through unchanged.
type Normalize struct {
	pipeline.Base
}

// NewNormalize constructs the processor. Parameters: axes ([]int, {1, 2}).
func NewNormalize(opts ...pipeline.Option) (*Normalize, error) {
	base, err := pipeline.NewBase("preprocess.Normalize", normalizeRegistry, opts...)
	if err != nil {
		return nil, err
	}

	return &Normalize{Base: base}, nil
}

// Function maps a *tensor.Array to a new *tensor.Array of the same shape.
func (p *Normalize) Function(data any) (any, error) {
	a, err := coerce(data)
	if err != nil {
		return nil, err
	}

	return a.Normalize(p.Params().IntSlice("axes")...)
}

var histogramRegistry = pipeline.BaseRegistry().Extend(
	param.Spec{Name: "bins", Types: param.Types(param.Int), Default: 256},
)

// Histogram reduces the trailing spatial axes of every (sample, channel)
// cell to a density histogram, producing (samples, channels, bins). The bin
// range is the per-channel global min/max across all samples.
type Histogram struct {
	pipeline.Base
}

// NewHistogram constructs the processor. Parameters: bins (int, 256).
func NewHistogram(opts ...pipeline.Option) (*Histogram, error) {
	base, err := pipeline.NewBase("preprocess.Histogram", histogramRegistry, opts...)
	if err != nil {
		return nil, err
	}

	return &Histogram{Base: base}, nil
}

// Function maps a rank >= 3 *tensor.Array to (samples, channels, bins).
func (p *Histogram) Function(data any) (any, error) {
	a, err := coerce(data)
	if err != nil {
		return nil, err
	}

	return a.Histogram(p.Params().Int("bins"))
}

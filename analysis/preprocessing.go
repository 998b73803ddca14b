package analysis

import (
	"fmt"

	"github.com/katalvlaran/spectral/pipeline"
	"github.com/katalvlaran/spectral/preprocess"
	"github.com/katalvlaran/spectral/tensor"
)

// Preprocessing builds the variant's preprocessing chain for input tensors
// of the given rank. Chains end in Flatten, so every variant hands the
// distance stage a samples×features matrix.
//
// Rank >= 3 inputs are treated as (samples, channels, spatial...) batches:
// the channel axis is summed away (except fullspectral, which normalizes the
// full tensor, and histogram, which reduces spatial axes per channel).
// Rank-2 inputs are already flat, so channel operations are skipped and the
// histogram variant views each sample as a single channel.
func Preprocessing(variant string, rank, bins int) (pipeline.Node, error) {
	if rank < 2 {
		return nil, fmt.Errorf("rank-%d input: %w", rank, pipeline.ErrShape)
	}
	var (
		nodes []pipeline.Node
		err   error
	)
	add := func(node pipeline.Node, buildErr error) {
		if err == nil && buildErr != nil {
			err = buildErr
		}
		nodes = append(nodes, node)
	}

	switch variant {
	case VariantAbsSpectral:
		add(preprocess.NewAbsolute())
		if rank >= 3 {
			add(preprocess.NewSumChannel())
			add(preprocess.NewNormalize(pipeline.WithParam("axes", tailAxes(rank-1))))
		} else {
			add(preprocess.NewNormalize(pipeline.WithParam("axes", tailAxes(rank))))
		}
		add(preprocess.NewFlatten())
	case VariantSpectral:
		if rank >= 3 {
			add(preprocess.NewSumChannel())
			add(preprocess.NewNormalize(pipeline.WithParam("axes", tailAxes(rank-1))))
		} else {
			add(preprocess.NewNormalize(pipeline.WithParam("axes", tailAxes(rank))))
		}
		add(preprocess.NewFlatten())
	case VariantFullSpectral:
		add(preprocess.NewNormalize(pipeline.WithParam("axes", tailAxes(rank))))
		add(preprocess.NewFlatten())
	case VariantHistogram:
		add(preprocess.NewAbsolute())
		if rank == 2 {
			add(singleChannelView())
		}
		add(preprocess.NewHistogram(pipeline.WithParam("bins", bins)))
		add(preprocess.NewFlatten())
	default:
		return nil, fmt.Errorf("variant=%q: %w", variant, ErrBadVariant)
	}
	if err != nil {
		return nil, err
	}

	return pipeline.NewSequential(nodes)
}

// tailAxes returns every axis after the sample axis: {1, ..., rank−1}.
func tailAxes(rank int) []int {
	axes := make([]int, rank-1)
	for i := range axes {
		axes[i] = i + 1
	}

	return axes
}

// singleChannelView reshapes (samples, features) to (samples, 1, features)
// so the per-channel histogram applies to flat inputs.
func singleChannelView() (*pipeline.FuncProcessor, error) {
	return pipeline.NewFunc("analysis.SingleChannelView", func(data any) (any, error) {
		a, ok := data.(*tensor.Array)
		if !ok {
			return nil, fmt.Errorf("got %T: %w", data, pipeline.ErrShape)
		}
		shape := a.Shape()

		return a.Reshape(shape[0], 1, shape[1])
	})
}

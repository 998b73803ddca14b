// Package pipeline: error taxonomy shared by the engine and all stage
// packages. Three classes, matched with errors.Is:
//
//	ErrConfiguration: bad parameter type, unknown keyword/stage, missing
//	                   mandatory parameter; raised at construction/bind time
//	ErrShape        : input shape inconsistent with the node structure
//	ErrNumerical    : numeric failure inside a stage (non-convergence, …)
//
// Stage packages wrap these with their own sentinels so both the local and
// the class-level match hold.

package pipeline

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/spectral/param"
)

// ErrConfiguration aliases the param package root so a single errors.Is
// covers parameter-level and pipeline-level configuration failures.
var ErrConfiguration = param.ErrConfiguration

var (
	// ErrShape is the root of the shape error class.
	ErrShape = errors.New("pipeline: shape mismatch")

	// ErrNumerical is the root of the numerical error class.
	ErrNumerical = errors.New("pipeline: numerical failure")

	// ErrUnknownStage indicates a Stage binding for a name the schema never
	// declared.
	ErrUnknownStage = fmt.Errorf("%w: unknown stage name", ErrConfiguration)

	// ErrNilNode indicates a nil Node where a combinator or stage expected a
	// child.
	ErrNilNode = fmt.Errorf("%w: nil node", ErrConfiguration)

	// ErrStageKind indicates a node bound to a stage whose declared Kind it
	// does not satisfy.
	ErrStageKind = fmt.Errorf("%w: node does not satisfy the stage kind", ErrConfiguration)

	// ErrArity indicates a non-broadcast Parallel whose input Tuple length
	// does not match its child count.
	ErrArity = fmt.Errorf("%w: input length does not match node count", ErrShape)

	// ErrNotBroadcastable indicates a non-broadcast Parallel invoked with a
	// non-Tuple input.
	ErrNotBroadcastable = fmt.Errorf("%w: non-broadcast Parallel needs a Tuple input", ErrShape)
)

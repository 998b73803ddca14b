package pipeline

import (
	"fmt"

	"github.com/katalvlaran/spectral/param"
)

// Node is anything the engine can evaluate: a Processor, a Sequential, a
// Parallel or a nested Pipeline. IsOutput marks a node whose result must
// surface in the enclosing Pipeline's final output Tuple.
type Node interface {
	IsOutput() bool
}

// Processor is the atomic unit of computation: a named, parameterized,
// stateless function from input to output. Concrete processors embed Base
// and implement Function only.
type Processor interface {
	Node
	Name() string
	Params() *param.Values
	Function(data any) (any, error)
}

// Tuple is the ordered multi-result container produced by Parallel nodes and
// by Pipelines with more than one flagged output.
type Tuple []any

// Func is the signature wrapped by NewFunc.
type Func func(data any) (any, error)

// Option configures a processor at construction. Options accumulate into the
// override map validated by param.Registry.Bind, so an unknown name or a
// type-mismatched value fails construction with ErrConfiguration.
type Option func(map[string]any)

// WithParam overrides the declared parameter name with value.
func WithParam(name string, value any) Option {
	return func(m map[string]any) { m[name] = value }
}

// AsOutput flags the node's result for collection into the enclosing
// Pipeline's output Tuple. Shorthand for WithParam("is_output", true).
func AsOutput() Option {
	return WithParam("is_output", true)
}

// BaseRegistry declares the slots every processor inherits. Stage packages
// extend it with their own slots.
func BaseRegistry() *param.Registry { return baseRegistry }

var baseRegistry = param.NewRegistry(
	param.Spec{Name: "is_output", Types: param.Types(param.Bool), Default: false},
)

// Base carries the identity and parameter storage shared by all processors.
// The zero Base is invalid; construct through NewBase.
type Base struct {
	name   string
	params *param.Values
}

// NewBase binds registry with the accumulated option overrides. Unknown
// names and bad types fail here, before the owning processor exists.
func NewBase(name string, registry *param.Registry, opts ...Option) (Base, error) {
	overrides := make(map[string]any, len(opts))
	for _, opt := range opts {
		opt(overrides)
	}
	values, err := registry.Bind(overrides)
	if err != nil {
		return Base{}, fmt.Errorf("%s: %w", name, err)
	}

	return Base{name: name, params: values}, nil
}

// Name identifies the processor (class-like, package-qualified by
// convention, e.g. "affinity.SparseKNN").
func (b *Base) Name() string { return b.name }

// Params exposes the bound parameter storage. Values may be mutated between
// invocations but not while an invocation is in flight.
func (b *Base) Params() *param.Values { return b.params }

// IsOutput reads the standard is_output slot.
func (b *Base) IsOutput() bool { return b.params.Bool("is_output") }

// FuncProcessor adapts a bare function into a Processor. It is the default
// stage filler (identity) and the idiomatic way to drop one-off transforms
// into a schema.
type FuncProcessor struct {
	Base
	fn Func
}

// NewFunc wraps fn as a Processor named name.
func NewFunc(name string, fn Func, opts ...Option) (*FuncProcessor, error) {
	if fn == nil {
		return nil, fmt.Errorf("NewFunc %q: %w", name, ErrNilNode)
	}
	base, err := NewBase(name, baseRegistry, opts...)
	if err != nil {
		return nil, err
	}

	return &FuncProcessor{Base: base, fn: fn}, nil
}

// Function applies the wrapped function.
func (p *FuncProcessor) Function(data any) (any, error) { return p.fn(data) }

// Identity returns a pass-through processor, the default for unbound stages.
func Identity() *FuncProcessor {
	p, err := NewFunc("pipeline.Identity", func(data any) (any, error) { return data, nil })
	if err != nil {
		panic(err) // unreachable: static registry, no overrides
	}

	return p
}

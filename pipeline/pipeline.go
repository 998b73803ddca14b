package pipeline

import (
	"fmt"
	"reflect"
)

// Binding assigns a Node to a named schema stage at Pipeline construction.
type Binding struct {
	name string
	node Node
}

// Stage binds node to the schema stage called name.
func Stage(name string, node Node) Binding {
	return Binding{name: name, node: node}
}

// stage is one resolved schema entry: the declared Task plus the bound Node.
type stage struct {
	task Task
	node Node
}

// Pipeline executes one Node per schema stage in declaration order,
// threading each stage's output into the next stage's input and collecting
// every flagged result into the final output.
//
// A Pipeline is itself a Processor, so pipelines nest inside schemas and
// combinators. Nested pipelines return their own collected outputs to the
// enclosing node as a regular result.
type Pipeline struct {
	Base
	schema *Schema
	stages []stage
}

// New resolves one Node per schema stage: bindings override, the Task
// default fills the rest, a nil default means identity. Binding an unknown
// stage name fails with ErrUnknownStage, a node outside the stage's declared
// Kind with ErrStageKind; no partial pipeline is returned.
func New(schema *Schema, bindings ...Binding) (*Pipeline, error) {
	return NewNamed("pipeline.Pipeline", schema, bindings...)
}

// NewNamed is New with an explicit processor name, used by concrete
// pipeline constructors (e.g. spectral.SpectralClustering).
func NewNamed(name string, schema *Schema, bindings ...Binding) (*Pipeline, error) {
	if schema == nil {
		return nil, fmt.Errorf("%s: nil schema: %w", name, ErrConfiguration)
	}
	bound := make(map[string]Node, len(bindings))
	for _, b := range bindings {
		if _, known := schema.Lookup(b.name); !known {
			return nil, fmt.Errorf("%s: stage %q: %w", name, b.name, ErrUnknownStage)
		}
		if b.node == nil {
			return nil, fmt.Errorf("%s: stage %q: %w", name, b.name, ErrNilNode)
		}
		bound[b.name] = b.node
	}

	base, err := NewBase(name, baseRegistry)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{Base: base, schema: schema, stages: make([]stage, 0, len(schema.order))}
	for _, stageName := range schema.order {
		task := schema.tasks[stageName]
		node := bound[stageName]
		if node == nil {
			node = task.Default
		}
		if node == nil {
			node = Identity()
		}
		if task.Kind != nil && !reflect.TypeOf(node).AssignableTo(task.Kind) {
			return nil, fmt.Errorf("%s: stage %q: %T is no %s: %w",
				name, stageName, node, task.Kind, ErrStageKind)
		}
		p.stages = append(p.stages, stage{task: task, node: node})
	}

	return p, nil
}

// Schema exposes the stage declaration this pipeline was built from.
func (p *Pipeline) Schema() *Schema { return p.schema }

// Node returns the node bound to the named stage.
func (p *Pipeline) Node(name string) (Node, bool) {
	for _, st := range p.stages {
		if st.task.Name == name {
			return st.node, true
		}
	}

	return nil, false
}

// Process threads data through the stages in schema order. The return value
// is, in order of preference:
//   - the single flagged result, when exactly one node was flagged
//   - a flat Tuple of flagged results in traversal order, when several were
//   - the final stage's raw result, when nothing was flagged
//
// Any stage failure aborts the invocation and is returned unwrapped beyond
// the failing processor's name prefix; there is no partial-success mode.
func (p *Pipeline) Process(data any) (any, error) {
	sink := &collector{}
	for _, st := range p.stages {
		out, err := eval(st.node, data, sink)
		if err != nil {
			return nil, fmt.Errorf("%s: stage %q: %w", p.Name(), st.task.Name, err)
		}
		// Stage-level Output collects once; a node-level flag already did.
		if st.task.Output && !st.node.IsOutput() {
			sink.add(out)
		}
		data = out
	}
	switch len(sink.items) {
	case 0:
		return data, nil
	case 1:
		return sink.items[0], nil
	default:
		return sink.items, nil
	}
}

// Function makes Pipeline a Processor, delegating to Process.
func (p *Pipeline) Function(data any) (any, error) { return p.Process(data) }

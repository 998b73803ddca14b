package pipeline

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/spectral/param"
)

// flowRegistry declares the slots shared by the flow combinators.
var flowRegistry = baseRegistry.Extend(
	// workers > 0 opts a Parallel into concurrent branch evaluation.
	param.Spec{Name: "workers", Types: param.Types(param.Int), Default: 0},
)

var parallelRegistry = flowRegistry.Extend(
	// broadcast=true fans identical input to every child; false splits a
	// Tuple input across children by index.
	param.Spec{Name: "broadcast", Types: param.Types(param.Bool), Default: false},
)

// Broadcast is shorthand for WithParam("broadcast", true) on a Parallel.
func Broadcast() Option { return WithParam("broadcast", true) }

// Workers caps concurrent branch evaluation of a Parallel at n goroutines.
// The result Tuple keeps declaration order regardless of completion order;
// the first branch error wins and aborts the evaluation.
func Workers(n int) Option { return WithParam("workers", n) }

// Sequential folds data through its children in declaration order: each
// child's output becomes the next child's input. Deterministic, no
// reordering.
type Sequential struct {
	Base
	children []Node
}

// NewSequential composes nodes into a chain. Nil children are rejected at
// construction.
func NewSequential(nodes []Node, opts ...Option) (*Sequential, error) {
	if err := checkChildren("Sequential", nodes); err != nil {
		return nil, err
	}
	base, err := NewBase("pipeline.Sequential", flowRegistry, opts...)
	if err != nil {
		return nil, err
	}

	return &Sequential{Base: base, children: nodes}, nil
}

// Nodes returns the child list (not a copy; treat as read-only).
func (s *Sequential) Nodes() []Node { return s.children }

// Parallel fans input out to its children and collects an ordered Tuple of
// their results. See Broadcast for the two input modes.
type Parallel struct {
	Base
	children []Node
}

// NewParallel composes nodes into a fan-out.
func NewParallel(nodes []Node, opts ...Option) (*Parallel, error) {
	if err := checkChildren("Parallel", nodes); err != nil {
		return nil, err
	}
	base, err := NewBase("pipeline.Parallel", parallelRegistry, opts...)
	if err != nil {
		return nil, err
	}

	return &Parallel{Base: base, children: nodes}, nil
}

// Nodes returns the child list (not a copy; treat as read-only).
func (p *Parallel) Nodes() []Node { return p.children }

// Broadcast reads the broadcast slot.
func (p *Parallel) Broadcast() bool { return p.Params().Bool("broadcast") }

func checkChildren(kind string, nodes []Node) error {
	if len(nodes) == 0 {
		return fmt.Errorf("%s: empty node list: %w", kind, ErrConfiguration)
	}
	for i, n := range nodes {
		if n == nil {
			return fmt.Errorf("%s: child %d: %w", kind, i, ErrNilNode)
		}
	}

	return nil
}

// Run evaluates any node tree on data, outside of a Pipeline. Flagged
// outputs inside the tree are not collected here; use a Pipeline for that.
func Run(node Node, data any) (any, error) {
	return eval(node, data, nil)
}

// collector accumulates flagged results in traversal order. A nil collector
// disables collection.
type collector struct {
	items Tuple
}

func (c *collector) add(result any) {
	if c != nil {
		c.items = append(c.items, result)
	}
}

// eval is the single evaluator behind Run and Pipeline.Process. It walks the
// node tree structurally: combinators recurse, processors execute. A node
// flagged is_output contributes its own result to the collector after its
// subtree finished, so nested outputs surface in traversal order.
func eval(node Node, data any, sink *collector) (any, error) {
	var (
		out any
		err error
	)
	switch n := node.(type) {
	case *Sequential:
		out = data
		for _, child := range n.children {
			if out, err = eval(child, out, sink); err != nil {
				return nil, err
			}
		}
	case *Parallel:
		if out, err = evalParallel(n, data, sink); err != nil {
			return nil, err
		}
	case Processor:
		if out, err = n.Function(data); err != nil {
			return nil, fmt.Errorf("%s: %w", n.Name(), err)
		}
	default:
		return nil, fmt.Errorf("eval: unsupported node %T: %w", node, ErrConfiguration)
	}
	if node.IsOutput() {
		sink.add(out)
	}

	return out, nil
}

// evalParallel fans data out to the children. Sequential by default; with
// workers > 0 the branches run on an errgroup whose first error aborts the
// evaluation while the result Tuple keeps declaration order.
func evalParallel(p *Parallel, data any, sink *collector) (any, error) {
	inputs, err := parallelInputs(p, data)
	if err != nil {
		return nil, err
	}

	results := make(Tuple, len(p.children))
	if workers := p.Params().Int("workers"); workers > 0 {
		// Nested flagged outputs are collected per branch and merged in
		// declaration order after Wait, keeping the sink deterministic under
		// concurrency.
		branches := make([]Tuple, len(p.children))
		var g errgroup.Group
		g.SetLimit(workers)
		for i := range p.children {
			i := i
			g.Go(func() error {
				branch := &collector{}
				out, branchErr := eval(p.children[i], inputs[i], branch)
				if branchErr != nil {
					return branchErr
				}
				results[i] = out
				branches[i] = branch.items

				return nil
			})
		}
		if err = g.Wait(); err != nil {
			return nil, err
		}
		for _, items := range branches {
			for _, item := range items {
				sink.add(item)
			}
		}
	} else {
		for i := range p.children {
			if results[i], err = eval(p.children[i], inputs[i], sink); err != nil {
				return nil, err
			}
		}
	}

	return results, nil
}

func parallelInputs(p *Parallel, data any) ([]any, error) {
	if p.Broadcast() {
		inputs := make([]any, len(p.children))
		for i := range inputs {
			inputs[i] = data
		}

		return inputs, nil
	}
	tuple, ok := data.(Tuple)
	if !ok {
		return nil, fmt.Errorf("Parallel: got %T: %w", data, ErrNotBroadcastable)
	}
	if len(tuple) != len(p.children) {
		return nil, fmt.Errorf("Parallel: %d inputs for %d nodes: %w", len(tuple), len(p.children), ErrArity)
	}

	return []any(tuple), nil
}

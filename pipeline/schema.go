package pipeline

import (
	"fmt"
	"reflect"
)

// Task declares a single named stage in a Schema: the default Node bound
// when the caller supplies none, whether the stage's result belongs to the
// pipeline output even when the bound node itself carries no flag, and the
// kind of node the stage accepts.
type Task struct {
	// Name identifies the stage; bindings reference it.
	Name string

	// Default fills the stage when no binding is given. Nil means identity.
	Default Node

	// Output marks the stage result for collection. A node-level is_output
	// flag on the bound node has the same effect; the result is collected
	// once either way.
	Output bool

	// Kind, when non-nil, restricts the stage to nodes assignable to it
	// (normally an interface type, see KindOf). New rejects any other node,
	// bound or default, with ErrStageKind. Nil accepts every Node.
	Kind reflect.Type
}

// KindOf returns the reflect.Type of T for use as a Task Kind.
func KindOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Schema is an ordered, inheritable registry of named stages. Declaration
// order is execution order. Schemas are immutable; Extend returns a copy.
type Schema struct {
	order []string
	tasks map[string]Task
}

// NewSchema builds a Schema from tasks in declaration order. Duplicate stage
// names fail with ErrConfiguration.
func NewSchema(tasks ...Task) (*Schema, error) {
	s := &Schema{tasks: make(map[string]Task, len(tasks))}
	for _, t := range tasks {
		if t.Name == "" {
			return nil, fmt.Errorf("schema: empty stage name: %w", ErrConfiguration)
		}
		if _, dup := s.tasks[t.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate stage %q: %w", t.Name, ErrConfiguration)
		}
		s.order = append(s.order, t.Name)
		s.tasks[t.Name] = t
	}

	return s, nil
}

// MustSchema is NewSchema for package-level declarations; panics on error
// (programmer error in source, not caller data).
func MustSchema(tasks ...Task) *Schema {
	s, err := NewSchema(tasks...)
	if err != nil {
		panic(err)
	}

	return s
}

// Extend derives a new Schema: inherited stages keep their relative order,
// a name collision overrides the inherited declaration in place, genuinely
// new stages are appended after the inherited ones.
func (s *Schema) Extend(tasks ...Task) *Schema {
	out := &Schema{
		order: append([]string(nil), s.order...),
		tasks: make(map[string]Task, len(s.tasks)+len(tasks)),
	}
	for name, t := range s.tasks {
		out.tasks[name] = t
	}
	for _, t := range tasks {
		if _, known := out.tasks[t.Name]; !known {
			out.order = append(out.order, t.Name)
		}
		out.tasks[t.Name] = t
	}

	return out
}

// Stages returns the stage names in declaration order (copy).
func (s *Schema) Stages() []string {
	return append([]string(nil), s.order...)
}

// Lookup returns the Task declared under name.
func (s *Schema) Lookup(name string) (Task, bool) {
	t, ok := s.tasks[name]

	return t, ok
}

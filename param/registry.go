package param

import "fmt"

// Registry is an ordered collection of Specs. Order is declaration order and
// survives Extend: a derived registry keeps inherited positions, overriding
// collisions in place and appending genuinely new slots at the end.
//
// Registries are immutable after construction; Extend returns a copy.
type Registry struct {
	order []string
	specs map[string]Spec
}

// NewRegistry builds a Registry from specs in declaration order.
// Panics on malformed Specs and duplicate names (programmer error).
func NewRegistry(specs ...Spec) *Registry {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		s.validate()
		if _, dup := r.specs[s.Name]; dup {
			panic(fmt.Sprintf("param: duplicate Spec %q in registry", s.Name))
		}
		r.order = append(r.order, s.Name)
		r.specs[s.Name] = s
	}

	return r
}

// Extend derives a new Registry: inherited slots keep their relative order,
// name collisions are overridden in place, new names are appended.
func (r *Registry) Extend(specs ...Spec) *Registry {
	out := &Registry{
		order: append([]string(nil), r.order...),
		specs: make(map[string]Spec, len(r.specs)+len(specs)),
	}
	for name, s := range r.specs {
		out.specs[name] = s
	}
	for _, s := range specs {
		s.validate()
		if _, known := out.specs[s.Name]; !known {
			out.order = append(out.order, s.Name)
		}
		out.specs[s.Name] = s
	}

	return out
}

// Names returns slot names in declaration order (copy; safe to mutate).
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Lookup returns the Spec declared under name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	s, ok := r.specs[name]

	return s, ok
}

// Bind validates overrides against the registry and returns per-instance
// Values. Failure modes (all wrap ErrConfiguration, nothing partial is
// returned):
//   - ErrUnknownName    : override for an undeclared slot
//   - ErrTypeMismatch   : override outside the slot's type-set
//   - ErrMandatoryUnset : a mandatory slot resolves to no value
func (r *Registry) Bind(overrides map[string]any) (*Values, error) {
	explicit := make(map[string]any, len(overrides))
	for name, value := range overrides {
		spec, known := r.specs[name]
		if !known {
			return nil, fmt.Errorf("bind %q: %w", name, ErrUnknownName)
		}
		if !spec.accepts(value) {
			return nil, fmt.Errorf("bind %q = %v (%T): %w", name, value, value, ErrTypeMismatch)
		}
		explicit[name] = value
	}
	// Mandatory slots must resolve through some layer before execution.
	for _, name := range r.order {
		spec := r.specs[name]
		if !spec.Mandatory {
			continue
		}
		if _, ok := explicit[name]; ok {
			continue
		}
		if spec.Default == nil {
			return nil, fmt.Errorf("bind %q: %w", name, ErrMandatoryUnset)
		}
	}

	return &Values{registry: r, explicit: explicit, defaults: map[string]any{}}, nil
}

package param

import "fmt"

// Values is the per-instance storage of a bound Registry. Resolution on read
// walks three layers top-down:
//
//	explicit value (Set / Bind override) → instance default (SetDefault) →
//	spec default (Registry declaration)
//
// Values are mutable between invocations (Set re-validates the type-set) but
// must not be mutated while a pipeline invocation over them is in flight.
type Values struct {
	registry *Registry
	explicit map[string]any
	defaults map[string]any
}

// Registry exposes the declaration this instance was bound from.
func (v *Values) Registry() *Registry { return v.registry }

// Get resolves name through the three layers. Returns ErrUnknownName for
// undeclared slots and ErrUnsetValue when no layer holds a value.
func (v *Values) Get(name string) (any, error) {
	spec, known := v.registry.specs[name]
	if !known {
		return nil, fmt.Errorf("get %q: %w", name, ErrUnknownName)
	}
	if value, ok := v.explicit[name]; ok {
		return value, nil
	}
	if value, ok := v.defaults[name]; ok {
		return value, nil
	}
	if spec.Default != nil {
		return spec.Default, nil
	}

	return nil, fmt.Errorf("get %q: %w", name, ErrUnsetValue)
}

// Set writes an explicit value, re-validating against the type-set.
func (v *Values) Set(name string, value any) error {
	spec, known := v.registry.specs[name]
	if !known {
		return fmt.Errorf("set %q: %w", name, ErrUnknownName)
	}
	if !spec.accepts(value) {
		return fmt.Errorf("set %q = %v (%T): %w", name, value, value, ErrTypeMismatch)
	}
	v.explicit[name] = value

	return nil
}

// SetDefault writes the instance-default layer (consulted after explicit
// values, before the spec default).
func (v *Values) SetDefault(name string, value any) error {
	spec, known := v.registry.specs[name]
	if !known {
		return fmt.Errorf("set default %q: %w", name, ErrUnknownName)
	}
	if !spec.accepts(value) {
		return fmt.Errorf("set default %q = %v (%T): %w", name, value, value, ErrTypeMismatch)
	}
	v.defaults[name] = value

	return nil
}

// Unset drops the explicit value, reverting the slot to its default layers.
func (v *Values) Unset(name string) {
	delete(v.explicit, name)
}

// Snapshot returns the resolved value of every slot that currently resolves,
// in declaration order. Slots with no value in any layer are skipped.
func (v *Values) Snapshot() map[string]any {
	out := make(map[string]any, len(v.registry.order))
	for _, name := range v.registry.order {
		if value, err := v.Get(name); err == nil {
			out[name] = value
		}
	}

	return out
}

// ---- typed accessors -------------------------------------------------------
//
// Typed accessors are for processor internals reading their own declared
// slots after a successful Bind. A failed resolution or a wrong assertion is
// a programmer error at the declaration site, so these panic instead of
// returning an error.

func (v *Values) mustGet(name string) any {
	value, err := v.Get(name)
	if err != nil {
		panic(fmt.Sprintf("param: typed access: %v", err))
	}

	return value
}

// Int resolves name as int.
func (v *Values) Int(name string) int { return v.mustGet(name).(int) }

// Float resolves name as float64.
func (v *Values) Float(name string) float64 { return v.mustGet(name).(float64) }

// Bool resolves name as bool. An unset optional bool reads as false.
func (v *Values) Bool(name string) bool {
	value, err := v.Get(name)
	if err != nil {
		return false
	}
	b, ok := value.(bool)
	if !ok {
		panic(fmt.Sprintf("param: typed access %q: %T is not bool", name, value))
	}

	return b
}

// String resolves name as string.
func (v *Values) String(name string) string { return v.mustGet(name).(string) }

// IntSlice resolves name as []int.
func (v *Values) IntSlice(name string) []int { return v.mustGet(name).([]int) }

// FloatSlice resolves name as []float64.
func (v *Values) FloatSlice(name string) []float64 { return v.mustGet(name).([]float64) }

// Any resolves name without a type assertion.
func (v *Values) Any(name string) any { return v.mustGet(name) }

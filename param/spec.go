package param

import (
	"fmt"
	"reflect"
)

// Common slot types, exported so registries read declaratively.
var (
	Int     = reflect.TypeOf(int(0))
	Float   = reflect.TypeOf(float64(0))
	Bool    = reflect.TypeOf(false)
	String  = reflect.TypeOf("")
	Ints    = reflect.TypeOf([]int(nil))
	Floats  = reflect.TypeOf([]float64(nil))
	Strings = reflect.TypeOf([]string(nil))
)

// TypeOf returns the reflect.Type of T, for slot types that have no
// package-level shorthand (interfaces, pointers to concrete structs, funcs).
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Types builds a type-set from one or more element types. A Spec requires at
// least one entry.
func Types(ts ...reflect.Type) []reflect.Type { return ts }

// Spec declares a single named parameter slot: its allowed type-set, an
// optional default value consistent with that set, and a mandatory flag.
//
// Invariants (checked by NewRegistry):
//   - Name is non-empty
//   - Types has at least one non-nil entry
//   - Default, when non-nil, is accepted by the type-set
//   - a mandatory Spec may still carry a default; the default then satisfies
//     the mandatory requirement at bind time
type Spec struct {
	Name      string
	Types     []reflect.Type
	Default   any
	Mandatory bool
}

// accepts reports whether v's dynamic type is in the declared type-set.
// Interface entries match by implementation, concrete entries by
// assignability (covers named types over the same underlying type).
func (s Spec) accepts(v any) bool {
	if v == nil {
		return false
	}
	vt := reflect.TypeOf(v)
	for _, t := range s.Types {
		if t == nil {
			continue
		}
		if t.Kind() == reflect.Interface {
			if vt.Implements(t) {
				return true
			}
			continue
		}
		if vt.AssignableTo(t) {
			return true
		}
	}

	return false
}

// validate panics on malformed declarations: a Spec is authored in source,
// so any violation is a programmer error, not caller data.
func (s Spec) validate() {
	if s.Name == "" {
		panic("param: Spec with empty name")
	}
	if len(s.Types) == 0 {
		panic(fmt.Sprintf("param: Spec %q declares an empty type-set", s.Name))
	}
	for _, t := range s.Types {
		if t == nil {
			panic(fmt.Sprintf("param: Spec %q declares a nil type", s.Name))
		}
	}
	if s.Default != nil && !s.accepts(s.Default) {
		panic(fmt.Sprintf("param: Spec %q default %v is not in its type-set", s.Name, s.Default))
	}
}

// Package param: sentinel error set.
// All user-triggered failures wrap ErrConfiguration so callers can match the
// whole configuration class with a single errors.Is. Panics are reserved for
// programmer errors (malformed Spec declarations, typed access to unknown
// slots).

package param

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the root of the configuration error class. Every
// bind/set failure in this package wraps it, so
// errors.Is(err, ErrConfiguration) matches all of them.
var ErrConfiguration = errors.New("param: invalid configuration")

var (
	// ErrUnknownName indicates an override or access for a slot that was
	// never declared in the registry.
	ErrUnknownName = fmt.Errorf("%w: unknown parameter name", ErrConfiguration)

	// ErrTypeMismatch indicates a value whose type is not in the slot's
	// declared type-set.
	ErrTypeMismatch = fmt.Errorf("%w: value type not in declared type-set", ErrConfiguration)

	// ErrMandatoryUnset indicates a mandatory slot with no explicit value
	// and no default in any layer.
	ErrMandatoryUnset = fmt.Errorf("%w: mandatory parameter not set", ErrConfiguration)

	// ErrUnsetValue indicates a read of a slot with neither an explicit
	// value nor a default.
	ErrUnsetValue = fmt.Errorf("%w: parameter has no value and no default", ErrConfiguration)
)

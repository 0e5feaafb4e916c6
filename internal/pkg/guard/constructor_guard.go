// Package guard holds the constructor guard embedded by value objects and
// aggregates to tell instances built through their constructor apart from
// zero values.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is supplied.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded into domain types. Its zero value reports the
// owning object as not constructed.
//
// Example:
//
//	var ErrStyleNotConstructed = errors.New("ServingStyle must be created via NewServingStyle")
//
//	type ServingStyle struct {
//	    code  string
//	    guard guard.ConstructorGuard
//	}
//
//	func (s ServingStyle) Validate() error {
//	    return s.guard.Validate(ErrStyleNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard that marks its owner as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for a constructed guard. For a zero value guard it
// returns validationError, or ErrDefaultConstructorGuard when that is nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}

package hook

import (
	"errors"
	"fmt"
)

// ErrTargetNotFound is returned when the target is missing or does not expose
// the requested member. Nothing is installed in that case.
var ErrTargetNotFound = errors.New("hook target not found")

// ErrNilHandler is returned when an install call is given a nil handler.
var ErrNilHandler = errors.New("hook handler is nil")

// Fault describes a handler that panicked during dispatch.
// Faults never reach the host's call stack; they are reported to the
// registry's fault handler instead.
type Fault struct {
	Owner  string
	Member string
	Kind   Kind
	Value  any
}

func (f *Fault) Error() string {
	return fmt.Sprintf("hook fault: %s handler of %q (owner %s): %v", f.Kind, f.Member, f.Owner, f.Value)
}

// Unwrap exposes the panic value when it was an error.
func (f *Fault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

func targetNotFound(target Target, member string) error {
	if target == nil {
		return fmt.Errorf("%w: nil target for member %q", ErrTargetNotFound, member)
	}
	return fmt.Errorf("%w: %T has no member %q", ErrTargetNotFound, target, member)
}

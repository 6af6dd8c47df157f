package initargs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrProviderPanic wraps a panic raised by a value provider.
	ErrProviderPanic = errors.New("value provider panicked")

	// ErrFactoryPanic wraps a panic raised by a service factory.
	ErrFactoryPanic = errors.New("service factory panicked")

	// ErrInitPanic wraps a panic raised while initializing a candidate or
	// running one of its lifecycle phases.
	ErrInitPanic = errors.New("initializer panicked")

	// ErrNotCompleted is returned by Future.Result while the future is pending.
	ErrNotCompleted = errors.New("future has not completed")
)

// InvalidHandleError is returned when an object handle can neither be
// used as a T nor provide one.
type InvalidHandleError struct {
	Target reflect.Type
	Handle reflect.Type
	Reason string
}

func (e *InvalidHandleError) Error() string {
	handle := "<nil>"
	if e.Handle != nil {
		handle = e.Handle.String()
	}
	if e.Reason != "" {
		return fmt.Sprintf("invalid handle %s for Any[%v]: %s", handle, e.Target, e.Reason)
	}
	return fmt.Sprintf("invalid handle %s for Any[%v]: not assignable to %v and not a value provider", handle, e.Target, e.Target)
}

// DefiningTypeMismatchError is returned when a service instance does not
// implement the type it is registered as.
type DefiningTypeMismatchError struct {
	Name         string
	DefiningType reflect.Type
	Instance     reflect.Type
}

func (e *DefiningTypeMismatchError) Error() string {
	name := ""
	if e.Name != "" {
		name = fmt.Sprintf(" (name=%s)", e.Name)
	}
	return fmt.Sprintf("service %v%s cannot be registered as %v: type is not assignable", e.Instance, name, e.DefiningType)
}

// MissingArgumentError is returned when an argument of a constructor or an
// initializer has no service in the registry.
type MissingArgumentError struct {
	Target   string
	Index    int
	Argument reflect.Type
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s: argument %d of type %v is not available. Did you forget to register it?", e.Target, e.Index, e.Argument)
}

// ResolutionError is returned when a service cannot be created.
type ResolutionError struct {
	Type    reflect.Type
	Name    string
	Cause   error
	Context string
}

func (e *ResolutionError) Error() string {
	typeStr := "unknown"
	if e.Type != nil {
		typeStr = e.Type.String()
	}

	nameStr := ""
	if e.Name != "" {
		nameStr = fmt.Sprintf(" (name=%s)", e.Name)
	}

	contextStr := ""
	if e.Context != "" {
		contextStr = fmt.Sprintf(": %s", e.Context)
	}

	causeStr := ""
	if e.Cause != nil {
		causeStr = fmt.Sprintf(": %v", e.Cause)
	}

	return fmt.Sprintf("failed to create %s%s%s%s", typeStr, nameStr, contextStr, causeStr)
}

// Unwrap returns the underlying cause error.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// ValidationError collects the problems found while validating a catalog
// or a configuration file.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation failed: %v", e.Errors[0])
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("validation failed with %d errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		b.WriteString(fmt.Sprintf("  %d. %v\n", i+1, err))
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

// recovered converts a recovered panic value into an error wrapping sentinel.
func recovered(sentinel error, r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return fmt.Errorf("%w: %v", sentinel, r)
}

package registry

// Context describes the execution context a lookup or resolution is made from.
type Context uint8

const (
	// MainThread is the regular, committal context. Lookups may create lazy
	// services and consult client-local scopes.
	MainThread Context = iota

	// Background is a context running off the main goroutine. Only services
	// that already exist in the global registry are visible.
	Background

	// EditMode is a design-time context. Lookups never create services, and
	// declared defining types are treated as resolvable by null guards.
	EditMode

	// Validation is used when checking configuration. Lookups never create
	// services and resolution never writes caches.
	Validation
)

// String returns the lowercase name of the context.
func (c Context) String() string {
	switch c {
	case MainThread:
		return "main"
	case Background:
		return "background"
	case EditMode:
		return "edit"
	case Validation:
		return "validation"
	default:
		return "unknown"
	}
}

// AllowsLookup reports whether the process-wide default registry may be
// consulted from this context without an explicit registry override.
func (c Context) AllowsLookup() bool {
	return c != Background
}

// Committal reports whether resolution from this context may have side
// effects such as cache write-back or lazy service creation.
func (c Context) Committal() bool {
	return c == MainThread || c == Background
}

// createsServices reports whether lazy services may be created from this context.
func (c Context) createsServices() bool {
	return c == MainThread
}

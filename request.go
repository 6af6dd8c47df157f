package initargs

import "github.com/pancake-llc/foundation-sub024/registry"

// Context is the execution context of a resolution request.
type Context = registry.Context

// Execution contexts, re-exported from the registry package.
const (
	MainThread = registry.MainThread
	Background = registry.Background
	EditMode   = registry.EditMode
	Validation = registry.Validation
)

// Request describes who resolves a value and from where.
type Request struct {
	// Client is the object the value is resolved for. It is handed to value
	// providers and selects client-local services. May be nil.
	Client any

	// Context is the execution context. The zero value is MainThread.
	Context Context

	// Registry overrides the registry of the currently entered context.
	Registry *registry.Registry
}

// For returns a main-context request for client.
func For(client any) Request {
	return Request{Client: client}
}

// registry returns the registry to fall back to, or false if the request
// may not consult one.
func (r Request) registry() (*registry.Registry, bool) {
	if r.Registry != nil {
		return r.Registry, true
	}
	if !r.Context.AllowsLookup() {
		return nil, false
	}
	reg := registry.Default()
	return reg, reg != nil
}

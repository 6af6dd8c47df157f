// Package registry provides thread-safe storage and retrieval of services
// keyed by their defining type.
//
// A Registry lives for one session: it is created when a context is
// entered, populated by the injector and torn down when the context is
// exited. At most one instance is visible per defining type; the last Set
// wins. Clients implementing ScopedClient additionally see the services of
// their Scope, which shadow global ones.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Entry is a registered service.
type Entry struct {
	// DefiningType is the type the service is registered and looked up as.
	DefiningType reflect.Type

	// Instance is the service itself.
	Instance any
}

// ChangeFunc is called after the service registered for a defining type
// changes. current is nil when the service was removed.
type ChangeFunc func(definingType reflect.Type, previous, current any)

type listener struct {
	id int
	fn ChangeFunc
}

// Registry provides thread-safe storage for services.
// It uses a map with reflect.Type keys for O(1) lookup performance.
type Registry struct {
	mu        sync.RWMutex
	session   string
	services  map[reflect.Type]any
	order     []reflect.Type
	declared  map[reflect.Type]struct{}
	listeners map[reflect.Type][]listener
	nextID    int
	lazy      *lazyCache

	// teardowns counts Teardown calls. A lazy service whose creation
	// started before a teardown is not registered.
	teardowns uint64
}

// New creates an empty Registry with a fresh session id.
func New() *Registry {
	return &Registry{
		session:   uuid.NewString(),
		services:  make(map[reflect.Type]any),
		declared:  make(map[reflect.Type]struct{}),
		listeners: make(map[reflect.Type][]listener),
		lazy:      newLazyCache(),
	}
}

// Session returns the id of the session this registry belongs to.
func (r *Registry) Session() string {
	return r.session
}

// Set registers instance as the service for definingType, replacing any
// previous one, and notifies subscribers of the change.
//
// This method is goroutine-safe.
func (r *Registry) Set(definingType reflect.Type, instance any) error {
	return r.set(definingType, instance, nil)
}

// set registers instance. If teardowns is not nil, it must still match the
// current teardown count or ErrTornDown is returned.
func (r *Registry) set(definingType reflect.Type, instance any, teardowns *uint64) error {
	if definingType == nil {
		return errors.New("defining type cannot be nil")
	}
	if instance == nil {
		return fmt.Errorf("service for %v cannot be nil", definingType)
	}

	r.mu.Lock()
	if teardowns != nil && *teardowns != r.teardowns {
		r.mu.Unlock()
		return ErrTornDown
	}
	previous, existed := r.services[definingType]
	r.services[definingType] = instance
	if existed {
		r.order = removeType(r.order, definingType)
	}
	r.order = append(r.order, definingType)
	r.declared[definingType] = struct{}{}
	r.lazy.remove(definingType)
	subscribers := r.subscribersLocked(definingType)
	r.mu.Unlock()

	if !existed || !sameInstance(previous, instance) {
		notify(subscribers, definingType, previous, instance)
	}
	return nil
}

// Unset removes the service registered for definingType, including a lazy
// service that has not been created yet. It reports whether anything was
// removed.
//
// This method is goroutine-safe.
func (r *Registry) Unset(definingType reflect.Type) bool {
	r.mu.Lock()
	lazy := r.lazy.has(definingType)
	r.lazy.remove(definingType)
	previous, existed := r.services[definingType]
	if existed {
		delete(r.services, definingType)
		r.order = removeType(r.order, definingType)
	}
	subscribers := r.subscribersLocked(definingType)
	r.mu.Unlock()

	if existed {
		notify(subscribers, definingType, previous, nil)
	}
	return existed || lazy
}

// SetLazy registers a factory that creates the service for definingType on
// its first lookup from the main context.
//
// This method is goroutine-safe.
func (r *Registry) SetLazy(definingType reflect.Type, factory Factory) error {
	if definingType == nil {
		return errors.New("defining type cannot be nil")
	}
	if factory == nil {
		return fmt.Errorf("factory for %v cannot be nil", definingType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lazy.add(definingType, factory)
	r.declared[definingType] = struct{}{}
	return nil
}

// Declare records that a service for definingType will be provided at
// some point in this session. Null guards evaluated in EditMode treat
// declared types as resolvable.
func (r *Registry) Declare(definingType reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declared[definingType] = struct{}{}
}

// Get retrieves a global service, ignoring scopes and lazy services.
//
// This method is goroutine-safe.
func (r *Registry) Get(definingType reflect.Type) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, exists := r.services[definingType]
	return instance, exists
}

// TryGet looks up the service visible to client for definingType.
//
// Outside of Background, a service in the client's scope wins over a global
// one. From MainThread a lazy service is created on first lookup. Failures
// are reported as absence; use Resolve to get the reason.
//
// This method is goroutine-safe.
func (r *Registry) TryGet(definingType reflect.Type, client any, ctx Context) (any, bool) {
	instance, err := r.Resolve(definingType, client, ctx)
	return instance, err == nil
}

// Resolve is like TryGet but returns a *NotFoundError when no service is
// visible, or the error of a failed lazy factory.
//
// This method is goroutine-safe.
func (r *Registry) Resolve(definingType reflect.Type, client any, ctx Context) (any, error) {
	if scope := scopeOf(client, ctx); scope != nil {
		if instance, ok := scope.TryGet(definingType); ok {
			return instance, nil
		}
	}

	if instance, ok := r.Get(definingType); ok {
		return instance, nil
	}

	if !ctx.createsServices() {
		return nil, &NotFoundError{Type: definingType, Context: ctx}
	}

	r.mu.RLock()
	teardowns := r.teardowns
	r.mu.RUnlock()

	instance, exists, err := r.lazy.create(definingType)
	if !exists {
		// Another goroutine may have promoted the lazy service meanwhile.
		if instance, ok := r.Get(definingType); ok {
			return instance, nil
		}
		return nil, &NotFoundError{Type: definingType, Context: ctx}
	}
	if err != nil {
		return nil, fmt.Errorf("create lazy service %v: %w", definingType, err)
	}
	if instance == nil {
		return nil, &NotFoundError{Type: definingType, Context: ctx}
	}
	if err := r.set(definingType, instance, &teardowns); err != nil {
		return nil, fmt.Errorf("register lazy service %v: %w", definingType, err)
	}
	return instance, nil
}

// Exists reports whether client can get a service for definingType from
// ctx. Lazy services that have not been created yet count as existing, and
// in EditMode so do declared types.
//
// This method is goroutine-safe.
func (r *Registry) Exists(definingType reflect.Type, client any, ctx Context) bool {
	if scope := scopeOf(client, ctx); scope != nil {
		if _, ok := scope.TryGet(definingType); ok {
			return true
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.services[definingType]; ok {
		return true
	}
	if ctx != Background && r.lazy.has(definingType) {
		return true
	}
	if ctx == EditMode {
		_, declared := r.declared[definingType]
		return declared
	}
	return false
}

// Entries returns the global services in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, t := range r.order {
		entries = append(entries, Entry{DefiningType: t, Instance: r.services[t]})
	}
	return entries
}

// LazyTypes returns the defining types of lazy services not created yet.
func (r *Registry) LazyTypes() []reflect.Type {
	return r.lazy.types()
}

// Len returns the number of global services.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

// Subscribe registers fn to be called after the service for definingType
// changes. The returned function removes the subscription.
//
// This method is goroutine-safe.
func (r *Registry) Subscribe(definingType reflect.Type, fn ChangeFunc) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.listeners[definingType] = append(r.listeners[definingType], listener{id: id, fn: fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		current := r.listeners[definingType]
		for i, l := range current {
			if l.id == id {
				r.listeners[definingType] = append(current[:i:i], current[i+1:]...)
				return
			}
		}
	}
}

// Teardown atomically drops every service, lazy factory and declaration and
// returns the dropped services in registration order. A lazy service still
// being created is not registered when its factory returns. Subscriptions
// are kept and not notified. Calling Teardown again returns nil.
//
// This method is goroutine-safe.
func (r *Registry) Teardown() []Entry {
	r.mu.Lock()
	services, order := r.services, r.order
	r.services = make(map[reflect.Type]any)
	r.order = nil
	r.declared = make(map[reflect.Type]struct{})
	r.lazy.clear()
	r.teardowns++
	r.mu.Unlock()

	if len(order) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(order))
	for _, t := range order {
		entries = append(entries, Entry{DefiningType: t, Instance: services[t]})
	}
	return entries
}

func (r *Registry) subscribersLocked(definingType reflect.Type) []ChangeFunc {
	current := r.listeners[definingType]
	if len(current) == 0 {
		return nil
	}
	fns := make([]ChangeFunc, len(current))
	for i, l := range current {
		fns[i] = l.fn
	}
	return fns
}

func notify(subscribers []ChangeFunc, definingType reflect.Type, previous, current any) {
	for _, fn := range subscribers {
		fn(definingType, previous, current)
	}
}

func scopeOf(client any, ctx Context) *Scope {
	if ctx == Background {
		return nil
	}
	scoped, ok := client.(ScopedClient)
	if !ok {
		return nil
	}
	if v := reflect.ValueOf(client); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}
	return scoped.ServiceScope()
}

func removeType(types []reflect.Type, t reflect.Type) []reflect.Type {
	for i, existing := range types {
		if existing == t {
			return append(types[:i], types[i+1:]...)
		}
	}
	return types
}

func sameInstance(a, b any) bool {
	ka, okA := identity(a)
	kb, okB := identity(b)
	return okA && okB && ka == kb
}

// ErrTornDown is returned when a lazy service finishes creation after the
// registry it belongs to was torn down.
var ErrTornDown = errors.New("registry was torn down")

// NotFoundError is returned when no service is visible for a defining type.
type NotFoundError struct {
	Type    reflect.Type
	Context Context
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("service not found for type %v (context: %s)", e.Type, e.Context)
}

// CircularDependencyError is returned when a lazy service's factory needs
// the service it is creating.
type CircularDependencyError struct {
	Type reflect.Type
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected while creating %v", e.Type)
}

var defaultRegistry atomic.Pointer[Registry]

// Default returns the registry of the currently entered context, or nil.
func Default() *Registry {
	return defaultRegistry.Load()
}

// SetDefault makes r the registry of the currently entered context and
// returns the previous one. Passing nil clears it.
func SetDefault(r *Registry) (previous *Registry) {
	return defaultRegistry.Swap(r)
}

// SetT registers instance as the service for T.
func SetT[T any](r *Registry, instance T) error {
	return r.Set(reflect.TypeFor[T](), instance)
}

// SetLazyT registers a factory creating the service for T on first lookup.
func SetLazyT[T any](r *Registry, factory func() (T, error)) error {
	return r.SetLazy(reflect.TypeFor[T](), func() (any, error) {
		return factory()
	})
}

// TryGetT looks up the service for T visible to client from ctx.
func TryGetT[T any](r *Registry, client any, ctx Context) (T, bool) {
	var zero T
	instance, ok := r.TryGet(reflect.TypeFor[T](), client, ctx)
	if !ok {
		return zero, false
	}
	typed, ok := instance.(T)
	return typed, ok
}

// ExistsT reports whether a service for T is visible to client from ctx.
func ExistsT[T any](r *Registry, client any, ctx Context) bool {
	return r.Exists(reflect.TypeFor[T](), client, ctx)
}

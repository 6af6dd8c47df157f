package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrScopeDisposed is returned when a disposed scope is mutated.
var ErrScopeDisposed = errors.New("scope is disposed")

// Disposable represents a service that requires cleanup.
// Services implementing this interface have Dispose called when the scope
// holding them is disposed, or when the registry session ends.
//
// Example:
//
//	type DatabaseConnection struct {}
//	func (d *DatabaseConnection) Dispose() error {
//	    return d.connection.Close()
//	}
type Disposable interface {
	Dispose() error
}

// ScopedClient is implemented by clients that see client-local services in
// addition to the global ones. A nil scope means the client only sees
// global services.
type ScopedClient interface {
	ServiceScope() *Scope
}

// Scope holds client-local services. Services set on a scope shadow global
// services of the same defining type for every client attached to it, and
// child scopes see the services of their ancestors.
//
// Example:
//
//	scope := registry.NewScope("level-1")
//	defer scope.Dispose()
//
//	_ = scope.Set(reflect.TypeFor[Logger](), &FileLogger{})
type Scope struct {
	name          string
	parent        *Scope
	services      map[reflect.Type]any
	creationOrder []any // Track order for reverse disposal
	children      []*Scope
	disposed      bool
	mu            sync.RWMutex
}

// NewScope creates an empty root scope.
func NewScope(name string) *Scope {
	return &Scope{
		name:     name,
		services: make(map[reflect.Type]any),
	}
}

// Name returns the scope name.
func (s *Scope) Name() string {
	return s.name
}

// Set makes instance the local service for definingType.
//
// This method is goroutine-safe.
func (s *Scope) Set(definingType reflect.Type, instance any) error {
	if definingType == nil {
		return errors.New("defining type cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return fmt.Errorf("set %v on scope %q: %w", definingType, s.name, ErrScopeDisposed)
	}

	s.services[definingType] = instance
	s.creationOrder = append(s.creationOrder, instance)
	return nil
}

// TryGet looks up a local service in this scope, then in its ancestors.
// A disposed scope never yields services.
//
// This method is goroutine-safe.
func (s *Scope) TryGet(definingType reflect.Type) (any, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		scope.mu.RLock()
		if scope.disposed {
			scope.mu.RUnlock()
			return nil, false
		}
		instance, exists := scope.services[definingType]
		scope.mu.RUnlock()

		if exists {
			return instance, true
		}
	}
	return nil, false
}

// CreateChildScope creates a child scope that sees this scope's services.
// Child scopes are disposed together with their parent.
func (s *Scope) CreateChildScope(name string) (*Scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil, fmt.Errorf("create child scope %q: %w", name, ErrScopeDisposed)
	}

	child := NewScope(name)
	child.parent = s
	s.children = append(s.children, child)
	return child, nil
}

// Disposed reports whether Dispose has been called.
func (s *Scope) Disposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

// Dispose disposes child scopes first, then calls Dispose on every local
// service implementing Disposable in reverse creation order. Calling
// Dispose more than once is a no-op.
func (s *Scope) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	children := s.children
	order := s.creationOrder
	s.children = nil
	s.creationOrder = nil
	s.services = make(map[reflect.Type]any)
	s.disposed = true
	s.mu.Unlock()

	var errs []error

	for _, child := range children {
		if err := child.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("child scope %q: %w", child.name, err))
		}
	}

	seen := make(map[any]struct{}, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		instance := order[i]
		disposable, ok := instance.(Disposable)
		if !ok {
			continue
		}
		if key, comparable := identity(instance); comparable {
			if _, done := seen[key]; done {
				continue
			}
			seen[key] = struct{}{}
		}
		if err := disposable.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("dispose %T: %w", instance, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("scope %q disposal encountered %d error(s): %w", s.name, len(errs), errors.Join(errs...))
	}
	return nil
}

// identity returns a map key for instances whose dynamic type is comparable.
func identity(instance any) (any, bool) {
	if instance == nil || !reflect.TypeOf(instance).Comparable() {
		return nil, false
	}
	return instance, true
}

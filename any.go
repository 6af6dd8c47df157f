package initargs

import (
	"fmt"
	"reflect"
	"sync"
)

// Any holds a value of type T that is either stored directly, referenced
// through an object handle, produced by a value provider, or looked up from
// the service registry.
//
// A cell has two slots: a literal of type T and an object handle. Resolve
// consults them in a fixed order:
//
//  1. a cached provider result, or a literal holding a live reference
//  2. a non-nil literal when T is an interface type
//  3. a handle that is itself a T
//  4. the Null sentinel handle, which yields the literal and nothing else
//  5. a ValueByTypeProvider handle
//  6. a ValueProvider[T] handle
//  7. an asynchronous provider handle whose future has already completed
//  8. with no literal set, the service registered for T
//
// Provider results are cached into the literal slot unless the request
// comes from EditMode or Validation, so a provider runs at most once per
// committal resolution.
//
// The zero value is an empty cell that resolves T from the registry.
// A cell must not be copied after first use.
type Any[T any] struct {
	mu       sync.Mutex
	value    T
	hasValue bool
	cached   bool
	handle   any
}

// cellState is a consistent copy of the slots of a cell.
type cellState[T any] struct {
	value    T
	hasValue bool
	cached   bool
	handle   any
}

// literalFound reports whether the literal slot holds a usable value.
func (s cellState[T]) literalFound() bool {
	return s.hasValue && isLive(any(s.value))
}

func (s cellState[T]) literal() (T, bool) {
	if !s.literalFound() {
		var zero T
		return zero, false
	}
	return s.value, true
}

// FromValue returns a cell holding value in its literal slot.
func FromValue[T any](value T) *Any[T] {
	return &Any[T]{value: value, hasValue: true}
}

// FromObject returns a cell holding handle in its object slot. The handle
// must be a T, the Null sentinel, or a value provider; otherwise an
// *InvalidHandleError is returned. Builds with the initargs_unchecked tag
// skip the check.
func FromObject[T any](handle any) (*Any[T], error) {
	a := &Any[T]{}
	if err := a.SetObject(handle); err != nil {
		return nil, err
	}
	return a, nil
}

// MustFromObject is like FromObject but panics on an invalid handle.
func MustFromObject[T any](handle any) *Any[T] {
	a, err := FromObject[T](handle)
	if err != nil {
		panic(err)
	}
	return a
}

// NullOf returns a cell that explicitly holds nothing. It never falls back
// to the registry.
func NullOf[T any]() *Any[T] {
	return &Any[T]{handle: NullObject}
}

// SetValue stores value in the literal slot and clears the handle, unless
// the handle is the Null sentinel, which is kept.
func (a *Any[T]) SetValue(value T) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.value, a.hasValue, a.cached = value, true, false
	if !isNullSentinel(a.handle) {
		a.handle = nil
	}
}

// SetObject stores handle in the object slot and clears the literal.
// A nil handle empties the slot.
func (a *Any[T]) SetObject(handle any) error {
	if isNil(handle) {
		handle = nil
	} else if err := validateHandle[T](handle); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var zero T
	a.value, a.hasValue, a.cached = zero, false, false
	a.handle = handle
	return nil
}

// Reset empties both slots.
func (a *Any[T]) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	var zero T
	a.value, a.hasValue, a.cached, a.handle = zero, false, false, nil
}

// Object returns the object handle, or nil.
func (a *Any[T]) Object() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle
}

// Literal returns the literal slot and whether it is set.
func (a *Any[T]) Literal() (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value, a.hasValue
}

// IsCached reports whether the literal slot holds a cached provider result.
func (a *Any[T]) IsCached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cached
}

// Capabilities returns the capabilities of the current handle.
func (a *Any[T]) Capabilities() Capability {
	return CapabilitiesOf[T](a.Object())
}

// Resolve returns the value of the cell for req and whether one was found.
func (a *Any[T]) Resolve(req Request) (T, bool) {
	s := a.snapshot()

	if value, ok := a.fromLiteral(req, &s); ok {
		return value, true
	}

	if isLive(s.handle) {
		caps := CapabilitiesOf[T](s.handle)
		switch {
		case caps.Has(CapInstance):
			return s.handle.(T), true
		case caps.Has(CapNull):
			return s.literal()
		}
		if value, ok, handled := a.provide(s.handle, caps, req); handled {
			return value, ok
		}
	}

	if !s.literalFound() {
		return lookup[T](req)
	}
	return s.value, true
}

// Value resolves the cell from the main context without a client.
// It returns the zero value of T if nothing is found.
func (a *Any[T]) Value() T {
	value, _ := a.Resolve(Request{})
	return value
}

// ValueFor resolves the cell from the main context for client.
func (a *Any[T]) ValueFor(client any) T {
	value, _ := a.Resolve(For(client))
	return value
}

// TryGetValue resolves the cell from the main context without a client.
func (a *Any[T]) TryGetValue() (T, bool) {
	return a.Resolve(Request{})
}

// ProvideValue makes a cell usable as the value provider of another cell.
func (a *Any[T]) ProvideValue(client any) (T, bool, error) {
	value, ok := a.Resolve(For(client))
	return value, ok, nil
}

// Equal reports whether both cells reference the same handle and hold
// equal literals.
func (a *Any[T]) Equal(other *Any[T]) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}

	x, y := a.snapshot(), other.snapshot()
	if !sameReference(x.handle, y.handle) {
		return false
	}
	if x.hasValue != y.hasValue {
		return false
	}
	return !x.hasValue || valuesEqual(x.value, y.value)
}

// EqualValue reports whether the value the cell resolves to from the main
// context equals value.
func (a *Any[T]) EqualValue(value T) bool {
	resolved, _ := a.Resolve(Request{})
	return valuesEqual(resolved, value)
}

// String formats the resolved value without writing the cache.
func (a *Any[T]) String() string {
	value, ok := a.Resolve(Request{Context: Validation})
	if !ok {
		return ""
	}
	return fmt.Sprint(value)
}

func (a *Any[T]) snapshot() cellState[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cellState[T]{value: a.value, hasValue: a.hasValue, cached: a.cached, handle: a.handle}
}

// fromLiteral applies the first two resolution steps. A cached result that
// is no longer alive is dropped from s, and from the cell when req is
// committal.
func (a *Any[T]) fromLiteral(req Request, s *cellState[T]) (T, bool) {
	var zero T
	if !s.hasValue {
		return zero, false
	}

	value := any(s.value)
	switch {
	case s.cached:
		if isLive(value) {
			return s.value, true
		}
		if req.Context.Committal() {
			a.clearCache()
		}
		s.value, s.hasValue, s.cached = zero, false, false
	case isReference(value) && isLive(value):
		return s.value, true
	case isInterface[T]() && isLive(value):
		return s.value, true
	}
	return zero, false
}

// provide applies the provider steps. handled is false when the handle has
// no provider capability usable for this request.
func (a *Any[T]) provide(handle any, caps Capability, req Request) (value T, ok, handled bool) {
	target := reflect.TypeFor[T]()

	if caps.Has(CapValueByType) {
		p := handle.(ValueByTypeProvider)
		if canProvide(p, target, req.Client) {
			value, ok, err := convert[T](callByType(p, req.Client, target))
			value, ok = a.commit(req, value, ok, err)
			return value, ok, true
		}
	}

	if caps.Has(CapValue) {
		value, ok, err := callValue(handle.(ValueProvider[T]), req.Client)
		value, ok = a.commit(req, value, ok, err)
		return value, ok, true
	}

	if caps.Has(CapValueByTypeAsync) {
		p := handle.(ValueByTypeProviderAsync)
		if canProvide(p, target, req.Client) {
			future := Then(callByTypeAsync(p, req.Client, target), convert[T])
			value, ok = a.completedOrDeferred(req, future)
			return value, ok, true
		}
	}

	if caps.Has(CapValueAsync) {
		value, ok = a.completedOrDeferred(req, callValueAsync(handle.(ValueProviderAsync[T]), req.Client))
		return value, ok, true
	}

	return value, false, false
}

// completedOrDeferred returns the result of a future that has already
// completed. A pending future writes the cache when it completes.
func (a *Any[T]) completedOrDeferred(req Request, future *Future[T]) (T, bool) {
	if future.IsCompleted() {
		value, ok, err := future.Result()
		return a.commit(req, value, ok, err)
	}
	if req.Context.Committal() {
		go func() {
			<-future.Done()
			value, ok, err := future.Result()
			a.commit(req, value, ok, err)
		}()
	}
	var zero T
	return zero, false
}

// commit writes a provider result back into the literal slot. A result
// that is not alive clears the cache instead. Neither happens when req is
// not committal.
func (a *Any[T]) commit(req Request, value T, ok bool, err error) (T, bool) {
	var zero T
	if err != nil || !ok {
		return zero, false
	}
	committal := req.Context.Committal()
	if !isLive(any(value)) {
		if committal {
			a.clearCache()
		}
		return zero, false
	}
	if committal {
		a.mu.Lock()
		a.value, a.hasValue, a.cached = value, true, true
		a.mu.Unlock()
	}
	return value, true
}

func (a *Any[T]) clearCache() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached {
		var zero T
		a.value, a.hasValue, a.cached = zero, false, false
	}
}

// lookup resolves T from the registry visible to req.
func lookup[T any](req Request) (T, bool) {
	var zero T
	reg, ok := req.registry()
	if !ok {
		return zero, false
	}
	instance, ok := reg.TryGet(reflect.TypeFor[T](), req.Client, req.Context)
	if !ok {
		return zero, false
	}
	value, ok := instance.(T)
	return value, ok
}

func isInterface[T any]() bool {
	return reflect.TypeFor[T]().Kind() == reflect.Interface
}

// validateHandle checks that handle can serve an Any[T].
func validateHandle[T any](handle any) error {
	if !handleValidation {
		return nil
	}
	caps := CapabilitiesOf[T](handle)
	if caps.Has(CapInstance) || caps.Has(CapNull) || caps.IsProvider() {
		return nil
	}
	return &InvalidHandleError{Target: reflect.TypeFor[T](), Handle: reflect.TypeOf(handle)}
}

package initargs

import "reflect"

// The helpers below call into value providers and turn panics into errors
// wrapping ErrProviderPanic.

func callValue[T any](p ValueProvider[T], client any) (value T, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, ok, err = zero, false, recovered(ErrProviderPanic, r)
		}
	}()
	return p.ProvideValue(client)
}

func callByType(p ValueByTypeProvider, client any, t reflect.Type) (value any, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, ok, err = nil, false, recovered(ErrProviderPanic, r)
		}
	}()
	return p.ProvideValueOfType(client, t)
}

func callValueAsync[T any](p ValueProviderAsync[T], client any) (future *Future[T]) {
	defer func() {
		if r := recover(); r != nil {
			future = Failed[T](recovered(ErrProviderPanic, r))
		}
	}()
	if future = p.ProvideValueAsync(client); future == nil {
		var zero T
		future = Completed(zero, false)
	}
	return future
}

func callByTypeAsync(p ValueByTypeProviderAsync, client any, t reflect.Type) (future *Future[any]) {
	defer func() {
		if r := recover(); r != nil {
			future = Failed[any](recovered(ErrProviderPanic, r))
		}
	}()
	if future = p.ProvideValueOfTypeAsync(client, t); future == nil {
		future = Completed[any](nil, false)
	}
	return future
}

func canProvide(p interface {
	CanProvideValue(t reflect.Type, client any) bool
}, t reflect.Type, client any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return p.CanProvideValue(t, client)
}

func callNullGuard(fn func() NullGuardResult) (result NullGuardResult) {
	defer func() {
		if r := recover(); r != nil {
			result = ValueProviderException
		}
	}()
	return fn()
}

// convert narrows a by-type provider result to T.
func convert[T any](raw any, ok bool, err error) (T, bool, error) {
	var zero T
	if err != nil || !ok || raw == nil {
		return zero, false, err
	}
	value, ok := raw.(T)
	if !ok {
		return zero, false, nil
	}
	return value, true, nil
}

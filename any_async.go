package initargs

import "reflect"

// ResolveAsync resolves the cell like Resolve, but waits for asynchronous
// providers instead of skipping pending ones. Asynchronous capabilities are
// preferred over synchronous ones; only one provider is called.
//
// The returned future completes on the provider's goroutine. The cache is
// written when it completes, even if nobody awaits it any more.
func (a *Any[T]) ResolveAsync(req Request) *Future[T] {
	s := a.snapshot()

	if value, ok := a.fromLiteral(req, &s); ok {
		return Completed(value, true)
	}

	if isLive(s.handle) {
		caps := CapabilitiesOf[T](s.handle)
		switch {
		case caps.Has(CapInstance):
			return Completed(s.handle.(T), true)
		case caps.Has(CapNull):
			value, ok := s.literal()
			return Completed(value, ok)
		}
		if future, handled := a.provideAsync(s.handle, caps, req); handled {
			return future
		}
		if value, ok, handled := a.provide(s.handle, caps, req); handled {
			return Completed(value, ok)
		}
	}

	if !s.literalFound() {
		value, ok := lookup[T](req)
		return Completed(value, ok)
	}
	return Completed(s.value, true)
}

func (a *Any[T]) provideAsync(handle any, caps Capability, req Request) (*Future[T], bool) {
	target := reflect.TypeFor[T]()

	var future *Future[T]
	switch {
	case caps.Has(CapValueByTypeAsync) && canProvide(handle.(ValueByTypeProviderAsync), target, req.Client):
		future = Then(callByTypeAsync(handle.(ValueByTypeProviderAsync), req.Client, target), convert[T])
	case caps.Has(CapValueAsync):
		future = callValueAsync(handle.(ValueProviderAsync[T]), req.Client)
	default:
		return nil, false
	}

	return Then(future, func(value T, ok bool, err error) (T, bool, error) {
		if err != nil {
			var zero T
			return zero, false, err
		}
		value, ok = a.commit(req, value, ok, nil)
		return value, ok, nil
	}), true
}

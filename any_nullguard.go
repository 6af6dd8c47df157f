package initargs

import "reflect"

// HasValue reports whether the cell would resolve a value for req. It never
// writes the cache.
func (a *Any[T]) HasValue(req Request) bool {
	return a.NullGuardFor(req) == Passed
}

// EvaluateNullGuard implements NullGuard, so a cell can be the handle of
// another cell. It evaluates from the Validation context.
func (a *Any[T]) EvaluateNullGuard(client any) NullGuardResult {
	return a.NullGuardFor(Request{Client: client, Context: Validation})
}

// NullGuardFor reports whether the cell would resolve a value for req,
// following the same precedence as Resolve. A handle's own null guard is
// preferred; other providers are called and their result discarded.
func (a *Any[T]) NullGuardFor(req Request) NullGuardResult {
	s := a.snapshot()

	if s.hasValue {
		value := any(s.value)
		if isLive(value) && (s.cached || isReference(value) || isInterface[T]()) {
			return Passed
		}
	}

	if isLive(s.handle) {
		caps := CapabilitiesOf[T](s.handle)
		switch {
		case caps.Has(CapInstance):
			return Passed
		case caps.Has(CapNull):
			if s.literalFound() {
				return Passed
			}
			return ValueMissing
		case caps.Has(CapNullGuard):
			guard := s.handle.(NullGuard)
			return callNullGuard(func() NullGuardResult { return guard.EvaluateNullGuard(req.Client) })
		case caps.Has(CapNullGuardByType):
			guard := s.handle.(NullGuardByType)
			return callNullGuard(func() NullGuardResult { return guard.EvaluateNullGuardFor(req.Client, reflect.TypeFor[T]()) })
		}
		if result, handled := dryRun[T](s.handle, caps, req); handled {
			return result
		}
	}

	if s.literalFound() {
		return Passed
	}
	if reg, ok := req.registry(); ok && reg.Exists(reflect.TypeFor[T](), req.Client, req.Context) {
		return Passed
	}
	return ValueMissing
}

// dryRun calls the provider that Resolve would call and classifies the
// result without caching it.
func dryRun[T any](handle any, caps Capability, req Request) (NullGuardResult, bool) {
	target := reflect.TypeFor[T]()
	missing := ValueProviderValueMissing
	if req.Context == EditMode {
		missing = ValueProviderValueNullInEditMode
	}

	switch {
	case caps.Has(CapValueByType) && canProvide(handle.(ValueByTypeProvider), target, req.Client):
		value, ok, err := convert[T](callByType(handle.(ValueByTypeProvider), req.Client, target))
		return classify(value, ok, err, missing), true
	case caps.Has(CapValue):
		value, ok, err := callValue(handle.(ValueProvider[T]), req.Client)
		return classify(value, ok, err, missing), true
	case caps.Has(CapValueByTypeAsync) && canProvide(handle.(ValueByTypeProviderAsync), target, req.Client):
		return classifyFuture(Then(callByTypeAsync(handle.(ValueByTypeProviderAsync), req.Client, target), convert[T]), missing), true
	case caps.Has(CapValueAsync):
		return classifyFuture(callValueAsync(handle.(ValueProviderAsync[T]), req.Client), missing), true
	case caps&(CapValueByType|CapValueByTypeAsync) != 0:
		return ClientNotSupported, true
	}
	return Passed, false
}

func classify[T any](value T, ok bool, err error, missing NullGuardResult) NullGuardResult {
	switch {
	case err != nil:
		return ValueProviderException
	case !ok || !isLive(any(value)):
		return missing
	default:
		return Passed
	}
}

// classifyFuture treats a pending future as a value that will arrive.
func classifyFuture[T any](future *Future[T], missing NullGuardResult) NullGuardResult {
	if !future.IsCompleted() {
		return Passed
	}
	value, ok, err := future.Result()
	return classify(value, ok, err, missing)
}

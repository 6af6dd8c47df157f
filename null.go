package initargs

import "reflect"

// Null is the sentinel handle meaning "explicitly nothing". A cell whose
// handle is Null resolves to its literal and never falls back to the
// registry.
type Null struct{}

// NullObject is the shared Null sentinel.
var NullObject = &Null{}

// Aliver is implemented by values that can be destroyed while still
// referenced. A value whose Alive method returns false is treated as absent.
type Aliver interface {
	Alive() bool
}

// isNil reports whether v is nil or a nil value of a nillable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// isLive reports whether v is non-nil and, if it implements Aliver, alive.
func isLive(v any) bool {
	if isNil(v) {
		return false
	}
	if a, ok := v.(Aliver); ok {
		return a.Alive()
	}
	return true
}

// isReference reports whether v holds a value of a reference kind.
func isReference(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

func isNullSentinel(handle any) bool {
	_, ok := handle.(*Null)
	return ok
}

// sameReference reports whether a and b are the same handle. Handles of
// uncomparable kinds are compared by pointer.
func sameReference(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	return false
}

// valuesEqual compares two literals with value semantics.
func valuesEqual[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	if t := reflect.TypeOf(av); t == reflect.TypeOf(bv) && t.Comparable() {
		return av == bv
	}
	return reflect.DeepEqual(av, bv)
}

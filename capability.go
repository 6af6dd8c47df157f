package initargs

import (
	"reflect"
	"strings"
)

// ValueProvider provides a value of its declared type T.
type ValueProvider[T any] interface {
	ProvideValue(client any) (T, bool, error)
}

// ValueByTypeProvider provides values of types requested at resolution time.
type ValueByTypeProvider interface {
	// CanProvideValue reports whether values of type t can be provided to client.
	CanProvideValue(t reflect.Type, client any) bool

	// ProvideValueOfType returns a value assignable to t.
	ProvideValueOfType(client any, t reflect.Type) (any, bool, error)
}

// ValueProviderAsync provides a value of its declared type T asynchronously.
type ValueProviderAsync[T any] interface {
	ProvideValueAsync(client any) *Future[T]
}

// ValueByTypeProviderAsync provides values of requested types asynchronously.
type ValueByTypeProviderAsync interface {
	CanProvideValue(t reflect.Type, client any) bool
	ProvideValueOfTypeAsync(client any, t reflect.Type) *Future[any]
}

// NullGuard lets a provider report whether it will have a value for client
// without providing it.
type NullGuard interface {
	EvaluateNullGuard(client any) NullGuardResult
}

// NullGuardByType is the NullGuard of providers of requested types.
type NullGuardByType interface {
	EvaluateNullGuardFor(client any, t reflect.Type) NullGuardResult
}

// Capability is a set of flags describing what a handle can do for an Any[T].
type Capability uint16

const (
	// CapInstance means the handle is itself a T.
	CapInstance Capability = 1 << iota
	// CapNull means the handle is the Null sentinel.
	CapNull
	// CapValueByType means the handle implements ValueByTypeProvider.
	CapValueByType
	// CapValue means the handle implements ValueProvider[T].
	CapValue
	// CapValueByTypeAsync means the handle implements ValueByTypeProviderAsync.
	CapValueByTypeAsync
	// CapValueAsync means the handle implements ValueProviderAsync[T].
	CapValueAsync
	// CapNullGuard means the handle implements NullGuard.
	CapNullGuard
	// CapNullGuardByType means the handle implements NullGuardByType.
	CapNullGuardByType
)

const providerCapabilities = CapValue | CapValueByType | CapValueAsync | CapValueByTypeAsync

var capabilityNames = []struct {
	flag Capability
	name string
}{
	{CapInstance, "instance"},
	{CapNull, "null"},
	{CapValueByType, "value-by-type"},
	{CapValue, "value"},
	{CapValueByTypeAsync, "value-by-type-async"},
	{CapValueAsync, "value-async"},
	{CapNullGuard, "null-guard"},
	{CapNullGuardByType, "null-guard-by-type"},
}

// Has reports whether all bits of flag are set.
func (c Capability) Has(flag Capability) bool {
	return c&flag == flag
}

// IsProvider reports whether any value provider capability is set.
func (c Capability) IsProvider() bool {
	return c&providerCapabilities != 0
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, n := range capabilityNames {
		if c.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// CapabilitiesOf computes the capabilities of handle for an Any[T].
// A nil handle has none, and the Null sentinel has only CapNull.
func CapabilitiesOf[T any](handle any) Capability {
	if isNil(handle) {
		return 0
	}

	if isNullSentinel(handle) {
		return CapNull
	}

	var c Capability
	if _, ok := handle.(T); ok {
		c |= CapInstance
	}
	if _, ok := handle.(ValueByTypeProvider); ok {
		c |= CapValueByType
	}
	if _, ok := handle.(ValueProvider[T]); ok {
		c |= CapValue
	}
	if _, ok := handle.(ValueByTypeProviderAsync); ok {
		c |= CapValueByTypeAsync
	}
	if _, ok := handle.(ValueProviderAsync[T]); ok {
		c |= CapValueAsync
	}
	if _, ok := handle.(NullGuard); ok {
		c |= CapNullGuard
	}
	if _, ok := handle.(NullGuardByType); ok {
		c |= CapNullGuardByType
	}
	return c
}

package initargs

import (
	"context"
	"fmt"

	"github.com/pancake-llc/foundation-sub024/registry"
)

// Lifetime represents when a service is created within a session.
type Lifetime string

const (
	// LifetimeEager creates the service when the context is entered, before
	// the injection pass. This is the default.
	LifetimeEager Lifetime = "eager"

	// LifetimeLazy creates the service on its first lookup from the main
	// context. The factory runs once per session, guarded by sync.Once.
	LifetimeLazy Lifetime = "lazy"

	// LifetimeAsync creates the service on a background goroutine. It joins
	// the registry when Injector.AwaitAsync collects it.
	LifetimeAsync Lifetime = "async"
)

// String returns the string representation of the lifetime.
func (l Lifetime) String() string {
	return string(l)
}

// ParseLifetime parses a lifetime name. The empty string means LifetimeEager.
func ParseLifetime(s string) (Lifetime, error) {
	switch Lifetime(s) {
	case "", LifetimeEager:
		return LifetimeEager, nil
	case LifetimeLazy, LifetimeAsync:
		return Lifetime(s), nil
	default:
		return "", fmt.Errorf("unknown lifetime %q (want eager, lazy or async)", s)
	}
}

// Factory creates a service. It receives the registry of the session so it
// can look up the services it depends on.
//
// Example:
//
//	factory := func(reg *registry.Registry) (any, error) {
//	    config, _ := registry.TryGetT[*Config](reg, nil, registry.MainThread)
//	    return NewConnection(config.DSN), nil
//	}
type Factory func(reg *registry.Registry) (any, error)

// AsyncFactory creates a service on a background goroutine. ctx is
// cancelled when the session ends before the factory returns.
type AsyncFactory func(ctx context.Context, reg *registry.Registry) (any, error)

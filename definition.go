package initargs

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/pancake-llc/foundation-sub024/registry"
)

// Definition describes a service to create when a context is entered.
type Definition struct {
	// Name identifies the service in logs and reports. Defaults to the
	// defining type.
	Name string

	// DefiningType is the type the service is registered as.
	DefiningType reflect.Type

	// Lifetime selects when the service is created.
	Lifetime Lifetime

	// Factory creates eager and lazy services.
	Factory Factory

	// AsyncFactory creates async services. If nil, Factory is run on a
	// background goroutine instead.
	AsyncFactory AsyncFactory
}

// Define returns an eager definition of a service registered as T.
//
// Example:
//
//	def := initargs.Define[Logger]("logger", func(*registry.Registry) (Logger, error) {
//	    return &ConsoleLogger{}, nil
//	})
func Define[T any](name string, factory func(reg *registry.Registry) (T, error)) Definition {
	return Definition{
		Name:         name,
		DefiningType: reflect.TypeFor[T](),
		Lifetime:     LifetimeEager,
		Factory: func(reg *registry.Registry) (any, error) {
			return factory(reg)
		},
	}
}

// Instance returns an eager definition registering an existing instance as T.
func Instance[T any](name string, instance T) Definition {
	return Define(name, func(*registry.Registry) (T, error) {
		return instance, nil
	})
}

// WithLifetime returns a copy of d with the given lifetime.
func (d Definition) WithLifetime(lifetime Lifetime) Definition {
	d.Lifetime = lifetime
	return d
}

// DisplayName returns the name of the definition, or its defining type.
func (d Definition) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	if d.DefiningType != nil {
		return d.DefiningType.String()
	}
	return "<unnamed>"
}

// Validate checks that the definition can be run.
func (d Definition) Validate() error {
	var errs []error
	if d.DefiningType == nil {
		errs = append(errs, fmt.Errorf("%s: defining type is required", d.DisplayName()))
	}
	if _, err := ParseLifetime(string(d.Lifetime)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", d.DisplayName(), err))
	}
	if d.Factory == nil && (d.Lifetime != LifetimeAsync || d.AsyncFactory == nil) {
		errs = append(errs, fmt.Errorf("%s: factory is required", d.DisplayName()))
	}
	return errors.Join(errs...)
}

// construct runs the synchronous factory, turning a panic into an error
// wrapping ErrFactoryPanic.
func (d Definition) construct(reg *registry.Registry) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance, err = nil, recovered(ErrFactoryPanic, r)
		}
	}()

	if d.Factory == nil {
		return nil, errors.New("factory is nil")
	}
	instance, err = d.Factory(reg)
	if err == nil && isNil(instance) {
		err = errors.New("factory returned nil")
	}
	return instance, err
}

// constructAsync runs the asynchronous factory, or the synchronous one if
// none is set.
func (d Definition) constructAsync(ctx context.Context, reg *registry.Registry) (instance any, err error) {
	if d.AsyncFactory == nil {
		return d.construct(reg)
	}

	defer func() {
		if r := recover(); r != nil {
			instance, err = nil, recovered(ErrFactoryPanic, r)
		}
	}()

	instance, err = d.AsyncFactory(ctx, reg)
	if err == nil && isNil(instance) {
		err = errors.New("factory returned nil")
	}
	return instance, err
}

package initargs

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/pancake-llc/foundation-sub024/config"
)

// Catalog maps the names used in configuration files to Go types and
// factories.
type Catalog struct {
	mu             sync.RWMutex
	types          map[string]reflect.Type
	factories      map[string]Factory
	asyncFactories map[string]AsyncFactory
	installers     []Installer
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		types:          make(map[string]reflect.Type),
		factories:      make(map[string]Factory),
		asyncFactories: make(map[string]AsyncFactory),
	}
}

// RegisterType makes t available under name.
func (c *Catalog) RegisterType(name string, t reflect.Type) error {
	if name == "" || t == nil {
		return fmt.Errorf("type name and type are required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, exists := c.types[name]; exists && existing != t {
		return fmt.Errorf("type name %q already registered for %v", name, existing)
	}
	c.types[name] = t
	return nil
}

// AddType makes T available under name.
func AddType[T any](c *Catalog, name string) error {
	return c.RegisterType(name, reflect.TypeFor[T]())
}

// RegisterFactory makes factory available under key.
func (c *Catalog) RegisterFactory(key string, factory Factory) error {
	if key == "" || factory == nil {
		return fmt.Errorf("factory key and factory are required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.factories[key]; exists {
		return fmt.Errorf("factory %q already registered", key)
	}
	c.factories[key] = factory
	return nil
}

// RegisterAsyncFactory makes an asynchronous factory available under key.
func (c *Catalog) RegisterAsyncFactory(key string, factory AsyncFactory) error {
	if key == "" || factory == nil {
		return fmt.Errorf("factory key and factory are required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.asyncFactories[key]; exists {
		return fmt.Errorf("async factory %q already registered", key)
	}
	c.asyncFactories[key] = factory
	return nil
}

// RegisterConstructor makes a constructor available under key. Its
// parameters are looked up in the registry when the service is created.
func (c *Catalog) RegisterConstructor(key string, constructor ConstructorFunc) error {
	factory, err := ConstructorFactory(constructor)
	if err != nil {
		return fmt.Errorf("factory %q: %w", key, err)
	}
	return c.RegisterFactory(key, factory)
}

// Type returns the type registered under name.
func (c *Catalog) Type(name string) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[name]
	return t, ok
}

// TypeNames returns the registered type names, sorted.
func (c *Catalog) TypeNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions turns the services of a configuration file into definitions,
// in file order. Every unknown type name or factory key is reported in a
// *ValidationError.
func (c *Catalog) Definitions(file *config.File) ([]Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error
	defs := make([]Definition, 0, len(file.Services))

	for _, svc := range file.Services {
		def := Definition{Name: svc.Name}

		t, ok := c.types[svc.Defines]
		if !ok {
			errs = append(errs, fmt.Errorf("service %q: unknown type %q", svc.Name, svc.Defines))
		}
		def.DefiningType = t

		lifetime, err := ParseLifetime(svc.Lifetime)
		if err != nil {
			errs = append(errs, fmt.Errorf("service %q: %w", svc.Name, err))
		}
		def.Lifetime = lifetime

		def.Factory = c.factories[svc.Factory]
		if lifetime == LifetimeAsync {
			def.AsyncFactory = c.asyncFactories[svc.Factory]
		}
		if def.Factory == nil && def.AsyncFactory == nil {
			errs = append(errs, fmt.Errorf("service %q: unknown factory %q", svc.Name, svc.Factory))
		}

		for _, req := range svc.Requires {
			if _, ok := c.types[req]; !ok {
				errs = append(errs, fmt.Errorf("service %q: requires unknown type %q", svc.Name, req))
			}
		}

		defs = append(defs, def)
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return defs, nil
}

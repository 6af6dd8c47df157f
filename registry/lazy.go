package registry

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Factory creates the instance of a lazily registered service.
type Factory func() (any, error)

// lazyEntry holds a lazy service and ensures its factory runs only once.
type lazyEntry struct {
	factory  Factory
	once     sync.Once
	creating atomic.Bool
	value    any
	err      error
}

// lazyCache manages lazily created services with thread-safe initialization.
type lazyCache struct {
	entries map[reflect.Type]*lazyEntry
	mu      sync.RWMutex
}

func newLazyCache() *lazyCache {
	return &lazyCache{
		entries: make(map[reflect.Type]*lazyEntry),
	}
}

// add stores a factory for the defining type, replacing any previous one.
func (lc *lazyCache) add(definingType reflect.Type, factory Factory) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.entries[definingType] = &lazyEntry{factory: factory}
}

func (lc *lazyCache) has(definingType reflect.Type) bool {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	_, exists := lc.entries[definingType]
	return exists
}

func (lc *lazyCache) remove(definingType reflect.Type) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	delete(lc.entries, definingType)
}

func (lc *lazyCache) clear() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.entries = make(map[reflect.Type]*lazyEntry)
}

func (lc *lazyCache) types() []reflect.Type {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	types := make([]reflect.Type, 0, len(lc.entries))
	for t := range lc.entries {
		types = append(types, t)
	}
	return types
}

// create runs the factory of the defining type exactly once. Lazy services
// are only created from the main context, so a lookup that finds the entry
// in progress comes from the factory itself and gets a
// *CircularDependencyError instead of deadlocking.
//
// This method is goroutine-safe.
func (lc *lazyCache) create(definingType reflect.Type) (any, bool, error) {
	lc.mu.RLock()
	entry, exists := lc.entries[definingType]
	lc.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}

	if entry.creating.Load() {
		return nil, true, &CircularDependencyError{Type: definingType}
	}

	entry.once.Do(func() {
		entry.creating.Store(true)
		defer entry.creating.Store(false)
		defer func() {
			if r := recover(); r != nil {
				entry.value = nil
				entry.err = fmt.Errorf("lazy service %v panicked: %v", definingType, r)
			}
		}()
		entry.value, entry.err = entry.factory()
	})

	return entry.value, true, entry.err
}

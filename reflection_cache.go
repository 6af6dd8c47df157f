package initargs

import (
	"reflect"
	"strings"
	"sync"
)

// nullGuardChecker is implemented by *Any[T] for every T.
type nullGuardChecker interface {
	NullGuardFor(req Request) NullGuardResult
}

var nullGuardCheckerType = reflect.TypeFor[nullGuardChecker]()

// reflectionCache caches the cell fields of struct types so ValidateFields
// analyzes each type once.
type reflectionCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]fieldInfo
}

// fieldInfo stores metadata about a struct field holding a cell.
type fieldInfo struct {
	index    int
	name     string
	typ      reflect.Type
	pointer  bool // field is *Any[T] rather than Any[T]
	optional bool
}

// fieldTag is the struct tag key read by ValidateFields.
//
//	`initargs:"optional"` the field may be empty
//	`initargs:"-"`        the field is not checked
const fieldTag = "initargs"

var fieldCache = newReflectionCache()

func newReflectionCache() *reflectionCache {
	return &reflectionCache{
		fields: make(map[reflect.Type][]fieldInfo),
	}
}

// getFieldInfo retrieves or computes the cell fields of a struct type.
func (rc *reflectionCache) getFieldInfo(typ reflect.Type) []fieldInfo {
	// Fast path: check cache with read lock
	rc.mu.RLock()
	fields, exists := rc.fields[typ]
	rc.mu.RUnlock()

	if exists {
		return fields
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	// Double-check after acquiring write lock
	if fields, exists = rc.fields[typ]; exists {
		return fields
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}

		opts := strings.Split(field.Tag.Get(fieldTag), ",")
		if opts[0] == "-" {
			continue
		}

		var pointer bool
		switch {
		case field.Type.Kind() == reflect.Pointer && field.Type.Implements(nullGuardCheckerType):
			pointer = true
		case reflect.PointerTo(field.Type).Implements(nullGuardCheckerType):
		default:
			continue
		}

		info := fieldInfo{index: i, name: field.Name, typ: field.Type, pointer: pointer}
		for _, opt := range opts {
			if strings.TrimSpace(opt) == "optional" {
				info.optional = true
			}
		}
		fields = append(fields, info)
	}

	rc.fields[typ] = fields
	return fields
}

// clear clears all cached data.
func (rc *reflectionCache) clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.fields = make(map[reflect.Type][]fieldInfo)
}

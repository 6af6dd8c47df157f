package initargs

import (
	"fmt"
	"reflect"

	"github.com/pancake-llc/foundation-sub024/registry"
)

// ConstructorFunc represents a constructor function type.
// Supported signatures:
//   - func() T
//   - func() (T, error)
//   - func(Dep1) T
//   - func(Dep1) (T, error)
//   - func(Dep1, Dep2, ...) T
//   - func(Dep1, Dep2, ...) (T, error)
type ConstructorFunc any

// constructorInfo holds metadata about a constructor function.
type constructorInfo struct {
	fn           reflect.Value
	name         string
	paramTypes   []reflect.Type
	returnsError bool
	returnType   reflect.Type
}

var errorType = reflect.TypeFor[error]()

// parseConstructor analyzes a constructor function and extracts metadata.
func parseConstructor(constructor ConstructorFunc) (*constructorInfo, error) {
	if constructor == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(constructor)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("constructor cannot be variadic")
	}

	// Validate return values
	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (T) or (T, error), got %d return values", numOut)
	}

	returnType := fnType.Out(0)
	if returnType.Implements(errorType) && numOut == 1 {
		return nil, fmt.Errorf("constructor must return a service, got %v", returnType)
	}

	// Check if second return is error
	returnsError := false
	if numOut == 2 {
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	// Extract parameter types
	paramTypes := make([]reflect.Type, fnType.NumIn())
	for i := range paramTypes {
		paramTypes[i] = fnType.In(i)
	}

	return &constructorInfo{
		fn:           fnValue,
		name:         fnType.String(),
		paramTypes:   paramTypes,
		returnsError: returnsError,
		returnType:   returnType,
	}, nil
}

// invoke calls the constructor with its parameters looked up in reg.
func (info *constructorInfo) invoke(reg *registry.Registry) (any, error) {
	params := make([]reflect.Value, len(info.paramTypes))
	for i, paramType := range info.paramTypes {
		if reg == nil {
			return nil, &MissingArgumentError{Target: info.name, Index: i, Argument: paramType}
		}
		resolved, ok := reg.TryGet(paramType, nil, registry.MainThread)
		if !ok {
			return nil, &MissingArgumentError{Target: info.name, Index: i, Argument: paramType}
		}
		params[i] = reflect.ValueOf(resolved)
		if !params[i].Type().AssignableTo(paramType) {
			return nil, &MissingArgumentError{Target: info.name, Index: i, Argument: paramType}
		}
	}

	results := info.fn.Call(params)
	instance := results[0].Interface()

	if info.returnsError {
		if errValue := results[1]; !errValue.IsNil() {
			return nil, fmt.Errorf("constructor returned error: %w", errValue.Interface().(error))
		}
	}

	return instance, nil
}

// ConstructorFactory returns a Factory that calls constructor with its
// parameters looked up in the registry by type.
//
// Example:
//
//	factory, err := initargs.ConstructorFactory(NewUserService)
//	// Where: func NewUserService(logger Logger, db Database) (*UserService, error)
func ConstructorFactory(constructor ConstructorFunc) (Factory, error) {
	info, err := parseConstructor(constructor)
	if err != nil {
		return nil, fmt.Errorf("invalid constructor: %w", err)
	}
	return info.invoke, nil
}

// DefineConstructor returns an eager definition of a service registered as
// T and created by constructor.
func DefineConstructor[T any](name string, constructor ConstructorFunc) (Definition, error) {
	info, err := parseConstructor(constructor)
	if err != nil {
		return Definition{}, fmt.Errorf("invalid constructor: %w", err)
	}
	definingType := reflect.TypeFor[T]()
	if !info.returnType.AssignableTo(definingType) {
		return Definition{}, &DefiningTypeMismatchError{Name: name, DefiningType: definingType, Instance: info.returnType}
	}
	return Definition{
		Name:         name,
		DefiningType: definingType,
		Lifetime:     LifetimeEager,
		Factory:      info.invoke,
	}, nil
}

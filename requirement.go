package initargs

import (
	"fmt"
	"reflect"
)

// Initializable is implemented by services that receive arguments from the
// registry after creation. InitArgs declares the argument types and the
// function receiving them; build the Requirement with Args1 to Args5.
//
// Example:
//
//	func (s *Player) InitArgs() initargs.Requirement {
//	    return initargs.Args2(func(input Input, audio Audio) {
//	        s.input, s.audio = input, audio
//	    })
//	}
type Initializable interface {
	InitArgs() Requirement
}

// Requirement is an ordered list of argument types and the function that
// receives them.
type Requirement struct {
	types  []reflect.Type
	invoke func(args []any)
}

// Arity returns the number of arguments.
func (r Requirement) Arity() int {
	return len(r.types)
}

// Types returns the argument types in declaration order.
func (r Requirement) Types() []reflect.Type {
	types := make([]reflect.Type, len(r.types))
	copy(types, r.types)
	return types
}

// Invoke passes args to the initializer. It returns an error if an argument
// is missing or of the wrong type, or if the initializer panics.
func (r Requirement) Invoke(args []any) (err error) {
	if len(args) != len(r.types) {
		return fmt.Errorf("initializer expects %d arguments, got %d", len(r.types), len(args))
	}
	for i, t := range r.types {
		if args[i] == nil || !reflect.TypeOf(args[i]).AssignableTo(t) {
			return &MissingArgumentError{Target: "initializer", Index: i, Argument: t}
		}
	}
	if r.invoke == nil {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = recovered(ErrInitPanic, rec)
		}
	}()
	r.invoke(args)
	return nil
}

// Args1 declares one argument.
func Args1[A any](init func(A)) Requirement {
	return Requirement{
		types: []reflect.Type{reflect.TypeFor[A]()},
		invoke: func(args []any) {
			init(args[0].(A))
		},
	}
}

// Args2 declares two arguments.
func Args2[A, B any](init func(A, B)) Requirement {
	return Requirement{
		types: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()},
		invoke: func(args []any) {
			init(args[0].(A), args[1].(B))
		},
	}
}

// Args3 declares three arguments.
func Args3[A, B, C any](init func(A, B, C)) Requirement {
	return Requirement{
		types: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()},
		invoke: func(args []any) {
			init(args[0].(A), args[1].(B), args[2].(C))
		},
	}
}

// Args4 declares four arguments.
func Args4[A, B, C, D any](init func(A, B, C, D)) Requirement {
	return Requirement{
		types: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C](), reflect.TypeFor[D]()},
		invoke: func(args []any) {
			init(args[0].(A), args[1].(B), args[2].(C), args[3].(D))
		},
	}
}

// Args5 declares five arguments.
func Args5[A, B, C, D, E any](init func(A, B, C, D, E)) Requirement {
	return Requirement{
		types: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C](), reflect.TypeFor[D](), reflect.TypeFor[E]()},
		invoke: func(args []any) {
			init(args[0].(A), args[1].(B), args[2].(C), args[3].(D), args[4].(E))
		},
	}
}

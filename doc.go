// Package initargs resolves the arguments of objects from a per-session
// service registry.
//
// A session starts when a Host enters its context: a fresh registry
// becomes the default, services are created from their definitions and an
// Injector passes every registered service that needs arguments the
// services it asks for. The session ends when the host exits: services are
// notified newest first and the registry is torn down.
//
// # Features
//
//   - Any[T] value cells with a fixed resolution precedence
//   - Value providers, synchronous and asynchronous, by T or by type
//   - Null guards that predict resolution without side effects
//   - Single-pass injection with Awake, OnEnable and Start notifications
//   - Eager, lazy and async service lifetimes
//   - Client-local services through registry scopes
//   - YAML and HCL service catalogs
//   - zap logging, Prometheus metrics and OpenTelemetry spans
//
// # Quick Start
//
// Define services and enter a context:
//
//	host := initargs.NewHost([]initargs.Definition{
//	    initargs.Define("player", func(*registry.Registry) (*Player, error) { return &Player{}, nil }),
//	    initargs.Instance[Input]("input", &Keyboard{}),
//	})
//	report, err := host.Enter()
//	defer host.Exit()
//
// Player receives its arguments by implementing Initializable:
//
//	func (p *Player) InitArgs() initargs.Requirement {
//	    return initargs.Args1(func(input Input) { p.input = input })
//	}
//
// The injection pass runs once. A service whose arguments are not all in
// the registry when the pass runs is skipped for the rest of the session,
// even if its arguments are registered later.
//
// # Value Cells
//
// An Any[T] holds a literal, an object handle, or nothing:
//
//	speed := initargs.FromValue(4.5)
//	input := initargs.MustFromObject[Input](&GamepadProvider{})
//	var audio initargs.Any[Audio] // resolved from the registry
//
// Resolve consults, in order: a cached provider result or a live reference
// literal, a non-nil interface literal, a handle that is a T, the Null
// sentinel, a ValueByTypeProvider, a ValueProvider[T], a completed
// asynchronous provider and, when no literal is set, the registry. A
// provider result is cached unless the request comes from EditMode or
// Validation.
//
// # Null Guards
//
// NullGuardFor reports whether a cell would resolve without resolving it:
//
//	if cell.NullGuardFor(initargs.Request{Context: initargs.EditMode}) != initargs.Passed {
//	    // warn about the missing value
//	}
//
// ValidateFields runs the null guard of every cell field of a struct.
//
// # Configuration
//
// Catalogs map the names used in configuration files to Go types and
// factories. See the config package for the file format:
//
//	file, err := config.Load("services.yaml")
//	defs, err := catalog.Definitions(file)
//	host := initargs.NewHostFromCatalog(catalog, defs)
//
// # Thread Safety
//
// Cells, registries, futures and catalogs are safe for concurrent use.
// Registration, injection passes and lazy service creation happen on the
// main goroutine.
package initargs

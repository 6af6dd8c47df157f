package initargs

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/pancake-llc/foundation-sub024/registry"
)

type Input interface {
	Axis() float64
}

type keyboard struct {
	axis float64
}

func (k *keyboard) Axis() float64 { return k.axis }

type Audio interface {
	Play(clip string)
}

type mixer struct {
	mu     sync.Mutex
	played []string
}

func (m *mixer) Play(clip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.played = append(m.played, clip)
}

// mortal is a service that can be destroyed while still referenced.
type mortal struct {
	alive bool
}

func (m *mortal) Axis() float64 { return 0 }
func (m *mortal) Alive() bool   { return m.alive }

var errProvider = errors.New("provider failed")

// stubProvider is a ValueProvider[T] with a fixed result.
type stubProvider[T any] struct {
	mu      sync.Mutex
	value   T
	ok      bool
	err     error
	panics  bool
	calls   int
	clients []any
}

func provides[T any](value T) *stubProvider[T] {
	return &stubProvider[T]{value: value, ok: true}
}

func (p *stubProvider[T]) ProvideValue(client any) (T, bool, error) {
	p.mu.Lock()
	p.calls++
	p.clients = append(p.clients, client)
	p.mu.Unlock()

	if p.panics {
		panic("provider exploded")
	}
	return p.value, p.ok, p.err
}

func (p *stubProvider[T]) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// typeProvider is a ValueByTypeProvider serving a fixed set of types.
type typeProvider struct {
	values map[reflect.Type]any
	refuse bool
	calls  int
}

func providesTypes(values ...any) *typeProvider {
	p := &typeProvider{values: make(map[reflect.Type]any)}
	for i := 0; i+1 < len(values); i += 2 {
		p.values[values[i].(reflect.Type)] = values[i+1]
	}
	return p
}

func (p *typeProvider) CanProvideValue(t reflect.Type, client any) bool {
	if p.refuse {
		return false
	}
	_, ok := p.values[t]
	return ok
}

func (p *typeProvider) ProvideValueOfType(client any, t reflect.Type) (any, bool, error) {
	p.calls++
	v, ok := p.values[t]
	return v, ok, nil
}

// dualProvider implements both ValueProvider[Input] and ValueByTypeProvider.
type dualProvider struct {
	typeProvider
	byValue *stubProvider[Input]
}

func (p *dualProvider) ProvideValue(client any) (Input, bool, error) {
	return p.byValue.ProvideValue(client)
}

// asyncProvider is a ValueProviderAsync[T] returning a fixed future.
type asyncProvider[T any] struct {
	mu     sync.Mutex
	future *Future[T]
	calls  int
}

func (p *asyncProvider[T]) ProvideValueAsync(client any) *Future[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.future
}

func (p *asyncProvider[T]) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// hybridProvider implements ValueProvider[T] and ValueProviderAsync[T].
type hybridProvider[T any] struct {
	*stubProvider[T]
	async *asyncProvider[T]
}

func (p *hybridProvider[T]) ProvideValueAsync(client any) *Future[T] {
	return p.async.ProvideValueAsync(client)
}

// guardedProvider reports its own null guard result.
type guardedProvider struct {
	*stubProvider[Input]
	result NullGuardResult
}

func (p *guardedProvider) EvaluateNullGuard(client any) NullGuardResult {
	return p.result
}

// scopedClient sees the services of its scope.
type scopedClient struct {
	scope *registry.Scope
}

func (c *scopedClient) ServiceScope() *registry.Scope { return c.scope }

// useDefault makes reg the default registry for the duration of the test.
func useDefault(t *testing.T, reg *registry.Registry) {
	t.Helper()
	previous := registry.SetDefault(reg)
	t.Cleanup(func() { registry.SetDefault(previous) })
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// asyncTypeProvider is a ValueByTypeProviderAsync serving a fixed set of
// types on a background goroutine.
type asyncTypeProvider struct {
	values map[any]any
}

func (p *asyncTypeProvider) CanProvideValue(t reflect.Type, client any) bool {
	_, ok := p.values[t]
	return ok
}

func (p *asyncTypeProvider) ProvideValueOfTypeAsync(client any, t reflect.Type) *Future[any] {
	return Go(func() (any, bool, error) {
		v, ok := p.values[t]
		return v, ok, nil
	})
}

// journal records lifecycle events in order.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(event string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
}

func (j *journal) Events() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

// phased records every lifecycle notification it receives. The type
// parameter only makes distinct defining types.
type phased[T any] struct {
	name       string
	log        *journal
	disposeErr error
}

func (p *phased[T]) Awake()     { p.log.add("awake " + p.name) }
func (p *phased[T]) OnEnable()  { p.log.add("enable " + p.name) }
func (p *phased[T]) Start()     { p.log.add("start " + p.name) }
func (p *phased[T]) OnDisable() { p.log.add("disable " + p.name) }
func (p *phased[T]) OnDestroy() { p.log.add("destroy " + p.name) }
func (p *phased[T]) Dispose() error {
	p.log.add("dispose " + p.name)
	return p.disposeErr
}

// Greeter is the defining type of the first service of the scenario tests.
type Greeter interface {
	Greet() string
}

type greeter struct{}

func (greeter) Greet() string { return "hello" }

// consumer requires a Greeter.
type consumer struct {
	greeter Greeter
	inits   int
	log     *journal
}

func (c *consumer) InitArgs() Requirement {
	return Args1(func(g Greeter) {
		c.greeter = g
		c.inits++
		if c.log != nil {
			c.log.add("init consumer")
		}
	})
}

func (c *consumer) Awake() {
	if c.log != nil {
		c.log.add("awake consumer")
	}
}

// pair requires an Input and an Audio.
type pair struct {
	input Input
	audio Audio
	inits int
}

func (p *pair) InitArgs() Requirement {
	return Args2(func(input Input, audio Audio) {
		p.input, p.audio = input, audio
		p.inits++
	})
}

// brokenInit panics while declaring its arguments.
type brokenInit struct{}

func (brokenInit) InitArgs() Requirement { panic("no arguments today") }

// noArgs declares an empty requirement.
type noArgs struct{}

func (noArgs) InitArgs() Requirement { return Requirement{} }

package initargs

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pancake-llc/foundation-sub024/registry"
)

const instrumentationName = "github.com/pancake-llc/foundation-sub024"

// Outcome is the result of attempting to initialize one candidate.
type Outcome string

const (
	// OutcomeInjected means every argument was found and Init was called.
	OutcomeInjected Outcome = "injected"

	// OutcomeSkipped means at least one argument was missing. Init was not
	// called and the candidate is not attempted again in this session.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means InitArgs or Init failed or panicked.
	OutcomeFailed Outcome = "failed"

	// OutcomeNoArgs means the candidate needs no arguments.
	OutcomeNoArgs Outcome = "no-args"
)

// CandidateReport describes what happened to one candidate in a pass.
type CandidateReport struct {
	Name         string
	DefiningType reflect.Type
	Arity        int
	Outcome      Outcome
	Missing      []reflect.Type
	Err          error
}

// PassReport describes one injection pass.
type PassReport struct {
	// Session is the id of the registry session the pass ran in.
	Session string

	// Candidates lists the candidates attempted in this pass, in order.
	Candidates []CandidateReport

	// Rejected lists the services that could not be created or registered.
	Rejected []error

	// PhaseErrors lists lifecycle notifications that failed.
	PhaseErrors []error
}

// Find returns the report of the candidate with the given name.
func (r PassReport) Find(name string) (CandidateReport, bool) {
	for _, c := range r.Candidates {
		if c.Name == name {
			return c, true
		}
	}
	return CandidateReport{}, false
}

// Count returns the number of candidates with the given outcome.
func (r PassReport) Count(outcome Outcome) int {
	n := 0
	for _, c := range r.Candidates {
		if c.Outcome == outcome {
			n++
		}
	}
	return n
}

// Err joins every rejection, candidate failure and phase error of the pass.
// Skipped candidates are not errors.
func (r PassReport) Err() error {
	errs := append([]error(nil), r.Rejected...)
	for _, c := range r.Candidates {
		if c.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, c.Err))
		}
	}
	errs = append(errs, r.PhaseErrors...)
	return errors.Join(errs...)
}

type candidate struct {
	name         string
	definingType reflect.Type
	instance     any
	attempted    bool
}

type asyncResult struct {
	def      Definition
	instance any
	err      error
}

// Injector wires services that need arguments from the registry.
//
// Services are registered as candidates and set into the registry at once.
// An injection pass then visits every candidate not attempted yet, in
// registration order, and calls Init on those whose arguments are all
// available. The pass is not repeated: a candidate whose argument is
// registered later in the same batch still gets it, but one whose argument
// is registered after the pass stays skipped. After injection every
// candidate of the pass receives Awake, then OnEnable, then Start.
//
// Registration and injection happen on the caller's goroutine.
type Injector struct {
	registry   *registry.Registry
	logger     *zap.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	asyncLimit int

	// mu guards the fields below. Lazy services may be created from any
	// goroutine that looks them up from the main context.
	mu           sync.Mutex
	candidates   []*candidate
	lazyReport   PassReport
	async        *errgroup.Group
	asyncSlots   *semaphore.Weighted
	asyncCtx     context.Context
	asyncCancel  context.CancelFunc
	asyncResults []*asyncResult
	asyncReady   []func(PassReport)
}

// NewInjector creates an Injector populating reg. A nil reg gets a fresh
// registry. It panics if an option fails.
func NewInjector(reg *registry.Registry, options ...Option) *Injector {
	if reg == nil {
		reg = registry.New()
	}
	in := &Injector{
		registry: reg,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(instrumentationName),
	}

	for _, opt := range options {
		if err := opt(in); err != nil {
			panic(fmt.Sprintf("failed to apply option: %v", err))
		}
	}

	in.logger = in.logger.With(zap.String("session", reg.Session()))
	return in
}

// Registry returns the registry the injector populates.
func (in *Injector) Registry() *registry.Registry {
	return in.registry
}

// Register adds instance as a candidate and sets it into the registry as
// definingType. A nil definingType means the instance's own type. An
// instance not assignable to definingType is rejected with a
// *DefiningTypeMismatchError.
func (in *Injector) Register(definingType reflect.Type, instance any) error {
	name := ""
	if definingType != nil {
		name = definingType.String()
	}
	return in.register(name, definingType, instance)
}

// RegisterT registers instance as a T.
func RegisterT[T any](in *Injector, instance T) error {
	return in.Register(reflect.TypeFor[T](), instance)
}

func (in *Injector) register(name string, definingType reflect.Type, instance any) error {
	if isNil(instance) {
		in.metrics.rejected("nil")
		return fmt.Errorf("service %s cannot be nil", name)
	}

	instanceType := reflect.TypeOf(instance)
	if definingType == nil {
		definingType = instanceType
	}
	if name == "" {
		name = definingType.String()
	}

	if !instanceType.AssignableTo(definingType) {
		in.logger.Warn("service does not implement its defining type",
			zap.String("service", name),
			zap.Stringer("defining_type", definingType),
			zap.Stringer("instance_type", instanceType),
		)
		in.metrics.rejected("type_mismatch")
		return &DefiningTypeMismatchError{Name: name, DefiningType: definingType, Instance: instanceType}
	}

	if err := in.registry.Set(definingType, instance); err != nil {
		in.metrics.rejected("registry")
		return err
	}

	in.mu.Lock()
	in.candidates = append(in.candidates, &candidate{name: name, definingType: definingType, instance: instance})
	in.mu.Unlock()
	in.metrics.registered()
	return nil
}

// Run creates the services of defs, registers them and runs an injection
// pass. Eager services are created in order; a failing factory is logged
// and its service left out. Lazy services are registered as factories and
// async services start in the background; collect them with AwaitAsync.
func (in *Injector) Run(defs []Definition) PassReport {
	ctx, span := in.tracer.Start(context.Background(), "initargs.Run",
		trace.WithAttributes(
			attribute.String("session", in.registry.Session()),
			attribute.Int("definitions", len(defs)),
		),
	)
	defer span.End()

	var rejected []error
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			in.logger.Warn("invalid service definition", zap.String("service", def.DisplayName()), zap.Error(err))
			in.metrics.rejected("invalid")
			rejected = append(rejected, err)
			continue
		}

		switch def.Lifetime {
		case LifetimeLazy:
			if err := in.registry.SetLazy(def.DefiningType, in.lazyFactory(def)); err != nil {
				rejected = append(rejected, err)
			}
			continue
		case LifetimeAsync:
			in.startAsync(def)
			continue
		}

		instance, err := def.construct(in.registry)
		if err != nil {
			err = &ResolutionError{Type: def.DefiningType, Name: def.Name, Cause: err}
			in.logger.Warn("service factory failed", zap.String("service", def.DisplayName()), zap.Error(err))
			in.metrics.rejected("factory")
			rejected = append(rejected, err)
			continue
		}

		if err := in.register(def.DisplayName(), def.DefiningType, instance); err != nil {
			rejected = append(rejected, err)
		}
	}

	report := in.injectPass(ctx)
	report.Rejected = append(rejected, report.Rejected...)
	if err := report.Err(); err != nil {
		span.RecordError(err)
	}
	return report
}

// InjectPass attempts every candidate not attempted yet in this session.
func (in *Injector) InjectPass() PassReport {
	return in.injectPass(context.Background())
}

func (in *Injector) injectPass(ctx context.Context) PassReport {
	_, span := in.tracer.Start(ctx, "initargs.InjectPass")
	defer span.End()
	defer in.metrics.passDone(time.Now())

	report := PassReport{Session: in.registry.Session()}

	var batch []*candidate
	in.mu.Lock()
	for _, c := range in.candidates {
		if !c.attempted {
			c.attempted = true
			batch = append(batch, c)
		}
	}
	in.mu.Unlock()

	for _, c := range batch {
		result := in.inject(c)
		in.logOutcome(result)
		in.metrics.candidate(result.Outcome)
		report.Candidates = append(report.Candidates, result)
	}

	report.PhaseErrors = in.runPhases(batch)

	span.SetAttributes(
		attribute.Int("candidates", len(batch)),
		attribute.Int("injected", report.Count(OutcomeInjected)),
		attribute.Int("skipped", report.Count(OutcomeSkipped)),
	)
	return report
}

// inject resolves the arguments of one candidate and initializes it.
func (in *Injector) inject(c *candidate) CandidateReport {
	result := CandidateReport{Name: c.name, DefiningType: c.definingType, Outcome: OutcomeNoArgs}

	target, ok := c.instance.(Initializable)
	if !ok {
		return result
	}

	requirement, err := initArgsOf(target)
	if err != nil {
		result.Outcome, result.Err = OutcomeFailed, err
		return result
	}

	result.Arity = requirement.Arity()
	if result.Arity == 0 {
		return result
	}

	args := make([]any, result.Arity)
	for i, t := range requirement.types {
		arg, ok := in.registry.TryGet(t, c.instance, registry.MainThread)
		if !ok {
			result.Missing = append(result.Missing, t)
			continue
		}
		args[i] = arg
	}

	if len(result.Missing) > 0 {
		result.Outcome = OutcomeSkipped
		return result
	}

	if err := requirement.Invoke(args); err != nil {
		result.Outcome, result.Err = OutcomeFailed, err
		return result
	}

	result.Outcome = OutcomeInjected
	return result
}

func initArgsOf(target Initializable) (requirement Requirement, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(ErrInitPanic, r)
		}
	}()
	return target.InitArgs(), nil
}

func (in *Injector) logOutcome(result CandidateReport) {
	fields := []zap.Field{
		zap.String("service", result.Name),
		zap.Stringer("defining_type", result.DefiningType),
		zap.Int("arity", result.Arity),
	}

	switch result.Outcome {
	case OutcomeInjected:
		in.logger.Debug("candidate initialized", fields...)
	case OutcomeSkipped:
		missing := make([]string, len(result.Missing))
		for i, t := range result.Missing {
			missing[i] = t.String()
		}
		in.logger.Warn("candidate skipped: missing arguments", append(fields, zap.Strings("missing", missing))...)
	case OutcomeFailed:
		in.logger.Warn("candidate initialization failed", append(fields, zap.Error(result.Err))...)
	}
}

// runPhases runs the startup notifications over batch. Each phase reaches
// every distinct instance before the next phase starts.
func (in *Injector) runPhases(batch []*candidate) []error {
	seen := make(map[any]struct{}, len(batch))
	distinct := batch[:0:0]
	for _, c := range batch {
		if firstSeen(seen, c.instance) {
			distinct = append(distinct, c)
		}
	}

	var errs []error
	for _, phase := range startupPhases {
		for _, c := range distinct {
			if _, err := notify(phase, c.instance); err != nil {
				err = fmt.Errorf("%s %s: %w", phase, c.name, err)
				in.logger.Warn("lifecycle notification failed", zap.String("phase", string(phase)), zap.Error(err))
				in.metrics.phaseFailed(phase)
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// lazyFactory creates a lazy service on first lookup, then initializes it
// and runs its startup notifications on the goroutine of the lookup. The
// outcome is kept for LazyReport.
func (in *Injector) lazyFactory(def Definition) registry.Factory {
	return func() (any, error) {
		instance, err := def.construct(in.registry)
		if err != nil {
			err = &ResolutionError{Type: def.DefiningType, Name: def.Name, Cause: err, Context: "lazy"}
			in.logger.Warn("service factory failed", zap.String("service", def.DisplayName()), zap.Error(err))
			in.metrics.rejected("factory")
			return nil, err
		}

		instanceType := reflect.TypeOf(instance)
		if !instanceType.AssignableTo(def.DefiningType) {
			in.metrics.rejected("type_mismatch")
			return nil, &DefiningTypeMismatchError{Name: def.DisplayName(), DefiningType: def.DefiningType, Instance: instanceType}
		}

		c := &candidate{name: def.DisplayName(), definingType: def.DefiningType, instance: instance, attempted: true}
		in.mu.Lock()
		in.candidates = append(in.candidates, c)
		in.mu.Unlock()
		in.metrics.registered()

		result := in.inject(c)
		in.logOutcome(result)
		in.metrics.candidate(result.Outcome)
		phaseErrs := in.runPhases([]*candidate{c})

		in.mu.Lock()
		in.lazyReport.Candidates = append(in.lazyReport.Candidates, result)
		in.lazyReport.PhaseErrors = append(in.lazyReport.PhaseErrors, phaseErrs...)
		in.mu.Unlock()
		return instance, nil
	}
}

// LazyReport returns the outcomes of the lazy services created since the
// previous call, in creation order, and forgets them.
func (in *Injector) LazyReport() PassReport {
	in.mu.Lock()
	defer in.mu.Unlock()

	report := in.lazyReport
	report.Session = in.registry.Session()
	in.lazyReport = PassReport{}
	return report
}

// startAsync runs the factory of an async service on the injector's group.
// It never blocks: with an async limit, factories wait for a free slot on
// their own goroutine.
func (in *Injector) startAsync(def Definition) {
	in.registry.Declare(def.DefiningType)

	in.mu.Lock()
	if in.async == nil {
		in.async = &errgroup.Group{}
		if in.asyncLimit > 0 {
			in.asyncSlots = semaphore.NewWeighted(int64(in.asyncLimit))
		}
		in.asyncCtx, in.asyncCancel = context.WithCancel(context.Background())
	}
	group, slots, ctx := in.async, in.asyncSlots, in.asyncCtx
	result := &asyncResult{def: def}
	in.asyncResults = append(in.asyncResults, result)
	in.mu.Unlock()

	group.Go(func() error {
		if slots != nil {
			if err := slots.Acquire(ctx, 1); err != nil {
				in.mu.Lock()
				result.err = err
				in.mu.Unlock()
				return nil
			}
			defer slots.Release(1)
		}

		instance, err := def.constructAsync(ctx, in.registry)
		in.mu.Lock()
		result.instance, result.err = instance, err
		in.mu.Unlock()
		return nil
	})
}

// OnAsyncReady registers fn to be called after AwaitAsync has registered
// the async services and run their injection pass.
func (in *Injector) OnAsyncReady(fn func(PassReport)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.asyncReady = append(in.asyncReady, fn)
}

// AwaitAsync waits for every async service started so far, registers them
// in definition order and runs an injection pass. If ctx is done first it
// returns ctx.Err(); the services keep being created and a later call
// collects them.
func (in *Injector) AwaitAsync(ctx context.Context) (PassReport, error) {
	ctx, span := in.tracer.Start(ctx, "initargs.AwaitAsync")
	defer span.End()

	in.mu.Lock()
	group := in.async
	in.mu.Unlock()

	if group != nil {
		done := make(chan struct{})
		go func() {
			_ = group.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return PassReport{Session: in.registry.Session()}, ctx.Err()
		}
	}

	in.mu.Lock()
	var results []*asyncResult
	if in.async == group {
		results = in.asyncResults
		in.async, in.asyncSlots, in.asyncResults = nil, nil, nil
		if in.asyncCancel != nil {
			in.asyncCancel()
		}
	}
	ready := append(([]func(PassReport))(nil), in.asyncReady...)
	in.mu.Unlock()

	var rejected []error
	for _, r := range results {
		if r.err != nil {
			err := &ResolutionError{Type: r.def.DefiningType, Name: r.def.Name, Cause: r.err, Context: "async"}
			in.logger.Warn("async service factory failed", zap.String("service", r.def.DisplayName()), zap.Error(err))
			in.metrics.rejected("factory")
			rejected = append(rejected, err)
			continue
		}
		if err := in.register(r.def.DisplayName(), r.def.DefiningType, r.instance); err != nil {
			rejected = append(rejected, err)
		}
	}

	report := in.injectPass(ctx)
	report.Rejected = append(rejected, report.Rejected...)

	for _, fn := range ready {
		fn(report)
	}
	return report, nil
}

// Reset forgets every candidate and abandons async services still being
// created. The registry is left untouched.
func (in *Injector) Reset() {
	in.mu.Lock()
	if in.asyncCancel != nil {
		in.asyncCancel()
	}
	in.async, in.asyncSlots, in.asyncCtx, in.asyncCancel, in.asyncResults = nil, nil, nil, nil, nil
	in.candidates = nil
	in.lazyReport = PassReport{}
	in.mu.Unlock()
}

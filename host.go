package initargs

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pancake-llc/foundation-sub024/registry"
)

// ErrAlreadyEntered is returned by Host.Enter while the host is active.
var ErrAlreadyEntered = errors.New("host context already entered")

// Host owns the session lifecycle. Enter starts a session: a fresh
// registry becomes the default, services are created and injected. Exit
// ends it: services are notified in reverse registration order and the
// registry is torn down.
type Host struct {
	mu       sync.Mutex
	defs     []Definition
	catalog  *Catalog
	options  []Option
	injector *Injector
}

// NewHost returns a host creating defs on every Enter.
func NewHost(defs []Definition, options ...Option) *Host {
	return &Host{defs: defs, options: options}
}

// NewHostFromCatalog returns a host creating the definitions of catalog
// and booting its installers on every Enter.
func NewHostFromCatalog(catalog *Catalog, defs []Definition, options ...Option) *Host {
	h := NewHost(defs, options...)
	h.catalog = catalog
	return h
}

// Enter starts a session. It returns ErrAlreadyEntered if a session is
// active. Installer boot errors are returned joined; the session stays
// active regardless.
func (h *Host) Enter() (PassReport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.injector != nil {
		return PassReport{}, ErrAlreadyEntered
	}

	reg := registry.New()
	in := NewInjector(reg, h.options...)
	registry.SetDefault(reg)
	h.injector = in

	report := in.Run(h.defs)

	var errs []error
	if h.catalog != nil {
		errs = h.catalog.boot(in)
	}

	in.logger.Info("context entered",
		zap.Int("services", reg.Len()),
		zap.Int("injected", report.Count(OutcomeInjected)),
		zap.Int("skipped", report.Count(OutcomeSkipped)),
		zap.Int("rejected", len(report.Rejected)),
	)
	return report, errors.Join(errs...)
}

// Exit ends the active session. Every service receives OnDisable, then
// OnDestroy, then Dispose, in reverse registration order. Calling Exit
// without an active session is a no-op.
func (h *Host) Exit() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	in := h.injector
	if in == nil {
		return nil
	}
	h.injector = nil

	reg := in.Registry()
	in.Reset()
	entries := reg.Teardown()
	errs := teardown(entries, in)

	if registry.Default() == reg {
		registry.SetDefault(nil)
	}

	in.logger.Info("context exited", zap.Int("services", len(entries)), zap.Int("errors", len(errs)))
	return errors.Join(errs...)
}

// Active reports whether a session is active.
func (h *Host) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.injector != nil
}

// Injector returns the injector of the active session, or nil.
func (h *Host) Injector() *Injector {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.injector
}

// Registry returns the registry of the active session, or nil.
func (h *Host) Registry() *registry.Registry {
	if in := h.Injector(); in != nil {
		return in.Registry()
	}
	return nil
}

// teardown notifies each distinct service once, newest first.
func teardown(entries []registry.Entry, in *Injector) []error {
	var errs []error
	seen := make(map[any]struct{}, len(entries))

	for i := len(entries) - 1; i >= 0; i-- {
		instance := entries[i].Instance
		if !firstSeen(seen, instance) {
			continue
		}

		for _, phase := range teardownPhases {
			if _, err := notify(phase, instance); err != nil {
				err = fmt.Errorf("%s %v: %w", phase, entries[i].DefiningType, err)
				in.logger.Warn("teardown notification failed", zap.String("phase", string(phase)), zap.Error(err))
				in.metrics.phaseFailed(phase)
				errs = append(errs, err)
			}
		}
	}
	return errs
}

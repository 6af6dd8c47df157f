package initargs

import (
	"reflect"

	"github.com/pancake-llc/foundation-sub024/registry"
)

// Awaker is notified once after the injection pass that wired it.
type Awaker interface {
	Awake()
}

// Enabler is notified after every candidate of the pass has been awoken.
type Enabler interface {
	OnEnable()
}

// Starter is notified after every candidate of the pass has been enabled.
type Starter interface {
	Start()
}

// Disabler is notified first when its session ends.
type Disabler interface {
	OnDisable()
}

// Destroyer is notified after OnDisable when its session ends.
type Destroyer interface {
	OnDestroy()
}

// Disposable is disposed last when its session ends.
type Disposable = registry.Disposable

// Phase names a lifecycle notification.
type Phase string

const (
	PhaseAwake   Phase = "awake"
	PhaseEnable  Phase = "enable"
	PhaseStart   Phase = "start"
	PhaseDisable Phase = "disable"
	PhaseDestroy Phase = "destroy"
	PhaseDispose Phase = "dispose"
)

// startupPhases run in order after an injection pass.
var startupPhases = []Phase{PhaseAwake, PhaseEnable, PhaseStart}

// teardownPhases run in order for each service when a session ends.
var teardownPhases = []Phase{PhaseDisable, PhaseDestroy, PhaseDispose}

// notify runs phase on target if target opts into it. It reports whether
// target implements the phase.
func notify(phase Phase, target any) (invoked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(ErrInitPanic, r)
		}
	}()

	switch phase {
	case PhaseAwake:
		if t, ok := target.(Awaker); ok {
			t.Awake()
			return true, nil
		}
	case PhaseEnable:
		if t, ok := target.(Enabler); ok {
			t.OnEnable()
			return true, nil
		}
	case PhaseStart:
		if t, ok := target.(Starter); ok {
			t.Start()
			return true, nil
		}
	case PhaseDisable:
		if t, ok := target.(Disabler); ok {
			t.OnDisable()
			return true, nil
		}
	case PhaseDestroy:
		if t, ok := target.(Destroyer); ok {
			t.OnDestroy()
			return true, nil
		}
	case PhaseDispose:
		if t, ok := target.(Disposable); ok {
			return true, t.Dispose()
		}
	}
	return false, nil
}

// firstSeen records instance in seen and reports whether it was new.
// Instances of uncomparable types are always new.
func firstSeen(seen map[any]struct{}, instance any) bool {
	if t := reflect.TypeOf(instance); t == nil || !t.Comparable() {
		return true
	}
	if _, done := seen[instance]; done {
		return false
	}
	seen[instance] = struct{}{}
	return true
}

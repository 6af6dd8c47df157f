package config

// Status is the predicted outcome of a service in the first injection pass.
type Status string

const (
	// StatusInjected means every required type is provided by an eager or
	// lazy service of the same file.
	StatusInjected Status = "injected"

	// StatusSkipped means a required type is not available during the first
	// pass. The service is never initialized in that session.
	StatusSkipped Status = "skipped"

	// StatusNoArgs means the service requires nothing.
	StatusNoArgs Status = "no-args"

	// StatusLazy means the service is created and injected on first lookup.
	StatusLazy Status = "lazy"

	// StatusDeferred means the service is async and is injected in the pass
	// run when async services are collected.
	StatusDeferred Status = "deferred"
)

// PlanEntry is the predicted outcome of one service.
type PlanEntry struct {
	Name     string   `json:"name"`
	Defines  string   `json:"defines"`
	Lifetime string   `json:"lifetime"`
	Status   Status   `json:"status"`
	Missing  []string `json:"missing,omitempty"`
}

// Plan predicts the outcome of entering a context with the services of f,
// using each service's requires list. Eager and lazy services are all
// registered before the first pass, so they satisfy each other regardless
// of order. Async services are not registered until they are collected:
// an eager service requiring one is skipped for the whole session.
func (f *File) Plan() []PlanEntry {
	firstPass := make(map[string]bool)
	everything := make(map[string]bool)
	for _, svc := range f.Services {
		everything[svc.Defines] = true
		if svc.EffectiveLifetime() != "async" {
			firstPass[svc.Defines] = true
		}
	}

	entries := make([]PlanEntry, 0, len(f.Services))
	for _, svc := range f.Services {
		entry := PlanEntry{Name: svc.Name, Defines: svc.Defines, Lifetime: svc.EffectiveLifetime()}

		available := firstPass
		if entry.Lifetime == "async" {
			available = everything
		}
		for _, req := range svc.Requires {
			if !available[req] {
				entry.Missing = append(entry.Missing, req)
			}
		}

		switch {
		case entry.Lifetime == "lazy":
			entry.Status = StatusLazy
		case entry.Lifetime == "async":
			entry.Status = StatusDeferred
		case len(svc.Requires) == 0:
			entry.Status = StatusNoArgs
		case len(entry.Missing) > 0:
			entry.Status = StatusSkipped
		default:
			entry.Status = StatusInjected
		}
		entries = append(entries, entry)
	}
	return entries
}

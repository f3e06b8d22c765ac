package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds registered provider instances with their enabled state.
// It is instance state, constructed and disposed explicitly; there is no
// ambient global registry.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	onChange func(id string, enabled bool)
}

type entry struct {
	provider Provider
	enabled  bool
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// OnChange installs a hook fired whenever a provider's enabled state flips.
// The orchestration layer uses it to invalidate dependent cache entries.
func (r *Registry) OnChange(fn func(id string, enabled bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Register adds a provider, enabled by default. Registering an already-known
// ID is an error.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[p.ID()]; exists {
		return fmt.Errorf("provider %q already registered", p.ID())
	}
	r.entries[p.ID()] = &entry{provider: p, enabled: true}
	return nil
}

// Get returns a registered provider by ID.
func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
	return e.provider, nil
}

// Providers returns all registered providers in ID order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.entries))
	for _, id := range r.idsLocked() {
		out = append(out, r.entries[id].provider)
	}
	return out
}

// HealthyProviders returns providers that are both enabled and currently
// report healthy, in ID order so merge results stay deterministic.
func (r *Registry) HealthyProviders() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Provider
	for _, id := range r.idsLocked() {
		e := r.entries[id]
		if e.enabled && e.provider.Healthy() {
			out = append(out, e.provider)
		}
	}
	return out
}

// Enabled reports the enabled flag for a provider ID.
func (r *Registry) Enabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return ok && e.enabled
}

// SetEnabled toggles a provider's enabled flag and fires the change hook.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown provider: %s", id)
	}
	changed := e.enabled != enabled
	e.enabled = enabled
	hook := r.onChange
	r.mu.Unlock()

	if changed && hook != nil {
		hook(id, enabled)
	}
	return nil
}

// DisposeAll disposes every registered provider and empties the registry.
func (r *Registry) DisposeAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, e := range r.entries {
		if err := e.provider.Dispose(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.entries = make(map[string]*entry)
	return firstErr
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

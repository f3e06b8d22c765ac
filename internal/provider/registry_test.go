package provider

import (
	"context"
	"testing"

	"github.com/rkellner/gitline/internal/model"
)

type fakeProvider struct {
	id       string
	healthy  bool
	disposed bool
}

func (f *fakeProvider) ID() string      { return f.id }
func (f *fakeProvider) Name() string    { return "Fake " + f.id }
func (f *fakeProvider) Version() string { return "0.0.0" }
func (f *fakeProvider) Capabilities() Capabilities {
	return Capabilities{SupportedEventTypes: []model.EventType{model.TypeCommit}}
}
func (f *fakeProvider) Initialize(context.Context, Config) error { return nil }
func (f *fakeProvider) FetchEvents(context.Context, FetchContext) ([]model.Event, error) {
	return nil, nil
}
func (f *fakeProvider) FilterOptions(context.Context, FetchContext) (model.FilterOptions, error) {
	return model.FilterOptions{}, nil
}
func (f *fakeProvider) Healthy() bool  { return f.healthy }
func (f *fakeProvider) Dispose() error { f.disposed = true; return nil }

func TestRegisterDuplicateID(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&fakeProvider{id: "a", healthy: true}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.Register(&fakeProvider{id: "a", healthy: true}); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestProvidersSortedByID(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		if err := reg.Register(&fakeProvider{id: id, healthy: true}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	var ids []string
	for _, p := range reg.Providers() {
		ids = append(ids, p.ID())
	}
	want := []string{"alpha", "bravo", "charlie"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestHealthyProvidersExcludesDisabledAndUnhealthy(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeProvider{id: "up", healthy: true})
	reg.Register(&fakeProvider{id: "down", healthy: false})
	reg.Register(&fakeProvider{id: "off", healthy: true})
	if err := reg.SetEnabled("off", false); err != nil {
		t.Fatalf("disable: %v", err)
	}

	healthy := reg.HealthyProviders()
	if len(healthy) != 1 || healthy[0].ID() != "up" {
		t.Errorf("expected only [up], got %d providers", len(healthy))
	}
}

func TestSetEnabledFiresChangeHook(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeProvider{id: "a", healthy: true})

	type change struct {
		id      string
		enabled bool
	}
	var changes []change
	reg.OnChange(func(id string, enabled bool) {
		changes = append(changes, change{id, enabled})
	})

	reg.SetEnabled("a", false)
	reg.SetEnabled("a", false) // no state change, no hook
	reg.SetEnabled("a", true)

	if len(changes) != 2 {
		t.Fatalf("expected 2 hook firings, got %d", len(changes))
	}
	if changes[0] != (change{"a", false}) || changes[1] != (change{"a", true}) {
		t.Errorf("unexpected change sequence: %v", changes)
	}
}

func TestSetEnabledUnknownProvider(t *testing.T) {
	reg := NewRegistry()
	if err := reg.SetEnabled("ghost", true); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestDisposeAll(t *testing.T) {
	reg := NewRegistry()
	a := &fakeProvider{id: "a", healthy: true}
	b := &fakeProvider{id: "b", healthy: true}
	reg.Register(a)
	reg.Register(b)

	if err := reg.DisposeAll(); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if !a.disposed || !b.disposed {
		t.Error("every provider should be disposed")
	}
	if len(reg.Providers()) != 0 {
		t.Error("registry should be empty after DisposeAll")
	}
}

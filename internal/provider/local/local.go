// Package local adapts the extraction engine to the provider contract. It is
// the provider for the repository on disk, delegating all graph work to
// extract.Engine and stamping its provider namespace onto the results.
package local

import (
	"context"
	"fmt"

	"github.com/rkellner/gitline/internal/extract"
	"github.com/rkellner/gitline/internal/model"
	"github.com/rkellner/gitline/internal/provider"
)

const providerID = "local-git"

// Provider serves events extracted from the local git repository.
type Provider struct {
	engine      *extract.Engine
	initialized bool
}

// New creates a local-git provider around an extraction engine.
func New(engine *extract.Engine) *Provider {
	return &Provider{engine: engine}
}

func (p *Provider) ID() string      { return providerID }
func (p *Provider) Name() string    { return "Local Git Repository" }
func (p *Provider) Version() string { return "1.0.0" }

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportedEventTypes: []model.EventType{
			model.TypeCommit,
			model.TypeMerge,
			model.TypeBranchCreated,
			model.TypeTag,
			model.TypeRelease,
		},
		SupportsHistoricalData: true,
		SupportsFiltering:      true,
	}
}

// Initialize verifies the git executable is present.
func (p *Provider) Initialize(ctx context.Context, cfg provider.Config) error {
	if !extract.GitAvailable() {
		return fmt.Errorf("%w: git executable not found on PATH", provider.ErrInitialization)
	}
	p.initialized = true
	return nil
}

// FetchEvents extracts the repository's history and stamps the provider
// namespace onto every event.
func (p *Provider) FetchEvents(ctx context.Context, fc provider.FetchContext) ([]model.Event, error) {
	res, err := p.engine.Extract(ctx, fc.RepoPath)
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(res.Events))
	for _, e := range res.Events {
		e.ProviderID = providerID
		if !fc.Since.IsZero() && e.Timestamp.Before(fc.Since) {
			continue
		}
		if !fc.Until.IsZero() && e.Timestamp.After(fc.Until) {
			continue
		}
		events = append(events, e)
	}
	// Events are ascending; the cap keeps the most recent window.
	if fc.MaxEvents > 0 && len(events) > fc.MaxEvents {
		events = events[len(events)-fc.MaxEvents:]
	}
	return events, nil
}

// FilterOptions derives the option universe from a full extraction.
func (p *Provider) FilterOptions(ctx context.Context, fc provider.FetchContext) (model.FilterOptions, error) {
	events, err := p.FetchEvents(ctx, fc)
	if err != nil {
		return model.FilterOptions{}, err
	}
	return model.DeriveFilterOptions(events), nil
}

func (p *Provider) Healthy() bool {
	return p.initialized && extract.GitAvailable()
}

// Dispose drops the engine's caches.
func (p *Provider) Dispose() error {
	p.engine.ClearCache()
	p.initialized = false
	return nil
}

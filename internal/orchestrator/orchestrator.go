// Package orchestrator fans timeline queries out to every healthy provider,
// merges and deduplicates the results, and answers filtered queries from a
// TTL cache keyed by repository path.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rkellner/gitline/internal/filterstate"
	"github.com/rkellner/gitline/internal/metrics"
	"github.com/rkellner/gitline/internal/model"
	"github.com/rkellner/gitline/internal/provider"
)

var (
	// ErrNoHealthyProviders means no registered provider is enabled and
	// healthy. Disabling the last provider makes queries fail hard rather
	// than silently returning nothing.
	ErrNoHealthyProviders = errors.New("no healthy providers")

	// ErrAllProvidersFailed means every healthy provider failed for one
	// call. A subset failing degrades to a partial result instead.
	ErrAllProvidersFailed = errors.New("all providers failed")
)

// DefaultTTL is how long a cache entry stays fresh.
const DefaultTTL = 5 * time.Minute

// DefaultProviderTimeout bounds each provider's share of one fetch.
const DefaultProviderTimeout = 30 * time.Second

// FilteredResult is the answer to a criteria-resolving query.
type FilteredResult struct {
	AllEvents      []model.Event        `json:"all_events"`
	FilteredEvents []model.Event        `json:"filtered_events"`
	FilterOptions  model.FilterOptions  `json:"filter_options"`
	AppliedFilters model.FilterCriteria `json:"applied_filters"`
}

type cacheEntry struct {
	events    []model.Event
	fetchedAt time.Time
	ttl       time.Duration
}

func (e *cacheEntry) fresh(now time.Time) bool {
	return now.Sub(e.fetchedAt) <= e.ttl
}

// fetchCall is one in-flight fetch; concurrent callers for the same path
// join it instead of spawning a second subprocess walk.
type fetchCall struct {
	done   chan struct{}
	events []model.Event
	err    error
}

// Orchestrator owns the per-repository cache and the provider fan-out. Caches
// are instance state, constructed and disposed explicitly.
type Orchestrator struct {
	registry *provider.Registry
	filters  *filterstate.Store
	log      *slog.Logger
	metrics  *metrics.Metrics

	ttl             time.Duration
	providerTimeout time.Duration
	now             func() time.Time

	mu       sync.Mutex
	cache    map[string]*cacheEntry
	inflight map[string]*fetchCall
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTTL sets the cache entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) { o.ttl = ttl }
}

// WithProviderTimeout bounds each provider call within one fetch.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.providerTimeout = d }
}

// WithMetrics installs prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithClock injects the time source used for TTL decisions.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator over a provider registry and filter state
// store. Provider enabled-state changes invalidate the whole cache.
func New(registry *provider.Registry, filters *filterstate.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:        registry,
		filters:         filters,
		log:             slog.Default(),
		ttl:             DefaultTTL,
		providerTimeout: DefaultProviderTimeout,
		now:             time.Now,
		cache:           make(map[string]*cacheEntry),
		inflight:        make(map[string]*fetchCall),
	}
	for _, fn := range opts {
		fn(o)
	}
	registry.OnChange(func(id string, enabled bool) {
		o.log.Info("provider state changed, invalidating cache", "provider", id, "enabled", enabled)
		o.InvalidateAll()
	})
	return o
}

// GetEvents returns the merged, chronologically sorted event set for a
// repository. Fresh cache entries are served directly unless forceRefresh is
// set; otherwise all healthy providers are fetched concurrently. A fetch
// already in flight for the same path is joined, not duplicated.
func (o *Orchestrator) GetEvents(ctx context.Context, repoPath string, forceRefresh bool) ([]model.Event, error) {
	o.mu.Lock()
	if !forceRefresh {
		if entry, ok := o.cache[repoPath]; ok && entry.fresh(o.now()) {
			events := copyEvents(entry.events)
			o.mu.Unlock()
			o.metrics.CacheHit()
			return events, nil
		}
	}
	o.metrics.CacheMiss()

	if call, ok := o.inflight[repoPath]; ok {
		o.mu.Unlock()
		select {
		case <-call.done:
			if call.err != nil {
				return nil, call.err
			}
			return copyEvents(call.events), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &fetchCall{done: make(chan struct{})}
	o.inflight[repoPath] = call
	o.mu.Unlock()

	events, err := o.fetchAll(ctx, repoPath)
	call.events, call.err = events, err

	o.mu.Lock()
	delete(o.inflight, repoPath)
	if err == nil {
		o.cache[repoPath] = &cacheEntry{events: events, fetchedAt: o.now(), ttl: o.ttl}
	}
	o.mu.Unlock()
	close(call.done)

	if err != nil {
		return nil, err
	}
	return copyEvents(events), nil
}

// GetFilteredEvents applies the criteria to the repository's event set. Pure
// over GetEvents output; never mutates the cache. A cold cache triggers a
// fetch transparently.
func (o *Orchestrator) GetFilteredEvents(ctx context.Context, repoPath string, criteria model.FilterCriteria) ([]model.Event, error) {
	events, err := o.GetEvents(ctx, repoPath, false)
	if err != nil {
		return nil, err
	}
	return model.Filter(events, criteria), nil
}

// GetEventsWithFilters resolves criteria through the fallback chain: explicit
// argument, else the filter state store's persisted value for the path, else
// empty (show all). FilterOptions is always derived from the unfiltered set.
func (o *Orchestrator) GetEventsWithFilters(ctx context.Context, repoPath string, criteria *model.FilterCriteria) (*FilteredResult, error) {
	var applied model.FilterCriteria
	if criteria != nil {
		applied = *criteria
	} else {
		applied = o.filters.Get(repoPath).Criteria
	}

	all, err := o.GetEvents(ctx, repoPath, false)
	if err != nil {
		return nil, err
	}

	return &FilteredResult{
		AllEvents:      all,
		FilteredEvents: model.Filter(all, applied),
		FilterOptions:  model.DeriveFilterOptions(all),
		AppliedFilters: applied,
	}, nil
}

// InvalidateCache drops the cache entry for one repository path.
func (o *Orchestrator) InvalidateCache(repoPath string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.cache, repoPath)
}

// InvalidateAll drops every cache entry.
func (o *Orchestrator) InvalidateAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache = make(map[string]*cacheEntry)
}

// SetProviderEnabled toggles a provider's enabled flag. The registry change
// hook invalidates dependent cache entries.
func (o *Orchestrator) SetProviderEnabled(id string, enabled bool) error {
	return o.registry.SetEnabled(id, enabled)
}

// Filters exposes the filter state store.
func (o *Orchestrator) Filters() *filterstate.Store {
	return o.filters
}

// Registry exposes the provider registry.
func (o *Orchestrator) Registry() *provider.Registry {
	return o.registry
}

type fetchResult struct {
	id     string
	events []model.Event
	err    error
}

// fetchAll runs one concurrent fetch across all healthy providers. Individual
// failures degrade to a partial result with a logged warning; the call fails
// hard only when no provider is healthy or every provider fails.
func (o *Orchestrator) fetchAll(ctx context.Context, repoPath string) ([]model.Event, error) {
	providers := o.registry.HealthyProviders()
	if len(providers) == 0 {
		return nil, ErrNoHealthyProviders
	}

	fc := provider.FetchContext{
		RequestID: uuid.NewString(),
		RepoPath:  repoPath,
	}

	start := time.Now()
	results := make(chan fetchResult, len(providers))
	var wg sync.WaitGroup
	for _, p := range providers {
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, o.providerTimeout)
			defer cancel()
			events, err := p.FetchEvents(pctx, fc)
			if err != nil && errors.Is(pctx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %s", provider.ErrFetchTimeout, p.ID())
			}
			results <- fetchResult{id: p.ID(), events: events, err: err}
		}(p)
	}
	wg.Wait()
	close(results)

	byProvider := make(map[string][]model.Event, len(providers))
	var failures []error
	for r := range results {
		if r.err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", r.id, r.err))
			o.metrics.FetchError(r.id)
			o.log.Warn("provider fetch failed", "provider", r.id, "repo", repoPath, "request_id", fc.RequestID, "error", r.err)
			continue
		}
		byProvider[r.id] = r.events
		o.metrics.EventsFetched(r.id, len(r.events))
	}

	if len(byProvider) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(failures...))
	}
	if len(failures) > 0 {
		o.log.Warn("partial result: some providers failed", "repo", repoPath, "failed", len(failures), "succeeded", len(byProvider))
	}

	// Merge in registry order so dedupe by canonical ID is deterministic:
	// the first provider to contribute a canonical event keeps it.
	seen := make(map[string]struct{})
	var merged []model.Event
	for _, p := range providers {
		for _, e := range byProvider[p.ID()] {
			if e.CanonicalID != "" {
				if _, dup := seen[e.CanonicalID]; dup {
					continue
				}
				seen[e.CanonicalID] = struct{}{}
			}
			merged = append(merged, e)
		}
	}
	model.SortEvents(merged)

	o.metrics.ObserveFetch(time.Since(start))
	return merged, nil
}

func copyEvents(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	return out
}

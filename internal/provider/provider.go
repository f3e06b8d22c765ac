package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rkellner/gitline/internal/model"
)

var (
	// ErrInitialization means a provider failed to initialize.
	ErrInitialization = errors.New("provider initialization failed")

	// ErrFetchTimeout means a provider did not answer within its deadline.
	// Non-fatal at the orchestration layer: the provider simply contributes
	// nothing to that call.
	ErrFetchTimeout = errors.New("provider fetch timed out")
)

// Capabilities describes what a provider can do. The registry exposes them so
// consumers never probe provider types at runtime.
type Capabilities struct {
	SupportedEventTypes     []model.EventType
	SupportsHistoricalData  bool
	SupportsFiltering       bool
	SupportsRealTimeUpdates bool
	SupportsAuthentication  bool
	SupportsWriteOperations bool
}

// Config holds provider-specific initialization settings.
type Config struct {
	Settings map[string]string
}

// FetchContext carries the parameters of one orchestrated fetch. RequestID
// correlates log lines across the providers serving the same call.
type FetchContext struct {
	RequestID string
	RepoPath  string
	MaxEvents int
	Since     time.Time
	Until     time.Time
}

// Provider is a pluggable source of normalized timeline events.
type Provider interface {
	ID() string
	Name() string
	Version() string
	Capabilities() Capabilities

	Initialize(ctx context.Context, cfg Config) error
	FetchEvents(ctx context.Context, fc FetchContext) ([]model.Event, error)
	FilterOptions(ctx context.Context, fc FetchContext) (model.FilterOptions, error)
	Healthy() bool
	Dispose() error
}

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rkellner/gitline/internal/config"
	"github.com/rkellner/gitline/internal/extract"
	"github.com/rkellner/gitline/internal/metrics"
	"github.com/rkellner/gitline/internal/orchestrator"
	"github.com/rkellner/gitline/internal/provider"
	"github.com/rkellner/gitline/internal/provider/local"
	"github.com/rkellner/gitline/internal/provider/refs"
)

// buildOrchestrator wires the full stack from configuration: extraction
// engine, providers, registry, filter store, orchestrator. The metrics set is
// optional; one-shot commands pass nil.
func buildOrchestrator(ctx context.Context, m *metrics.Metrics) (*orchestrator.Orchestrator, error) {
	engine := extract.New(extract.Options{
		MaxCommits:         config.MaxCommits(),
		IncludeAllBranches: config.IncludeAllBranches(),
		Timeout:            config.ExtractTimeout(),
	})

	registry := provider.NewRegistry()

	localProv := local.New(engine)
	if err := localProv.Initialize(ctx, provider.Config{}); err != nil {
		return nil, fmt.Errorf("initialize local provider: %w", err)
	}
	if err := registry.Register(localProv); err != nil {
		return nil, err
	}

	refsProv := refs.New()
	if err := refsProv.Initialize(ctx, provider.Config{}); err != nil {
		return nil, fmt.Errorf("initialize refs provider: %w", err)
	}
	if err := registry.Register(refsProv); err != nil {
		return nil, err
	}

	// Apply configured enabled flags before the orchestrator installs its
	// invalidation hook.
	for _, p := range registry.Providers() {
		if !config.ProviderEnabled(p.ID()) {
			if err := registry.SetEnabled(p.ID(), false); err != nil {
				return nil, err
			}
		}
	}

	// The persisted snapshot backs the criteria fallback chain, so stored
	// filters apply when a command passes no explicit criteria.
	store := loadFilterStore()

	return orchestrator.New(registry, store,
		orchestrator.WithTTL(config.CacheTTL()),
		orchestrator.WithProviderTimeout(config.ProviderTimeout()),
		orchestrator.WithMetrics(m),
	), nil
}

// commandContext returns the cobra command's context, or a background one
// when the command is invoked directly (tests call RunE handlers with nil).
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// resolveRepoPath turns the optional positional argument into an absolute
// repository path, defaulting to the working directory.
func resolveRepoPath(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve repository path: %w", err)
	}
	return abs, nil
}

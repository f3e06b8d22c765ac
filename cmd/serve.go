package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rkellner/gitline/internal/config"
	"github.com/rkellner/gitline/internal/metrics"
)

var (
	serveListen   string
	serveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Keep the timeline warm and expose prometheus metrics",
	Long: `Periodically refresh the repository's event timeline and serve cache and
fetch instrumentation on /metrics.

Examples:
  gitline serve
  gitline serve /path/to/repo --listen :9463 --interval 30s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config)")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "Refresh interval (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	repoPath, err := resolveRepoPath(args)
	if err != nil {
		return err
	}

	listen := serveListen
	if listen == "" {
		listen = config.MetricsListen()
	}
	interval := serveInterval
	if interval == 0 {
		interval = config.ServeInterval()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	ctx, cancel := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	orch, err := buildOrchestrator(ctx, m)
	if err != nil {
		return err
	}

	// Warm the cache before serving.
	if _, err := orch.GetEvents(ctx, repoPath, false); err != nil {
		return fmt.Errorf("initial fetch: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: listen, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics listening", "addr", listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("serve started", "repo", repoPath, "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping", "reason", ctx.Err())
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return fmt.Errorf("metrics server: %w", err)
		case <-ticker.C:
			if _, err := orch.GetEvents(ctx, repoPath, false); err != nil {
				slog.Warn("refresh failed", "repo", repoPath, "error", err)
			}
		}
	}
}

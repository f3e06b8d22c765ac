package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/rkellner/gitline/internal/extract"
	"github.com/rkellner/gitline/internal/testutil"
)

// setupTestConfig seeds the viper keys the commands read, since tests invoke
// RunE handlers directly without going through cobra initialization.
func setupTestConfig(t *testing.T) {
	t.Helper()
	if !extract.GitAvailable() {
		t.Skip("git not available on PATH")
	}
	viper.Set("cache.ttl", 5*time.Minute)
	viper.Set("extract.max_commits", 2000)
	viper.Set("extract.all_branches", true)
	viper.Set("extract.timeout", 30*time.Second)
	viper.Set("providers.timeout", 30*time.Second)
	viper.Set("providers.refs.enabled", true)
	viper.Set("filters.state_file", filepath.Join(t.TempDir(), "filters.json"))
	t.Cleanup(viper.Reset)
}

func resetEventsFlags() {
	eventsTypes = nil
	eventsBranches = nil
	eventsAuthors = nil
	eventsProvider = nil
	eventsTags = nil
	eventsSearch = ""
	eventsSince = ""
	eventsUntil = ""
	eventsLimit = 0
	eventsRefresh = false
	eventsJSON = false
	eventsToon = false
}

func TestEventsBasic(t *testing.T) {
	setupTestConfig(t)
	repo := testutil.NewTempGitRepo(t)
	repo.CommitFile("a.txt", "a", "Second commit")
	resetEventsFlags()

	if err := runEvents(nil, []string{repo.Path}); err != nil {
		t.Fatalf("events command failed: %v", err)
	}
}

func TestEventsWithTypeFilter(t *testing.T) {
	setupTestConfig(t)
	repo := testutil.NewTempGitRepo(t)
	repo.CheckoutNew("feature/a")
	repo.CommitFile("a.txt", "a", "Feature work")
	repo.Checkout("main")
	repo.Merge("feature/a", "Merge feature/a")
	resetEventsFlags()
	eventsTypes = []string{"merge"}

	if err := runEvents(nil, []string{repo.Path}); err != nil {
		t.Fatalf("events command failed: %v", err)
	}
}

func TestEventsJSONOutput(t *testing.T) {
	setupTestConfig(t)
	repo := testutil.NewTempGitRepo(t)
	resetEventsFlags()
	eventsJSON = true

	if err := runEvents(nil, []string{repo.Path}); err != nil {
		t.Fatalf("events command failed: %v", err)
	}
}

func TestEventsInvalidSinceDate(t *testing.T) {
	setupTestConfig(t)
	repo := testutil.NewTempGitRepo(t)
	resetEventsFlags()
	eventsSince = "not-a-date"

	if err := runEvents(nil, []string{repo.Path}); err == nil {
		t.Error("expected error with invalid date format")
	}
}

func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	fnErr := fn()
	w.Close()
	os.Stdout = old
	out, _ := io.ReadAll(r)
	if fnErr != nil {
		t.Fatalf("command failed: %v", fnErr)
	}
	return string(out)
}

func TestEventsUsesPersistedFilterState(t *testing.T) {
	setupTestConfig(t)
	repo := testutil.NewTempGitRepo(t)
	repo.CommitFile("a.txt", "a", "Second commit")

	// Store an exclude-all types filter for the repo.
	resetFiltersFlags()
	filtersExcludeAll = []string{"types"}
	if err := runFiltersSet(nil, []string{repo.Path}); err != nil {
		t.Fatalf("filters set failed: %v", err)
	}

	// Without flags, the stored state applies and hides every event.
	resetEventsFlags()
	out := captureStdout(t, func() error { return runEvents(nil, []string{repo.Path}) })
	if !strings.Contains(out, "No events found") {
		t.Errorf("stored exclude-all filter should hide every event, got:\n%s", out)
	}

	// Explicit flags override the stored state.
	resetEventsFlags()
	eventsTypes = []string{"commit"}
	out = captureStdout(t, func() error { return runEvents(nil, []string{repo.Path}) })
	if strings.Contains(out, "No events found") {
		t.Errorf("explicit flags should override the stored state, got:\n%s", out)
	}
}

func TestBuildOrchestratorLoadsPersistedFilters(t *testing.T) {
	setupTestConfig(t)
	repo := testutil.NewTempGitRepo(t)

	resetFiltersFlags()
	filtersBranches = []string{"main"}
	if err := runFiltersSet(nil, []string{repo.Path}); err != nil {
		t.Fatalf("filters set failed: %v", err)
	}

	orch, err := buildOrchestrator(context.Background(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	abs, _ := filepath.Abs(repo.Path)
	if !orch.Filters().HasActiveFilters(abs) {
		t.Error("orchestrator should see the persisted filter state")
	}
}

func TestEventsCriteriaLeavesUnsetDimensionsInactive(t *testing.T) {
	resetEventsFlags()
	eventsTypes = []string{"commit"}

	c, err := eventsCriteria()
	if err != nil {
		t.Fatalf("criteria: %v", err)
	}
	if c.EventTypes == nil {
		t.Error("set flag should activate its dimension")
	}
	if c.Branches != nil || c.Authors != nil || c.Tags != nil {
		t.Error("unset flags must leave their dimensions inactive")
	}
	if c.DateRange != nil {
		t.Error("unset date flags must leave the range inactive")
	}
}

func TestEventsCriteriaDateWindow(t *testing.T) {
	resetEventsFlags()
	eventsSince = "2024-03-01"
	eventsUntil = "2024-03-02"

	c, err := eventsCriteria()
	if err != nil {
		t.Fatalf("criteria: %v", err)
	}
	if c.DateRange == nil {
		t.Fatal("expected an active date range")
	}
	if !c.DateRange.Since.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("since = %v", c.DateRange.Since)
	}
	// Until is inclusive of the whole day.
	if c.DateRange.Until.Before(time.Date(2024, 3, 2, 23, 59, 0, 0, time.UTC)) {
		t.Errorf("until should cover the full day, got %v", c.DateRange.Until)
	}
}

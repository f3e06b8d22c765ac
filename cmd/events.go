package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/rkellner/gitline/internal/model"
)

var (
	eventsTypes    []string
	eventsBranches []string
	eventsAuthors  []string
	eventsProvider []string
	eventsTags     []string
	eventsSearch   string
	eventsSince    string
	eventsUntil    string
	eventsLimit    int
	eventsRefresh  bool
	eventsJSON     bool
	eventsToon     bool
)

var eventsCmd = &cobra.Command{
	Use:   "events [path]",
	Short: "Show the merged event timeline for a repository",
	Long: `Fetch normalized history events from all healthy providers, merge them,
and print the chronological timeline.

Filter flags combine with AND semantics: an event must satisfy every given
dimension simultaneously.

Examples:
  gitline events
  gitline events /path/to/repo --type merge --branch main
  gitline events --author alice --since 2025-01-01
  gitline events --search "fix" --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringSliceVar(&eventsTypes, "type", nil, "Filter by event type (commit|merge|branch-created|tag|release)")
	eventsCmd.Flags().StringSliceVar(&eventsBranches, "branch", nil, "Filter by branch membership")
	eventsCmd.Flags().StringSliceVar(&eventsAuthors, "author", nil, "Filter by author name or email")
	eventsCmd.Flags().StringSliceVar(&eventsProvider, "provider", nil, "Filter by provider id")
	eventsCmd.Flags().StringSliceVar(&eventsTags, "tag", nil, "Filter by tag name")
	eventsCmd.Flags().StringVar(&eventsSearch, "search", "", "Free-text search over title, description and author")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "Only events on or after this date (YYYY-MM-DD)")
	eventsCmd.Flags().StringVar(&eventsUntil, "until", "", "Only events on or before this date (YYYY-MM-DD)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "Print at most N events (0 = all)")
	eventsCmd.Flags().BoolVar(&eventsRefresh, "force-refresh", false, "Bypass the cache and refetch")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output as JSON")
	eventsCmd.Flags().BoolVar(&eventsToon, "toon", false, "Output in LLM-friendly toon format")
}

func runEvents(cmd *cobra.Command, args []string) error {
	repoPath, err := resolveRepoPath(args)
	if err != nil {
		return err
	}

	criteria, err := eventsCriteria()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	orch, err := buildOrchestrator(ctx, nil)
	if err != nil {
		return err
	}

	if eventsRefresh {
		if _, err := orch.GetEvents(ctx, repoPath, true); err != nil {
			return err
		}
	}

	// Without filter flags the stored per-repository state applies; explicit
	// flags override it.
	var explicit *model.FilterCriteria
	if !criteria.IsZero() {
		explicit = &criteria
	}

	result, err := orch.GetEventsWithFilters(ctx, repoPath, explicit)
	if err != nil {
		return err
	}

	events := result.FilteredEvents
	if eventsLimit > 0 && len(events) > eventsLimit {
		events = events[len(events)-eventsLimit:]
	}

	if eventsJSON {
		output, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if eventsToon {
		output, err := gotoon.Encode(events)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	if len(events) == 0 {
		fmt.Println("No events found")
		return nil
	}

	for _, e := range events {
		printEvent(e)
	}
	fmt.Printf("\n%d of %d events shown\n", len(events), len(result.AllEvents))
	return nil
}

func printEvent(e model.Event) {
	marker := " "
	switch e.Type {
	case model.TypeMerge:
		marker = "M"
	case model.TypeTag, model.TypeRelease:
		marker = "T"
	case model.TypeBranchCreated:
		marker = "B"
	}

	id := e.ID
	if len(id) > 8 {
		id = id[:8]
	}
	fmt.Printf("%s %s  %-14s %-8s %s", marker, e.Timestamp.Format("2006-01-02 15:04"), e.Type, id, e.Title)
	if len(e.Branches) > 0 {
		fmt.Printf("  [%s]", strings.Join(e.Branches, ", "))
	}
	fmt.Println()
}

// eventsCriteria builds filter criteria from the command flags. Unset flags
// leave their dimensions inactive.
func eventsCriteria() (model.FilterCriteria, error) {
	var c model.FilterCriteria
	if len(eventsTypes) > 0 {
		c.EventTypes = eventsTypes
	}
	if len(eventsBranches) > 0 {
		c.Branches = eventsBranches
	}
	if len(eventsAuthors) > 0 {
		c.Authors = eventsAuthors
	}
	if len(eventsProvider) > 0 {
		c.Providers = eventsProvider
	}
	if len(eventsTags) > 0 {
		c.Tags = eventsTags
	}
	c.Search = eventsSearch

	if eventsSince != "" || eventsUntil != "" {
		span := &model.TimeSpan{}
		if eventsSince != "" {
			t, err := time.Parse("2006-01-02", eventsSince)
			if err != nil {
				return c, fmt.Errorf("invalid --since date %q (want YYYY-MM-DD)", eventsSince)
			}
			span.Since = t
		}
		if eventsUntil != "" {
			t, err := time.Parse("2006-01-02", eventsUntil)
			if err != nil {
				return c, fmt.Errorf("invalid --until date %q (want YYYY-MM-DD)", eventsUntil)
			}
			span.Until = t.Add(24*time.Hour - time.Second)
		}
		c.DateRange = span
	}
	return c, nil
}

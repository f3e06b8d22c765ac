package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"
)

var (
	summaryJSON bool
	summaryToon bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary [path]",
	Short: "Show timeline statistics for a repository",
	Long: `Display aggregate statistics over the merged event timeline:
  - Total event count and date range
  - Events by type, branch and author
  - Provider contribution

Examples:
  gitline summary
  gitline summary --json
  gitline summary --toon`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Output as JSON")
	summaryCmd.Flags().BoolVar(&summaryToon, "toon", false, "Output in LLM-friendly toon format")
}

type timelineSummary struct {
	TotalEvents int            `json:"total_events"`
	ByType      map[string]int `json:"by_type"`
	ByBranch    map[string]int `json:"by_branch"`
	ByAuthor    map[string]int `json:"by_author"`
	ByProvider  map[string]int `json:"by_provider"`
	Oldest      *time.Time     `json:"oldest,omitempty"`
	Newest      *time.Time     `json:"newest,omitempty"`
	TopAuthors  []authorStat   `json:"top_authors"`
}

type authorStat struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

func runSummary(cmd *cobra.Command, args []string) error {
	repoPath, err := resolveRepoPath(args)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	orch, err := buildOrchestrator(ctx, nil)
	if err != nil {
		return err
	}

	events, err := orch.GetEvents(ctx, repoPath, false)
	if err != nil {
		return err
	}

	summary := &timelineSummary{
		ByType:     make(map[string]int),
		ByBranch:   make(map[string]int),
		ByAuthor:   make(map[string]int),
		ByProvider: make(map[string]int),
	}
	summary.TotalEvents = len(events)

	for _, e := range events {
		summary.ByType[string(e.Type)]++
		for _, b := range e.Branches {
			summary.ByBranch[b]++
		}
		if e.Author.Name != "" {
			summary.ByAuthor[e.Author.Name]++
		}
		summary.ByProvider[e.ProviderID]++

		if summary.Oldest == nil || e.Timestamp.Before(*summary.Oldest) {
			t := e.Timestamp
			summary.Oldest = &t
		}
		if summary.Newest == nil || e.Timestamp.After(*summary.Newest) {
			t := e.Timestamp
			summary.Newest = &t
		}
	}

	for author, count := range summary.ByAuthor {
		summary.TopAuthors = append(summary.TopAuthors, authorStat{Author: author, Count: count})
	}
	sort.Slice(summary.TopAuthors, func(i, j int) bool {
		if summary.TopAuthors[i].Count == summary.TopAuthors[j].Count {
			return summary.TopAuthors[i].Author < summary.TopAuthors[j].Author
		}
		return summary.TopAuthors[i].Count > summary.TopAuthors[j].Count
	})

	if summaryJSON {
		output, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if summaryToon {
		output, err := gotoon.Encode(summary)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	fmt.Println("Timeline Summary")
	fmt.Println("━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Total Events: %d\n", summary.TotalEvents)
	if summary.Oldest != nil && summary.Newest != nil {
		fmt.Printf("Date Range:   %s to %s\n",
			summary.Oldest.Format("2006-01-02"),
			summary.Newest.Format("2006-01-02"))
	}
	fmt.Println()

	fmt.Println("By Type:")
	for _, t := range sortedCountKeys(summary.ByType) {
		fmt.Printf("  %-16s %4d\n", t, summary.ByType[t])
	}
	fmt.Println()

	fmt.Println("By Branch:")
	for _, b := range sortedCountKeys(summary.ByBranch) {
		fmt.Printf("  %-24s %4d\n", b, summary.ByBranch[b])
	}
	fmt.Println()

	if len(summary.TopAuthors) > 0 {
		fmt.Println("Top Authors:")
		limit := 10
		if len(summary.TopAuthors) < limit {
			limit = len(summary.TopAuthors)
		}
		for i := 0; i < limit; i++ {
			as := summary.TopAuthors[i]
			fmt.Printf("  %-24s %4d\n", as.Author, as.Count)
		}
	}
	return nil
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

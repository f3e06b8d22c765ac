package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rkellner/gitline/internal/config"
	"github.com/rkellner/gitline/internal/filterstate"
	"github.com/rkellner/gitline/internal/model"
)

var (
	filtersTypes      []string
	filtersBranches   []string
	filtersAuthors    []string
	filtersTags       []string
	filtersSearch     string
	filtersExcludeAll []string
	filtersYAML       bool
	filtersOutput     string
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Inspect and edit persisted filter state",
	Long: `Manage the per-repository filter state used when 'gitline events' runs
without explicit filter flags.

State snapshots live in a single file (see filters.state_file); malformed
entries in a snapshot are skipped individually on import.`,
}

var filtersShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show the stored filter state for a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFiltersShow,
}

var filtersSetCmd = &cobra.Command{
	Use:   "set [path]",
	Short: "Replace the stored filter state for a repository",
	Long: `Replace the stored filter criteria. Unset flags leave their dimensions
inactive (all values pass). --exclude-all marks a dimension as "exclude
everything", which is distinct from leaving it unset.

Examples:
  gitline filters set --type commit,merge --branch main
  gitline filters set --exclude-all tags`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFiltersSet,
}

var filtersResetCmd = &cobra.Command{
	Use:   "reset [path]",
	Short: "Reset the stored filter state for a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFiltersReset,
}

var filtersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all stored filter states",
	RunE:  runFiltersExport,
}

var filtersImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import filter states from a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiltersImport,
}

func init() {
	rootCmd.AddCommand(filtersCmd)
	filtersCmd.AddCommand(filtersShowCmd, filtersSetCmd, filtersResetCmd, filtersExportCmd, filtersImportCmd)

	filtersSetCmd.Flags().StringSliceVar(&filtersTypes, "type", nil, "Event types to keep")
	filtersSetCmd.Flags().StringSliceVar(&filtersBranches, "branch", nil, "Branches to keep")
	filtersSetCmd.Flags().StringSliceVar(&filtersAuthors, "author", nil, "Authors to keep")
	filtersSetCmd.Flags().StringSliceVar(&filtersTags, "tag", nil, "Tags to keep")
	filtersSetCmd.Flags().StringVar(&filtersSearch, "search", "", "Free-text search")
	filtersSetCmd.Flags().StringSliceVar(&filtersExcludeAll, "exclude-all", nil, "Dimensions to exclude entirely (types|branches|authors|tags)")

	filtersExportCmd.Flags().BoolVar(&filtersYAML, "yaml", false, "Export as YAML instead of JSON")
	filtersExportCmd.Flags().StringVarP(&filtersOutput, "output", "o", "", "Write to file instead of stdout")
	filtersImportCmd.Flags().BoolVar(&filtersYAML, "yaml", false, "Treat the snapshot as YAML")
}

// loadFilterStore reads the persisted snapshot into a fresh store. A missing
// file yields an empty store; a corrupt one is reported but still yields a
// usable empty store.
func loadFilterStore() *filterstate.Store {
	store := filterstate.NewStore()
	blob, err := os.ReadFile(config.FilterStatePath())
	if err != nil {
		return store
	}
	if err := store.Import(blob); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring corrupt filter state file: %v\n", err)
	}
	return store
}

func saveFilterStore(store *filterstate.Store) error {
	blob, err := store.Export()
	if err != nil {
		return fmt.Errorf("failed to export filter states: %w", err)
	}
	path := config.FilterStatePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, blob, 0644); err != nil {
		return fmt.Errorf("failed to write filter states: %w", err)
	}
	return nil
}

func runFiltersShow(cmd *cobra.Command, args []string) error {
	repoPath, err := resolveRepoPath(args)
	if err != nil {
		return err
	}

	store := loadFilterStore()
	state := store.Get(repoPath)

	output, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(output))

	if store.HasActiveFilters(repoPath) {
		fmt.Fprintln(os.Stderr, "filters active")
	} else {
		fmt.Fprintln(os.Stderr, "no filters active")
	}
	return nil
}

func runFiltersSet(cmd *cobra.Command, args []string) error {
	repoPath, err := resolveRepoPath(args)
	if err != nil {
		return err
	}

	var c model.FilterCriteria
	if len(filtersTypes) > 0 {
		c.EventTypes = filtersTypes
	}
	if len(filtersBranches) > 0 {
		c.Branches = filtersBranches
	}
	if len(filtersAuthors) > 0 {
		c.Authors = filtersAuthors
	}
	if len(filtersTags) > 0 {
		c.Tags = filtersTags
	}
	c.Search = filtersSearch

	for _, dim := range filtersExcludeAll {
		switch dim {
		case "types":
			c.EventTypes = []string{}
		case "branches":
			c.Branches = []string{}
		case "authors":
			c.Authors = []string{}
		case "tags":
			c.Tags = []string{}
		default:
			return fmt.Errorf("unknown dimension %q (want types|branches|authors|tags)", dim)
		}
	}

	store := loadFilterStore()
	store.Set(repoPath, c)
	if err := saveFilterStore(store); err != nil {
		return err
	}
	fmt.Printf("Filter state saved for %s\n", repoPath)
	return nil
}

func runFiltersReset(cmd *cobra.Command, args []string) error {
	repoPath, err := resolveRepoPath(args)
	if err != nil {
		return err
	}

	store := loadFilterStore()
	store.Reset(repoPath)
	if err := saveFilterStore(store); err != nil {
		return err
	}
	fmt.Printf("Filter state reset for %s\n", repoPath)
	return nil
}

func runFiltersExport(cmd *cobra.Command, args []string) error {
	store := loadFilterStore()

	var blob []byte
	var err error
	if filtersYAML {
		blob, err = store.ExportYAML()
	} else {
		blob, err = store.Export()
	}
	if err != nil {
		return fmt.Errorf("failed to export filter states: %w", err)
	}

	if filtersOutput != "" {
		if err := os.WriteFile(filtersOutput, blob, 0644); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		fmt.Printf("Exported filter states to %s\n", filtersOutput)
		return nil
	}
	fmt.Println(string(blob))
	return nil
}

func runFiltersImport(cmd *cobra.Command, args []string) error {
	blob, err := os.ReadFile(args[0])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("snapshot file not found: %s", args[0])
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	store := loadFilterStore()
	if filtersYAML {
		err = store.ImportYAML(blob)
	} else {
		err = store.Import(blob)
	}
	if err != nil {
		return fmt.Errorf("failed to import filter states: %w", err)
	}

	if err := saveFilterStore(store); err != nil {
		return err
	}
	fmt.Printf("Imported filter states from %s\n", args[0])
	return nil
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rkellner/gitline/internal/config"
	"github.com/rkellner/gitline/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "gitline",
	Short: "Unified, filterable timeline of version-control history",
	Long: `gitline ingests version-control history from pluggable providers and
exposes it as a unified, filterable stream of normalized timeline events:
  - commits, merges, branch creations, tags and releases
  - multi-branch membership computed over the commit graph
  - composable per-dimension filters with exact AND semantics
  - TTL-cached multi-provider fetches with partial-failure tolerance`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/gitline/config.toml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "gitline")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("gitline")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("cache.ttl", 5*time.Minute)
	viper.SetDefault("extract.max_commits", 2000)
	viper.SetDefault("extract.all_branches", true)
	viper.SetDefault("extract.timeout", 30*time.Second)
	viper.SetDefault("providers.timeout", 30*time.Second)
	viper.SetDefault("providers.local-git.enabled", true)
	viper.SetDefault("providers.refs.enabled", true)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("serve.listen", ":9463")
	viper.SetDefault("serve.interval", 1*time.Minute)
	viper.SetDefault("filters.state_file", defaultStateFile())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	logging.Init(logging.ParseLevel(config.LogLevel()))
	slog.Debug("configuration loaded")
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gitline-filters.json"
	}
	return filepath.Join(home, ".config", "gitline", "filters.json")
}

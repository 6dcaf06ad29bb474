package main

import (
	"fmt"
	"os"

	"github.com/cuemby/aegis/pkg/aegis"
	"github.com/cuemby/aegis/pkg/bootstrap"
	"github.com/cuemby/aegis/pkg/config"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aegisctl",
	Short: "aegisctl - authorization engine control CLI",
	Long: `aegisctl drives a single embedded aegis authorization store: bootstrap
a new store, manage entity types and entities, grant and revoke
relationships, and check access, all against one on-disk store.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"aegisctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (defaults built in if unset)")
	rootCmd.PersistentFlags().String("data-dir", "", "Override the store's data directory")
	rootCmd.PersistentFlags().String("actor", "", "Entity label acting on behalf of (e.g. user:root)")

	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(typeCmd)
	rootCmd.AddCommand(entityCmd)
	rootCmd.AddCommand(relationCmd)
	rootCmd.AddCommand(capCmd)
	rootCmd.AddCommand(inheritCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}

// loadConfig merges the --config file (if given) with --data-dir override.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// openEngine opens the store named by the command's flags. Callers must
// Close() the returned Engine.
func openEngine(cmd *cobra.Command) (*aegis.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	e, err := aegis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return e, nil
}

// actorFlag returns the --actor flag, defaulting to the bootstrap root if
// the store has already been bootstrapped and none was given.
func actorFlag(cmd *cobra.Command, e *aegis.Engine) (string, error) {
	actor, _ := cmd.Flags().GetString("actor")
	if actor != "" {
		return actor, nil
	}
	root, ok, err := bootstrap.GetRootEntity(e.DB())
	if err != nil {
		return "", fmt.Errorf("read root entity: %w", err)
	}
	if ok {
		return root, nil
	}
	return "", fmt.Errorf("--actor is required")
}

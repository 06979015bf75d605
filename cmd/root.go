package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cefrkit/placement/internal/config"
	"github.com/cefrkit/placement/internal/logging"
	"github.com/cefrkit/placement/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "placement",
	Short: "Adaptive English placement tests",
	Long: "placement runs adaptive CEFR placement tests for reading, listening, vocabulary,\n" +
		"speaking and writing, over HTTP (serve) or in the terminal (take).",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (overrides PLACEMENT_CONFIG)")
	rootCmd.PersistentFlags().String("db", "", "Database URL or SQLite path (overrides database.url)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config and applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.URL = db
	}
	return cfg, nil
}

// openStore opens the configured database, falling back to the default
// SQLite file.
func openStore(cfg *config.Config) (*store.Store, error) {
	dsn := cfg.Database.URL
	if dsn == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		dsn = p
	} else if err := store.EnsureDir(dsn); err != nil {
		return nil, err
	}
	st, err := store.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	log, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

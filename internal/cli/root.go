package cli

import (
	"fmt"

	"github.com/lazyarrow/quiver/internal/config"
	"github.com/lazyarrow/quiver/internal/engine"
	"github.com/lazyarrow/quiver/internal/history"
	"github.com/lazyarrow/quiver/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quiver",
	Short: "Search and launch programs, apps, URLs and browser history",
	Long:  "Quiver indexes executables and desktop applications, ranks them by usage, and launches them alongside URLs, web searches and browser history.",
}

var configPath string

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/quiver/config.toml)")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(handlersCmd)
}

// loadConfig resolves the --config flag or the default location.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(path)
}

// openEngine builds the full stack for one CLI invocation. The caller must
// close the returned store.
func openEngine(cfg config.Config) (*store.DB, *engine.Engine, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	var collector *history.Collector
	if cfg.History.Enabled {
		collector = history.NewCollector()
	}

	eng, err := engine.New(db, collector)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	// First run: populate the store before answering anything.
	needs, err := eng.NeedsScan()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if needs {
		if err := eng.ScanNow(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("initial scan: %w", err)
		}
	}
	return db, eng, nil
}

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/iamsmart/masterclass/internal/config"
	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/store"
)

func newLogger() *log.Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		cfg.UserID = u
	}
	if c, _ := cmd.Flags().GetString("content"); c != "" {
		cfg.ContentPath = c
	}
	return cfg, nil
}

// resolveDSN returns the DSN using --db (highest priority), then
// MASTERCLASS_DB_DSN, then the default sqlite file path.
func resolveDSN(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if cfg.DBDriver == store.DriverPostgres {
			return p, nil
		}
		return p, store.EnsureDir(p)
	}
	if cfg.DBDSN != "" {
		return cfg.DBDSN, nil
	}
	if cfg.DBDriver == store.DriverPostgres {
		return "", fmt.Errorf("MASTERCLASS_DB_DSN is required for the %s driver", cfg.DBDriver)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command, cfg config.Config) (*store.Store, error) {
	dsn, err := resolveDSN(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	st, err := store.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// loadContent returns the pack at cfg.ContentPath, or the embedded pack.
func loadContent(cfg config.Config) (*curriculum.Catalog, error) {
	if cfg.ContentPath == "" {
		return curriculum.Default()
	}
	return loadPackFile(cfg.ContentPath)
}

func loadPackFile(path string) (*curriculum.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open content pack: %w", err)
	}
	defer f.Close()
	return curriculum.LoadPack(f)
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote"
	"github.com/aretw0/quicknote/internal/config"
	"github.com/aretw0/quicknote/pkg/core"
)

var (
	verbose    bool
	storePath  string
	adapter    string
	configPath string
	readOnly   bool

	// cfg is the effective configuration, resolved before every command.
	cfg config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quicknote",
	Short: "Notes and todo lists for home-screen widgets",
	Long: `quicknote keeps one free-text note and one checklist per widget id.
Every command reads and writes the same store the widgets use, so changes
show up on the next widget refresh.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		slog.SetDefault(logger)

		return resolveConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "Store directory (default: nearest store upwards, then ~/.quicknote)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: fs, badger or memory")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <store>/quicknote.yaml)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Open the store read-only")
}

// resolveConfig merges defaults, the config file and flags, in that order.
func resolveConfig() error {
	store := storePath
	if store == "" {
		store = defaultStore()
	}

	path, required := configPath, configPath != ""
	if path == "" {
		path = filepath.Join(store, config.FileName)
	}
	loaded, err := config.Load(path, required)
	if err != nil {
		return err
	}

	if storePath != "" || loaded.Store == "" {
		loaded.Store = store
	}
	loaded.Merge(config.Config{Adapter: adapter, ReadOnly: readOnly})
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded
	slog.Debug("configuration resolved", "store", cfg.Store, "adapter", cfg.Adapter, "config", path)
	return nil
}

func defaultStore() string {
	if wd, err := os.Getwd(); err == nil {
		if root, err := quicknote.FindStoreRoot(wd); err == nil {
			return root
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".quicknote")
	}
	return ".quicknote"
}

// openService opens the store described by cfg. Callers close it.
func openService() (*core.Service, error) {
	svc, err := quicknote.New(cfg.Store,
		quicknote.WithAdapter(cfg.Adapter),
		quicknote.WithReadOnly(cfg.ReadOnly),
		quicknote.WithCacheSize(cfg.CacheSize),
		quicknote.WithLogger(slog.Default()),
		quicknote.WithWatcherErrorHandler(func(err error) {
			slog.Error("watcher failed", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", cfg.Store, err)
	}
	return svc, nil
}

// parseWidget parses and validates a widget id argument.
func parseWidget(arg string) (core.WidgetID, error) {
	id, err := core.ParseWidgetID(arg)
	if err != nil {
		return core.InvalidWidgetID, err
	}
	if !id.Valid() {
		return core.InvalidWidgetID, fmt.Errorf("%w: %d", core.ErrInvalidWidget, id)
	}
	return id, nil
}

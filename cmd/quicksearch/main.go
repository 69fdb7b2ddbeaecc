// Package main provides the quicksearch CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"quicksearch/cmd/quicksearch/widget"
	"quicksearch/internal/assistant"
	"quicksearch/internal/catalog"
	"quicksearch/internal/config"
	"quicksearch/internal/logging"
	"quicksearch/internal/ux"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "quicksearch",
	Short: "Quick Search - a shopping assistant in your terminal",
	Long: `Quick Search is a conversational shopping assistant widget.

Type what you are looking for, pick a category, or use voice mode for a
short guided interview. Responses are simulated from a product catalog.

Run without arguments to open the interactive widget.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runWidget,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/.quicksearch/config.yaml)")

	askCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-query timeout")

	onboardingCmd.AddCommand(onboardingResetCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(onboardingCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveWorkspace returns the workspace flag or the current directory.
func resolveWorkspace() (string, error) {
	if workspace != "" {
		return workspace, nil
	}
	return os.Getwd()
}

// env is everything a command needs from the workspace.
type env struct {
	workspace string
	config    *config.Config
	catalog   *catalog.Catalog
	prefs     *ux.PreferencesManager
}

// loadEnv loads config, logging, catalog and preferences for the workspace.
func loadEnv() (*env, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace: %w", err)
	}

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath(ws)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := logging.Initialize(ws, cfg.Logging.Options()); err != nil {
		logger.Warn("file logging disabled", zap.Error(err))
	}
	if logging.IsDebugMode() {
		logger.Info("debug logging enabled", zap.String("dir", filepath.Join(ws, ".quicksearch", "logs")))
		logging.Boot("config loaded from %s", path)
	}

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
	}

	prefs := ux.NewPreferencesManager(ws)
	if err := prefs.Load(); err != nil {
		logger.Warn("preferences unreadable, using defaults", zap.String("path", prefs.Path()), zap.Error(err))
		logging.BootWarn("preferences unreadable: %v", err)
	}

	logger.Debug("environment loaded",
		zap.String("workspace", ws),
		zap.String("config", path),
		zap.Int("products", len(cat.Products())),
	)
	return &env{workspace: ws, config: cfg, catalog: cat, prefs: prefs}, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// runWidget launches the interactive widget.
func runWidget(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if e.config.Catalog.Path != "" && e.config.Catalog.Watch {
		w, err := catalog.NewWatcher(e.config.Catalog.Path, e.catalog, func(err error) {
			if err != nil {
				logger.Warn("catalog reload failed", zap.Error(err))
				return
			}
			logger.Info("catalog reloaded", zap.Int("products", len(e.catalog.Products())))
		})
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	session := assistant.New(assistant.Options{
		Config:  e.config,
		Catalog: e.catalog,
		Prefs:   e.prefs,
	})
	session.Start(ctx)
	defer session.Close()

	p := tea.NewProgram(widget.New(session, e.config.UI.Theme), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("widget: %w", err)
	}
	return nil
}

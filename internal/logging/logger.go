// Package logging provides config-driven categorized file-based logging for quicksearch.
// Logs are written to .quicksearch/logs/ with separate files per category.
// When debug mode is off every logger is a no-op, so the TUI keeps the terminal to itself.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config, onboarding flag
	CategoryStore   Category = "store"   // Message store mutations
	CategoryEngine  Category = "engine"  // Scenario engine scheduling and resolution
	CategoryCart    Category = "cart"    // Cart count and toasts
	CategoryView    Category = "view"    // View state machine transitions
	CategoryVoice   Category = "voice"   // Voice interview controller
	CategorySpeech  Category = "speech"  // Speech capability events
	CategoryCatalog Category = "catalog" // Catalog loading and hot reload
	CategoryUI      Category = "ui"      // Bubble Tea front-end
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryBoot, CategoryStore, CategoryEngine, CategoryCart, CategoryView,
	CategoryVoice, CategorySpeech, CategoryCatalog, CategoryUI,
}

// Options mirrors the logging section of the config file.
type Options struct {
	DebugMode  bool
	Level      string // debug, info, warn, error
	JSONFormat bool
	Categories map[string]bool
}

// Logger is a category-scoped printf-style logger.
// A Logger with a nil sugar is a no-op.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
	file     *os.File
}

var (
	mu      sync.RWMutex
	loggers = make(map[Category]*Logger)
	logsDir string
	opts    Options
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize sets up the logging directory for the given workspace.
// Should be called once at startup.
func Initialize(workspace string, o Options) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	mu.Lock()
	opts = o
	logsDir = filepath.Join(workspace, ".quicksearch", "logs")
	if err := level.UnmarshalText([]byte(o.Level)); err != nil || o.Level == "" {
		level.SetLevel(zapcore.InfoLevel)
	}
	mu.Unlock()

	if !o.DebugMode {
		return nil
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== quicksearch logging initialized ===")
	boot.Info("Workspace: %s", workspace)
	boot.Info("Log level: %s", level.Level())
	return nil
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return opts.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if !opts.DebugMode {
		return false
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	enabled := categoryEnabledLocked(category) && logsDir != ""
	mu.RUnlock()

	if !enabled {
		return &Logger{category: category}
	}

	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if opts.JSONFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(file), level)

	l := &Logger{
		category: category,
		file:     file,
		sugar:    zap.New(core).Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// Enabled reports whether the logger writes anywhere.
func (l *Logger) Enabled() bool { return l.sugar != nil }

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// With returns a child logger carrying structured key/value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	if l.sugar == nil {
		return l
	}
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// CloseAll flushes and closes every open log file and forgets the configuration.
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()

	for cat, l := range loggers {
		if l.sugar != nil {
			_ = l.sugar.Sync()
		}
		if l.file != nil {
			_ = l.file.Close()
		}
		delete(loggers, cat)
	}
	opts = Options{}
	logsDir = ""
	level.SetLevel(zapcore.InfoLevel)
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

func Boot(format string, args ...interface{})        { Get(CategoryBoot).Info(format, args...) }
func BootWarn(format string, args ...interface{})    { Get(CategoryBoot).Warn(format, args...) }
func Store(format string, args ...interface{})       { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{})  { Get(CategoryStore).Debug(format, args...) }
func Engine(format string, args ...interface{})      { Get(CategoryEngine).Info(format, args...) }
func EngineDebug(format string, args ...interface{}) { Get(CategoryEngine).Debug(format, args...) }
func Cart(format string, args ...interface{})        { Get(CategoryCart).Info(format, args...) }
func CartDebug(format string, args ...interface{})   { Get(CategoryCart).Debug(format, args...) }
func View(format string, args ...interface{})        { Get(CategoryView).Info(format, args...) }
func ViewWarn(format string, args ...interface{})    { Get(CategoryView).Warn(format, args...) }
func Voice(format string, args ...interface{})       { Get(CategoryVoice).Info(format, args...) }
func VoiceDebug(format string, args ...interface{})  { Get(CategoryVoice).Debug(format, args...) }
func Speech(format string, args ...interface{})      { Get(CategorySpeech).Info(format, args...) }
func SpeechDebug(format string, args ...interface{}) { Get(CategorySpeech).Debug(format, args...) }
func Catalog(format string, args ...interface{})     { Get(CategoryCatalog).Info(format, args...) }
func CatalogWarn(format string, args ...interface{}) { Get(CategoryCatalog).Warn(format, args...) }
func UI(format string, args ...interface{})          { Get(CategoryUI).Info(format, args...) }

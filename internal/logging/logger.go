// Package logging provides categorized structured logging for procintel.
// Each subsystem logs through its own category so output can be filtered per
// component. Loggers are backed by zap and are silent no-ops until
// Initialize or UseLogger is called.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot         Category = "boot"         // Startup, config loading
	CategoryPerception   Category = "perception"   // Query -> intent routing
	CategoryRetrieval    Category = "retrieval"    // Reference-code lookup
	CategoryAggregation  Category = "aggregation"  // Grouped statistics
	CategoryArticulation Category = "articulation" // Report synthesis
	CategoryCore         Category = "core"         // Engine pipeline stages
	CategoryStore        Category = "store"        // SQLite snapshot store
	CategoryImport       Category = "import"       // CSV import
	CategoryServer       Category = "server"       // HTTP surface
	CategoryChat         Category = "chat"         // Interactive UI
	CategoryWatch        Category = "watch"        // File watcher
)

// Config controls logger construction.
type Config struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, console
	File       string          `yaml:"file"`   // empty = stderr
	Categories map[string]bool `yaml:"categories"`
}

// Logger is a category-scoped printf-style logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu         sync.RWMutex
	base       = zap.NewNop()
	loggers    = make(map[Category]*Logger)
	categories map[string]bool
)

// Initialize builds a zap logger from cfg and installs it.
func Initialize(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	zcfg := zap.NewProductionConfig()
	if strings.EqualFold(cfg.Format, "console") || strings.EqualFold(cfg.Format, "text") {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableStacktrace = true
	if cfg.File != "" {
		zcfg.OutputPaths = []string{cfg.File}
		zcfg.ErrorOutputPaths = []string{cfg.File}
	} else {
		zcfg.OutputPaths = []string{"stderr"}
	}

	l, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	install(l, cfg.Categories)
	Get(CategoryBoot).Debug("logging initialized (level=%s format=%s)", level, zcfg.Encoding)
	return nil
}

// UseLogger installs an already built zap logger, e.g. the one the CLI
// constructs or a zaptest observer in tests. A nil logger resets to no-op.
func UseLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	install(l, nil)
}

// SetCategories restricts output to the categories marked true.
// Categories absent from the map stay enabled.
func SetCategories(enabled map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	categories = enabled
	loggers = make(map[Category]*Logger)
}

func install(l *zap.Logger, enabled map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	categories = enabled
	loggers = make(map[Category]*Logger)
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{category: category, sugar: base.Named(string(category)).Sugar()}
	loggers[category] = l
	return l
}

// Sync flushes buffered entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a logger carrying structured key/value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// =============================================================================
// TIMERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// Perception logs to the perception category
func Perception(format string, args ...interface{}) { Get(CategoryPerception).Info(format, args...) }

// PerceptionDebug logs debug to the perception category
func PerceptionDebug(format string, args ...interface{}) {
	Get(CategoryPerception).Debug(format, args...)
}

// RetrievalDebug logs debug to the retrieval category
func RetrievalDebug(format string, args ...interface{}) {
	Get(CategoryRetrieval).Debug(format, args...)
}

// AggregationDebug logs debug to the aggregation category
func AggregationDebug(format string, args ...interface{}) {
	Get(CategoryAggregation).Debug(format, args...)
}

// Articulation logs to the articulation category
func Articulation(format string, args ...interface{}) { Get(CategoryArticulation).Info(format, args...) }

// ArticulationDebug logs debug to the articulation category
func ArticulationDebug(format string, args ...interface{}) {
	Get(CategoryArticulation).Debug(format, args...)
}

// Core logs to the core category
func Core(format string, args ...interface{}) { Get(CategoryCore).Info(format, args...) }

// CoreWarn logs a warning to the core category
func CoreWarn(format string, args ...interface{}) { Get(CategoryCore).Warn(format, args...) }

// Store logs to the store category
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

// Import logs to the import category
func Import(format string, args ...interface{}) { Get(CategoryImport).Info(format, args...) }

// ImportWarn logs a warning to the import category
func ImportWarn(format string, args ...interface{}) { Get(CategoryImport).Warn(format, args...) }

// Server logs to the server category
func Server(format string, args ...interface{}) { Get(CategoryServer).Info(format, args...) }

// Watch logs to the watch category
func Watch(format string, args ...interface{}) { Get(CategoryWatch).Info(format, args...) }

// WatchError logs an error to the watch category
func WatchError(format string, args ...interface{}) { Get(CategoryWatch).Error(format, args...) }

// Package logging provides categorized loggers for cfscaffold.
// Every category is a named child of one zap logger installed at startup.
// Until Initialize is called all categories log to a no-op core, so library
// packages can log freely without any setup.
package logging

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config loading
	CategoryFetch    Category = "fetch"    // Contest standings API polling
	CategoryScrape   Category = "scrape"   // Problem page extraction
	CategoryGenerate Category = "generate" // Template rendering and file writes
	CategoryCache    Category = "cache"    // Page cache hits, misses, evictions
	CategoryBrowser  Category = "browser"  // Headless browser page loads
	CategoryPipeline Category = "pipeline" // Per-problem control flow
)

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	runID   string
	loggers = make(map[Category]*zap.SugaredLogger)
)

// Initialize installs the process logger and tags every category with a
// fresh run id. Passing nil restores the no-op logger.
func Initialize(l *zap.Logger) string {
	mu.Lock()
	defer mu.Unlock()

	if l == nil {
		l = zap.NewNop()
	}
	runID = uuid.NewString()
	base = l.With(zap.String("run_id", runID))
	loggers = make(map[Category]*zap.SugaredLogger)
	return runID
}

// RunID returns the id assigned by the last Initialize call.
func RunID() string {
	mu.RLock()
	defer mu.RUnlock()
	return runID
}

// Get returns (or creates) the logger for the given category.
func Get(category Category) *zap.SugaredLogger {
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
	l := base.Named(string(category)).Sugar()
	loggers[category] = l
	return l
}

// Sync flushes the process logger.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

// =============================================================================
// CATEGORY CONVENIENCE FUNCTIONS
// =============================================================================

// Fetch logs to the fetch category
func Fetch(format string, args ...interface{}) {
	Get(CategoryFetch).Infof(format, args...)
}

// FetchDebug logs debug to the fetch category
func FetchDebug(format string, args ...interface{}) {
	Get(CategoryFetch).Debugf(format, args...)
}

// FetchWarn logs warning to the fetch category
func FetchWarn(format string, args ...interface{}) {
	Get(CategoryFetch).Warnf(format, args...)
}

// Scrape logs to the scrape category
func Scrape(format string, args ...interface{}) {
	Get(CategoryScrape).Infof(format, args...)
}

// ScrapeDebug logs debug to the scrape category
func ScrapeDebug(format string, args ...interface{}) {
	Get(CategoryScrape).Debugf(format, args...)
}

// ScrapeWarn logs warning to the scrape category
func ScrapeWarn(format string, args ...interface{}) {
	Get(CategoryScrape).Warnf(format, args...)
}

// Generate logs to the generate category
func Generate(format string, args ...interface{}) {
	Get(CategoryGenerate).Infof(format, args...)
}

// GenerateDebug logs debug to the generate category
func GenerateDebug(format string, args ...interface{}) {
	Get(CategoryGenerate).Debugf(format, args...)
}

// CacheDebug logs debug to the cache category
func CacheDebug(format string, args ...interface{}) {
	Get(CategoryCache).Debugf(format, args...)
}

// CacheWarn logs warning to the cache category
func CacheWarn(format string, args ...interface{}) {
	Get(CategoryCache).Warnf(format, args...)
}

// Browser logs to the browser category
func Browser(format string, args ...interface{}) {
	Get(CategoryBrowser).Infof(format, args...)
}

// BrowserDebug logs debug to the browser category
func BrowserDebug(format string, args ...interface{}) {
	Get(CategoryBrowser).Debugf(format, args...)
}

// Pipeline logs to the pipeline category
func Pipeline(format string, args ...interface{}) {
	Get(CategoryPipeline).Infof(format, args...)
}

// PipelineError logs error to the pipeline category
func PipelineError(format string, args ...interface{}) {
	Get(CategoryPipeline).Errorf(format, args...)
}

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Infof(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debugf(format, args...)
}

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debugw(t.op+" completed", "elapsed", elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warnw(t.op+" was slow", "elapsed", elapsed, "threshold", threshold)
	} else {
		Get(t.category).Debugw(t.op+" completed", "elapsed", elapsed)
	}
	return elapsed
}

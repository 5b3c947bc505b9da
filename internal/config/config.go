package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when --config is unset.
const DefaultPath = "cfscaffold.yaml"

// Config holds all cfscaffold configuration.
type Config struct {
	// Remote service endpoints
	Codeforces CodeforcesConfig `yaml:"codeforces"`

	// Contest standings polling
	Poll PollConfig `yaml:"poll"`

	// HTTP transport
	HTTP HTTPConfig `yaml:"http"`

	// Sample extraction
	Scrape ScrapeConfig `yaml:"scrape"`

	// Project generation
	Generate GenerateConfig `yaml:"generate"`

	// Persistent page cache
	Cache CacheConfig `yaml:"cache"`

	// Headless browser page source
	Browser BrowserConfig `yaml:"browser"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CodeforcesConfig configures the remote endpoints.
type CodeforcesConfig struct {
	APIBase  string `yaml:"api_base"`
	SiteBase string `yaml:"site_base"`
}

// PollConfig bounds the "not ready yet" retry loop.
type PollConfig struct {
	Interval    string `yaml:"interval"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	UserAgent         string  `yaml:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// ScrapeConfig configures sample extraction.
type ScrapeConfig struct {
	// KeepMarkup embeds the raw inner HTML of sample blocks instead of
	// decoding it to plain text.
	KeepMarkup bool `yaml:"keep_markup"`
}

// GenerateConfig selects the template set.
type GenerateConfig struct {
	Language string `yaml:"language"` // go, rust
}

// CacheConfig configures the SQLite page cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	TTL     string `yaml:"ttl"`
}

// BrowserConfig configures the go-rod page source.
type BrowserConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DebuggerURL string `yaml:"debugger_url"`
	Bin         string `yaml:"bin"`
	Headless    bool   `yaml:"headless"`
	Timeout     string `yaml:"timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Encoding string `yaml:"encoding"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Codeforces: CodeforcesConfig{
			APIBase:  "https://codeforces.com/api",
			SiteBase: "https://codeforces.com",
		},
		Poll: PollConfig{
			Interval:    "500ms",
			MaxAttempts: 20,
		},
		HTTP: HTTPConfig{
			Timeout:           "30s",
			UserAgent:         "cfscaffold/1.0 (+https://codeforces.com)",
			RequestsPerSecond: 0.5,
		},
		Generate: GenerateConfig{
			Language: "go",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    defaultCachePath(),
			TTL:     "24h",
		},
		Browser: BrowserConfig{
			Headless: true,
			Timeout:  "45s",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "cfscaffold", "pages.db")
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// A .env file next to the working directory is loaded first so its values
// participate in the environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("CFSCAFFOLD_API_BASE"); url != "" {
		c.Codeforces.APIBase = url
	}
	if url := os.Getenv("CFSCAFFOLD_SITE_BASE"); url != "" {
		c.Codeforces.SiteBase = url
	}
	if lang := os.Getenv("CFSCAFFOLD_LANG"); lang != "" {
		c.Generate.Language = lang
	}
	if path := os.Getenv("CFSCAFFOLD_CACHE"); path != "" {
		if enabled, err := strconv.ParseBool(path); err == nil {
			c.Cache.Enabled = enabled
		} else {
			c.Cache.Enabled = true
			c.Cache.Path = path
		}
	}
	if url := os.Getenv("CFSCAFFOLD_DEBUGGER_URL"); url != "" {
		c.Browser.DebuggerURL = url
	}
}

// GetPollInterval returns the poll interval as a duration.
func (c *Config) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Poll.Interval)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetHTTPTimeout returns the HTTP client timeout as a duration.
func (c *Config) GetHTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetCacheTTL returns the page cache TTL as a duration.
func (c *Config) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// GetBrowserTimeout returns the page load timeout as a duration.
func (c *Config) GetBrowserTimeout() time.Duration {
	d, err := time.ParseDuration(c.Browser.Timeout)
	if err != nil || d <= 0 {
		return 45 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Codeforces.APIBase == "" {
		return fmt.Errorf("codeforces.api_base is empty")
	}
	if c.Codeforces.SiteBase == "" {
		return fmt.Errorf("codeforces.site_base is empty")
	}
	if c.Poll.MaxAttempts < 1 {
		return fmt.Errorf("poll.max_attempts must be at least 1, got %d", c.Poll.MaxAttempts)
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("http.requests_per_second must not be negative")
	}

	// The name is checked against the embedded template sets by the generator.
	if c.Generate.Language == "" {
		return fmt.Errorf("generate.language is empty")
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is empty while cache is enabled")
	}

	return nil
}

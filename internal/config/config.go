package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"procintel/internal/logging"

	"gopkg.in/yaml.v3"
)

// Config holds all procintel configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Reporting engine
	Engine EngineConfig `yaml:"engine"`

	// SQLite snapshot store
	Store StoreConfig `yaml:"store"`

	// CSV import
	Import ImportConfig `yaml:"import"`

	// HTTP surface
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging logging.Config `yaml:"logging"`

	// Interactive chat
	UI UIConfig `yaml:"ui"`
}

// EngineConfig configures classification thresholds and routing vocabulary.
type EngineConfig struct {
	// Health thresholds in days
	FastDays     int `yaml:"fast_days"`
	DelayedDays  int `yaml:"delayed_days"`
	CriticalDays int `yaml:"critical_days"`

	// Window for "recently completed/changed" sections
	RecentWindowDays int `yaml:"recent_window_days"`

	// Known responsible names recognized by the router
	ResponsibleNames []string `yaml:"responsible_names"`

	// Build aggregate views concurrently
	ParallelViews bool `yaml:"parallel_views"`
}

// StoreConfig configures the snapshot database.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ImportConfig configures the CSV importer.
type ImportConfig struct {
	Delimiter  string `yaml:"delimiter"`
	DateLayout string `yaml:"date_layout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// UIConfig configures the chat UI's staged delay and rendering.
type UIConfig struct {
	ThinkingDelay   string `yaml:"thinking_delay"`
	RespondingDelay string `yaml:"responding_delay"`
	WordWrap        int    `yaml:"word_wrap"`
	Render          bool   `yaml:"render"`
}

// DefaultResponsibleNames are the responsible parties known to the router.
var DefaultResponsibleNames = []string{
	"DIEGO",
	"GUDRIAN",
	"KOHL",
	"THAYS",
	"ALESSANDRA",
	"ISABELA",
	"JOELSON",
	"KAREN",
	"MICHELI",
	"EDUARDO",
	"EDUARDA",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "procintel",
		Version: "1.0.0",

		Engine: EngineConfig{
			FastDays:         15,
			DelayedDays:      30,
			CriticalDays:     45,
			RecentWindowDays: 30,
			ResponsibleNames: append([]string(nil), DefaultResponsibleNames...),
			ParallelViews:    true,
		},

		Store: StoreConfig{
			DatabasePath: "data/procintel.db",
		},

		Import: ImportConfig{
			Delimiter:  ";",
			DateLayout: "02/01/2006",
		},

		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "5s",
		},

		Logging: logging.Config{
			Level:  "info",
			Format: "console",
		},

		UI: UIConfig{
			ThinkingDelay:   "2s",
			RespondingDelay: "1s",
			WordWrap:        100,
			Render:          true,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults if config file doesn't exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
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
	if path := os.Getenv("PROCINTEL_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if addr := os.Getenv("PROCINTEL_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("PROCINTEL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if names := os.Getenv("PROCINTEL_RESPONSIBLES"); names != "" {
		var list []string
		for _, n := range strings.Split(names, ",") {
			if n = strings.TrimSpace(n); n != "" {
				list = append(list, strings.ToUpper(n))
			}
		}
		if len(list) > 0 {
			c.Engine.ResponsibleNames = list
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	e := c.Engine
	if e.FastDays <= 0 || e.DelayedDays <= e.FastDays || e.CriticalDays <= e.DelayedDays {
		return fmt.Errorf("invalid thresholds: need 0 < fast (%d) < delayed (%d) < critical (%d)",
			e.FastDays, e.DelayedDays, e.CriticalDays)
	}
	if e.RecentWindowDays <= 0 {
		return fmt.Errorf("recent_window_days must be positive, got %d", e.RecentWindowDays)
	}
	if len([]rune(c.Import.Delimiter)) != 1 {
		return fmt.Errorf("import delimiter must be a single character, got %q", c.Import.Delimiter)
	}
	return nil
}

// GetThinkingDelay returns the chat "thinking" delay as a duration.
func (c *Config) GetThinkingDelay() time.Duration {
	return parseDuration(c.UI.ThinkingDelay, 2*time.Second)
}

// GetRespondingDelay returns the chat "responding" delay as a duration.
func (c *Config) GetRespondingDelay() time.Duration {
	return parseDuration(c.UI.RespondingDelay, time.Second)
}

// GetShutdownTimeout returns the HTTP graceful shutdown timeout.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 5*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Package config loads the server configuration: built-in defaults, then
// config.yaml under the home directory, then environment overrides.
package config

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/basket/taskmd/internal/genai"
)

// JournalConfig controls the operation journal and its retention sweep.
type JournalConfig struct {
	// RetentionDays is how long journal entries are kept. 0 keeps forever.
	RetentionDays int `yaml:"retention_days"`
	// SweepSchedule is a cron expression for the retention sweep.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// TelemetryConfig controls trace and metric export.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"` // "otlp-http", "stdout", "none"
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	HomeDir string `yaml:"-"`

	// TasksDir holds the per-project task documents. A relative path is
	// resolved against HomeDir.
	TasksDir string `yaml:"tasks_dir"`

	// Transport selects how the server is exposed: "sse" or "stdio".
	Transport string `yaml:"transport"`
	BindAddr  string `yaml:"bind_addr"`
	LogLevel  string `yaml:"log_level"`

	LLM       genai.Config    `yaml:"llm"`
	Journal   JournalConfig   `yaml:"journal"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ConfigPath returns the path to config.yaml within the given home directory.
func ConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}

// TasksPath returns the absolute tasks directory.
func (c Config) TasksPath() string {
	if filepath.IsAbs(c.TasksDir) {
		return c.TasksDir
	}
	return filepath.Join(c.HomeDir, c.TasksDir)
}

// Fingerprint returns a stable hash of the fields that matter for reload
// decisions, so a watcher can tell a meaningful change from a rewrite.
func (c Config) Fingerprint() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "tasks=%s|transport=%s|bind=%s|log=%s|llm=%s/%s|retention=%d",
		c.TasksDir, c.Transport, c.BindAddr, c.LogLevel, c.LLM.Provider, c.LLM.Model, c.Journal.RetentionDays)
	return fmt.Sprintf("cfg-%x", h.Sum64())
}

func defaultConfig() Config {
	return Config{
		TasksDir:  "tasks",
		Transport: "sse",
		BindAddr:  "0.0.0.0:8050",
		LogLevel:  "info",
		Journal: JournalConfig{
			RetentionDays: 90,
			SweepSchedule: "@daily",
		},
		Telemetry: TelemetryConfig{
			Exporter:    "none",
			SampleRatio: 1.0,
		},
	}
}

// HomeDir resolves the server home directory: TASKMD_HOME when set,
// otherwise ~/.taskmd.
func HomeDir() string {
	if override := os.Getenv("TASKMD_HOME"); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".taskmd")
}

// Load reads config.yaml from the home directory, creating the directory if
// needed. A missing file is not an error; defaults and env apply.
func Load() (Config, error) {
	return LoadFrom(HomeDir())
}

// LoadFrom is Load with an explicit home directory.
func LoadFrom(homeDir string) (Config, error) {
	cfg := defaultConfig()
	cfg.HomeDir = homeDir

	if err := os.MkdirAll(cfg.HomeDir, 0o755); err != nil {
		return cfg, fmt.Errorf("create taskmd home: %w", err)
	}

	data, err := os.ReadFile(ConfigPath(cfg.HomeDir))
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config.yaml: %w", err)
		}
	} else if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config.yaml: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)
	if err := validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func normalize(cfg *Config) {
	if strings.TrimSpace(cfg.TasksDir) == "" {
		cfg.TasksDir = "tasks"
	}
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	if cfg.Transport == "" {
		cfg.Transport = "sse"
	}
	if cfg.BindAddr == "" {
		cfg.BindAddr = "0.0.0.0:8050"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Journal.SweepSchedule == "" {
		cfg.Journal.SweepSchedule = "@daily"
	}
	if cfg.Telemetry.Exporter == "" {
		cfg.Telemetry.Exporter = "none"
	}
	if cfg.Telemetry.SampleRatio <= 0 || cfg.Telemetry.SampleRatio > 1 {
		cfg.Telemetry.SampleRatio = 1.0
	}
}

func validate(cfg *Config) error {
	switch cfg.Transport {
	case "sse", "stdio":
	default:
		return fmt.Errorf("unknown transport %q (want sse or stdio)", cfg.Transport)
	}
	if cfg.Journal.RetentionDays < 0 {
		return fmt.Errorf("journal retention_days must be >= 0, got %d", cfg.Journal.RetentionDays)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if raw := os.Getenv("TASKMD_TASKS_DIR"); raw != "" {
		cfg.TasksDir = raw
	}
	if raw := os.Getenv("TASKMD_TRANSPORT"); raw != "" {
		cfg.Transport = raw
	}
	if raw := os.Getenv("TASKMD_BIND_ADDR"); raw != "" {
		cfg.BindAddr = raw
	}
	if raw := os.Getenv("TASKMD_LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("TASKMD_LLM_PROVIDER"); raw != "" {
		cfg.LLM.Provider = raw
	}
	if raw := os.Getenv("TASKMD_LLM_MODEL"); raw != "" {
		cfg.LLM.Model = raw
	}

	// Legacy variables honored by earlier deployments of this server.
	if raw := os.Getenv("TRANSPORT"); raw != "" {
		cfg.Transport = raw
	}
	host, port := os.Getenv("HOST"), os.Getenv("PORT")
	if host != "" || port != "" {
		h, p, found := strings.Cut(cfg.BindAddr, ":")
		if !found {
			h, p = cfg.BindAddr, "8050"
		}
		if host != "" {
			h = host
		}
		if port != "" {
			p = port
		}
		cfg.BindAddr = h + ":" + p
	}
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/basket/taskmd/internal/config"
)

func TestLoad_FromTaskmdHome(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	ic := filepath.Join(home, ".taskmd")
	if err := os.MkdirAll(ic, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := "tasks_dir: /srv/tasks\ntransport: stdio\nlog_level: debug\n"
	if err := os.WriteFile(filepath.Join(ic, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("HOME", home)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.TasksDir != "/srv/tasks" {
		t.Fatalf("expected tasks_dir=/srv/tasks got %q", cfg.TasksDir)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("expected transport=stdio got %q", cfg.Transport)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log_level=debug got %q", cfg.LogLevel)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TASKMD_HOME", home)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Transport != "sse" {
		t.Fatalf("expected default transport=sse, got %q", cfg.Transport)
	}
	if cfg.BindAddr != "0.0.0.0:8050" {
		t.Fatalf("expected default bind_addr=0.0.0.0:8050, got %q", cfg.BindAddr)
	}
	if cfg.TasksDir != "tasks" {
		t.Fatalf("expected default tasks_dir=tasks, got %q", cfg.TasksDir)
	}
	if cfg.Journal.RetentionDays != 90 {
		t.Fatalf("expected default retention 90, got %d", cfg.Journal.RetentionDays)
	}
	if cfg.Journal.SweepSchedule != "@daily" {
		t.Fatalf("expected default sweep @daily, got %q", cfg.Journal.SweepSchedule)
	}
	if cfg.Telemetry.Exporter != "none" {
		t.Fatalf("expected default exporter none, got %q", cfg.Telemetry.Exporter)
	}
}

func TestLoad_EnvOverridesConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TASKMD_HOME", home)
	if err := os.WriteFile(config.ConfigPath(home), []byte("transport: sse\nbind_addr: 0.0.0.0:9000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TASKMD_TRANSPORT", "stdio")
	t.Setenv("TASKMD_BIND_ADDR", "127.0.0.1:7001")
	t.Setenv("TASKMD_LOG_LEVEL", "warn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("expected env transport=stdio, got %q", cfg.Transport)
	}
	if cfg.BindAddr != "127.0.0.1:7001" {
		t.Fatalf("expected env bind_addr, got %q", cfg.BindAddr)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected env log_level=warn, got %q", cfg.LogLevel)
	}
}

func TestLoad_LegacyHostPortEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TASKMD_HOME", home)
	t.Setenv("HOST", "10.0.0.5")
	t.Setenv("PORT", "9999")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BindAddr != "10.0.0.5:9999" {
		t.Fatalf("expected legacy HOST/PORT to form bind addr, got %q", cfg.BindAddr)
	}
}

func TestLoad_LegacyTransportEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TASKMD_HOME", home)
	t.Setenv("TRANSPORT", "stdio")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("expected legacy TRANSPORT=stdio, got %q", cfg.Transport)
	}
}

func TestLoad_RejectsUnknownTransport(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TASKMD_HOME", home)
	t.Setenv("TASKMD_TRANSPORT", "websocket")

	_, err := config.Load()
	if err == nil || !strings.Contains(err.Error(), "transport") {
		t.Fatalf("expected transport validation error, got %v", err)
	}
}

func TestTasksPath(t *testing.T) {
	cfg := config.Config{HomeDir: "/srv/taskmd", TasksDir: "tasks"}
	if got := cfg.TasksPath(); got != filepath.Join("/srv/taskmd", "tasks") {
		t.Fatalf("relative tasks dir = %q", got)
	}
	cfg.TasksDir = "/data/tasks"
	if got := cfg.TasksPath(); got != "/data/tasks" {
		t.Fatalf("absolute tasks dir = %q", got)
	}
}

func TestFingerprint_ChangesWithSettings(t *testing.T) {
	a := config.Config{Transport: "sse", BindAddr: "0.0.0.0:8050"}
	b := a
	b.BindAddr = "0.0.0.0:9090"
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatalf("fingerprint did not change with bind addr")
	}
	if a.Fingerprint() != a.Fingerprint() {
		t.Fatalf("fingerprint not stable")
	}
}

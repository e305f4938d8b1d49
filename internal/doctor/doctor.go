// Package doctor runs preflight diagnostics for the task server: config
// shape, credentials, storage, and provider reachability.
package doctor

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/basket/taskmd/internal/config"
	"github.com/basket/taskmd/internal/journal"
)

//go:embed config.schema.json
var configSchema []byte

type CheckResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "PASS", "FAIL", "WARN", "SKIP"
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type Diagnosis struct {
	Timestamp time.Time     `json:"timestamp"`
	System    SystemInfo    `json:"system"`
	Results   []CheckResult `json:"results"`
}

type SystemInfo struct {
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	Go      string `json:"go_version"`
	Version string `json:"version"`
}

// Healthy reports whether no check failed. WARN does not count as failure.
func (d Diagnosis) Healthy() bool {
	for _, r := range d.Results {
		if r.Status == "FAIL" {
			return false
		}
	}
	return true
}

// Run executes all diagnostic checks.
func Run(ctx context.Context, cfg *config.Config, version string) Diagnosis {
	d := Diagnosis{
		Timestamp: time.Now().UTC(),
		System: SystemInfo{
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			Go:      runtime.Version(),
			Version: version,
		},
	}

	checks := []func(context.Context, *config.Config) CheckResult{
		checkConfig,
		checkConfigSchema,
		checkAPIKey,
		checkTasksDir,
		checkJournal,
		checkNetwork,
	}

	for _, check := range checks {
		d.Results = append(d.Results, check(ctx, cfg))
	}

	return d
}

func checkConfig(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Config", Status: "FAIL", Message: "Configuration not loaded"}
	}
	return CheckResult{Name: "Config", Status: "PASS", Message: fmt.Sprintf("Loaded from %s", cfg.HomeDir)}
}

// checkConfigSchema validates config.yaml against the embedded JSON schema,
// catching typo'd keys and out-of-range values that Load silently ignores.
func checkConfigSchema(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Config Schema", Status: "SKIP", Message: "Config missing"}
	}

	raw, err := os.ReadFile(config.ConfigPath(cfg.HomeDir))
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Name: "Config Schema", Status: "PASS", Message: "No config.yaml (defaults in effect)"}
		}
		return CheckResult{Name: "Config Schema", Status: "FAIL", Message: fmt.Sprintf("Read config.yaml: %v", err)}
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return CheckResult{Name: "Config Schema", Status: "FAIL", Message: fmt.Sprintf("Parse config.yaml: %v", err)}
	}
	if doc == nil {
		return CheckResult{Name: "Config Schema", Status: "PASS", Message: "Empty config.yaml (defaults in effect)"}
	}

	// Round-trip through JSON so the validator sees canonical types.
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return CheckResult{Name: "Config Schema", Status: "FAIL", Message: fmt.Sprintf("Convert config: %v", err)}
	}
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonBytes))
	if err != nil {
		return CheckResult{Name: "Config Schema", Status: "FAIL", Message: fmt.Sprintf("Decode config: %v", err)}
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(configSchema))
	if err != nil {
		return CheckResult{Name: "Config Schema", Status: "FAIL", Message: fmt.Sprintf("Load schema: %v", err)}
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", schemaDoc); err != nil {
		return CheckResult{Name: "Config Schema", Status: "FAIL", Message: fmt.Sprintf("Register schema: %v", err)}
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return CheckResult{Name: "Config Schema", Status: "FAIL", Message: fmt.Sprintf("Compile schema: %v", err)}
	}

	if err := schema.Validate(value); err != nil {
		return CheckResult{
			Name:    "Config Schema",
			Status:  "FAIL",
			Message: "config.yaml does not match the expected shape",
			Detail:  err.Error(),
		}
	}
	return CheckResult{Name: "Config Schema", Status: "PASS", Message: "config.yaml matches schema"}
}

func checkAPIKey(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "API Key", Status: "SKIP", Message: "Config missing"}
	}

	provider := strings.ToLower(cfg.LLM.Provider)
	if provider == "" {
		provider = "google"
	}

	envVars := map[string]string{
		"google":    "GEMINI_API_KEY",
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
	}

	envVar, ok := envVars[provider]
	if !ok {
		return CheckResult{Name: "API Key", Status: "WARN", Message: fmt.Sprintf("Unknown provider %q; deterministic fallback will be used", provider)}
	}

	if cfg.LLM.APIKey != "" || os.Getenv(envVar) != "" {
		return CheckResult{Name: "API Key", Status: "PASS", Message: fmt.Sprintf("Key available for %s provider", provider)}
	}

	detail := fmt.Sprintf("Set %s or llm.api_key in config.yaml", envVar)
	if others := config.AvailableProviders(); len(others) > 0 {
		detail += fmt.Sprintf("; keys present for: %s", strings.Join(others, ", "))
	}
	return CheckResult{
		Name:    "API Key",
		Status:  "WARN",
		Message: fmt.Sprintf("%s not set; generation falls back to fixed outputs", envVar),
		Detail:  detail,
	}
}

func checkTasksDir(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Tasks Dir", Status: "SKIP", Message: "Config missing"}
	}

	dir := cfg.TasksPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return CheckResult{Name: "Tasks Dir", Status: "FAIL", Message: fmt.Sprintf("Cannot create %s: %v", dir, err)}
	}
	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return CheckResult{Name: "Tasks Dir", Status: "FAIL", Message: fmt.Sprintf("Tasks dir unwritable: %v", err)}
	}
	os.Remove(testFile)

	return CheckResult{Name: "Tasks Dir", Status: "PASS", Message: fmt.Sprintf("%s writable", dir)}
}

func checkJournal(ctx context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Journal", Status: "SKIP", Message: "Config missing"}
	}

	j, err := journal.Open(cfg.HomeDir, nil)
	if err != nil {
		return CheckResult{Name: "Journal", Status: "FAIL", Message: fmt.Sprintf("Open failed: %v", err)}
	}
	defer j.Close()

	n, err := j.Count(ctx)
	if err != nil {
		return CheckResult{Name: "Journal", Status: "FAIL", Message: fmt.Sprintf("Query failed: %v", err)}
	}
	return CheckResult{Name: "Journal", Status: "PASS", Message: fmt.Sprintf("Database valid (%d entries)", n)}
}

func checkNetwork(ctx context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Network", Status: "SKIP", Message: "Config missing"}
	}

	provider := strings.ToLower(cfg.LLM.Provider)
	if provider == "" {
		provider = "google"
	}

	endpoints := map[string]string{
		"google":    "generativelanguage.googleapis.com",
		"anthropic": "api.anthropic.com",
		"openai":    "api.openai.com",
	}

	host, ok := endpoints[provider]
	if !ok {
		host = "generativelanguage.googleapis.com"
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	addrs, err := net.DefaultResolver.LookupHost(lookupCtx, host)
	latency := time.Since(start)

	if err != nil {
		return CheckResult{
			Name:    "Network",
			Status:  "WARN",
			Message: fmt.Sprintf("DNS lookup failed for %s: %v", host, err),
			Detail:  fmt.Sprintf("provider=%s, latency=%dms; generation falls back to fixed outputs offline", provider, latency.Milliseconds()),
		}
	}

	return CheckResult{
		Name:    "Network",
		Status:  "PASS",
		Message: fmt.Sprintf("DNS resolved %s (%d addresses, %dms)", host, len(addrs), latency.Milliseconds()),
		Detail:  fmt.Sprintf("provider=%s", provider),
	}
}

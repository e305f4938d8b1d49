package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/basket/taskmd/internal/config"
	"github.com/basket/taskmd/internal/cron"
	"github.com/basket/taskmd/internal/genai"
	"github.com/basket/taskmd/internal/journal"
	otelPkg "github.com/basket/taskmd/internal/otel"
	"github.com/basket/taskmd/internal/server"
	"github.com/basket/taskmd/internal/store"
	"github.com/basket/taskmd/internal/telemetry"
)

// Version is set via ldflags at build time: -ldflags "-X main.Version=..."
var Version = "v0.2-dev"

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage of %s:

SERVER MODE (default):
  %s                          Start the MCP server (transport from config)
  %s -transport stdio         Serve over stdin/stdout
  %s -transport sse           Serve over HTTP/SSE

SUBCOMMANDS:
  %s doctor [-json]           Run diagnostic checks
                              Flags: -json for JSON output
  %s version                  Print the version and exit

FLAGS:
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
ENVIRONMENT VARIABLES:
  TASKMD_HOME             Data directory (default: ~/.taskmd)
  TASKMD_TASKS_DIR        Task document directory (default: <home>/tasks)
  TASKMD_TRANSPORT        Transport override: sse or stdio
  TASKMD_BIND_ADDR        SSE bind address (default: 0.0.0.0:8050)
  GEMINI_API_KEY          API key for the default Google provider

EXAMPLES:
  Serve over SSE:         %s
  Serve over stdio:       %s -transport stdio
  Run diagnostics:        %s doctor
`, os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	loadDotEnv(".env")

	transportFlag := flag.String("transport", "", `transport override: "sse" or "stdio"`)
	flag.Usage = printUsage
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// CLI subcommands (non-server actions).
	if args := flag.Args(); len(args) > 0 {
		switch strings.ToLower(strings.TrimSpace(args[0])) {
		case "help", "-h", "--help":
			printUsage()
			os.Exit(0)
		case "version":
			fmt.Println("taskmd " + Version)
			os.Exit(0)
		case "doctor":
			os.Exit(runDoctorCommand(ctx, args[1:]))
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
			printUsage()
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fatalStartup(nil, "E_CONFIG_LOAD", err)
	}
	if *transportFlag != "" {
		t := strings.ToLower(strings.TrimSpace(*transportFlag))
		if t != "sse" && t != "stdio" {
			fatalStartup(nil, "E_CONFIG_LOAD", fmt.Errorf("unknown transport %q (want sse or stdio)", *transportFlag))
		}
		cfg.Transport = t
	}

	// Quiet logs (file-only) on the stdio transport so stdout stays a clean
	// protocol stream.
	quietLogs := cfg.Transport == "stdio"

	logger, err := telemetry.NewLogger(cfg.HomeDir, cfg.LogLevel, quietLogs)
	if err != nil {
		fatalStartup(nil, "E_LOGGER_INIT", err)
	}
	defer logger.Close()
	slog.SetDefault(logger.Logger)
	logger.Info("startup phase", "phase", "config_loaded", "fingerprint", cfg.Fingerprint())

	otelProvider, err := otelPkg.Init(ctx, otelPkg.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Exporter:    cfg.Telemetry.Exporter,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: "taskmd",
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		fatalStartup(logger.Logger, "E_OTEL_INIT", err)
	}
	defer otelProvider.Shutdown(ctx)

	jrnl, err := journal.Open(cfg.HomeDir, logger.Logger)
	if err != nil {
		fatalStartup(logger.Logger, "E_JOURNAL_OPEN", err)
	}
	defer jrnl.Close()
	logger.Info("startup phase", "phase", "journal_opened")

	gen := genai.New(ctx, cfg.LLM, logger.Logger)

	taskStore, err := store.New(cfg.TasksPath(), gen, logger.Logger)
	if err != nil {
		fatalStartup(logger.Logger, "E_STORE_INIT", err)
	}
	logger.Info("startup phase", "phase", "store_ready", "tasks_dir", cfg.TasksPath())

	srv, err := server.New(server.Options{
		Store:    taskStore,
		Journal:  jrnl,
		Provider: otelProvider,
		Logger:   logger.Logger,
		Version:  Version,
	})
	if err != nil {
		fatalStartup(logger.Logger, "E_SERVER_INIT", err)
	}

	// Journal retention sweep on the configured cron schedule.
	if cfg.Journal.RetentionDays > 0 {
		metrics, err := otelPkg.NewMetrics(otelProvider.Meter)
		if err != nil {
			fatalStartup(logger.Logger, "E_OTEL_INIT", err)
		}
		retention := time.Duration(cfg.Journal.RetentionDays) * 24 * time.Hour
		sweep := func(sweepCtx context.Context) {
			removed, err := jrnl.Sweep(sweepCtx, retention)
			if err != nil {
				logger.Error("journal sweep failed", "error", err)
				return
			}
			metrics.JournalSweeps.Add(sweepCtx, 1)
			if removed > 0 {
				logger.Info("journal sweep completed", "removed", removed)
			}
		}
		sched, err := cron.NewScheduler("journal-sweep", cfg.Journal.SweepSchedule, sweep, logger.Logger)
		if err != nil {
			fatalStartup(logger.Logger, "E_SWEEP_SCHEDULE", err)
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	confWatcher := config.NewWatcher(cfg.HomeDir, logger.Logger)
	if err := confWatcher.Start(ctx); err != nil {
		fatalStartup(logger.Logger, "E_CONFIG_WATCHER_START", err)
	}
	go func() {
		for ev := range confWatcher.Events() {
			newCfg, err := config.Load()
			if err != nil {
				logger.Error("config.yaml reload failed", "error", err)
				continue
			}
			if newCfg.LogLevel != cfg.LogLevel {
				logger.SetLevel(newCfg.LogLevel)
				cfg.LogLevel = newCfg.LogLevel
				logger.Info("log level hot-reloaded", "level", cfg.LogLevel)
			}
			if newCfg.Fingerprint() != cfg.Fingerprint() {
				logger.Info("config.yaml changed; transport and storage settings apply on restart",
					"path", ev.Path, "fingerprint", newCfg.Fingerprint())
			}
		}
	}()

	serverErr := make(chan error, 1)
	switch cfg.Transport {
	case "stdio":
		go func() {
			serverErr <- srv.ServeStdio()
		}()
	default:
		if isatty.IsTerminal(os.Stdout.Fd()) {
			fmt.Printf("taskmd %s listening on http://%s/sse\n", Version, cfg.BindAddr)
		}
		go func() {
			serverErr <- srv.ServeSSE(ctx, cfg.BindAddr)
		}()
	}
	logger.Info("startup phase", "phase", "server_started", "transport", cfg.Transport)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("server exited with error", "error", err)
		}
	}
	logger.Info("shutdown complete")
}

func fatalStartup(logger *slog.Logger, reasonCode string, err error) {
	message := ""
	if err != nil {
		message = err.Error()
	}
	if logger != nil {
		logger.Error("startup failure", "reason_code", reasonCode, "error", message)
	} else {
		fmt.Fprintf(
			os.Stderr,
			`{"timestamp":"%s","level":"ERROR","component":"taskmd","trace_id":"-","msg":"startup failure","reason_code":%q,"error":%q}`+"\n",
			time.Now().UTC().Format(time.RFC3339Nano),
			reasonCode,
			message,
		)
	}
	os.Exit(1)
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		_ = os.Setenv(key, val)
	}
}

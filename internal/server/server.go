// Package server exposes the task store as an MCP tool server over stdio
// or SSE. Every tool handler is wrapped with tracing, metrics, and journal
// recording before registration.
package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/metric"

	otelx "github.com/basket/taskmd/internal/otel"

	"github.com/basket/taskmd/internal/journal"
	"github.com/basket/taskmd/internal/shared"
	"github.com/basket/taskmd/internal/store"
)

const serverName = "TASK MANAGER"

// Options carries the server's collaborators. Journal may be nil.
type Options struct {
	Store    *store.Store
	Journal  *journal.Journal
	Provider *otelx.Provider
	Logger   *slog.Logger
	Version  string
}

// Server is the MCP tool server.
type Server struct {
	mcp     *server.MCPServer
	store   *store.Store
	journal *journal.Journal
	otel    *otelx.Provider
	metrics *otelx.Metrics
	logger  *slog.Logger
}

// New builds the MCP server and registers all tools.
func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	provider := opts.Provider
	if provider == nil {
		var err error
		provider, err = otelx.Init(context.Background(), otelx.Config{Enabled: false})
		if err != nil {
			return nil, err
		}
	}
	metrics, err := otelx.NewMetrics(provider.Meter)
	if err != nil {
		return nil, err
	}

	version := opts.Version
	if version == "" {
		version = otelx.Version
	}

	s := &Server{
		mcp: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
			server.WithInstructions(instructions),
		),
		store:   opts.Store,
		journal: opts.Journal,
		otel:    provider,
		metrics: metrics,
		logger:  logger,
	}
	s.registerTools()
	return s, nil
}

const instructions = `Markdown-based task management system with PRD parsing.
Task state lives in per-project markdown files. Use create_task_file to
start a project, add_task or parse_prd to populate it, update_task_status
and get_next_task to work through it.`

// ServeStdio runs the server over stdin/stdout until the stream closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// ServeSSE runs the HTTP/SSE transport on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sse := server.NewSSEServer(s.mcp)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()
	s.logger.Info("sse transport listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return sse.Shutdown(shutdownCtx)
	}
}

// instrument wraps a tool handler with a trace id, a server span, duration
// and error metrics, a journal entry, and a structured log line.
func (s *Server) instrument(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		traceID := shared.NewTraceID()
		ctx = shared.WithTraceID(ctx, traceID)
		ctx = shared.WithToolName(ctx, name)
		project := req.GetString("project_name", "")
		if project != "" {
			ctx = shared.WithProject(ctx, project)
		}

		ctx, span := otelx.StartServerSpan(ctx, s.otel.Tracer, "tool."+name,
			otelx.AttrToolName.String(name),
			otelx.AttrProject.String(project),
			otelx.AttrTraceID.String(traceID),
		)
		start := time.Now()
		res, err := h(ctx, req)
		elapsed := time.Since(start)

		outcome := classify(res, err)
		span.SetAttributes(otelx.AttrOutcome.String(outcome))
		span.End()

		attrs := metric.WithAttributes(otelx.AttrToolName.String(name))
		s.metrics.ToolCallDuration.Record(ctx, elapsed.Seconds(), attrs)
		if outcome == "error" {
			s.metrics.ToolCallErrors.Add(ctx, 1, attrs)
		}

		if s.journal != nil {
			s.journal.Record(ctx, journal.Entry{
				Tool:    name,
				Project: project,
				Outcome: outcome,
				Detail:  resultText(res),
				TraceID: traceID,
			})
		}

		s.logger.Info("tool call",
			"tool", name,
			"project", project,
			"outcome", outcome,
			"duration_ms", elapsed.Milliseconds(),
			"trace_id", traceID,
		)
		return res, err
	}
}

func resultText(res *mcp.CallToolResult) string {
	if res == nil || len(res.Content) == 0 {
		return ""
	}
	if tc, ok := res.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

// classify buckets a tool result for metrics and the journal. Errors are
// reported as text per the tool contract, so the text is inspected too.
func classify(res *mcp.CallToolResult, err error) string {
	if err != nil {
		return "error"
	}
	if res != nil && res.IsError {
		return "error"
	}
	text := resultText(res)
	switch {
	case strings.HasPrefix(text, "Error "):
		return "error"
	case strings.HasPrefix(text, "Task file not found"):
		return "not_found"
	case strings.HasSuffix(text, "' not found"):
		return "not_found"
	default:
		return "ok"
	}
}

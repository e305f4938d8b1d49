package shared

import (
	"context"
	"testing"
)

func TestTraceID_DefaultDash(t *testing.T) {
	ctx := context.Background()
	if got := TraceID(ctx); got != "-" {
		t.Fatalf("expected '-', got %q", got)
	}
	ctx = WithTraceID(ctx, "abc-123")
	if got := TraceID(ctx); got != "abc-123" {
		t.Fatalf("expected abc-123, got %q", got)
	}
}

func TestNewTraceID_Unique(t *testing.T) {
	a, b := NewTraceID(), NewTraceID()
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}

func TestToolName_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := ToolName(ctx); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	ctx = WithToolName(ctx, "add_task")
	if got := ToolName(ctx); got != "add_task" {
		t.Fatalf("expected add_task, got %q", got)
	}
}

func TestProject_RoundTrip(t *testing.T) {
	ctx := WithProject(context.Background(), "journal")
	if got := Project(ctx); got != "journal" {
		t.Fatalf("expected journal, got %q", got)
	}
}

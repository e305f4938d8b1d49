package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/metric"

	otelx "github.com/basket/taskmd/internal/otel"

	"github.com/basket/taskmd/internal/prd"
	"github.com/basket/taskmd/internal/store"
	"github.com/basket/taskmd/internal/taskdoc"
)

// Tool results follow the original contract: every outcome, including
// failure, is a text result. Protocol-level errors are reserved for
// malformed requests.

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("create_task_file",
		mcp.WithDescription("Create a new markdown task file for a project."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project")),
	), s.instrument("create_task_file", s.handleCreateTaskFile))

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add a new task to a project's task file."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Task description")),
		mcp.WithArray("subtasks",
			mcp.Description("Optional list of subtasks"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("batch_mode",
			mcp.Description("If true, don't require an existing task file (for bulk additions)"),
		),
	), s.instrument("add_task", s.handleAddTask))

	s.mcp.AddTool(mcp.NewTool("parse_prd",
		mcp.WithDescription("Parse a PRD and create tasks from it."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project")),
		mcp.WithString("prd_content", mcp.Required(), mcp.Description("The PRD document text")),
	), s.instrument("parse_prd", s.handleParsePRD))

	s.mcp.AddTool(mcp.NewTool("update_task_status",
		mcp.WithDescription("Update the status of a task or subtask."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project")),
		mcp.WithString("task_title", mcp.Required(), mcp.Description("Title of the task")),
		mcp.WithString("subtask_title", mcp.Description("Optional title of the subtask")),
		mcp.WithString("status", mcp.Description("New status (todo/done), defaults to done")),
	), s.instrument("update_task_status", s.handleUpdateTaskStatus))

	s.mcp.AddTool(mcp.NewTool("get_next_task",
		mcp.WithDescription("Get the next uncompleted task from a project."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project")),
	), s.instrument("get_next_task", s.handleGetNextTask))

	s.mcp.AddTool(mcp.NewTool("expand_task",
		mcp.WithDescription("Break down a task into smaller, more manageable subtasks using AI."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project")),
		mcp.WithString("task_title", mcp.Required(), mcp.Description("Title of the task to expand")),
	), s.instrument("expand_task", s.handleExpandTask))

	s.mcp.AddTool(mcp.NewTool("get_task_dependencies",
		mcp.WithDescription("Get all tasks that depend on the given task."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project")),
		mcp.WithString("task_title", mcp.Required(), mcp.Description("Title of the task to check dependencies for")),
	), s.instrument("get_task_dependencies", s.handleGetTaskDependencies))

	s.mcp.AddTool(mcp.NewTool("estimate_task_complexity",
		mcp.WithDescription("Estimate the complexity of a task using AI."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project")),
		mcp.WithString("task_title", mcp.Required(), mcp.Description("Title of the task to estimate")),
	), s.instrument("estimate_task_complexity", s.handleEstimateTaskComplexity))

	s.mcp.AddTool(mcp.NewTool("suggest_next_actions",
		mcp.WithDescription("Suggest next actions for a task using AI."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project")),
		mcp.WithString("task_title", mcp.Required(), mcp.Description("Title of the task to get suggestions for")),
	), s.instrument("suggest_next_actions", s.handleSuggestNextActions))

	s.mcp.AddTool(mcp.NewTool("generate_task_file",
		mcp.WithDescription("Generate a file template based on a task's description."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project")),
		mcp.WithString("task_title", mcp.Required(), mcp.Description("Title of the task to generate a file for")),
	), s.instrument("generate_task_file", s.handleGenerateTaskFile))
}

func notFoundText(project string) string {
	return fmt.Sprintf("Task file not found for project %s", project)
}

func (s *Server) handleCreateTaskFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path, err := s.store.Create(project)
	switch {
	case errors.Is(err, store.ErrDocumentExists):
		return mcp.NewToolResultText(fmt.Sprintf("Task file already exists at %s", path)), nil
	case err != nil:
		return mcp.NewToolResultText(fmt.Sprintf("Error creating task file: %v", err)), nil
	}
	s.metrics.DocumentsWritten.Add(ctx, 1)
	return mcp.NewToolResultText(fmt.Sprintf("Created new task file at %s", path)), nil
}

func (s *Server) handleAddTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subtasks := req.GetStringSlice("subtasks", nil)
	batchMode := req.GetBool("batch_mode", false)

	err = s.store.AddTask(project, title, description, subtasks, batchMode)
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return mcp.NewToolResultText(notFoundText(project)), nil
	case err != nil:
		return mcp.NewToolResultText(fmt.Sprintf("Error adding task: %v", err)), nil
	}
	s.metrics.DocumentsWritten.Add(ctx, 1)
	return mcp.NewToolResultText(fmt.Sprintf("Added new task '%s' to %s", title, project)), nil
}

func (s *Server) handleParsePRD(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("prd_content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path, err := s.store.ParsePRD(project, content, prd.Derive)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error parsing PRD: %v", err)), nil
	}
	s.metrics.DocumentsWritten.Add(ctx, 1)
	return mcp.NewToolResultText(fmt.Sprintf("Successfully created tasks from PRD in %s", path)), nil
}

func (s *Server) handleUpdateTaskStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	taskTitle, err := req.RequireString("task_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subtaskTitle := req.GetString("subtask_title", "")
	status := req.GetString("status", "done")

	err = s.store.UpdateStatus(project, taskTitle, subtaskTitle, taskdoc.Status(status))
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return mcp.NewToolResultText(notFoundText(project)), nil
	case err != nil:
		return mcp.NewToolResultText(fmt.Sprintf("Error updating status: %v", err)), nil
	}
	s.metrics.DocumentsWritten.Add(ctx, 1)

	kind := "task"
	if subtaskTitle != "" {
		kind = "subtask"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated status of %s to %s", kind, status)), nil
}

func (s *Server) handleGetNextTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	next, ok, err := s.store.NextTask(project)
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return mcp.NewToolResultText(notFoundText(project)), nil
	case err != nil:
		return mcp.NewToolResultText(fmt.Sprintf("Error getting next task: %v", err)), nil
	case !ok:
		return mcp.NewToolResultText("All tasks are completed!"), nil
	}

	payload, err := json.Marshal(next)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error getting next task: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleExpandTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	taskTitle, err := req.RequireString("task_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	_, err = s.store.Expand(ctx, project, taskTitle)
	s.recordGenerate(ctx, "expand_task", start)
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return mcp.NewToolResultText(notFoundText(project)), nil
	case errors.Is(err, store.ErrTaskNotFound):
		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' not found", taskTitle)), nil
	case err != nil:
		return mcp.NewToolResultText(fmt.Sprintf("Error expanding task: %v", err)), nil
	}
	s.metrics.DocumentsWritten.Add(ctx, 1)
	return mcp.NewToolResultText(fmt.Sprintf("Expanded task '%s' with new subtasks", taskTitle)), nil
}

func (s *Server) handleGetTaskDependencies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	taskTitle, err := req.RequireString("task_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	deps, err := s.store.Dependents(project, taskTitle)
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return mcp.NewToolResultText(notFoundText(project)), nil
	case err != nil:
		return mcp.NewToolResultText(fmt.Sprintf("Error getting dependencies: %v", err)), nil
	}

	payload, err := json.Marshal(deps)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error getting dependencies: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleEstimateTaskComplexity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	taskTitle, err := req.RequireString("task_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	est, err := s.store.EstimateComplexity(ctx, project, taskTitle)
	s.recordGenerate(ctx, "estimate_task_complexity", start)
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return mcp.NewToolResultText(notFoundText(project)), nil
	case errors.Is(err, store.ErrTaskNotFound):
		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' not found", taskTitle)), nil
	case err != nil:
		return mcp.NewToolResultText(fmt.Sprintf("Error estimating complexity: %v", err)), nil
	}

	payload, err := json.Marshal(est)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error estimating complexity: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleSuggestNextActions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	taskTitle, err := req.RequireString("task_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	suggestions, err := s.store.SuggestNextActions(ctx, project, taskTitle)
	s.recordGenerate(ctx, "suggest_next_actions", start)
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return mcp.NewToolResultText(notFoundText(project)), nil
	case errors.Is(err, store.ErrTaskNotFound):
		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' not found", taskTitle)), nil
	case err != nil:
		return mcp.NewToolResultText(fmt.Sprintf("Error suggesting actions: %v", err)), nil
	}

	payload, err := json.Marshal(suggestions)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error suggesting actions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleGenerateTaskFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	taskTitle, err := req.RequireString("task_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	path, err := s.store.GenerateTaskFile(ctx, project, taskTitle)
	s.recordGenerate(ctx, "generate_task_file", start)
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return mcp.NewToolResultText(notFoundText(project)), nil
	case errors.Is(err, store.ErrTaskNotFound):
		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' not found", taskTitle)), nil
	case err != nil:
		return mcp.NewToolResultText(fmt.Sprintf("Error generating file: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Generated file template at %s", path)), nil
}

func (s *Server) recordGenerate(ctx context.Context, tool string, start time.Time) {
	s.metrics.GenerateDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(otelx.AttrToolName.String(tool)))
}

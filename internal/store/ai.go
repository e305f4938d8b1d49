package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/basket/taskmd/internal/genai"
	"github.com/basket/taskmd/internal/taskdoc"
)

// Operations backed by the generator. Each one looks a task up by exact
// title, builds the matching prompt from the task description, and shapes
// the generator output for the caller. Expand is the only one that writes
// the result back into the document.

// ExpandResult reports the subtasks appended to a task.
type ExpandResult struct {
	Task     string   `json:"task"`
	Subtasks []string `json:"subtasks"`
}

// Expand generates additional subtasks for the named task, appends them as
// todo, and persists the document.
func (s *Store) Expand(ctx context.Context, project, taskTitle string) (ExpandResult, error) {
	tasks, err := s.load(project)
	if err != nil {
		return ExpandResult{}, err
	}
	i, err := find(tasks, taskTitle)
	if err != nil {
		return ExpandResult{}, err
	}

	generated, err := s.gen.GenerateList(ctx, genai.ExpandPrompt(tasks[i].Description))
	if err != nil {
		return ExpandResult{}, fmt.Errorf("expand task: %w", err)
	}
	for _, title := range generated {
		tasks[i].Subtasks = append(tasks[i].Subtasks, taskdoc.Subtask{Title: title, Status: taskdoc.StatusTodo})
	}

	if err := s.save(project, tasks); err != nil {
		return ExpandResult{}, err
	}
	s.logger.Info("task expanded", "project", project, "title", taskTitle, "subtasks", len(generated))
	return ExpandResult{Task: taskTitle, Subtasks: generated}, nil
}

// Estimate is a complexity rating with its hour mapping.
type Estimate struct {
	Task           string `json:"task"`
	Complexity     string `json:"complexity"`
	EstimatedHours int    `json:"estimated_hours"`
}

// EstimateComplexity rates the named task low/medium/high and maps the
// rating to hours: low 4, medium 8, anything else 16.
func (s *Store) EstimateComplexity(ctx context.Context, project, taskTitle string) (Estimate, error) {
	tasks, err := s.load(project)
	if err != nil {
		return Estimate{}, err
	}
	i, err := find(tasks, taskTitle)
	if err != nil {
		return Estimate{}, err
	}

	complexity, err := s.gen.Generate(ctx, genai.ComplexityPrompt(tasks[i].Description))
	if err != nil {
		return Estimate{}, fmt.Errorf("estimate complexity: %w", err)
	}
	complexity = strings.ToLower(strings.TrimSpace(complexity))

	hours := 16
	switch complexity {
	case "low":
		hours = 4
	case "medium":
		hours = 8
	}

	return Estimate{Task: taskTitle, Complexity: complexity, EstimatedHours: hours}, nil
}

// Suggestions are recommended next actions for a task.
type Suggestions struct {
	Task        string   `json:"task"`
	Suggestions []string `json:"suggestions"`
}

// SuggestNextActions generates next-action recommendations for the named
// task. Read-only; the document is not modified.
func (s *Store) SuggestNextActions(ctx context.Context, project, taskTitle string) (Suggestions, error) {
	tasks, err := s.load(project)
	if err != nil {
		return Suggestions{}, err
	}
	i, err := find(tasks, taskTitle)
	if err != nil {
		return Suggestions{}, err
	}

	items, err := s.gen.GenerateList(ctx, genai.SuggestPrompt(tasks[i].Description))
	if err != nil {
		return Suggestions{}, fmt.Errorf("suggest actions: %w", err)
	}
	return Suggestions{Task: taskTitle, Suggestions: items}, nil
}

// GenerateTaskFile writes a generated starter file for the named task under
// a per-project directory next to the task document, and returns its path.
// The filename is the lowercased task title with spaces as underscores.
func (s *Store) GenerateTaskFile(ctx context.Context, project, taskTitle string) (string, error) {
	tasks, err := s.load(project)
	if err != nil {
		return "", err
	}
	i, err := find(tasks, taskTitle)
	if err != nil {
		return "", err
	}

	content, err := s.gen.Generate(ctx, genai.TemplatePrompt(tasks[i].Description))
	if err != nil {
		return "", fmt.Errorf("generate template: %w", err)
	}

	dir := filepath.Join(s.dir, project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create project dir: %w", err)
	}
	name := strings.ReplaceAll(strings.ToLower(taskTitle), " ", "_") + ".md"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write template: %w", err)
	}

	s.logger.Info("file template generated", "project", project, "title", taskTitle, "path", path)
	return path, nil
}

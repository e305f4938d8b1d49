// Package store implements the file-backed task store. Every operation
// resolves a project name to its markdown document under the tasks
// directory, decodes it, queries or mutates the in-memory list, and — for
// mutating operations — re-encodes and overwrites the file.
//
// One document per project, last writer wins: there is no locking and no
// atomic rename. The store assumes one caller at a time per project;
// different projects map to different files and never interfere.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/basket/taskmd/internal/genai"
	"github.com/basket/taskmd/internal/taskdoc"
)

// Sentinel errors for the operation boundary. The server layer converts
// every error into a descriptive string result; nothing propagates to the
// remote caller as a protocol error.
var (
	ErrDocumentNotFound = errors.New("task file not found")
	ErrDocumentExists   = errors.New("task file already exists")
	ErrTaskNotFound     = errors.New("task not found")
)

// Store is the per-process task store. Construct once with New and share;
// it holds no per-project state.
type Store struct {
	dir    string
	gen    genai.Generator
	logger *slog.Logger
}

// New creates the tasks directory if absent and returns a Store using it.
func New(dir string, gen genai.Generator, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tasks dir: %w", err)
	}
	return &Store{dir: dir, gen: gen, logger: logger}, nil
}

// Path returns the backing document path for a project.
func (s *Store) Path(project string) string {
	return filepath.Join(s.dir, project+".md")
}

func (s *Store) exists(project string) bool {
	_, err := os.Stat(s.Path(project))
	return err == nil
}

func (s *Store) readRaw(project string) (string, error) {
	data, err := os.ReadFile(s.Path(project))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w for project %s", ErrDocumentNotFound, project)
		}
		return "", fmt.Errorf("read task file: %w", err)
	}
	return string(data), nil
}

func (s *Store) writeRaw(project, content string) error {
	if err := os.WriteFile(s.Path(project), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	return nil
}

func (s *Store) load(project string) ([]taskdoc.Task, error) {
	content, err := s.readRaw(project)
	if err != nil {
		return nil, err
	}
	return taskdoc.Decode(content), nil
}

func (s *Store) save(project string, tasks []taskdoc.Task) error {
	return s.writeRaw(project, taskdoc.Encode(tasks))
}

// Create makes a new task document containing just the document title.
// An existing document is reported via ErrDocumentExists and left intact.
func (s *Store) Create(project string) (string, error) {
	path := s.Path(project)
	if s.exists(project) {
		return path, fmt.Errorf("%w at %s", ErrDocumentExists, path)
	}
	if err := s.writeRaw(project, taskdoc.PreambleTitle); err != nil {
		return path, err
	}
	s.logger.Info("task file created", "project", project, "path", path)
	return path, nil
}

// AddTask appends one task in the compact section form. When the document
// does not exist, batchMode starts a fresh one; otherwise the operation
// fails with ErrDocumentNotFound.
func (s *Store) AddTask(project, title, description string, subtasks []string, batchMode bool) error {
	existing := ""
	if s.exists(project) {
		content, err := s.readRaw(project)
		if err != nil {
			return err
		}
		existing = strings.TrimSpace(content)
	} else if !batchMode {
		return fmt.Errorf("%w for project %s", ErrDocumentNotFound, project)
	}

	task := taskdoc.Task{
		Title:       title,
		Description: description,
		Status:      taskdoc.StatusTodo,
	}
	for _, st := range subtasks {
		task.Subtasks = append(task.Subtasks, taskdoc.Subtask{Title: st, Status: taskdoc.StatusTodo})
	}

	if err := s.writeRaw(project, taskdoc.AppendSection(existing, task)); err != nil {
		return err
	}
	s.logger.Info("task added", "project", project, "title", title, "subtasks", len(subtasks))
	return nil
}

// ParsePRD derives the fixed task skeleton from a requirements document
// and overwrites the project document with its full encoding.
func (s *Store) ParsePRD(project, content string, derive func(string) []taskdoc.Task) (string, error) {
	tasks := derive(content)
	if err := s.save(project, tasks); err != nil {
		return "", err
	}
	s.logger.Info("tasks derived from PRD", "project", project, "tasks", len(tasks))
	return s.Path(project), nil
}

// UpdateStatus sets the status of a task, or of one of its subtasks when
// subtaskTitle is non-empty. A title that matches nothing is not an error:
// the document is re-encoded and written back unchanged, and the caller is
// told the update succeeded. Flagged as intentional in DESIGN.md.
func (s *Store) UpdateStatus(project, taskTitle, subtaskTitle string, status taskdoc.Status) error {
	tasks, err := s.load(project)
	if err != nil {
		return err
	}

	for i := range tasks {
		if tasks[i].Title != taskTitle {
			continue
		}
		if subtaskTitle == "" {
			tasks[i].Status = status
		} else {
			for j := range tasks[i].Subtasks {
				if tasks[i].Subtasks[j].Title == subtaskTitle {
					tasks[i].Subtasks[j].Status = status
					break
				}
			}
		}
		break
	}

	return s.save(project, tasks)
}

// NextTask is the first actionable subtask with its parent task context.
type NextTask struct {
	Task        string `json:"task"`
	Subtask     string `json:"subtask"`
	Description string `json:"description"`
}

// NextTask scans tasks in document order and returns the first todo
// subtask of the first todo task that still has work left. A task whose
// subtasks are all done is skipped even though its own status is todo.
// ok is false when nothing is actionable, including an empty document.
func (s *Store) NextTask(project string) (NextTask, bool, error) {
	tasks, err := s.load(project)
	if err != nil {
		return NextTask{}, false, err
	}

	for _, task := range tasks {
		if task.Status != taskdoc.StatusTodo {
			continue
		}
		if len(task.Subtasks) > 0 && task.Done() {
			continue
		}
		for _, st := range task.Subtasks {
			if st.Status == taskdoc.StatusTodo {
				return NextTask{
					Task:        task.Title,
					Subtask:     st.Title,
					Description: task.Description,
				}, true, nil
			}
		}
	}

	return NextTask{}, false, nil
}

// Dependent is a task that references another task by title.
type Dependent struct {
	Title  string         `json:"title"`
	Status taskdoc.Status `json:"status"`
}

// Dependents returns, in document order, every other task whose
// description mentions taskTitle as a case-insensitive substring. This is
// a free-text reference scan, not a structural dependency graph.
func (s *Store) Dependents(project, taskTitle string) ([]Dependent, error) {
	tasks, err := s.load(project)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(taskTitle)
	dependents := []Dependent{}
	for _, task := range tasks {
		if task.Title == taskTitle {
			continue
		}
		if strings.Contains(strings.ToLower(task.Description), needle) {
			dependents = append(dependents, Dependent{Title: task.Title, Status: task.Status})
		}
	}
	return dependents, nil
}

// find returns the index of the task with the exact title.
func find(tasks []taskdoc.Task, title string) (int, error) {
	for i := range tasks {
		if tasks[i].Title == title {
			return i, nil
		}
	}
	return 0, fmt.Errorf("task %q: %w", title, ErrTaskNotFound)
}

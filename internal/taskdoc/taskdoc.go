// Package taskdoc encodes and decodes per-project task documents.
//
// A task document is a plain markdown file: one `## Task: <title>` header
// per task, free-text description lines, and `- [ ]` / `- [x]` checklist
// lines for subtasks. Decode tolerates hand-edited files as long as those
// two line shapes are respected; everything else is description text or
// ignored.
package taskdoc

// Status is the completion state of a task or subtask.
type Status string

const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

// ParseStatus maps the single checklist character to a status.
// 'x' means done; any other character is treated as todo.
func ParseStatus(c byte) Status {
	if c == 'x' {
		return StatusDone
	}
	return StatusTodo
}

// Subtask is a checklist item under a task. Subtasks do not nest.
type Subtask struct {
	Title  string
	Status Status
}

// Task is one unit of work in a document. Title is the lookup key;
// document order is significant (the first task is index 1).
//
// Category, Priority, Complexity, EstimatedHours and Dependencies are
// derivation metadata: only PRD derivation populates them, and the compact
// document format does not carry them, so they are lost on a
// decode → re-encode cycle unless re-supplied.
type Task struct {
	Title       string
	Description string
	Status      Status
	Subtasks    []Subtask

	Category       string
	Priority       string
	Complexity     string
	EstimatedHours int
	Dependencies   []int
}

// Done reports whether every subtask is done. True for zero subtasks.
func (t *Task) Done() bool {
	for _, st := range t.Subtasks {
		if st.Status != StatusDone {
			return false
		}
	}
	return true
}

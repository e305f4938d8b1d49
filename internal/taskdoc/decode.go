package taskdoc

import (
	"strconv"
	"strings"
)

const (
	headerMarker   = "## Task: "
	numberedMarker = "## Task "
	subtaskPrefix  = "- ["
)

// Decode parses document content into an ordered task list.
//
// Two header forms open a task, finalizing the previous one:
//
//	## Task: <title>
//	## Task <n>: [<category>] <title> (<priority>)
//
// The compact form is what EncodeSection writes; the numbered form is what
// Encode writes. Decoding the numbered form recovers category and priority
// so a full-format document survives a decode → re-encode cycle instead of
// collapsing to an empty list. Complexity, estimated hours and dependencies
// are likewise recovered from the section lines Encode emits.
//
// Checklist lines `- [<c>] <title>` become subtasks ('x' is done, any other
// character is todo) and are ignored when no task is open. Blank lines,
// lines before the first header, and malformed list items are dropped.
// Every other line is description text, kept with its newline. The codec
// never reports a parse error.
func Decode(content string) []Task {
	var tasks []Task
	var current *Task
	inDeps := false

	flush := func() {
		if current != nil {
			tasks = append(tasks, *current)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if t, ok := parseHeader(line); ok {
			flush()
			current = &t
			inDeps = false
			continue
		}

		if current == nil {
			continue
		}

		if inDeps {
			if idx, ok := parseDependency(line); ok {
				current.Dependencies = append(current.Dependencies, idx)
				continue
			}
			inDeps = false
		}

		switch {
		case line == "### Dependencies:":
			inDeps = true
		case line == "### Subtasks:":
			// Section scaffolding, not description.
		case strings.HasPrefix(line, "### Complexity: "):
			current.Complexity = strings.TrimPrefix(line, "### Complexity: ")
		case strings.HasPrefix(line, "Estimated hours: "):
			if n, err := strconv.Atoi(strings.TrimPrefix(line, "Estimated hours: ")); err == nil {
				current.EstimatedHours = n
			}
		default:
			if st, ok := parseSubtask(line); ok {
				current.Subtasks = append(current.Subtasks, st)
			} else if strings.TrimSpace(line) != "" && !strings.HasPrefix(line, "-") {
				current.Description += line + "\n"
			}
		}
	}

	flush()
	return tasks
}

// parseHeader matches both task header forms. Status always starts as todo:
// neither form persists task-level status.
func parseHeader(line string) (Task, bool) {
	if title, ok := strings.CutPrefix(line, headerMarker); ok && strings.TrimSpace(title) != "" {
		return Task{Title: strings.TrimSpace(title), Status: StatusTodo}, true
	}

	rest, ok := strings.CutPrefix(line, numberedMarker)
	if !ok {
		return Task{}, false
	}
	// "<n>: [<category>] <title> (<priority>)"
	colon := strings.Index(rest, ": ")
	if colon <= 0 {
		return Task{}, false
	}
	if _, err := strconv.Atoi(rest[:colon]); err != nil {
		return Task{}, false
	}
	t := Task{Status: StatusTodo}
	body := rest[colon+2:]

	if strings.HasPrefix(body, "[") {
		if end := strings.Index(body, "] "); end > 0 {
			t.Category = body[:end+1]
			body = body[end+2:]
		}
	}
	if open := strings.LastIndex(body, " ("); open >= 0 && strings.HasSuffix(body, ")") {
		t.Priority = body[open+2 : len(body)-1]
		body = body[:open]
	}
	t.Title = strings.TrimSpace(body)
	if t.Title == "" {
		return Task{}, false
	}
	return t, true
}

// parseDependency matches the "- Task <n>" lines of a Dependencies section.
func parseDependency(line string) (int, bool) {
	rest, ok := strings.CutPrefix(line, "- Task ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseSubtask matches "- [<c>] <title>" with a single status character.
func parseSubtask(line string) (Subtask, bool) {
	rest, ok := strings.CutPrefix(line, subtaskPrefix)
	if !ok || len(rest) < 4 {
		return Subtask{}, false
	}
	if rest[1] != ']' || rest[2] != ' ' {
		return Subtask{}, false
	}
	title := rest[3:]
	if strings.TrimSpace(title) == "" {
		return Subtask{}, false
	}
	return Subtask{Title: title, Status: ParseStatus(rest[0])}, true
}

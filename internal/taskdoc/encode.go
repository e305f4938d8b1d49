package taskdoc

import (
	"fmt"
	"strings"
)

// PreambleTitle is the first line of every task document.
const PreambleTitle = "# Project Tasks\n\n"

// Preamble is the fixed document header: title plus the category and
// priority legends.
const Preamble = PreambleTitle +
	"## Categories\n" +
	"- [MVP] Core functionality tasks\n" +
	"- [AI] AI-related features\n" +
	"- [UX] User experience improvements\n" +
	"- [INFRA] Infrastructure and setup\n\n" +
	"## Priority Levels\n" +
	"- P0: Blocker/Critical\n" +
	"- P1: High Priority\n" +
	"- P2: Medium Priority\n" +
	"- P3: Low Priority\n\n"

// Encode renders the full document: preamble, then each task with a
// numbered header carrying category and priority. Decode recognizes this
// form, so a full document survives a decode and re-encode byte for byte.
func Encode(tasks []Task) string {
	var b strings.Builder
	b.WriteString(Preamble)

	for i, t := range tasks {
		priority := t.Priority
		if priority == "" {
			priority = "P2"
		}
		fmt.Fprintf(&b, "## Task %d: %s %s (%s)\n\n", i+1, t.Category, t.Title, priority)

		if desc := strings.TrimSpace(t.Description); desc != "" {
			b.WriteString(desc + "\n\n")
		}

		if len(t.Dependencies) > 0 {
			b.WriteString("### Dependencies:\n")
			for _, dep := range t.Dependencies {
				fmt.Fprintf(&b, "- Task %d\n", dep)
			}
			b.WriteString("\n")
		}

		if t.Complexity != "" {
			fmt.Fprintf(&b, "### Complexity: %s\n", t.Complexity)
			fmt.Fprintf(&b, "Estimated hours: %d\n\n", t.EstimatedHours)
		}

		if len(t.Subtasks) > 0 {
			b.WriteString("### Subtasks:\n\n")
			writeChecklist(&b, t.Subtasks)
			b.WriteString("\n")
		}

		b.WriteString("---\n\n")
	}

	return b.String()
}

// EncodeSection renders a single task in the compact, decode-compatible
// form used when appending one task without re-encoding the whole
// document. No index, category, or priority is emitted.
func EncodeSection(t Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n## Task: %s\n\n", t.Title)

	if desc := strings.TrimSpace(t.Description); desc != "" {
		b.WriteString(desc + "\n\n")
	}

	if len(t.Subtasks) > 0 {
		b.WriteString("### Subtasks:\n\n")
		writeChecklist(&b, t.Subtasks)
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	return b.String()
}

// AppendSection appends a compact task section to existing raw document
// content, inserting the preamble title first when the document is empty.
func AppendSection(existing string, t Task) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		existing = strings.TrimRight(PreambleTitle, "\n")
	}
	return existing + "\n\n" + EncodeSection(t)
}

func writeChecklist(b *strings.Builder, subtasks []Subtask) {
	for _, st := range subtasks {
		mark := " "
		if st.Status == StatusDone {
			mark = "x"
		}
		fmt.Fprintf(b, "- [%s] %s\n", mark, st.Title)
	}
}

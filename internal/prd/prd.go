// Package prd turns a sectioned requirements document into a task list.
//
// The derivation is a fixed six-task skeleton: setup, core features, auth
// and storage, AI features, UI/UX, cloud. Only the "Key Features" section
// of the input feeds into it — its bullets are partitioned into MVP and AI
// buckets and become subtasks of tasks two and four.
package prd

import (
	"regexp"
	"strings"

	"github.com/basket/taskmd/internal/taskdoc"
)

var (
	bulletMarker = regexp.MustCompile(`^[-*•]\s*`)
	codeSpan     = regexp.MustCompile("`[^`]*`")
	boldSpan     = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// Sections splits a document into named sections. Lines starting with
// "# " or "## " open a section named by the heading text; a new heading
// closes the previous section and its accumulated body. Text before the
// first heading is discarded.
func Sections(text string) map[string]string {
	sections := make(map[string]string)
	var name string
	var body []string

	flush := func() {
		if name != "" {
			sections[name] = strings.Join(body, "\n")
		}
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "# "):
			flush()
			name = strings.TrimSpace(line[2:])
			body = nil
		case strings.HasPrefix(line, "## "):
			flush()
			name = strings.TrimSpace(line[3:])
			body = nil
		default:
			body = append(body, line)
		}
	}
	flush()

	return sections
}

// Bullets extracts bullet-point lines ("-", "*" or "•" markers) from a
// section body. Inline code spans are dropped, bold markers are unwrapped,
// and markdown links are reduced to their display text.
func Bullets(body string) []string {
	var points []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !bulletMarker.MatchString(line) {
			continue
		}
		cleaned := bulletMarker.ReplaceAllString(line, "")
		cleaned = codeSpan.ReplaceAllString(cleaned, "")
		cleaned = boldSpan.ReplaceAllString(cleaned, "$1")
		cleaned = mdLink.ReplaceAllString(cleaned, "$1")
		if cleaned != "" {
			points = append(points, cleaned)
		}
	}
	return points
}

// isMVP keeps features that mention neither AI nor cloud. The "AI" check
// is case-sensitive on purpose: lowercase "ai" inside a word ("maintain")
// must not reclassify a feature.
func isMVP(feature string) bool {
	return !strings.Contains(feature, "AI") && !strings.Contains(strings.ToLower(feature), "cloud")
}

func isAI(feature string) bool {
	lower := strings.ToLower(feature)
	return strings.Contains(feature, "AI") ||
		strings.Contains(lower, "summarize") ||
		strings.Contains(lower, "pattern")
}

func todoSubtasks(titles []string) []taskdoc.Subtask {
	subtasks := make([]taskdoc.Subtask, 0, len(titles))
	for _, title := range titles {
		subtasks = append(subtasks, taskdoc.Subtask{Title: title, Status: taskdoc.StatusTodo})
	}
	return subtasks
}

// Derive builds the fixed task skeleton from a requirements document.
//
// Order and metadata are fixed. The core-features task is emitted only when
// a "Key Features" section exists; the AI task only when at least one
// feature classifies as AI. Dependency indices are the skeleton's nominal
// positions and are not renumbered when an optional task is skipped —
// matching the persisted documents this tool already produced.
func Derive(text string) []taskdoc.Task {
	sections := Sections(text)

	var features, mvpFeatures, aiFeatures []string
	keyFeatures, hasFeatures := sections["Key Features"]
	if hasFeatures {
		features = Bullets(keyFeatures)
		for _, f := range features {
			if isMVP(f) {
				mvpFeatures = append(mvpFeatures, f)
			}
			if isAI(f) {
				aiFeatures = append(aiFeatures, f)
			}
		}
	}

	var tasks []taskdoc.Task

	tasks = append(tasks, taskdoc.Task{
		Title:          "Project Setup",
		Description:    "Set up the Next.js project with TypeScript and Tailwind CSS",
		Status:         taskdoc.StatusTodo,
		Category:       "[INFRA]",
		Priority:       "P0",
		Complexity:     "low",
		EstimatedHours: 4,
		Subtasks: todoSubtasks([]string{
			"Initialize Next.js project",
			"Configure TypeScript",
			"Set up Tailwind CSS",
			"Configure development environment",
			"Set up testing framework",
		}),
	})

	if hasFeatures {
		tasks = append(tasks, taskdoc.Task{
			Title:          "Implement Core Features",
			Description:    "Implement the core MVP features of the journaling app",
			Status:         taskdoc.StatusTodo,
			Category:       "[MVP]",
			Priority:       "P0",
			Complexity:     "medium",
			EstimatedHours: 8,
			Dependencies:   []int{1},
			Subtasks:       todoSubtasks(mvpFeatures),
		})
	}

	tasks = append(tasks, taskdoc.Task{
		Title:          "Authentication & Local Storage",
		Description:    "Implement user authentication and local storage features",
		Status:         taskdoc.StatusTodo,
		Category:       "[MVP]",
		Priority:       "P1",
		Complexity:     "medium",
		EstimatedHours: 8,
		Dependencies:   []int{1},
		Subtasks: todoSubtasks([]string{
			"Implement email authentication",
			"Set up local storage with IndexedDB",
			"Add user session management",
			"Implement data persistence",
		}),
	})

	if len(aiFeatures) > 0 {
		tasks = append(tasks, taskdoc.Task{
			Title:          "Implement AI Features",
			Description:    "Add AI-powered features for insights and analysis",
			Status:         taskdoc.StatusTodo,
			Category:       "[AI]",
			Priority:       "P2",
			Complexity:     "high",
			EstimatedHours: 16,
			Dependencies:   []int{2, 3},
			Subtasks:       todoSubtasks(aiFeatures),
		})
	}

	tasks = append(tasks, taskdoc.Task{
		Title:          "Enhance UI/UX",
		Description:    "Implement UI/UX improvements and polish",
		Status:         taskdoc.StatusTodo,
		Category:       "[UX]",
		Priority:       "P2",
		Complexity:     "medium",
		EstimatedHours: 8,
		Dependencies:   []int{2},
		Subtasks: todoSubtasks([]string{
			"Implement dark/light mode",
			"Add responsive design",
			"Create minimalist editor",
			"Add keyboard shortcuts",
		}),
	})

	tasks = append(tasks, taskdoc.Task{
		Title:          "Implement Cloud Features",
		Description:    "Add cloud sync and advanced storage features",
		Status:         taskdoc.StatusTodo,
		Category:       "[INFRA]",
		Priority:       "P3",
		Complexity:     "high",
		EstimatedHours: 16,
		Dependencies:   []int{2, 3},
		Subtasks: todoSubtasks([]string{
			"Set up cloud sync",
			"Implement end-to-end encryption",
			"Add offline support",
			"Create backup/restore functionality",
		}),
	})

	return tasks
}

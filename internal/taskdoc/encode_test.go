package taskdoc

import (
	"strings"
	"testing"
)

func sampleTasks() []Task {
	return []Task{
		{
			Title:       "Project Setup",
			Description: "Scaffold the repo.\n",
			Status:      StatusTodo,
			Category:    "[INFRA]",
			Priority:    "P0",
			Complexity:  "low",
			EstimatedHours: 4,
			Subtasks: []Subtask{
				{Title: "init repo", Status: StatusDone},
				{Title: "add CI", Status: StatusTodo},
			},
		},
		{
			Title:        "Implement Core Features",
			Description:  "The MVP slice.\n",
			Status:       StatusTodo,
			Category:     "[MVP]",
			Priority:     "P0",
			Dependencies: []int{1},
			Subtasks:     []Subtask{{Title: "feature one", Status: StatusTodo}},
		},
	}
}

func TestEncode_Layout(t *testing.T) {
	out := Encode(sampleTasks())

	if !strings.HasPrefix(out, Preamble) {
		t.Error("output does not start with preamble")
	}
	for _, want := range []string{
		"## Task 1: [INFRA] Project Setup (P0)",
		"## Task 2: [MVP] Implement Core Features (P0)",
		"### Dependencies:\n- Task 1\n",
		"### Complexity: low\nEstimated hours: 4\n",
		"### Subtasks:\n\n- [x] init repo\n- [ ] add CI\n",
		"---\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestEncode_DefaultPriority(t *testing.T) {
	out := Encode([]Task{{Title: "bare", Status: StatusTodo}})
	if !strings.Contains(out, "## Task 1:  bare (P2)") {
		t.Errorf("default priority header missing:\n%s", out)
	}
}

// Encode must be stable across one decode: encode(decode(encode(tasks)))
// equals encode(tasks) byte for byte.
func TestEncode_RoundTripStable(t *testing.T) {
	first := Encode(sampleTasks())
	second := Encode(Decode(first))
	if first != second {
		t.Errorf("round trip changed output:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestDecode_RecoversDerivationMetadata(t *testing.T) {
	tasks := Decode(Encode(sampleTasks()))
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}

	setup := tasks[0]
	if setup.Category != "[INFRA]" || setup.Priority != "P0" {
		t.Errorf("category/priority = %q/%q", setup.Category, setup.Priority)
	}
	if setup.Complexity != "low" || setup.EstimatedHours != 4 {
		t.Errorf("complexity/hours = %q/%d", setup.Complexity, setup.EstimatedHours)
	}
	if setup.Description != "Scaffold the repo.\n" {
		t.Errorf("description = %q", setup.Description)
	}

	core := tasks[1]
	if len(core.Dependencies) != 1 || core.Dependencies[0] != 1 {
		t.Errorf("dependencies = %v", core.Dependencies)
	}
	if core.Title != "Implement Core Features" {
		t.Errorf("title = %q", core.Title)
	}
}

func TestEncodeSection_CompactForm(t *testing.T) {
	out := EncodeSection(Task{
		Title:       "T1",
		Description: "desc",
		Status:      StatusTodo,
		Subtasks:    []Subtask{{Title: "s1", Status: StatusTodo}, {Title: "s2", Status: StatusTodo}},
	})

	if !strings.Contains(out, "## Task: T1\n") {
		t.Errorf("compact header missing:\n%s", out)
	}
	if strings.Contains(out, "## Task 1") {
		t.Error("compact form must not number the header")
	}
	if !strings.Contains(out, "- [ ] s1\n- [ ] s2\n") {
		t.Errorf("subtask checklist missing:\n%s", out)
	}
	if !strings.HasSuffix(out, "---\n\n") {
		t.Errorf("missing separator:\n%s", out)
	}
}

func TestAppendSection(t *testing.T) {
	t.Run("empty document gets title", func(t *testing.T) {
		out := AppendSection("", Task{Title: "first", Status: StatusTodo})
		if !strings.HasPrefix(out, "# Project Tasks\n") {
			t.Errorf("missing document title:\n%s", out)
		}
		tasks := Decode(out)
		if len(tasks) != 1 || tasks[0].Title != "first" {
			t.Errorf("decoded %+v", tasks)
		}
	})

	t.Run("appends after existing content", func(t *testing.T) {
		doc := AppendSection("", Task{Title: "first", Status: StatusTodo})
		doc = AppendSection(doc, Task{Title: "second", Status: StatusTodo})
		tasks := Decode(doc)
		if len(tasks) != 2 || tasks[0].Title != "first" || tasks[1].Title != "second" {
			t.Errorf("decoded %+v", tasks)
		}
	})
}

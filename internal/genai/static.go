package genai

import (
	"context"
	"strings"
)

// Static is the deterministic fallback generator. It returns fixed outputs
// for each known prompt family, keyed off the prompt prefix. Used when no
// LLM API key is configured, and as the predictable collaborator in tests.
type Static struct{}

var _ Generator = Static{}

var staticSubtasks = []string{
	"Research existing solutions",
	"Design implementation approach",
	"Write initial code",
	"Test functionality",
	"Review and refine",
}

var staticSuggestions = []string{
	"Review existing codebase",
	"Set up development environment",
	"Create initial test cases",
	"Implement core functionality",
	"Write documentation",
}

const staticTemplate = `# Implementation notes

## Approach

Outline the implementation approach here.

## Steps

1. Sketch the interface
2. Implement the core path
3. Cover edge cases with tests
`

func (Static) Generate(ctx context.Context, prompt string) (string, error) {
	switch {
	case strings.HasPrefix(prompt, complexityPrefix):
		return "medium", nil
	case strings.HasPrefix(prompt, templatePrefix):
		return staticTemplate, nil
	default:
		return "", nil
	}
}

func (Static) GenerateList(ctx context.Context, prompt string) ([]string, error) {
	switch {
	case strings.HasPrefix(prompt, expandPrefix):
		return append([]string(nil), staticSubtasks...), nil
	case strings.HasPrefix(prompt, suggestPrefix):
		return append([]string(nil), staticSuggestions...), nil
	default:
		return nil, nil
	}
}

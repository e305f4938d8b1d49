package genai

import "fmt"

// Prompt templates for the task operations. They live here, next to the
// implementations, so the Static stand-in can recognize which operation a
// prompt belongs to.
const (
	expandPrefix     = "Break down this task into smaller, actionable subtasks: "
	complexityPrefix = "Estimate the complexity of this task (low/medium/high): "
	suggestPrefix    = "Suggest next actions for this task: "
	templatePrefix   = "Generate a file template for implementing: "
)

// ExpandPrompt asks for a breakdown of a task into subtasks.
func ExpandPrompt(description string) string {
	return fmt.Sprintf("%s%s", expandPrefix, description)
}

// ComplexityPrompt asks for a low/medium/high complexity estimate.
func ComplexityPrompt(description string) string {
	return fmt.Sprintf("%s%s", complexityPrefix, description)
}

// SuggestPrompt asks for next actions on a task.
func SuggestPrompt(description string) string {
	return fmt.Sprintf("%s%s", suggestPrefix, description)
}

// TemplatePrompt asks for a starter file for implementing a task.
func TemplatePrompt(description string) string {
	return fmt.Sprintf("%s%s", templatePrefix, description)
}

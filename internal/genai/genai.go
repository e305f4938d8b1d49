// Package genai is the text-generation collaborator behind the AI-assisted
// task operations. The store depends only on the Generator interface; main
// wires a Genkit-backed implementation when an API key is configured and
// the deterministic Static implementation otherwise, so the server is fully
// functional without credentials.
package genai

import "context"

// Generator produces text (or a list of text items) from a prompt.
// Implementations are expected to honor ctx cancellation on network calls.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateList(ctx context.Context, prompt string) ([]string, error)
}

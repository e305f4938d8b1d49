package config

import "os"

// AvailableProviders returns the LLM providers that have an API key in the
// environment. Empty means the server runs on the deterministic fallback.
func AvailableProviders() []string {
	var providers []string
	if os.Getenv("GEMINI_API_KEY") != "" {
		providers = append(providers, "google")
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		providers = append(providers, "anthropic")
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		providers = append(providers, "openai")
	}
	return providers
}

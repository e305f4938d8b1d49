package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/anthropic"
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// Config selects and authenticates the LLM provider.
type Config struct {
	Provider string `yaml:"provider"` // "google", "anthropic", "openai"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// Genkit generates text through a Genkit-managed LLM provider.
type Genkit struct {
	g     *genkit.Genkit
	model string
}

var _ Generator = (*Genkit)(nil)

// New initializes the configured provider and returns a generator.
// When no API key is available it returns the Static fallback, so callers
// always get a working Generator.
func New(ctx context.Context, cfg Config, logger *slog.Logger) Generator {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "google"
	}

	modelID := strings.TrimSpace(cfg.Model)
	if modelID == "" {
		modelID = defaultModel(provider)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = envAPIKey(provider)
	}
	if apiKey == "" {
		logger.Warn("no LLM API key configured; using deterministic fallback", "provider", provider)
		return Static{}
	}

	var g *genkit.Genkit
	var model string

	switch provider {
	case "anthropic":
		g = genkit.Init(ctx, genkit.WithPlugins(&anthropic.Anthropic{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
		}))
		model = "anthropic/" + modelID

	case "openai":
		g = genkit.Init(ctx, genkit.WithPlugins(&compat_oai.OpenAICompatible{
			Provider: "openai",
			APIKey:   apiKey,
			BaseURL:  cfg.BaseURL,
		}))
		model = "openai/" + modelID

	case "google":
		_ = os.Setenv("GEMINI_API_KEY", apiKey)
		g = genkit.Init(ctx,
			genkit.WithPlugins(&googlegenai.GoogleAI{}),
			genkit.WithDefaultModel("googleai/"+modelID),
		)
		model = "googleai/" + modelID

	default:
		logger.Warn("unknown LLM provider; using deterministic fallback", "provider", provider)
		return Static{}
	}

	logger.Info("generator initialized", "provider", provider, "model", model)
	return &Genkit{g: g, model: model}
}

func (gk *Genkit) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, gk.g,
		ai.WithModelName(gk.model),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// GenerateList generates text and splits it into one item per line,
// stripping list markers and numbering the model tends to emit.
func (gk *Genkit) GenerateList(ctx context.Context, prompt string) ([]string, error) {
	text, err := gk.Generate(ctx, prompt+"\nReturn one item per line, no other text.")
	if err != nil {
		return nil, err
	}

	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		line = strings.TrimLeft(line, "0123456789.) ")
		if line != "" {
			items = append(items, line)
		}
	}
	return items, nil
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-5"
	case "openai":
		return "gpt-4o-mini"
	default:
		return "gemini-2.5-flash"
	}
}

func envAPIKey(provider string) string {
	envMap := map[string]string{
		"google":    "GEMINI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"openai":    "OPENAI_API_KEY",
	}
	return os.Getenv(envMap[provider])
}

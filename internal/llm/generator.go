package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/localnerve/docauthor/internal/config"
)

// clientTimeout bounds every provider HTTP request, independent of the
// per-call deadline the Gateway applies.
const clientTimeout = 120 * time.Second

// TextGenerator completes a single prompt.
// Both providers (Gemini and any OpenAI-compatible endpoint) implement this interface.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	// Endpoint is the base URL the generator talks to, used by health checks.
	Endpoint() string
}

// NewGenerator builds the TextGenerator selected by LLM_PROVIDER
func NewGenerator(cfg *config.Config) (TextGenerator, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return NewGeminiClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	case "openai":
		return NewOpenAICompatGenerator(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel), nil
	}
	return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLMProvider)
}

package llm

import (
	"context"
	"fmt"
)

// Generator turns a prompt into completion text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorConfig selects and configures a Generator backend.
type GeneratorConfig struct {
	Provider    string // "gemini" or "ollama"
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// NewGenerator builds the backend named by config.Provider.
func NewGenerator(ctx context.Context, config GeneratorConfig) (Generator, error) {
	switch config.Provider {
	case "", "gemini":
		return NewGeminiGenerator(ctx, GeminiConfig{
			Model:       config.Model,
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
		})
	case "ollama":
		return NewOllamaGenerator(OllamaConfig{
			Model:       config.Model,
			BaseURL:     config.BaseURL,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", config.Provider)
	}
}

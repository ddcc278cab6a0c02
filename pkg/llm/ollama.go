package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaConfig represents the configuration for a local Ollama model.
type OllamaConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // Ollama server URL
}

// OllamaGenerator generates completions with a local Ollama model.
type OllamaGenerator struct {
	config OllamaConfig
	llm    llms.Model
}

// NewOllamaGenerator creates a new OllamaGenerator with the given configuration.
func NewOllamaGenerator(config OllamaConfig) (*OllamaGenerator, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2048
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	llm, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return newOllamaGenerator(config, llm), nil
}

func newOllamaGenerator(config OllamaConfig, model llms.Model) *OllamaGenerator {
	return &OllamaGenerator{
		config: config,
		llm:    model,
	}
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithTemperature(g.config.Temperature),
		llms.WithMaxTokens(g.config.MaxTokens))
	if err != nil {
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}
	return text, nil
}

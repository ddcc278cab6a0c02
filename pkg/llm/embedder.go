package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

// EmbedderConfig represents the configuration for the embedding model.
type EmbedderConfig struct {
	Model   string
	BaseURL string // Ollama server URL
}

type embeddingModel interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder turns text into vectors for the dataset index.
type Embedder struct {
	Config EmbedderConfig
	model  embeddingModel
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	emb, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{
		Config: config,
		model:  emb,
	}, nil
}

func (e *Embedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.model.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedQuery embeds a single search query.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("embedding returned no vector")
	}
	return vectors[0], nil
}

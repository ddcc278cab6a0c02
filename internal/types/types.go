package types

import (
	"context"
	"time"

	"github.com/xhad/pressdata/internal/models"
	"github.com/xhad/pressdata/pkg/llm"
)

// Core interfaces
type TextExtractor interface {
	Extract(path string) (string, time.Duration, error)
}

type LanguageDetector interface {
	Detect(text string) string
}

type Summarizer interface {
	Summarize(ctx context.Context, filename, text string) (llm.Result, error)
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

type VectorStore interface {
	Store(ctx context.Context, records []models.ProcessedRecord, embeddings [][][]float32) error
	Query(ctx context.Context, embedding []float32, limit int) ([]models.SearchResult, error)
	Close()
}

type Processor interface {
	Process(records []models.Record) []models.ProcessedRecord
}

package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xhad/pressdata/internal/models"
	"github.com/xhad/pressdata/internal/types"
)

// Indexer chunks, embeds and stores dataset records.
type Indexer struct {
	processor types.Processor
	embedder  types.Embedder
	store     types.VectorStore
	logger    *zap.Logger
}

func NewIndexer(p types.Processor, emb types.Embedder, vs types.VectorStore, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		processor: p,
		embedder:  emb,
		store:     vs,
		logger:    logger,
	}
}

// IndexRecords stores the records that have a summary and returns the number
// of chunks written.
func (ix *Indexer) IndexRecords(ctx context.Context, records []models.Record) (int, error) {
	var summarized []models.Record
	for _, rec := range records {
		if rec.Summary == nil {
			ix.logger.Debug("skipping record without summary", zap.String("file", rec.Filename))
			continue
		}
		summarized = append(summarized, rec)
	}

	processed := ix.processor.Process(summarized)

	var (
		kept       []models.ProcessedRecord
		embeddings [][][]float32
		chunks     int
	)
	for _, rec := range processed {
		if len(rec.Chunks) == 0 {
			// Short releases fall below the chunk minimum; index the summary.
			rec.Chunks = []string{*rec.Summary}
		}

		vectors, err := ix.embedder.CreateEmbedding(ctx, rec.Chunks)
		if err != nil {
			return chunks, fmt.Errorf("failed to embed %s: %w", rec.Filename, err)
		}

		kept = append(kept, rec)
		embeddings = append(embeddings, vectors)
		chunks += len(rec.Chunks)
		ix.logger.Debug("embedded record", zap.String("file", rec.Filename), zap.Int("chunks", len(rec.Chunks)))
	}

	if len(kept) == 0 {
		return 0, nil
	}
	if err := ix.store.Store(ctx, kept, embeddings); err != nil {
		return 0, err
	}

	ix.logger.Info("indexed records", zap.Int("records", len(kept)), zap.Int("chunks", chunks))
	return chunks, nil
}

// Search embeds query and returns the closest chunks.
func (ix *Indexer) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if query == "" {
		return nil, errors.New("empty search query")
	}

	vector, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return ix.store.Query(ctx, vector, limit)
}

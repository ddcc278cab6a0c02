package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/xhad/pressdata/internal/models"
)

type VectorStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	SearchLimit int
}

// VectorStore keeps dataset chunks and their embeddings in Postgres.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "press_releases"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			chunk_index INTEGER,
			content TEXT,
			summary TEXT,
			topics JSONB,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Store upserts every chunk of records. embeddings[i][j] is the vector of
// records[i].Chunks[j].
func (vs *VectorStore) Store(ctx context.Context, records []models.ProcessedRecord, embeddings [][][]float32) error {
	if len(records) != len(embeddings) {
		return fmt.Errorf("got embeddings for %d records, want %d", len(embeddings), len(records))
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, filename, chunk_index, content, summary, topics, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			summary = EXCLUDED.summary,
			topics = EXCLUDED.topics,
			embedding = EXCLUDED.embedding`,
		vs.config.TableName)

	for i, rec := range records {
		if len(embeddings[i]) != len(rec.Chunks) {
			return fmt.Errorf("%s: got %d embeddings for %d chunks", rec.Filename, len(embeddings[i]), len(rec.Chunks))
		}

		var summary *string
		if rec.Summary != nil {
			s := sanitizeUTF8(*rec.Summary)
			summary = &s
		}

		for j, chunk := range rec.Chunks {
			_, err = tx.Exec(ctx, stmt,
				chunkID(rec.Filename, j),
				rec.Filename,
				j,
				sanitizeUTF8(chunk),
				summary,
				rec.Topics,
				pgvector.NewVector(embeddings[i][j]),
			)
			if err != nil {
				return fmt.Errorf("failed to insert %s chunk %d: %w", rec.Filename, j, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Query returns the chunks closest to embedding by cosine distance.
func (vs *VectorStore) Query(ctx context.Context, queryEmbedding []float32, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = vs.config.SearchLimit
	}

	query := fmt.Sprintf(`
		SELECT id, filename, chunk_index, content, COALESCE(summary, ''), topics
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(queryEmbedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		err := rows.Scan(
			&r.ID,
			&r.Filename,
			&r.ChunkIndex,
			&r.Content,
			&r.Summary,
			&r.Topics,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

func chunkID(filename string, index int) string {
	return fmt.Sprintf("%s_%d", filename, index)
}

// sanitizeUTF8 drops invalid bytes, which Postgres rejects in TEXT columns.
func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}

package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingModel struct {
	dim   int
	err   error
	calls int
}

func (m *fakeEmbeddingModel) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, m.dim)
		out[i][0] = float32(len(texts[i]))
	}
	return out, nil
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := NewEmbedderWithConfig(EmbedderConfig{})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text:latest", emb.Config.Model)
	assert.Equal(t, "http://localhost:11434", emb.Config.BaseURL)
}

func TestCreateEmbedding(t *testing.T) {
	model := &fakeEmbeddingModel{dim: 768}
	emb := &Embedder{model: model}

	vectors, err := emb.CreateEmbedding(context.Background(), []string{"first chunk", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	for _, v := range vectors {
		assert.Len(t, v, 768)
	}
	assert.Equal(t, float32(11), vectors[0][0])

	vectors, err = emb.CreateEmbedding(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Equal(t, 1, model.calls)
}

func TestEmbedQuery(t *testing.T) {
	emb := &Embedder{model: &fakeEmbeddingModel{dim: 4}}

	v, err := emb.EmbedQuery(context.Background(), "housing")
	require.NoError(t, err)
	assert.Len(t, v, 4)

	emb = &Embedder{model: &fakeEmbeddingModel{err: errors.New("model not found")}}
	_, err = emb.EmbedQuery(context.Background(), "housing")
	assert.ErrorContains(t, err, "model not found")
}

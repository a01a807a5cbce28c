package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docqa/internal/adapter/embedding"
	"docqa/internal/domain"
)

// tableEmbedder returns fixed vectors per text.
type tableEmbedder struct {
	vectors map[string][]float32
	err     error
	short   bool // drop the last vector of every batch

	mu    sync.Mutex
	calls int
}

func (e *tableEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, e.vectors[t])
	}
	if e.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (e *tableEmbedder) ModelName() string { return "table" }

func sources(texts ...string) []domain.Source {
	out := make([]domain.Source, len(texts))
	for i, t := range texts {
		out[i] = domain.Source{Name: "doc" + string(rune('a'+i)), Text: t}
	}
	return out
}

func TestBuildCorpus_Empty(t *testing.T) {
	_, err := BuildCorpus(context.Background(), embedding.NewMockEmbedder(4), nil, CorpusOptions{})
	require.Error(t, err)
	assert.True(t, domain.IsEmptyCorpus(err))
}

func TestBuildCorpus_PreservesOrder(t *testing.T) {
	emb := embedding.NewMockEmbedder(4)
	src := sources("one", "two", "three", "four", "five")

	var (
		mu    sync.Mutex
		calls []int
	)
	c, err := BuildCorpus(context.Background(), emb, src, CorpusOptions{
		BatchSize: 2,
		Workers:   3,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 5, total)
			calls = append(calls, done)
		},
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, c.Len())
	assert.Equal(t, 4, c.Dimension())
	require.Len(t, calls, 3)
	assert.Equal(t, 5, calls[len(calls)-1])

	want, err := emb.Embed(context.Background(), []string{"one", "two", "three", "four", "five"})
	require.NoError(t, err)
	for i, doc := range c.Documents() {
		assert.Equal(t, i, doc.ID)
		assert.Equal(t, src[i].Name, doc.Name)
		assert.Equal(t, src[i].Text, doc.Text)
		assert.Equal(t, want[i], c.Vectors()[i])
	}
	assert.Equal(t, "three", c.Document(2).Text)
}

func TestBuildCorpus_FitsEmbedder(t *testing.T) {
	emb := embedding.NewTFIDFEmbedder()
	c, err := BuildCorpus(context.Background(), emb, sources("The sky is blue.", "Grass is green."), CorpusOptions{})
	require.NoError(t, err)
	assert.Equal(t, emb.Dimension(), c.Dimension())
	assert.Positive(t, c.Dimension())
}

func TestBuildCorpus_DimensionMismatch(t *testing.T) {
	emb := &tableEmbedder{vectors: map[string][]float32{
		"a": {1, 2, 3},
		"b": {1, 2},
	}}
	_, err := BuildCorpus(context.Background(), emb, sources("a", "b"), CorpusOptions{})
	require.Error(t, err)
	assert.True(t, domain.IsDimensionMismatch(err))
	assert.Contains(t, err.Error(), `"docb"`)
}

func TestBuildCorpus_ZeroLengthVector(t *testing.T) {
	emb := &tableEmbedder{vectors: map[string][]float32{"a": {}}}
	_, err := BuildCorpus(context.Background(), emb, sources("a"), CorpusOptions{})
	require.Error(t, err)
	assert.True(t, domain.IsDimensionMismatch(err))
}

func TestBuildCorpus_EmbedderFailure(t *testing.T) {
	boom := errors.New("boom")
	emb := &tableEmbedder{err: boom}
	_, err := BuildCorpus(context.Background(), emb, sources("a", "b"), CorpusOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestBuildCorpus_WrongVectorCount(t *testing.T) {
	emb := &tableEmbedder{
		vectors: map[string][]float32{"a": {1}, "b": {2}},
		short:   true,
	}
	_, err := BuildCorpus(context.Background(), emb, sources("a", "b"), CorpusOptions{})
	require.Error(t, err)
	assert.True(t, domain.IsEmbedding(err))
}

func TestBuildCorpus_Batching(t *testing.T) {
	emb := &tableEmbedder{vectors: map[string][]float32{}}
	texts := make([]string, 70)
	for i := range texts {
		texts[i] = string(rune('A' + i))
		emb.vectors[texts[i]] = []float32{float32(i)}
	}
	c, err := BuildCorpus(context.Background(), emb, sources(texts...), CorpusOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, emb.calls)
	for i, v := range c.Vectors() {
		assert.Equal(t, float32(i), v[0])
	}
}

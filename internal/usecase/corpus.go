package usecase

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// Corpus is the ordered document collection with its index-aligned vectors.
// It is built once and read-only afterwards.
type Corpus struct {
	documents []domain.Document
	vectors   [][]float32
	dimension int
}

// CorpusOptions tunes corpus construction.
type CorpusOptions struct {
	BatchSize int                   // texts per embedder call; default 32
	Workers   int                   // concurrent embedder calls; default 1
	Progress  func(done, total int) // optional, called after each batch
	Logger    *zap.Logger           // optional
}

// BuildCorpus embeds every source and returns the populated corpus. It fails
// with ErrEmptyCorpus for no sources and with ErrDimensionMismatch when the
// embedder produces vectors of differing or zero length.
func BuildCorpus(ctx context.Context, embedder port.Embedder, sources []domain.Source, opts CorpusOptions) (*Corpus, error) {
	if len(sources) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	texts := make([]string, len(sources))
	docs := make([]domain.Document, len(sources))
	for i, s := range sources {
		texts[i] = s.Text
		docs[i] = domain.Document{ID: i, Name: s.Name, Text: s.Text}
	}

	if f, ok := embedder.(port.CorpusFitter); ok {
		if err := f.Fit(texts); err != nil {
			return nil, fmt.Errorf("failed to fit embedder: %w", err)
		}
	}

	vectors := make([][]float32, len(texts))
	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for start := 0; start < len(texts); start += opts.BatchSize {
		start := start
		end := start + opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			batch, err := embedder.Embed(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embedding documents %d-%d: %w", start, end-1, err)
			}
			if len(batch) != end-start {
				return domain.NewError(domain.KindEmbedding,
					fmt.Sprintf("embedder returned %d vectors for %d documents", len(batch), end-start), nil)
			}
			copy(vectors[start:end], batch)

			mu.Lock()
			done += end - start
			if opts.Progress != nil {
				opts.Progress(done, len(texts))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, domain.DimensionMismatch(fmt.Sprintf("document %q", docs[0].Name), 1, 0)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, domain.DimensionMismatch(fmt.Sprintf("document %q", docs[i].Name), dim, len(v))
		}
	}

	logger.Info("corpus built",
		zap.Int("documents", len(docs)),
		zap.Int("dimension", dim),
		zap.String("model", embedder.ModelName()))

	return &Corpus{documents: docs, vectors: vectors, dimension: dim}, nil
}

// Len returns the number of documents.
func (c *Corpus) Len() int { return len(c.documents) }

// Dimension returns the shared vector length.
func (c *Corpus) Dimension() int { return c.dimension }

// Document returns the document at position i.
func (c *Corpus) Document(i int) domain.Document { return c.documents[i] }

// Documents returns the documents in ingestion order. The slice must not be modified.
func (c *Corpus) Documents() []domain.Document { return c.documents }

// Vectors returns the vectors aligned with Documents. The slices must not be modified.
func (c *Corpus) Vectors() [][]float32 { return c.vectors }

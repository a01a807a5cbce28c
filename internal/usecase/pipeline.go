package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// PipelineConfig is fixed when the pipeline is built.
type PipelineConfig struct {
	TopK          int  `validate:"gt=0"`
	ContextBudget int  `validate:"gte=0"`
	Unit          Unit `validate:"omitempty,oneof=rune grapheme"`
	Sampling      domain.SamplingConfig

	// EchoPrompt returns the prompt immediately followed by the raw
	// continuation instead of the trimmed completion alone.
	EchoPrompt bool
}

// Pipeline answers queries against a corpus: embed the query, search the
// index, assemble the context, render the prompt and generate.
// It holds no per-query state and may be used from many goroutines.
type Pipeline struct {
	corpus    *Corpus
	index     port.SimilarityIndex
	embedder  port.Embedder
	generator port.Generator
	assembler *ContextAssembler
	cache     port.ResultCache
	cfg       PipelineConfig
	logger    *zap.Logger
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithResultCache reuses retrieval results for repeated queries. Retrieval
// is deterministic, so answers do not change; only embedder calls are saved.
func WithResultCache(c port.ResultCache) PipelineOption {
	return func(p *Pipeline) { p.cache = c }
}

// NewPipeline validates cfg and checks that index was built from corpus.
func NewPipeline(
	corpus *Corpus,
	index port.SimilarityIndex,
	embedder port.Embedder,
	generator port.Generator,
	cfg PipelineConfig,
	logger *zap.Logger,
	opts ...PipelineOption,
) (*Pipeline, error) {
	if corpus == nil || corpus.Len() == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if index == nil || embedder == nil || generator == nil {
		return nil, domain.InvalidArgument("pipeline needs an index, an embedder and a generator")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, domain.NewError(domain.KindInvalidArgument, "invalid pipeline config", err)
	}
	if index.Len() != corpus.Len() {
		return nil, domain.InvalidArgument("index holds %d vectors, corpus has %d documents", index.Len(), corpus.Len())
	}
	if index.Dimension() != corpus.Dimension() {
		return nil, domain.DimensionMismatch("index", corpus.Dimension(), index.Dimension())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Unit == "" {
		cfg.Unit = UnitRune
	}
	assembler, err := NewContextAssembler(cfg.Unit)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		corpus:    corpus,
		index:     index,
		embedder:  embedder,
		generator: generator,
		assembler: assembler,
		cfg:       cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() PipelineConfig { return p.cfg }

// Retrieve returns the TopK documents nearest to query, nearest first.
func (p *Pipeline) Retrieve(ctx context.Context, query string) ([]domain.ScoredDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.EmbeddingFailure("query is empty", nil)
	}
	if p.cache != nil {
		if results, ok := p.cache.Get(query, p.cfg.TopK); ok {
			return results, nil
		}
	}

	vectors, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, domain.EmbeddingFailure("failed to embed query", err)
	}
	if len(vectors) != 1 {
		return nil, domain.EmbeddingFailure(fmt.Sprintf("embedder returned %d vectors for one query", len(vectors)), nil)
	}

	hits, err := p.index.Search(vectors[0], p.cfg.TopK)
	if err != nil {
		return nil, domain.EmbeddingFailure("query vector does not fit the index", err)
	}

	results := make([]domain.ScoredDocument, len(hits))
	for i, h := range hits {
		results[i] = domain.ScoredDocument{Document: p.corpus.Document(h.Index), Distance: h.Distance}
	}
	if p.cache != nil {
		p.cache.Put(query, p.cfg.TopK, results)
	}
	return results, nil
}

// Run answers query and reports every intermediate product.
func (p *Pipeline) Run(ctx context.Context, query string) (*domain.Answer, error) {
	start := time.Now()

	results, err := p.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	contextText, err := p.assembler.Assemble(results, p.cfg.ContextBudget)
	if err != nil {
		return nil, err
	}
	prompt := BuildPrompt(contextText, query)

	raw, err := p.generator.Generate(ctx, prompt, p.cfg.Sampling)
	if err != nil {
		return nil, domain.GenerationFailure("generator failed", err)
	}
	continuation := strings.TrimPrefix(raw, prompt)
	completion := strings.TrimSpace(continuation)
	if completion == "" {
		return nil, domain.GenerationFailure("generator returned no text", nil)
	}

	text := completion
	if p.cfg.EchoPrompt {
		text = prompt + continuation
	}

	answer := &domain.Answer{
		Query:     query,
		Retrieved: results,
		Context:   contextText,
		Prompt:    prompt,
		Text:      text,
	}
	p.logger.Debug("query answered",
		zap.Strings("retrieved", answer.Names()),
		zap.Int("context_chars", len([]rune(contextText))),
		zap.String("model", p.generator.ModelName()),
		zap.Duration("elapsed", time.Since(start)))
	return answer, nil
}

// Answer returns only the generated answer text for query.
func (p *Pipeline) Answer(ctx context.Context, query string) (string, error) {
	a, err := p.Run(ctx, query)
	if err != nil {
		return "", err
	}
	return a.Text, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"docqa/config"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/fs"
	"docqa/internal/adapter/llm"
	"docqa/internal/adapter/vectorindex"
	"docqa/internal/domain"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

// app is everything a command needs to answer questions.
type app struct {
	pipeline *usecase.Pipeline
	corpus   *usecase.Corpus
	closers  []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}
}

// summary describes the loaded corpus in one line.
func (a *app) summary() string {
	return fmt.Sprintf("%d documents, dimension %d", a.corpus.Len(), a.corpus.Dimension())
}

// newApp loads the documents, embeds them and wires the pipeline. Progress is
// drawn on progressOut when it is non-nil.
func newApp(ctx context.Context, cfg *config.Config, root string, progressOut io.Writer) (*app, error) {
	a := &app{}

	docDir := cfg.Documents.Dir
	if !filepath.IsAbs(docDir) {
		docDir = filepath.Join(root, docDir)
	}
	var source port.DocumentSource = fs.NewWalker(cfg.Documents.Includes, cfg.Documents.Excludes)
	sources, err := source.Load(docDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no documents matching %v found in %s", domain.ErrEmptyCorpus, cfg.Documents.Includes, docDir)
	}
	logger.Info("documents loaded", zap.Int("count", len(sources)), zap.String("dir", docDir))

	embedder, err := newEmbedder(cfg, root)
	if err != nil {
		return nil, err
	}
	if c, ok := embedder.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	corpusOpts := usecase.CorpusOptions{
		BatchSize: cfg.Embedding.BatchSize,
		Workers:   cfg.Embedding.Workers,
		Logger:    logger,
	}
	if progressOut != nil {
		corpusOpts.Progress = newProgress(progressOut, len(sources))
	}
	corpus, err := usecase.BuildCorpus(ctx, embedder, sources, corpusOpts)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if ce, ok := embedder.(*embedding.CachedEmbedder); ok {
		hits, misses := ce.Stats()
		logger.Debug("embedding cache", zap.Int64("hits", hits), zap.Int64("misses", misses))
	}

	index, err := vectorindex.New(corpus.Vectors())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	unit, err := usecase.ParseUnit(cfg.Context.Unit)
	if err != nil {
		a.Close()
		return nil, err
	}
	var opts []usecase.PipelineOption
	if cfg.Retrieve.CacheSize > 0 {
		opts = append(opts, usecase.WithResultCache(cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)))
	}
	pipeline, err := usecase.NewPipeline(corpus, index, embedder, generator, usecase.PipelineConfig{
		TopK:          cfg.Retrieve.TopK,
		ContextBudget: cfg.Context.Budget,
		Unit:          unit,
		Sampling:      cfg.Generation.SamplingConfig,
		EchoPrompt:    cfg.Generation.EchoPrompt,
	}, logger, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.pipeline = pipeline
	a.corpus = corpus
	return a, nil
}

// newEmbedder creates the configured embedder, wrapped in the bbolt cache
// when embedding.cache_path is set.
func newEmbedder(cfg *config.Config, root string) (port.Embedder, error) {
	var (
		embedder port.Embedder
		err      error
	)
	ec := cfg.Embedding
	switch ec.Provider {
	case "tfidf":
		embedder = embedding.NewTFIDFEmbedder()
	case "mock":
		embedder = embedding.NewMockEmbedder(0)
	case "openai":
		embedder, err = embedding.NewOpenAICompatibleEmbedder(ec.APIKeyEnv, ec.Model, ec.BaseURL)
	case "ollama":
		embedder, err = embedding.NewOllamaEmbedder(ec.Model, ec.BaseURL)
	case "compatible":
		if ec.BaseURL == "" {
			return nil, fmt.Errorf("embedding.base_url is required for the compatible provider")
		}
		embedder, err = embedding.NewOpenAICompatibleEmbedder(ec.APIKeyEnv, ec.Model, ec.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	path := ec.CachePath
	if path == "" && useCache {
		path = config.CacheDBPath(root)
	}
	if path == "" {
		return embedder, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	cached, err := embedding.NewCachedEmbedder(path, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	return cached, nil
}

func newGenerator(cfg *config.Config) (port.Generator, error) {
	gc := cfg.Generation
	if gc.Provider == "extractive" {
		return llm.NewExtractiveGenerator(), nil
	}
	g, err := llm.NewChatGenerator(gc.Provider, gc.Model, gc.BaseURL, gc.APIKeyEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	return g, nil
}

// newProgress returns a corpus progress callback drawing a bar with an ETA.
func newProgress(w io.Writer, n int) func(done, total int) {
	bar := progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
	var mu sync.Mutex
	start := time.Now()
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		_ = bar.Set(done)
		if done > 0 && done < total {
			rate := float64(done) / time.Since(start).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

// withTimeout applies the --timeout flag to one question.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

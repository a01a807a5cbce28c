package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docqa/config"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/fs"
	"docqa/internal/adapter/vectorindex"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

func main() {
	rootDir := flag.String("dir", ".", "Directory holding docqa.yaml and the data folder")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 5, "Number of results")
	rounds := flag.Int("n", 1000, "Search repetitions for latency")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Corpus embedding time")
		fmt.Println("  2. Nearest documents with their squared distances")
		fmt.Println("  3. Exact search latency against a full sort")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	docDir := cfg.Documents.Dir
	if !filepath.IsAbs(docDir) {
		docDir = filepath.Join(*rootDir, docDir)
	}
	sources, err := fs.NewWalker(cfg.Documents.Includes, cfg.Documents.Excludes).Load(docDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading documents: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedding(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding not available: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	start := time.Now()
	corpus, err := usecase.BuildCorpus(ctx, embedder, sources, usecase.CorpusOptions{
		BatchSize: cfg.Embedding.BatchSize,
		Workers:   cfg.Embedding.Workers,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error embedding corpus: %v\n", err)
		os.Exit(1)
	}
	embedTime := time.Since(start)

	index, err := vectorindex.New(corpus.Vectors())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building index: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents:  %d\n", corpus.Len())
	fmt.Printf("Model:      %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension:  %d\n", corpus.Dimension())
	fmt.Printf("Embedded in %s\n\n", embedTime.Round(time.Millisecond))

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	queryVec, err := embedder.Embed(ctx, []string{*query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}

	hits, err := index.Search(queryVec[0], *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Top %d matches:\n\n", len(hits))
	for i, h := range hits {
		doc := corpus.Document(h.Index)
		preview := strings.ReplaceAll(usecase.Truncate(doc.Text, 150, usecase.UnitRune), "\n", " ")
		fmt.Printf("%d. [%.4f] %s\n", i+1, h.Distance, doc.Name)
		fmt.Printf("   %s\n\n", preview)
	}

	heapTime := timeIt(*rounds, func() { _, _ = index.Search(queryVec[0], *topK) })
	sortTime := timeIt(*rounds, func() { fullSort(index, queryVec[0], *topK) })

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("LATENCY (%d rounds):\n", *rounds)
	fmt.Printf("  Bounded heap: %s/query\n", heapTime)
	fmt.Printf("  Full sort:    %s/query\n", sortTime)
}

func setupEmbedding(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "tfidf":
		return embedding.NewTFIDFEmbedder(), nil
	case "mock":
		return embedding.NewMockEmbedder(0), nil
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "openai", "compatible":
		return embedding.NewOpenAICompatibleEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}

func timeIt(rounds int, fn func()) time.Duration {
	if rounds <= 0 {
		rounds = 1
	}
	start := time.Now()
	for i := 0; i < rounds; i++ {
		fn()
	}
	return time.Since(start) / time.Duration(rounds)
}

// fullSort ranks every vector and keeps the first k; the baseline the heap is measured against.
func fullSort(index *vectorindex.Flat, query []float32, k int) []port.Hit {
	hits := make([]port.Hit, index.Len())
	for i := range hits {
		hits[i] = port.Hit{Index: i, Distance: vectorindex.SquaredL2(query, index.Vector(i))}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Distance != hits[b].Distance {
			return hits[a].Distance < hits[b].Distance
		}
		return hits[a].Index < hits[b].Index
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

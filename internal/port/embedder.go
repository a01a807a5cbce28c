package port

import "context"

// Embedder turns texts into fixed-dimension vectors.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	// Every vector from one instance has the same length.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName identifies the model; it keys cached vectors.
	ModelName() string
}

// CorpusFitter is implemented by embedders that must see the whole corpus
// before they can encode (TF-IDF vocabularies, for instance).
type CorpusFitter interface {
	Fit(texts []string) error
}

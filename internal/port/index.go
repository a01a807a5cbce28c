package port

// Hit is one nearest-neighbor match: the position of the indexed vector and
// its squared Euclidean distance to the query.
type Hit struct {
	Index    int
	Distance float64
}

// SimilarityIndex answers exact k-nearest-neighbor queries.
type SimilarityIndex interface {
	// Search returns at most k hits ordered by ascending distance,
	// ties broken by ascending index.
	Search(query []float32, k int) ([]Hit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimension returns the length every indexed vector has.
	Dimension() int
}

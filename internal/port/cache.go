package port

import "docqa/internal/domain"

// ResultCache remembers retrieval results per query and k.
type ResultCache interface {
	Get(query string, k int) ([]domain.ScoredDocument, bool)
	Put(query string, k int, results []domain.ScoredDocument)
}

package port

import "docqa/internal/domain"

// DocumentSource yields the raw documents a corpus is built from.
type DocumentSource interface {
	Load(root string) ([]domain.Source, error)
}

package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures of the retrieval core.
type ErrorKind string

const (
	KindEmptyCorpus       ErrorKind = "empty_corpus"
	KindDimensionMismatch ErrorKind = "dimension_mismatch"
	KindEmbedding         ErrorKind = "embedding"
	KindGeneration        ErrorKind = "generation"
	KindInvalidArgument   ErrorKind = "invalid_argument"
)

// Error is a categorized error. Two errors match under errors.Is when their
// kinds are equal, so callers compare against the sentinels below.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a key/value pair and returns the same error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewError creates a categorized error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

var (
	ErrEmptyCorpus       = NewError(KindEmptyCorpus, "no documents supplied", nil)
	ErrDimensionMismatch = NewError(KindDimensionMismatch, "embedding dimension mismatch", nil)
	ErrEmbedding         = NewError(KindEmbedding, "embedding failed", nil)
	ErrGeneration        = NewError(KindGeneration, "generation failed", nil)
	ErrInvalidArgument   = NewError(KindInvalidArgument, "invalid argument", nil)
)

// DimensionMismatch reports a vector whose length differs from the expected dimension.
func DimensionMismatch(what string, expected, got int) *Error {
	return NewError(KindDimensionMismatch,
		fmt.Sprintf("%s: expected %d components, got %d", what, expected, got), nil).
		WithDetail("expected", expected).
		WithDetail("got", got)
}

// EmbeddingFailure wraps a query-time codec failure.
func EmbeddingFailure(message string, err error) *Error {
	return NewError(KindEmbedding, message, err)
}

// GenerationFailure wraps a generator failure.
func GenerationFailure(message string, err error) *Error {
	return NewError(KindGeneration, message, err)
}

// InvalidArgument reports a bad caller-supplied parameter.
func InvalidArgument(format string, args ...any) *Error {
	return NewError(KindInvalidArgument, fmt.Sprintf(format, args...), nil)
}

func IsEmptyCorpus(err error) bool       { return errors.Is(err, ErrEmptyCorpus) }
func IsDimensionMismatch(err error) bool { return errors.Is(err, ErrDimensionMismatch) }
func IsEmbedding(err error) bool         { return errors.Is(err, ErrEmbedding) }
func IsGeneration(err error) bool        { return errors.Is(err, ErrGeneration) }
func IsInvalidArgument(err error) bool   { return errors.Is(err, ErrInvalidArgument) }

package port

import (
	"context"

	"docqa/internal/domain"
)

// Generator produces text from a prompt.
type Generator interface {
	// Generate returns the generated text for prompt. Implementations may
	// echo the prompt at the start of their output.
	Generate(ctx context.Context, prompt string, cfg domain.SamplingConfig) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

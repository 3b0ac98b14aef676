// Package llm provides text generation backends for answer synthesis.
// Backends are interchangeable behind the Generator interface; the
// synthesizer never depends on a concrete provider.
package llm

import "context"

// Generator produces a completion for a prompt
type Generator interface {
	// Generate returns the model's completion for the given prompt
	Generate(ctx context.Context, prompt string) (string, error)
	// Model returns the name of the underlying model
	Model() string
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaModel is the model used when none is configured
const DefaultOllamaModel = "llama3.2"

// OllamaGenerator generates text with a locally hosted Ollama model
type OllamaGenerator struct {
	client *api.Client
	model  string
}

// Compile time interface check
var _ Generator = (*OllamaGenerator)(nil)

// NewOllamaGenerator creates a generator talking to the Ollama server
// configured via the OLLAMA_HOST environment variable
func NewOllamaGenerator(model string) (*OllamaGenerator, error) {
	if model == "" {
		model = DefaultOllamaModel
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &OllamaGenerator{client: client, model: model}, nil
}

// Generate returns the model's completion for the given prompt
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	request := &api.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var response strings.Builder
	err := g.client.Generate(ctx, request, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}

	return response.String(), nil
}

// Model returns the name of the underlying model
func (g *OllamaGenerator) Model() string {
	return g.model
}

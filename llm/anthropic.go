package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is the model used when none is configured
const DefaultAnthropicModel = anthropic.ModelClaudeSonnet4_0

// AnthropicGenerator generates text with the Anthropic API
type AnthropicGenerator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// Compile time interface check
var _ Generator = (*AnthropicGenerator)(nil)

// NewAnthropicGenerator creates a generator using the Anthropic API. The
// API key is read from the ANTHROPIC_API_KEY environment variable when
// apiKey is empty.
func NewAnthropicGenerator(apiKey string, model anthropic.Model) (*AnthropicGenerator, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &AnthropicGenerator{
		client:    client,
		model:     model,
		maxTokens: 1024,
	}, nil
}

// Generate returns the model's completion for the given prompt
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic generation failed: %w", err)
	}

	var response strings.Builder
	for _, block := range message.Content {
		if text := block.AsText(); text.Text != "" {
			response.WriteString(text.Text)
		}
	}

	return response.String(), nil
}

// Model returns the name of the underlying model
func (g *AnthropicGenerator) Model() string {
	return string(g.model)
}

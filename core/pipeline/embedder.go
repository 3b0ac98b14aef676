package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/newsgraph/helper"
)

// DefaultEmbedderModel is the sentence transformer used when no other
// backend is configured. It produces 384-dimensional embeddings.
const DefaultEmbedderModel = "sentence-transformers/all-MiniLM-L6-v2"

// DefaultEmbedderDim is the embedding dimension of DefaultEmbedderModel
const DefaultEmbedderDim = 384

// DefaultEmbedder creates an embedder using a local sentence transformer
// model, downloading it on first use
func DefaultEmbedder() (EmbedFunc, error) {
	return LocalEmbedder(DefaultEmbedderModel)
}

// LocalEmbedder creates an embedder running the given sentence transformer
// model in-process via hugot
func LocalEmbedder(modelName string) (EmbedFunc, error) {
	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(modelName)
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	// Create sentence transformers pipeline configuration
	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		// Generate embedding for the text
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		// Extract the first (and only) embedding
		embedding := result.Embeddings[0]
		return embedding, nil
	}, nil
}

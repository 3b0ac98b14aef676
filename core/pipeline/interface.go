// Package pipeline provides the embedding generation glue. The embedding
// backend is a capability behind a function type; callers must not assume
// a dimensionality beyond what is configured.
package pipeline

import (
	"time"

	cache "github.com/patrickmn/go-cache"
)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// CachedEmbedder wraps an embedder with an expiring in-memory cache keyed
// by the input text. The cache is safe for concurrent readers and callers;
// repeated queries for the same text skip the backend entirely.
func CachedEmbedder(embed EmbedFunc, ttl time.Duration) EmbedFunc {
	embeddings := cache.New(ttl, 2*ttl)

	return func(text string) ([]float32, error) {
		if cached, found := embeddings.Get(text); found {
			return cached.([]float32), nil
		}

		embedding, err := embed(text)
		if err != nil {
			return nil, err
		}

		embeddings.SetDefault(text, embedding)
		return embedding, nil
	}
}

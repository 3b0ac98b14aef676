// Package resolve decides whether a newly extracted entity mention refers
// to an already known canonical entity or to something new. Resolution is
// a pure decision; the caller performs the actual merge or create.
package resolve

import (
	"context"
	"log/slog"
	"sort"

	"github.com/siherrmann/newsgraph/core/normalize"
	"github.com/siherrmann/newsgraph/core/pipeline"
	"github.com/siherrmann/newsgraph/model"
)

// CandidateSource provides read access to existing canonical entities.
// The entities database handler satisfies this interface.
type CandidateSource interface {
	SelectEntityByKey(ctx context.Context, entityType model.EntityType, key string) (*model.Entity, error)
	SelectEntitiesByType(ctx context.Context, entityType model.EntityType, limit int) ([]*model.Entity, error)
	SelectEntitiesBySimilarity(ctx context.Context, embedding []float32, entityType *model.EntityType, limit int, threshold float64) ([]*model.ScoredEntity, error)
}

// Config holds the resolution thresholds. The defaults are starting
// points, not validated contracts; tune them against labeled data.
type Config struct {
	// FuzzyThreshold is the minimum string similarity for a fuzzy match
	FuzzyThreshold float64
	// EmbeddingThreshold is the minimum cosine similarity for an embedding match
	EmbeddingThreshold float64
	// AmbiguityMargin is the score distance under which two candidates
	// are considered a tie, broken by mention count
	AmbiguityMargin float64
	// CandidateLimit caps how many same-type entities are considered for
	// fuzzy and embedding comparison
	CandidateLimit int
}

// DefaultConfig returns the default resolution thresholds
func DefaultConfig() *Config {
	return &Config{
		FuzzyThreshold:     0.90,
		EmbeddingThreshold: 0.85,
		AmbiguityMargin:    0.02,
		CandidateLimit:     200,
	}
}

// Resolution is the decision for a single mention. Match is nil when the
// mention should become a new entity.
type Resolution struct {
	Match      *model.Entity
	Confidence float64
	Method     string // "exact", "fuzzy", "embedding" or "new"
}

// Resolver matches entity mentions against the existing canonical graph
type Resolver struct {
	source CandidateSource
	embed  pipeline.EmbedFunc // optional, embedding step is skipped when nil
	config *Config
	log    *slog.Logger
}

// NewResolver creates a resolver over the given candidate source.
// The embedder may be nil; resolution then degrades to string matching only.
func NewResolver(source CandidateSource, embed pipeline.EmbedFunc, config *Config, logger *slog.Logger) *Resolver {
	if config == nil {
		config = DefaultConfig()
	}
	return &Resolver{
		source: source,
		embed:  embed,
		config: config,
		log:    logger,
	}
}

// SetEmbedder sets the embedding function for the embedding-similarity step
func (r *Resolver) SetEmbedder(embed pipeline.EmbedFunc) {
	r.embed = embed
}

// Resolve decides the merge target for a mention, in order of decreasing
// precedence: exact canonical key, fuzzy string similarity, embedding
// similarity. For a fixed graph state the decision is deterministic.
func (r *Resolver) Resolve(ctx context.Context, mention model.EntityMention) (*Resolution, error) {
	key := normalize.Key(mention.Name, mention.Type)

	// 1. Exact key match, cheapest and most certain
	existing, err := r.source.SelectEntityByKey(ctx, mention.Type, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Resolution{Match: existing, Confidence: 1.0, Method: "exact"}, nil
	}

	// 2. Fuzzy string match against same-type candidates
	candidates, err := r.source.SelectEntitiesByType(ctx, mention.Type, r.config.CandidateLimit)
	if err != nil {
		return nil, err
	}

	var fuzzy []scoredCandidate
	for _, candidate := range candidates {
		score := TokenSetRatio(key, candidate.CanonicalKey)
		if score >= r.config.FuzzyThreshold {
			fuzzy = append(fuzzy, scoredCandidate{entity: candidate, score: score})
		}
	}
	if len(fuzzy) > 0 {
		best := r.pickBest(fuzzy, mention.Name)
		return &Resolution{Match: best.entity, Confidence: best.score, Method: "fuzzy"}, nil
	}

	// 3. Embedding similarity, best effort; a missing or failing embedding
	// backend degrades to string-only matching
	embedding := mention.Embedding
	if embedding == nil && r.embed != nil && mention.Description != "" {
		embedding, err = r.embed(mention.Description)
		if err != nil {
			r.log.Warn("Embedding backend unavailable, resolving by string only",
				slog.String("mention", mention.Name), slog.Any("error", err))
			embedding = nil
		}
	}
	if embedding != nil {
		mentionType := mention.Type
		scored, err := r.source.SelectEntitiesBySimilarity(ctx, embedding, &mentionType, r.config.CandidateLimit, r.config.EmbeddingThreshold)
		if err != nil {
			return nil, err
		}

		var similar []scoredCandidate
		for _, s := range scored {
			similar = append(similar, scoredCandidate{entity: s.Entity, score: s.Similarity})
		}
		if len(similar) > 0 {
			best := r.pickBest(similar, mention.Name)
			return &Resolution{Match: best.entity, Confidence: best.score, Method: "embedding"}, nil
		}
	}

	return &Resolution{Match: nil, Confidence: 0, Method: "new"}, nil
}

type scoredCandidate struct {
	entity *model.Entity
	score  float64
}

// pickBest orders candidates by score, breaking near-ties by mention count
// (prefer merging into the more established entity). A near-tie is logged
// as ambiguous but never fails the resolution.
func (r *Resolver) pickBest(candidates []scoredCandidate, mentionName string) scoredCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].entity.MentionCount != candidates[j].entity.MentionCount {
			return candidates[i].entity.MentionCount > candidates[j].entity.MentionCount
		}
		return candidates[i].entity.Name < candidates[j].entity.Name
	})

	if len(candidates) > 1 && candidates[0].score-candidates[1].score <= r.config.AmbiguityMargin {
		best := candidates[0]
		second := candidates[1]
		if second.entity.MentionCount > best.entity.MentionCount {
			candidates[0], candidates[1] = second, best
		}
		r.log.Warn("Ambiguous resolution, picked more established candidate",
			slog.String("mention", mentionName),
			slog.String("picked", candidates[0].entity.Name),
			slog.String("runner_up", candidates[1].entity.Name),
		)
	}

	return candidates[0]
}

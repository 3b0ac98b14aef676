// Package score computes relationship strength from corroboration and
// recency. Scoring is a pure function of its inputs, so recomputation
// after each new mention is idempotent and never drifts.
package score

import (
	"math"
	"time"

	"github.com/siherrmann/newsgraph/model"
)

// Config holds the scoring weights and decay parameters
type Config struct {
	// MentionWeight scales the contribution of raw mention counts
	MentionWeight float64
	// SourceWeight scales the contribution of distinct corroborating
	// documents; source diversity is worth more than repetition
	SourceWeight float64
	// RecencyFloor is the lowest the recency factor can decay to, so a
	// heavily corroborated but old relationship never scores zero
	RecencyFloor float64
	// DefaultHalfLife is the staleness half-life for relationship types
	// without an explicit entry in HalfLives
	DefaultHalfLife time.Duration
	// HalfLives overrides the half-life per relationship type; structural
	// facts (founders, acquisitions) stay valid far longer than market
	// relationships
	HalfLives map[model.RelationshipType]time.Duration
}

// DefaultConfig returns the default scoring parameters
func DefaultConfig() *Config {
	day := 24 * time.Hour
	return &Config{
		MentionWeight:   0.5,
		SourceWeight:    0.8,
		RecencyFloor:    0.25,
		DefaultHalfLife: 180 * day,
		HalfLives: map[model.RelationshipType]time.Duration{
			model.RelationshipFoundedBy:    3650 * day, // effectively permanent
			model.RelationshipAcquired:     3650 * day,
			model.RelationshipFundedBy:     720 * day,
			model.RelationshipWorksAt:      365 * day,
			model.RelationshipCompetesWith: 180 * day,
			model.RelationshipPartnersWith: 365 * day,
		},
	}
}

// Scorer computes relationship strength values in [0, 1]
type Scorer struct {
	config *Config
}

// NewScorer creates a scorer with the given configuration, falling back to
// defaults when nil
func NewScorer(config *Config) *Scorer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Scorer{config: config}
}

// Score computes the strength of a relationship as of now
func (s *Scorer) Score(relType model.RelationshipType, mentionCount, sourceCount int, lastSeen time.Time) float64 {
	return s.ScoreAt(relType, mentionCount, sourceCount, lastSeen, time.Now())
}

// ScoreAt computes the strength of a relationship as of a fixed point in
// time. Strength is monotonically increasing in mention and source counts
// with diminishing returns, and decays with staleness toward the recency
// floor. The recency factor is independent of the counts, so increasing
// corroboration never lowers the score.
func (s *Scorer) ScoreAt(relType model.RelationshipType, mentionCount, sourceCount int, lastSeen time.Time, asOf time.Time) float64 {
	if mentionCount < 0 {
		mentionCount = 0
	}
	if sourceCount < 0 {
		sourceCount = 0
	}

	// Saturating corroboration: log scaling gives diminishing returns,
	// the exponential maps it into [0, 1)
	evidence := s.config.MentionWeight*math.Log1p(float64(mentionCount)) +
		s.config.SourceWeight*math.Log1p(float64(sourceCount))
	corroboration := 1 - math.Exp(-evidence)

	recency := s.recencyFactor(relType, lastSeen, asOf)

	return corroboration * recency
}

// recencyFactor decays exponentially with the age of the latest mention,
// from 1 at age zero toward the configured floor
func (s *Scorer) recencyFactor(relType model.RelationshipType, lastSeen time.Time, asOf time.Time) float64 {
	if lastSeen.IsZero() {
		return s.config.RecencyFloor
	}

	age := asOf.Sub(lastSeen)
	if age <= 0 {
		return 1.0
	}

	halfLife := s.config.DefaultHalfLife
	if hl, ok := s.config.HalfLives[relType]; ok {
		halfLife = hl
	}

	decay := math.Exp(-math.Ln2 * age.Hours() / halfLife.Hours())
	return s.config.RecencyFloor + (1-s.config.RecencyFloor)*decay
}

package score

import (
	"testing"
	"time"

	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
)

func TestScoreAt(t *testing.T) {
	scorer := NewScorer(nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Strength in unit interval", func(t *testing.T) {
		for _, mentions := range []int{0, 1, 5, 100, 10000} {
			strength := scorer.ScoreAt(model.RelationshipFundedBy, mentions, mentions, now, now)
			assert.GreaterOrEqual(t, strength, 0.0, "Expected strength to be at least 0")
			assert.LessOrEqual(t, strength, 1.0, "Expected strength to be at most 1")
		}
	})

	t.Run("Monotonically increasing in mention count", func(t *testing.T) {
		previous := -1.0
		for _, mentions := range []int{0, 1, 2, 5, 20, 100} {
			strength := scorer.ScoreAt(model.RelationshipFundedBy, mentions, 1, now, now)
			assert.Greater(t, strength, previous, "Expected strength to grow with mention count")
			previous = strength
		}
	})

	t.Run("Monotonically increasing in source count", func(t *testing.T) {
		previous := -1.0
		for _, sources := range []int{0, 1, 2, 5, 20} {
			strength := scorer.ScoreAt(model.RelationshipFundedBy, 5, sources, now, now)
			assert.Greater(t, strength, previous, "Expected strength to grow with source count")
			previous = strength
		}
	})

	t.Run("Diminishing returns", func(t *testing.T) {
		gainEarly := scorer.ScoreAt(model.RelationshipFundedBy, 2, 1, now, now) -
			scorer.ScoreAt(model.RelationshipFundedBy, 1, 1, now, now)
		gainLate := scorer.ScoreAt(model.RelationshipFundedBy, 101, 1, now, now) -
			scorer.ScoreAt(model.RelationshipFundedBy, 100, 1, now, now)
		assert.Greater(t, gainEarly, gainLate, "Expected the 2nd mention to add more than the 101st")
	})

	t.Run("Source diversity beats repetition", func(t *testing.T) {
		manySources := scorer.ScoreAt(model.RelationshipFundedBy, 5, 5, now, now)
		oneSource := scorer.ScoreAt(model.RelationshipFundedBy, 5, 1, now, now)
		assert.Greater(t, manySources, oneSource, "Expected corroboration across documents to score higher")
	})

	t.Run("Staleness decays strength", func(t *testing.T) {
		fresh := scorer.ScoreAt(model.RelationshipCompetesWith, 10, 5, now, now)
		stale := scorer.ScoreAt(model.RelationshipCompetesWith, 10, 5, now.AddDate(-2, 0, 0), now)
		assert.Greater(t, fresh, stale, "Expected an old last mention to score lower")
	})

	t.Run("Decay never goes below the floor", func(t *testing.T) {
		ancient := scorer.ScoreAt(model.RelationshipCompetesWith, 1000, 1000, now.AddDate(-50, 0, 0), now)
		nearlyFull := scorer.ScoreAt(model.RelationshipCompetesWith, 1000, 1000, now, now)
		assert.Greater(t, ancient, nearlyFull*DefaultConfig().RecencyFloor*0.99, "Expected the recency floor to hold")
	})

	t.Run("Structural facts decay slower", func(t *testing.T) {
		lastSeen := now.AddDate(-1, 0, 0)
		founded := scorer.ScoreAt(model.RelationshipFoundedBy, 10, 5, lastSeen, now)
		competes := scorer.ScoreAt(model.RelationshipCompetesWith, 10, 5, lastSeen, now)
		assert.Greater(t, founded, competes, "Expected FOUNDED_BY to outlast COMPETES_WITH at equal age")
	})

	t.Run("Zero last seen uses the floor", func(t *testing.T) {
		strength := scorer.ScoreAt(model.RelationshipFundedBy, 10, 5, time.Time{}, now)
		withFloor := scorer.ScoreAt(model.RelationshipFundedBy, 10, 5, now, now) * DefaultConfig().RecencyFloor
		assert.InDelta(t, withFloor, strength, 1e-9, "Expected an unknown last seen to be scored at the floor")
	})

	t.Run("Future last seen counts as fresh", func(t *testing.T) {
		strength := scorer.ScoreAt(model.RelationshipFundedBy, 10, 5, now.Add(time.Hour), now)
		fresh := scorer.ScoreAt(model.RelationshipFundedBy, 10, 5, now, now)
		assert.Equal(t, fresh, strength, "Expected clock skew to not exceed full freshness")
	})

	t.Run("Negative counts clamp to zero", func(t *testing.T) {
		strength := scorer.ScoreAt(model.RelationshipFundedBy, -3, -1, now, now)
		assert.Equal(t, 0.0, strength, "Expected negative counters to score zero")
	})

	t.Run("Deterministic for fixed inputs", func(t *testing.T) {
		first := scorer.ScoreAt(model.RelationshipFundedBy, 7, 3, now.AddDate(0, -1, 0), now)
		second := scorer.ScoreAt(model.RelationshipFundedBy, 7, 3, now.AddDate(0, -1, 0), now)
		assert.Equal(t, first, second, "Expected identical inputs to score identically")
	})
}

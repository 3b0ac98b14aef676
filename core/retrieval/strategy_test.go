package retrieval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForIntent(t *testing.T) {
	t.Run("Every intent kind has a strategy", func(t *testing.T) {
		assert.IsType(t, &ProfileStrategy{}, ForIntent(model.IntentEntityProfile))
		assert.IsType(t, &ComparisonStrategy{}, ForIntent(model.IntentComparison))
		assert.IsType(t, &InvestmentStrategy{}, ForIntent(model.IntentInvestmentInfo))
		assert.IsType(t, &TrendStrategy{}, ForIntent(model.IntentTrendAnalysis))
		assert.IsType(t, &MultiHopStrategy{}, ForIntent(model.IntentMultiHop))
		assert.IsType(t, &SemanticStrategy{}, ForIntent(model.IntentGeneral))
	})

	t.Run("Unknown intent falls back to semantic", func(t *testing.T) {
		assert.IsType(t, &SemanticStrategy{}, ForIntent(model.IntentKind("weather_forecast")))
	})
}

func TestProfileStrategy(t *testing.T) {
	source := newFakeSource()
	acme := source.addEntity("Acme", model.EntityTypeCompany)
	fund := source.addEntity("Fund One", model.EntityTypeInvestor)
	source.addEdge(acme, fund, model.RelationshipFundedBy, 0.8)
	engine := testEngine(source)

	t.Run("Resolved subject yields profile and neighborhood", func(t *testing.T) {
		intent := &model.Intent{Kind: model.IntentEntityProfile, Subjects: []string{"Acme"}}
		retrieved, err := (&ProfileStrategy{}).Retrieve(context.Background(), engine, intent, "Who is Acme?", nil)
		require.NoError(t, err)

		assert.Equal(t, "profile", retrieved.Method, "Expected the profile method")
		require.Len(t, retrieved.Profiles, 1, "Expected one profile")
		assert.Equal(t, acme.ID, retrieved.Profiles[0].Entity.ID, "Expected the Acme profile")
		require.NotNil(t, retrieved.Subgraph, "Expected a neighborhood subgraph")
		assert.NotNil(t, retrieved.Subgraph.Node(fund.ID), "Expected the investor in the neighborhood")
	})

	t.Run("Unknown subject falls back to semantic", func(t *testing.T) {
		intent := &model.Intent{Kind: model.IntentEntityProfile, Subjects: []string{"Nonexistent Corp"}}
		retrieved, err := (&ProfileStrategy{}).Retrieve(context.Background(), engine, intent, "Who is Nonexistent Corp?", nil)
		require.NoError(t, err)
		assert.Equal(t, "semantic", retrieved.Method, "Expected the semantic fallback")
	})
}

func TestComparisonStrategy(t *testing.T) {
	source := newFakeSource()
	acme := source.addEntity("Acme", model.EntityTypeCompany)
	zenith := source.addEntity("Zenith", model.EntityTypeCompany)
	fund := source.addEntity("Fund One", model.EntityTypeInvestor)
	// Shared investor connects both compared companies
	source.addEdge(acme, fund, model.RelationshipFundedBy, 0.8)
	source.addEdge(zenith, fund, model.RelationshipFundedBy, 0.7)
	engine := testEngine(source)

	intent := &model.Intent{Kind: model.IntentComparison, Subjects: []string{"Acme", "Zenith"}}
	retrieved, err := (&ComparisonStrategy{}).Retrieve(context.Background(), engine, intent, "Compare Acme and Zenith", nil)
	require.NoError(t, err)

	assert.Equal(t, "comparison", retrieved.Method, "Expected the comparison method")
	assert.Len(t, retrieved.Profiles, 2, "Expected a profile per compared entity")
	require.NotNil(t, retrieved.Subgraph)
	assert.NotNil(t, retrieved.Subgraph.Node(fund.ID), "Expected the shared investor in the overlap subgraph")

	t.Run("Single resolved subject degrades to profile", func(t *testing.T) {
		intent := &model.Intent{Kind: model.IntentComparison, Subjects: []string{"Acme", "Nonexistent Corp"}}
		retrieved, err := (&ComparisonStrategy{}).Retrieve(context.Background(), engine, intent, "Compare Acme and Nonexistent Corp", nil)
		require.NoError(t, err)
		assert.Equal(t, "profile", retrieved.Method, "Expected the profile fallback")
	})
}

func TestInvestmentStrategy(t *testing.T) {
	source := newFakeSource()
	acme := source.addEntity("Acme", model.EntityTypeCompany)
	fund := source.addEntity("Fund One", model.EntityTypeInvestor)
	partner := source.addEntity("Partner Co", model.EntityTypeCompany)
	source.addEdge(acme, fund, model.RelationshipFundedBy, 0.9)
	source.addEdge(acme, partner, model.RelationshipPartnersWith, 0.9)
	engine := testEngine(source)

	intent := &model.Intent{Kind: model.IntentInvestmentInfo, Subjects: []string{"Acme"}}
	retrieved, err := (&InvestmentStrategy{}).Retrieve(context.Background(), engine, intent, "Who funded Acme?", nil)
	require.NoError(t, err)

	assert.Equal(t, "investment", retrieved.Method, "Expected the investment method")
	require.NotNil(t, retrieved.Subgraph)
	assert.NotNil(t, retrieved.Subgraph.Node(fund.ID), "Expected the funding edge followed")
	assert.Nil(t, retrieved.Subgraph.Node(partner.ID), "Expected non-funding edges filtered out")
}

func TestTrendStrategy(t *testing.T) {
	source := newFakeSource()
	acme := source.addEntity("Acme", model.EntityTypeCompany)
	source.similarities[acme.ID] = 0.9
	source.communities = []*model.Community{
		{ID: 1, Label: "Acme", MemberIDs: []uuid.UUID{acme.ID}, Size: 2},
	}
	engine := testEngine(source)
	engine.SetEmbedder(stubEmbed)

	intent := &model.Intent{Kind: model.IntentTrendAnalysis}
	retrieved, err := (&TrendStrategy{}).Retrieve(context.Background(), engine, intent, "What is trending in AI?", nil)
	require.NoError(t, err)

	assert.Equal(t, "trend", retrieved.Method, "Expected the trend method")
	assert.NotEmpty(t, retrieved.Results, "Expected semantic results")
}

func TestMultiHopStrategy(t *testing.T) {
	source := newFakeSource()
	acme := source.addEntity("Acme", model.EntityTypeCompany)
	fund := source.addEntity("Fund One", model.EntityTypeInvestor)
	zenith := source.addEntity("Zenith", model.EntityTypeCompany)
	source.addEdge(acme, fund, model.RelationshipFundedBy, 0.9)
	source.addEdge(fund, zenith, model.RelationshipFundedBy, 0.8)
	engine := testEngine(source)

	intent := &model.Intent{Kind: model.IntentMultiHop, Subjects: []string{"Acme"}}
	retrieved, err := (&MultiHopStrategy{}).Retrieve(context.Background(), engine, intent, "How is Acme connected to Zenith?", nil)
	require.NoError(t, err)

	assert.Equal(t, "multi_hop", retrieved.Method, "Expected the multi-hop method")
	require.NotNil(t, retrieved.Subgraph)
	assert.NotNil(t, retrieved.Subgraph.Node(zenith.ID), "Expected the two-hop entity reached")

	scores := map[string]float64{}
	distances := map[string]int{}
	for _, result := range retrieved.Results {
		scores[result.Entity.Name] = result.Score
		distances[result.Entity.Name] = result.GraphDistance
	}
	assert.Equal(t, 1.0, scores["Acme"], "Expected the seed to score 1.0")
	assert.Equal(t, 0, distances["Acme"], "Expected the seed at distance 0")
	assert.Equal(t, 1, distances["Fund One"], "Expected the investor one hop away")
	assert.Equal(t, 2, distances["Zenith"], "Expected Zenith two hops away")
	assert.Greater(t, scores["Fund One"], scores["Zenith"], "Expected closer entities to score higher")

	t.Run("No subjects falls back to semantic", func(t *testing.T) {
		intent := &model.Intent{Kind: model.IntentMultiHop}
		retrieved, err := (&MultiHopStrategy{}).Retrieve(context.Background(), engine, intent, "how are things connected?", nil)
		require.NoError(t, err)
		assert.Equal(t, "semantic", retrieved.Method, "Expected the semantic fallback")
	})
}

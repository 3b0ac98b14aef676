package newsgraph

import (
	"context"
	"hash/fnv"
	"log"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/core/pipeline"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

// testEmbedder creates a deterministic embedder for testing. The same text
// always maps to the same vector and different texts map to vectors that are
// close to orthogonal, so only exact text matches score high.
func testEmbedder(dimension int) pipeline.EmbedFunc {
	return func(text string) ([]float32, error) {
		seed := fnv.New64a()
		seed.Write([]byte(text))
		random := rand.New(rand.NewSource(int64(seed.Sum64())))

		embedding := make([]float32, dimension)
		for i := range embedding {
			embedding[i] = float32(random.NormFloat64())
		}
		return embedding, nil
	}
}

func initNewsgraph(t *testing.T) *Newsgraph {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	n, err := NewNewsgraph(dbConfig, 384)
	require.NoError(t, err, "failed to create newsgraph")
	require.NotNil(t, n, "expected newsgraph to be non-nil")

	n.SetEmbedder(testEmbedder(384))
	purgeGraph(t, n)

	t.Cleanup(func() {
		n.Close()
	})

	return n
}

// purgeGraph empties the shared test database so every test starts from a
// clean graph. Deleting entities cascades to their relationships.
func purgeGraph(t *testing.T, n *Newsgraph) {
	t.Helper()
	ctx := context.Background()

	documents, err := n.Documents.SelectAllDocuments(ctx, 10000)
	require.NoError(t, err)
	for _, document := range documents {
		require.NoError(t, n.Documents.DeleteDocument(ctx, document.Key))
	}

	for _, entityType := range model.AllEntityTypes {
		entities, err := n.Entities.SelectEntitiesByType(ctx, entityType, 10000)
		require.NoError(t, err)
		for _, entity := range entities {
			require.NoError(t, n.Entities.DeleteEntity(ctx, entity.ID))
		}
	}

	require.NoError(t, n.Communities.ReplaceCommunities(ctx, nil))
}

func TestNewNewsgraph(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewNewsgraph", func(t *testing.T) {
		n, err := NewNewsgraph(dbConfig, 384)
		require.NoError(t, err, "Expected NewNewsgraph to not return an error")
		require.NotNil(t, n, "Expected NewNewsgraph to return a non-nil instance")
		assert.NotNil(t, n.DB, "Expected newsgraph to have a database instance")
		assert.NotNil(t, n.Entities, "Expected newsgraph to have an entities handler")
		assert.NotNil(t, n.Relationships, "Expected newsgraph to have a relationships handler")
		assert.NotNil(t, n.Documents, "Expected newsgraph to have a documents handler")
		assert.NotNil(t, n.Communities, "Expected newsgraph to have a communities handler")
		assert.NotNil(t, n.Builder, "Expected newsgraph to have a builder")
		assert.NotNil(t, n.Router, "Expected newsgraph to have a router")
		assert.NotNil(t, n.Engine, "Expected newsgraph to have a retrieval engine")
		assert.NotNil(t, n.Synthesizer, "Expected newsgraph to have a synthesizer")
		assert.NotNil(t, n.Detector, "Expected newsgraph to have a community detector")

		// Cleanup
		err = n.Close()
		assert.NoError(t, err, "Expected Close to not return an error")
	})

	t.Run("Newsgraph with nil database handles Close gracefully", func(t *testing.T) {
		n := &Newsgraph{}
		err := n.Close()
		assert.NoError(t, err, "Expected Close to handle nil DB gracefully")
	})
}

// ingestSampleNews applies two overlapping extraction outputs: the second
// document mentions the same company under a legal suffix variant and
// corroborates the funding relationship.
func ingestSampleNews(t *testing.T, n *Newsgraph) *model.UpsertReport {
	t.Helper()
	ctx := context.Background()
	publishedAt := time.Now().Add(-24 * time.Hour)

	firstReport, err := n.IngestExtraction(ctx,
		&model.Document{
			Key:         "techwire-2026-0142",
			Title:       "Acme AI raises Series B from Northbridge Capital",
			Source:      "techwire",
			PublishedAt: &publishedAt,
		},
		[]model.EntityMention{
			{Name: "Acme AI", Type: model.EntityTypeCompany, Description: "Acme AI builds robotics control software."},
			{Name: "Northbridge Capital", Type: model.EntityTypeInvestor, Description: "Northbridge Capital is a venture firm."},
			{Name: "Jane Moreau", Type: model.EntityTypePerson, Description: "Jane Moreau founded Acme AI."},
		},
		[]model.RelationshipMention{
			{
				SourceName: "Acme AI", SourceType: model.EntityTypeCompany,
				TargetName: "Northbridge Capital", TargetType: model.EntityTypeInvestor,
				Type: model.RelationshipFundedBy,
			},
			{
				SourceName: "Acme AI", SourceType: model.EntityTypeCompany,
				TargetName: "Jane Moreau", TargetType: model.EntityTypePerson,
				Type: model.RelationshipFoundedBy,
			},
		},
	)
	require.NoError(t, err, "Expected the first ingest to not return an error")
	require.Equal(t, 3, firstReport.EntitiesCreated, "Expected three new entities from the first document")
	require.Equal(t, 2, firstReport.RelationshipsCreated, "Expected two new relationships from the first document")

	secondReport, err := n.IngestExtraction(ctx,
		&model.Document{
			Key:         "bizdaily-2026-0089",
			Title:       "Northbridge Capital doubles down on robotics",
			Source:      "bizdaily",
			PublishedAt: &publishedAt,
		},
		[]model.EntityMention{
			{Name: "Acme AI Inc.", Type: model.EntityTypeCompany, Description: "Robotics software maker backed by Northbridge."},
			{Name: "Northbridge Capital", Type: model.EntityTypeInvestor},
		},
		[]model.RelationshipMention{
			{
				SourceName: "Acme AI Inc.", SourceType: model.EntityTypeCompany,
				TargetName: "Northbridge Capital", TargetType: model.EntityTypeInvestor,
				Type: model.RelationshipFundedBy,
			},
		},
	)
	require.NoError(t, err, "Expected the second ingest to not return an error")
	return secondReport
}

func TestIngestExtraction(t *testing.T) {
	n := initNewsgraph(t)
	ctx := context.Background()

	report := ingestSampleNews(t, n)

	t.Run("Name variant merges instead of creating", func(t *testing.T) {
		assert.Equal(t, 0, report.EntitiesCreated, "Expected no new entities from the overlapping document")
		assert.Equal(t, 2, report.EntitiesMerged, "Expected both mentions folded into existing entities")
	})

	t.Run("Corroborated relationship is strengthened", func(t *testing.T) {
		assert.Equal(t, 0, report.RelationshipsCreated, "Expected no new relationship")
		assert.Equal(t, 1, report.RelationshipsStrengthened, "Expected the funding edge strengthened")

		acme, err := n.Entities.SelectEntityByKey(ctx, model.EntityTypeCompany, "acme ai")
		require.NoError(t, err)
		require.NotNil(t, acme, "Expected the merged company to resolve by key")

		fund, err := n.Entities.SelectEntityByKey(ctx, model.EntityTypeInvestor, "northbridge capital")
		require.NoError(t, err)
		require.NotNil(t, fund)

		edge, err := n.Relationships.SelectRelationshipBetween(ctx, acme.ID, model.RelationshipFundedBy, fund.ID)
		require.NoError(t, err)
		require.NotNil(t, edge, "Expected the funding edge to exist")
		assert.Equal(t, 2, edge.MentionCount, "Expected two mentions of the funding edge")
		assert.Equal(t, 2, edge.SourceCount, "Expected two corroborating documents")
		assert.Greater(t, edge.Strength, 0.0, "Expected a computed strength")
	})

	t.Run("Replay of a processed document is a no-op", func(t *testing.T) {
		replay, err := n.IngestExtraction(ctx,
			&model.Document{Key: "techwire-2026-0142"},
			[]model.EntityMention{
				{Name: "Acme AI", Type: model.EntityTypeCompany},
			},
			nil,
		)
		require.NoError(t, err, "Expected the replay to not return an error")
		assert.True(t, replay.AlreadyProcessed, "Expected the document recognized as processed")

		acme, err := n.Entities.SelectEntityByKey(ctx, model.EntityTypeCompany, "acme ai")
		require.NoError(t, err)
		assert.Equal(t, 2, acme.MentionCount, "Expected the mention count unchanged by the replay")
	})
}

func TestAsk(t *testing.T) {
	n := initNewsgraph(t)
	ctx := context.Background()
	ingestSampleNews(t, n)

	t.Run("Funding question answered from the graph", func(t *testing.T) {
		answer, err := n.Ask(ctx, "Who is Acme AI funded by?")
		require.NoError(t, err, "Expected Ask to not return an error")
		require.NotNil(t, answer, "Expected an answer")

		assert.Equal(t, model.IntentInvestmentInfo, answer.Intent.Kind, "Expected the funding question routed to investment info")
		assert.True(t, answer.Degraded, "Expected a degraded answer without an LLM backend")
		assert.Contains(t, answer.Text, "Northbridge Capital", "Expected the investor in the answer")
		assert.Contains(t, answer.Text, "FUNDED_BY", "Expected the funding relationship in the answer")
	})

	t.Run("Comparison question profiles both subjects", func(t *testing.T) {
		answer, err := n.Ask(ctx, "Compare Acme AI and Northbridge Capital")
		require.NoError(t, err)
		require.NotNil(t, answer)

		assert.Equal(t, model.IntentComparison, answer.Intent.Kind, "Expected the question routed to comparison")
		assert.Contains(t, answer.Text, "Relationships of Acme AI", "Expected the company profile rendered")
		assert.Contains(t, answer.Text, "Relationships of Northbridge Capital", "Expected the investor profile rendered")
	})

	t.Run("Empty question is an error", func(t *testing.T) {
		_, err := n.Ask(ctx, "")
		assert.Error(t, err, "Expected an empty question to be rejected")
	})
}

func TestSearchProfileAndTraverse(t *testing.T) {
	n := initNewsgraph(t)
	ctx := context.Background()
	ingestSampleNews(t, n)

	acme, err := n.Entities.SelectEntityByKey(ctx, model.EntityTypeCompany, "acme ai")
	require.NoError(t, err)
	require.NotNil(t, acme)

	t.Run("Semantic search finds the embedded entity", func(t *testing.T) {
		// The test embedder only matches exact text, so query with the
		// description the entity was embedded from
		results, err := n.Search(ctx, "Acme AI builds robotics control software.", nil)
		require.NoError(t, err, "Expected Search to not return an error")
		require.NotEmpty(t, results, "Expected a search result")
		assert.Equal(t, acme.ID, results[0].Entity.ID, "Expected the company as best match")
		assert.Equal(t, "vector", results[0].RetrievalMethod, "Expected the vector method")
	})

	t.Run("Profile lists the strongest neighbors", func(t *testing.T) {
		profile, err := n.Profile(ctx, acme.ID)
		require.NoError(t, err, "Expected Profile to not return an error")
		require.NotNil(t, profile)
		assert.Equal(t, acme.ID, profile.Entity.ID, "Expected the profiled entity")
		assert.Len(t, profile.Neighbors, 2, "Expected the investor and the founder as neighbors")
	})

	t.Run("Traversal reaches the whole neighborhood", func(t *testing.T) {
		subgraph, err := n.Traverse(ctx, []uuid.UUID{acme.ID}, nil)
		require.NoError(t, err, "Expected Traverse to not return an error")
		require.NotNil(t, subgraph)
		assert.Len(t, subgraph.Nodes, 3, "Expected all connected entities reached")
		assert.Len(t, subgraph.Edges, 2, "Expected both edges in the subgraph")
	})
}

func TestRebuildCommunities(t *testing.T) {
	n := initNewsgraph(t)
	ctx := context.Background()
	ingestSampleNews(t, n)

	communities, err := n.RebuildCommunities(ctx)
	require.NoError(t, err, "Expected RebuildCommunities to not return an error")
	require.Len(t, communities, 1, "Expected one connected cluster")
	assert.Equal(t, 3, communities[0].Size, "Expected the company, investor and founder clustered")
	assert.Equal(t, "Acme AI", communities[0].Label, "Expected the most mentioned member as label")

	stored, err := n.Communities.SelectCommunities(ctx, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1, "Expected the assignment persisted")
	assert.Equal(t, communities[0].Label, stored[0].Label, "Expected the stored assignment to match")
}

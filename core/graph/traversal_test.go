package graph

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraphStore serves a fixed graph from memory
type fakeGraphStore struct {
	entities map[uuid.UUID]*model.Entity
	edges    []*model.Relationship
	// entityReads counts SelectEntity calls per entity
	entityReads map[uuid.UUID]int
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{
		entities:    map[uuid.UUID]*model.Entity{},
		entityReads: map[uuid.UUID]int{},
	}
}

func (f *fakeGraphStore) addEntity(name string) *model.Entity {
	entity := &model.Entity{ID: uuid.New(), Name: name, Type: model.EntityTypeCompany}
	f.entities[entity.ID] = entity
	return entity
}

func (f *fakeGraphStore) addEdge(source, target *model.Entity, relType model.RelationshipType, strength float64) *model.Relationship {
	edge := &model.Relationship{
		ID:       uuid.New(),
		SourceID: source.ID,
		TargetID: target.ID,
		Type:     relType,
		Strength: strength,
	}
	f.edges = append(f.edges, edge)
	return edge
}

func (f *fakeGraphStore) SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	f.entityReads[id]++
	return f.entities[id], nil
}

func (f *fakeGraphStore) SelectRelationshipsOfEntity(ctx context.Context, entityID uuid.UUID, relTypes []model.RelationshipType, limit int) ([]*model.Relationship, error) {
	var matches []*model.Relationship
	for _, edge := range f.edges {
		if edge.SourceID != entityID && edge.TargetID != entityID {
			continue
		}
		if len(relTypes) > 0 && !containsType(relTypes, edge.Type) {
			continue
		}
		matches = append(matches, edge)
	}
	// Strongest first, like the real store
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Strength > matches[j].Strength
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func containsType(types []model.RelationshipType, relType model.RelationshipType) bool {
	for _, t := range types {
		if t == relType {
			return true
		}
	}
	return false
}

// chain builds a -> b -> c -> d with descending strengths
func chainStore() (*fakeGraphStore, []*model.Entity) {
	store := newFakeGraphStore()
	a := store.addEntity("A")
	b := store.addEntity("B")
	c := store.addEntity("C")
	d := store.addEntity("D")
	store.addEdge(a, b, model.RelationshipPartnersWith, 0.9)
	store.addEdge(b, c, model.RelationshipPartnersWith, 0.8)
	store.addEdge(c, d, model.RelationshipPartnersWith, 0.7)
	return store, []*model.Entity{a, b, c, d}
}

func TestBFS(t *testing.T) {
	t.Run("Empty seeds yield empty subgraph", func(t *testing.T) {
		store, _ := chainStore()
		subgraph, err := BFS(context.Background(), store, nil, 2, 5, nil)
		require.NoError(t, err)
		assert.True(t, subgraph.Empty(), "Expected an empty subgraph without seeds")
	})

	t.Run("Zero hops returns seeds only", func(t *testing.T) {
		store, entities := chainStore()
		subgraph, err := BFS(context.Background(), store, []uuid.UUID{entities[0].ID}, 0, 5, nil)
		require.NoError(t, err)
		require.Len(t, subgraph.Nodes, 1, "Expected only the seed node")
		assert.Equal(t, entities[0].ID, subgraph.Nodes[0].ID, "Expected the seed itself")
		assert.Empty(t, subgraph.Edges, "Expected no edges at zero hops")
	})

	t.Run("Hop bound limits depth", func(t *testing.T) {
		store, entities := chainStore()
		subgraph, err := BFS(context.Background(), store, []uuid.UUID{entities[0].ID}, 2, 5, nil)
		require.NoError(t, err)
		assert.Len(t, subgraph.Nodes, 3, "Expected A, B and C within two hops")
		assert.Nil(t, subgraph.Node(entities[3].ID), "Expected D to be out of reach")
	})

	t.Run("Full chain within three hops", func(t *testing.T) {
		store, entities := chainStore()
		subgraph, err := BFS(context.Background(), store, []uuid.UUID{entities[0].ID}, 3, 5, nil)
		require.NoError(t, err)
		assert.Len(t, subgraph.Nodes, 4, "Expected the whole chain")
		assert.Len(t, subgraph.Edges, 3, "Expected every chain edge once")
	})

	t.Run("Traversal follows edges in both directions", func(t *testing.T) {
		store, entities := chainStore()
		// Seed at the end of the chain, all edges point away from it
		subgraph, err := BFS(context.Background(), store, []uuid.UUID{entities[3].ID}, 3, 5, nil)
		require.NoError(t, err)
		assert.Len(t, subgraph.Nodes, 4, "Expected incoming edges to be followed too")
	})

	t.Run("No node visited twice", func(t *testing.T) {
		store := newFakeGraphStore()
		a := store.addEntity("A")
		b := store.addEntity("B")
		c := store.addEntity("C")
		// Cycle a -> b -> c -> a
		store.addEdge(a, b, model.RelationshipPartnersWith, 0.9)
		store.addEdge(b, c, model.RelationshipPartnersWith, 0.8)
		store.addEdge(c, a, model.RelationshipPartnersWith, 0.7)

		subgraph, err := BFS(context.Background(), store, []uuid.UUID{a.ID}, 10, 5, nil)
		require.NoError(t, err)
		assert.Len(t, subgraph.Nodes, 3, "Expected each node once despite the cycle")
		for id, reads := range store.entityReads {
			assert.Equal(t, 1, reads, "Expected entity %s to be fetched exactly once", id)
		}
	})

	t.Run("Branch cap keeps the strongest edges", func(t *testing.T) {
		store := newFakeGraphStore()
		hub := store.addEntity("Hub")
		strong := store.addEntity("Strong")
		medium := store.addEntity("Medium")
		weak := store.addEntity("Weak")
		store.addEdge(hub, weak, model.RelationshipPartnersWith, 0.1)
		store.addEdge(hub, strong, model.RelationshipPartnersWith, 0.9)
		store.addEdge(hub, medium, model.RelationshipPartnersWith, 0.5)

		subgraph, err := BFS(context.Background(), store, []uuid.UUID{hub.ID}, 1, 2, nil)
		require.NoError(t, err)
		assert.NotNil(t, subgraph.Node(strong.ID), "Expected the strongest edge to be followed")
		assert.NotNil(t, subgraph.Node(medium.ID), "Expected the second strongest edge to be followed")
		assert.Nil(t, subgraph.Node(weak.ID), "Expected the weakest edge to be cut by the branch cap")
	})

	t.Run("Relationship type filter restricts expansion", func(t *testing.T) {
		store := newFakeGraphStore()
		company := store.addEntity("Acme")
		investor := store.addEntity("Fund")
		partner := store.addEntity("Partner")
		store.addEdge(company, investor, model.RelationshipFundedBy, 0.9)
		store.addEdge(company, partner, model.RelationshipPartnersWith, 0.9)

		subgraph, err := BFS(context.Background(), store, []uuid.UUID{company.ID}, 1, 5,
			[]model.RelationshipType{model.RelationshipFundedBy})
		require.NoError(t, err)
		assert.NotNil(t, subgraph.Node(investor.ID), "Expected the funding edge to be followed")
		assert.Nil(t, subgraph.Node(partner.ID), "Expected other edge types to be skipped")
	})

	t.Run("Duplicate seeds are deduplicated", func(t *testing.T) {
		store, entities := chainStore()
		seeds := []uuid.UUID{entities[0].ID, entities[0].ID}
		subgraph, err := BFS(context.Background(), store, seeds, 0, 5, nil)
		require.NoError(t, err)
		assert.Len(t, subgraph.Nodes, 1, "Expected the duplicate seed once")
	})

	t.Run("Deterministic for fixed graph", func(t *testing.T) {
		store, entities := chainStore()
		first, err := BFS(context.Background(), store, []uuid.UUID{entities[0].ID}, 3, 5, nil)
		require.NoError(t, err)
		second, err := BFS(context.Background(), store, []uuid.UUID{entities[0].ID}, 3, 5, nil)
		require.NoError(t, err)

		require.Len(t, second.Nodes, len(first.Nodes))
		for i := range first.Nodes {
			assert.Equal(t, first.Nodes[i].ID, second.Nodes[i].ID, "Expected identical node order on repeat")
		}
	})
}

func TestDistances(t *testing.T) {
	store, entities := chainStore()
	subgraph, err := BFS(context.Background(), store, []uuid.UUID{entities[0].ID}, 3, 5, nil)
	require.NoError(t, err)

	distances := Distances(subgraph, []uuid.UUID{entities[0].ID})

	assert.Equal(t, 0, distances[entities[0].ID], "Expected the seed at distance 0")
	assert.Equal(t, 1, distances[entities[1].ID], "Expected B one hop away")
	assert.Equal(t, 2, distances[entities[2].ID], "Expected C two hops away")
	assert.Equal(t, 3, distances[entities[3].ID], "Expected D three hops away")

	t.Run("Nil subgraph", func(t *testing.T) {
		assert.Empty(t, Distances(nil, []uuid.UUID{entities[0].ID}), "Expected no distances for a nil subgraph")
	})

	t.Run("Seed outside the subgraph is ignored", func(t *testing.T) {
		distances := Distances(subgraph, []uuid.UUID{uuid.New()})
		assert.Empty(t, distances, "Expected no distances for an unknown seed")
	})
}

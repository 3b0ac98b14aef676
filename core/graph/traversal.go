// Package graph implements bounded traversal over the entity graph.
// Traversal reads through a store interface, so it runs against the
// database handlers in production and against fixtures in tests.
package graph

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/model"
)

// GraphStore is the read interface traversal needs. The entities and
// relationships database handlers together satisfy this interface.
type GraphStore interface {
	SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	SelectRelationshipsOfEntity(ctx context.Context, entityID uuid.UUID, relationshipTypes []model.RelationshipType, limit int) ([]*model.Relationship, error)
}

// BFS expands the graph breadth-first from the given seed entities, up to
// maxHops hops away. At every frontier node only the branchCap strongest
// edges are followed, ranked by strength, so traversal cost is bounded by
// len(seeds) * branchCap^maxHops regardless of graph size. Passing
// relationshipTypes restricts expansion to those edge types; nil follows
// all. Each node is visited at most once and the result is deterministic
// for a fixed graph.
func BFS(ctx context.Context, store GraphStore, seeds []uuid.UUID, maxHops int, branchCap int, relationshipTypes []model.RelationshipType) (*model.Subgraph, error) {
	subgraph := &model.Subgraph{}
	if len(seeds) == 0 {
		return subgraph, nil
	}
	if branchCap <= 0 {
		branchCap = 1
	}

	visited := map[uuid.UUID]bool{}
	seenEdges := map[uuid.UUID]bool{}

	var frontier []uuid.UUID
	for _, seed := range seeds {
		if visited[seed] {
			continue
		}
		entity, err := store.SelectEntity(ctx, seed)
		if err != nil {
			return nil, err
		}
		visited[seed] = true
		subgraph.Nodes = append(subgraph.Nodes, entity)
		frontier = append(frontier, seed)
	}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []uuid.UUID

		for _, current := range frontier {
			relationships, err := store.SelectRelationshipsOfEntity(ctx, current, relationshipTypes, branchCap)
			if err != nil {
				return nil, err
			}

			// The store already ranks by strength; re-sort defensively so
			// the cap always keeps the strongest edges
			sort.SliceStable(relationships, func(i, j int) bool {
				return relationships[i].Strength > relationships[j].Strength
			})
			if len(relationships) > branchCap {
				relationships = relationships[:branchCap]
			}

			for _, relationship := range relationships {
				if !seenEdges[relationship.ID] {
					seenEdges[relationship.ID] = true
					subgraph.Edges = append(subgraph.Edges, relationship)
				}

				neighbor, _ := relationship.OtherEnd(current)
				if visited[neighbor] {
					continue
				}

				entity, err := store.SelectEntity(ctx, neighbor)
				if err != nil {
					return nil, err
				}
				visited[neighbor] = true
				subgraph.Nodes = append(subgraph.Nodes, entity)
				next = append(next, neighbor)
			}
		}

		frontier = next
	}

	return subgraph, nil
}

// Distances returns the hop distance from the nearest seed for every node
// in the subgraph, computed over the subgraph's own edges. Seeds have
// distance zero; nodes only reachable outside the subgraph are absent.
func Distances(subgraph *model.Subgraph, seeds []uuid.UUID) map[uuid.UUID]int {
	distances := map[uuid.UUID]int{}
	if subgraph == nil {
		return distances
	}

	adjacency := map[uuid.UUID][]uuid.UUID{}
	for _, edge := range subgraph.Edges {
		adjacency[edge.SourceID] = append(adjacency[edge.SourceID], edge.TargetID)
		adjacency[edge.TargetID] = append(adjacency[edge.TargetID], edge.SourceID)
	}

	var frontier []uuid.UUID
	for _, seed := range seeds {
		if subgraph.Node(seed) == nil {
			continue
		}
		if _, ok := distances[seed]; ok {
			continue
		}
		distances[seed] = 0
		frontier = append(frontier, seed)
	}

	for hop := 1; len(frontier) > 0; hop++ {
		var next []uuid.UUID
		for _, current := range frontier {
			for _, neighbor := range adjacency[current] {
				if _, ok := distances[neighbor]; ok {
					continue
				}
				distances[neighbor] = hop
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return distances
}

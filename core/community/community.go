// Package community derives entity clusters from the relationship graph
// with weighted label propagation. Communities are a disposable, batch
// rebuilt cache used to enrich trend answers; nothing in resolution or
// querying depends on them for correctness.
package community

import (
	"bytes"
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/model"
)

// EntitySource provides entity lookups for community labeling.
// The entities database handler satisfies this interface.
type EntitySource interface {
	SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
}

// RelationshipSource provides the full edge list for clustering.
// The relationships database handler satisfies this interface.
type RelationshipSource interface {
	SelectAllRelationships(ctx context.Context, limit int) ([]*model.Relationship, error)
}

// CommunityStore persists the derived communities.
// The communities database handler satisfies this interface.
type CommunityStore interface {
	ReplaceCommunities(ctx context.Context, communities []*model.Community) error
}

// Detector rebuilds the community assignment from the current graph
type Detector struct {
	entities      EntitySource
	relationships RelationshipSource
	store         CommunityStore
	rounds        int
	edgeLimit     int
	log           *slog.Logger
}

// NewDetector creates a community detector with default parameters
func NewDetector(entities EntitySource, relationships RelationshipSource, store CommunityStore, logger *slog.Logger) *Detector {
	return &Detector{
		entities:      entities,
		relationships: relationships,
		store:         store,
		rounds:        10,
		edgeLimit:     100000,
		log:           logger,
	}
}

// Rebuild recomputes all communities from the current relationship graph
// and replaces the stored assignment. The propagation is deterministic:
// nodes are processed in sorted ID order and ties break toward the smaller
// label, so the same graph always yields the same communities.
func (d *Detector) Rebuild(ctx context.Context) ([]*model.Community, error) {
	edges, err := d.relationships.SelectAllRelationships(ctx, d.edgeLimit)
	if err != nil {
		return nil, err
	}

	labels := propagate(edges, d.rounds)

	// Group members by final label
	groups := map[uuid.UUID][]uuid.UUID{}
	for member, label := range labels {
		groups[label] = append(groups[label], member)
	}

	var communities []*model.Community
	for _, members := range groups {
		// Singleton groups carry no clustering information
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			return bytes.Compare(members[i][:], members[j][:]) < 0
		})

		label, err := d.labelFor(ctx, members)
		if err != nil {
			return nil, err
		}

		communities = append(communities, &model.Community{
			Label:     label,
			MemberIDs: members,
			Size:      len(members),
		})
	}

	sort.Slice(communities, func(i, j int) bool {
		if communities[i].Size != communities[j].Size {
			return communities[i].Size > communities[j].Size
		}
		return communities[i].Label < communities[j].Label
	})

	if err := d.store.ReplaceCommunities(ctx, communities); err != nil {
		return nil, err
	}

	d.log.Info("Rebuilt communities",
		slog.Int("communities", len(communities)),
		slog.Int("edges", len(edges)),
	)

	return communities, nil
}

// labelFor names a community after its most mentioned member
func (d *Detector) labelFor(ctx context.Context, members []uuid.UUID) (string, error) {
	var best *model.Entity
	for _, member := range members {
		entity, err := d.entities.SelectEntity(ctx, member)
		if err != nil {
			return "", err
		}
		if best == nil || entity.MentionCount > best.MentionCount ||
			(entity.MentionCount == best.MentionCount && entity.Name < best.Name) {
			best = entity
		}
	}
	if best == nil {
		return "", nil
	}
	return best.Name, nil
}

// propagate runs weighted label propagation over the edge list for a fixed
// number of rounds and returns the final label of every node
func propagate(edges []*model.Relationship, rounds int) map[uuid.UUID]uuid.UUID {
	type weightedNeighbor struct {
		id     uuid.UUID
		weight float64
	}

	adjacency := map[uuid.UUID][]weightedNeighbor{}
	for _, edge := range edges {
		weight := edge.Strength
		if weight <= 0 {
			weight = 0.01
		}
		adjacency[edge.SourceID] = append(adjacency[edge.SourceID], weightedNeighbor{id: edge.TargetID, weight: weight})
		adjacency[edge.TargetID] = append(adjacency[edge.TargetID], weightedNeighbor{id: edge.SourceID, weight: weight})
	}

	// Sorted node order keeps every run over the same graph identical
	nodes := make([]uuid.UUID, 0, len(adjacency))
	for node := range adjacency {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return bytes.Compare(nodes[i][:], nodes[j][:]) < 0
	})

	labels := map[uuid.UUID]uuid.UUID{}
	for _, node := range nodes {
		labels[node] = node
	}

	for round := 0; round < rounds; round++ {
		changed := false

		for _, node := range nodes {
			weights := map[uuid.UUID]float64{}
			for _, neighbor := range adjacency[node] {
				weights[labels[neighbor.id]] += neighbor.weight
			}

			best := labels[node]
			bestWeight := 0.0
			for label, weight := range weights {
				if weight > bestWeight ||
					(weight == bestWeight && bytes.Compare(label[:], best[:]) < 0) {
					best = label
					bestWeight = weight
				}
			}

			if best != labels[node] {
				labels[node] = best
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	return labels
}

// Package builder orchestrates graph writes: it resolves entity mentions,
// scores relationships and performs idempotent upserts against the store.
// The builder exclusively owns entity and relationship mutation; the query
// side is read-only.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/core/normalize"
	"github.com/siherrmann/newsgraph/core/pipeline"
	"github.com/siherrmann/newsgraph/core/resolve"
	"github.com/siherrmann/newsgraph/core/score"
	"github.com/siherrmann/newsgraph/model"
)

// EntityStore is the write interface for canonical entities.
// The entities database handler satisfies this interface.
type EntityStore interface {
	UpsertEntity(ctx context.Context, entity *model.Entity) (bool, error)
	InsertEntityAlias(ctx context.Context, entityID uuid.UUID, entityType model.EntityType, aliasKey string) error
	UpdateEntityEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// RelationshipStore is the write interface for relationship edges.
// The relationships database handler satisfies this interface.
type RelationshipStore interface {
	UpsertRelationship(ctx context.Context, relationship *model.Relationship, documentKey string, seenAt time.Time) (bool, error)
	UpdateRelationshipStrength(ctx context.Context, id uuid.UUID, strength float64) error
}

// DocumentStore claims per-document processed markers.
// The documents database handler satisfies this interface.
type DocumentStore interface {
	ClaimDocument(ctx context.Context, document *model.Document) (bool, error)
}

// Builder performs batch upserts of extraction output into the graph
type Builder struct {
	entities      EntityStore
	relationships RelationshipStore
	documents     DocumentStore
	resolver      *resolve.Resolver
	scorer        *score.Scorer
	embed         pipeline.EmbedFunc // optional, new entities get embeddings lazily
	onMutate      func(entityID uuid.UUID)
	log           *slog.Logger
}

// NewBuilder creates a graph builder over the given stores
func NewBuilder(
	entities EntityStore,
	relationships RelationshipStore,
	documents DocumentStore,
	resolver *resolve.Resolver,
	scorer *score.Scorer,
	logger *slog.Logger,
) *Builder {
	return &Builder{
		entities:      entities,
		relationships: relationships,
		documents:     documents,
		resolver:      resolver,
		scorer:        scorer,
		log:           logger,
	}
}

// SetEmbedder sets the embedding function used to lazily embed the
// descriptions of newly created entities
func (b *Builder) SetEmbedder(embed pipeline.EmbedFunc) {
	b.embed = embed
}

// SetMutationHook registers a callback invoked with every entity ID touched
// by a batch, used to invalidate read-side caches on writes
func (b *Builder) SetMutationHook(onMutate func(entityID uuid.UUID)) {
	b.onMutate = onMutate
}

// batchKey identifies a mention within one document batch
type batchKey struct {
	entityType model.EntityType
	key        string
}

// Upsert applies one document's extraction output to the graph.
// The entity phase completes before any relationship is written, so edges
// never reference unresolved endpoints. The document marker makes the whole
// batch idempotent: re-applying a processed document is a no-op.
// Item-level failures are reported in the UpsertReport; only store
// connectivity failures abort the batch.
func (b *Builder) Upsert(ctx context.Context, document *model.Document, mentions []model.EntityMention, relations []model.RelationshipMention) (*model.UpsertReport, error) {
	if document == nil || document.Key == "" {
		return nil, fmt.Errorf("document with a non-empty key is required")
	}

	report := &model.UpsertReport{DocumentKey: document.Key}

	claimed, err := b.documents.ClaimDocument(ctx, document)
	if err != nil {
		return report, err
	}
	if !claimed {
		report.AlreadyProcessed = true
		b.log.Info("Document already processed, skipping batch", slog.String("document", document.Key))
		return report, nil
	}

	seenAt := document.ProcessedAt
	if document.PublishedAt != nil {
		seenAt = *document.PublishedAt
	}
	if seenAt.IsZero() {
		seenAt = time.Now()
	}

	// Phase 1: entities. Mentions are deduplicated per document by
	// canonical key, so each document contributes at most one count per
	// distinct mention.
	resolved := make(map[batchKey]*model.Entity)
	for _, mention := range mentions {
		if err := b.upsertMention(ctx, mention, resolved, report); err != nil {
			return report, err
		}
	}

	// Phase 2: relationships. Endpoints resolve against the batch first,
	// then against the store; an unresolvable endpoint skips the item.
	seenRelations := make(map[string]bool)
	for _, relation := range relations {
		if err := b.upsertRelation(ctx, relation, document.Key, seenAt, resolved, seenRelations, report); err != nil {
			return report, err
		}
	}

	b.log.Info("Applied document batch",
		slog.String("document", document.Key),
		slog.Int("entities_created", report.EntitiesCreated),
		slog.Int("entities_merged", report.EntitiesMerged),
		slog.Int("relationships_created", report.RelationshipsCreated),
		slog.Int("relationships_strengthened", report.RelationshipsStrengthened),
		slog.Int("skipped", len(report.Skipped)),
	)

	return report, nil
}

// upsertMention resolves and upserts one entity mention. Store errors are
// returned (fatal for the batch); invalid mentions are reported and skipped.
func (b *Builder) upsertMention(ctx context.Context, mention model.EntityMention, resolved map[batchKey]*model.Entity, report *model.UpsertReport) error {
	if mention.Name == "" || !mention.Type.Valid() {
		report.Skipped = append(report.Skipped, model.SkippedMention{
			Description: fmt.Sprintf("entity %q (%s)", mention.Name, mention.Type),
			Reason:      "invalid mention",
		})
		return nil
	}

	if err := mention.Properties.ValidateFor(mention.Type); err != nil {
		b.log.Warn("Dropping invalid property bag", slog.String("mention", mention.Name), slog.Any("error", err))
		mention.Properties = nil
	}

	key := normalize.Key(mention.Name, mention.Type)
	bk := batchKey{entityType: mention.Type, key: key}
	if _, seen := resolved[bk]; seen {
		// Duplicate mention within the same document, counted once
		return nil
	}

	resolution, err := b.resolver.Resolve(ctx, mention)
	if err != nil {
		return err
	}

	entity := &model.Entity{
		Name:         mention.Name,
		Type:         mention.Type,
		CanonicalKey: key,
		Description:  mention.Description,
		Properties:   mention.Properties,
	}
	if resolution.Match != nil {
		// Merge into the established entity: keep its display name and
		// canonical key so the upsert lands on the existing row
		entity.Name = resolution.Match.Name
		entity.CanonicalKey = resolution.Match.CanonicalKey
	}

	inserted, err := b.entities.UpsertEntity(ctx, entity)
	if err != nil {
		return err
	}
	if inserted {
		report.EntitiesCreated++
	} else {
		report.EntitiesMerged++
	}

	// Register the mention's own key as an alias so the next occurrence
	// resolves on the exact-key path
	if resolution.Match != nil && key != entity.CanonicalKey {
		if err := b.entities.InsertEntityAlias(ctx, entity.ID, entity.Type, key); err != nil {
			return err
		}
	}

	if inserted {
		b.embedEntity(ctx, entity, mention)
	}

	resolved[bk] = entity
	if b.onMutate != nil {
		b.onMutate(entity.ID)
	}

	return nil
}

// embedEntity lazily computes and stores the embedding of a new entity.
// Embedding is best effort; a failing backend never fails the batch.
func (b *Builder) embedEntity(ctx context.Context, entity *model.Entity, mention model.EntityMention) {
	embedding := mention.Embedding
	if embedding == nil && b.embed != nil && entity.Description != "" {
		computed, err := b.embed(entity.Description)
		if err != nil {
			b.log.Warn("Embedding backend unavailable, entity stored without embedding",
				slog.String("entity", entity.Name), slog.Any("error", err))
			return
		}
		embedding = computed
	}
	if embedding == nil {
		return
	}

	if err := b.entities.UpdateEntityEmbedding(ctx, entity.ID, embedding); err != nil {
		b.log.Warn("Failed to store entity embedding",
			slog.String("entity", entity.Name), slog.Any("error", err))
		return
	}
	entity.Embedding = embedding
}

// upsertRelation resolves both endpoints and upserts one relationship
// mention, recomputing the edge strength from the updated counters
func (b *Builder) upsertRelation(ctx context.Context, relation model.RelationshipMention, documentKey string, seenAt time.Time, resolved map[batchKey]*model.Entity, seenRelations map[string]bool, report *model.UpsertReport) error {
	describe := fmt.Sprintf("relationship %s -[%s]-> %s", relation.SourceName, relation.Type, relation.TargetName)

	if !relation.Type.Valid() {
		report.Skipped = append(report.Skipped, model.SkippedMention{Description: describe, Reason: "invalid relationship type"})
		return nil
	}

	source, err := b.endpoint(ctx, relation.SourceName, relation.SourceType, resolved)
	if err != nil {
		return err
	}
	target, err := b.endpoint(ctx, relation.TargetName, relation.TargetType, resolved)
	if err != nil {
		return err
	}
	if source == nil || target == nil {
		report.Skipped = append(report.Skipped, model.SkippedMention{
			Description: describe,
			Reason:      model.ErrEndpointUnresolved.Error(),
		})
		return nil
	}

	// One count per document per distinct relationship mention
	dedupeKey := fmt.Sprintf("%s|%s|%s", source.ID, relation.Type, target.ID)
	if seenRelations[dedupeKey] {
		return nil
	}
	seenRelations[dedupeKey] = true

	relationship := &model.Relationship{
		SourceID:   source.ID,
		TargetID:   target.ID,
		Type:       relation.Type,
		Properties: relation.Properties,
	}

	inserted, err := b.relationships.UpsertRelationship(ctx, relationship, documentKey, seenAt)
	if err != nil {
		return err
	}
	if inserted {
		report.RelationshipsCreated++
	} else {
		report.RelationshipsStrengthened++
	}

	strength := b.scorer.Score(relationship.Type, relationship.MentionCount, relationship.SourceCount, relationship.LastSeen)
	if err := b.relationships.UpdateRelationshipStrength(ctx, relationship.ID, strength); err != nil {
		return err
	}
	relationship.Strength = strength

	if b.onMutate != nil {
		b.onMutate(source.ID)
		b.onMutate(target.ID)
	}

	return nil
}

// endpoint finds the canonical entity for a relationship endpoint, first in
// the current batch, then in the store. Returns nil when the endpoint
// cannot be resolved; the caller reports and skips the item.
func (b *Builder) endpoint(ctx context.Context, name string, entityType model.EntityType, resolved map[batchKey]*model.Entity) (*model.Entity, error) {
	if name == "" || !entityType.Valid() {
		return nil, nil
	}

	key := normalize.Key(name, entityType)
	if entity, ok := resolved[batchKey{entityType: entityType, key: key}]; ok {
		return entity, nil
	}

	resolution, err := b.resolver.Resolve(ctx, model.EntityMention{Name: name, Type: entityType})
	if err != nil {
		return nil, err
	}
	if resolution.Match == nil {
		return nil, nil
	}

	resolved[batchKey{entityType: entityType, key: key}] = resolution.Match
	return resolution.Match, nil
}

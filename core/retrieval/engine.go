// Package retrieval selects graph context for answering questions. An
// Engine combines vector search, entity profiles and bounded traversal;
// per-intent strategies decide which of those to use for a given question.
package retrieval

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/siherrmann/newsgraph/core/graph"
	"github.com/siherrmann/newsgraph/core/normalize"
	"github.com/siherrmann/newsgraph/core/pipeline"
	"github.com/siherrmann/newsgraph/model"
)

// EntitySource is the entity read interface the engine needs.
// The entities database handler satisfies this interface.
type EntitySource interface {
	SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	SelectEntityByKey(ctx context.Context, entityType model.EntityType, key string) (*model.Entity, error)
	SelectEntitiesBySearch(ctx context.Context, searchTerm string, entityType *model.EntityType, limit int) ([]*model.Entity, error)
	SelectEntitiesBySimilarity(ctx context.Context, embedding []float32, entityType *model.EntityType, limit int, threshold float64) ([]*model.ScoredEntity, error)
}

// RelationshipSource is the relationship read interface the engine needs.
// The relationships database handler satisfies this interface.
type RelationshipSource interface {
	SelectRelationshipsOfEntity(ctx context.Context, entityID uuid.UUID, relTypes []model.RelationshipType, limit int) ([]*model.Relationship, error)
}

// CommunitySource provides community membership lookups.
// The communities database handler satisfies this interface.
type CommunitySource interface {
	SelectCommunitiesForEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Community, error)
}

// Context is the assembled graph context a strategy hands to synthesis
type Context struct {
	Results     []*model.RetrievalResult
	Subgraph    *model.Subgraph
	Profiles    []*model.Profile
	Communities []*model.Community
	Method      string
}

// engineStore adapts the engine's sources to the traversal store interface
type engineStore struct {
	entities      EntitySource
	relationships RelationshipSource
}

func (s *engineStore) SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	return s.entities.SelectEntity(ctx, id)
}

func (s *engineStore) SelectRelationshipsOfEntity(ctx context.Context, entityID uuid.UUID, relTypes []model.RelationshipType, limit int) ([]*model.Relationship, error) {
	return s.relationships.SelectRelationshipsOfEntity(ctx, entityID, relTypes, limit)
}

// Engine performs semantic retrieval, profile lookups and traversal over
// the graph. Profiles are cached with a short TTL and invalidated on
// writes through InvalidateEntity.
type Engine struct {
	entities      EntitySource
	relationships RelationshipSource
	communities   CommunitySource
	embed         pipeline.EmbedFunc
	profiles      *cache.Cache
	log           *slog.Logger
}

// DefaultProfileTTL bounds staleness of cached profiles even without
// explicit invalidation
const DefaultProfileTTL = 5 * time.Minute

// NewEngine creates a retrieval engine over the given sources. The embed
// function may be nil; semantic retrieval then falls back to lexical search.
func NewEngine(entities EntitySource, relationships RelationshipSource, communities CommunitySource, embed pipeline.EmbedFunc, logger *slog.Logger) *Engine {
	return &Engine{
		entities:      entities,
		relationships: relationships,
		communities:   communities,
		embed:         embed,
		profiles:      cache.New(DefaultProfileTTL, 2*DefaultProfileTTL),
		log:           logger,
	}
}

// SetEmbedder sets the embedding function used for semantic retrieval
func (e *Engine) SetEmbedder(embed pipeline.EmbedFunc) {
	e.embed = embed
}

// InvalidateEntity drops the cached profile of an entity after a write
func (e *Engine) InvalidateEntity(entityID uuid.UUID) {
	e.profiles.Delete(entityID.String())
}

// SemanticRetrieve finds the entities most similar to the query text.
// When no embedding backend is configured or the backend fails, retrieval
// degrades to lexical name search instead of returning an error.
func (e *Engine) SemanticRetrieve(ctx context.Context, query string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if config == nil {
		config = model.DefaultQueryConfig()
	}

	if e.embed != nil {
		embedding, err := e.embed(query)
		if err == nil {
			scored, err := e.entities.SelectEntitiesBySimilarity(ctx, embedding, config.EntityType, config.TopK, config.SimilarityThreshold)
			if err != nil {
				return nil, err
			}

			results := make([]*model.RetrievalResult, 0, len(scored))
			for _, s := range scored {
				results = append(results, &model.RetrievalResult{
					Entity:          s.Entity,
					Score:           s.Similarity,
					SimilarityScore: s.Similarity,
					RetrievalMethod: "vector",
				})
			}
			return results, nil
		}
		e.log.Warn("Embedding backend unavailable, falling back to lexical search", slog.Any("error", err))
	}

	return e.lexicalRetrieve(ctx, query, config)
}

// lexicalRetrieve searches entities by name pattern, used as the degraded
// path when no embedding is available
func (e *Engine) lexicalRetrieve(ctx context.Context, query string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	entities, err := e.entities.SelectEntitiesBySearch(ctx, query, config.EntityType, config.TopK)
	if err != nil {
		return nil, err
	}

	results := make([]*model.RetrievalResult, 0, len(entities))
	for _, entity := range entities {
		results = append(results, &model.RetrievalResult{
			Entity:          entity,
			Score:           0.5, // no similarity available on the lexical path
			RetrievalMethod: "lexical",
		})
	}
	return results, nil
}

// ResolveSubject finds the entity a question subject refers to, trying the
// canonical key of every entity type, then name search. Returns nil without
// error when the subject is unknown to the graph.
func (e *Engine) ResolveSubject(ctx context.Context, subject string) (*model.Entity, error) {
	for _, entityType := range model.AllEntityTypes {
		entity, err := e.entities.SelectEntityByKey(ctx, entityType, normalize.Key(subject, entityType))
		if err != nil {
			return nil, err
		}
		if entity != nil {
			return entity, nil
		}
	}

	matches, err := e.entities.SelectEntitiesBySearch(ctx, subject, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// Profile returns an entity together with its strongest relationships and
// their peer entities. Profiles are served from cache when fresh.
func (e *Engine) Profile(ctx context.Context, entityID uuid.UUID, limit int) (*model.Profile, error) {
	if cached, found := e.profiles.Get(entityID.String()); found {
		return cached.(*model.Profile), nil
	}

	entity, err := e.entities.SelectEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	relationships, err := e.relationships.SelectRelationshipsOfEntity(ctx, entityID, nil, limit)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{Entity: entity}
	for _, relationship := range relationships {
		peerID, _ := relationship.OtherEnd(entityID)
		peer, err := e.entities.SelectEntity(ctx, peerID)
		if err != nil {
			return nil, err
		}
		profile.Neighbors = append(profile.Neighbors, &model.ProfileEdge{
			Relationship: relationship,
			Peer:         peer,
		})
	}

	e.profiles.SetDefault(entityID.String(), profile)
	return profile, nil
}

// Traverse expands the graph around the given seeds, bounded by the query
// configuration
func (e *Engine) Traverse(ctx context.Context, seeds []uuid.UUID, config *model.QueryConfig) (*model.Subgraph, error) {
	if config == nil {
		config = model.DefaultQueryConfig()
	}

	store := &engineStore{entities: e.entities, relationships: e.relationships}
	return graph.BFS(ctx, store, seeds, config.MaxHops, config.BranchCap, config.RelationshipTypes)
}

// CommunitiesOf returns the communities the given entities belong to,
// deduplicated. A missing community source yields no communities.
func (e *Engine) CommunitiesOf(ctx context.Context, entityIDs []uuid.UUID) ([]*model.Community, error) {
	if e.communities == nil {
		return nil, nil
	}

	seen := map[int64]bool{}
	var communities []*model.Community
	for _, entityID := range entityIDs {
		found, err := e.communities.SelectCommunitiesForEntity(ctx, entityID)
		if err != nil {
			return nil, err
		}
		for _, community := range found {
			if seen[community.ID] {
				continue
			}
			seen[community.ID] = true
			communities = append(communities, community)
		}
	}
	return communities, nil
}

package newsgraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/core/builder"
	"github.com/siherrmann/newsgraph/core/community"
	"github.com/siherrmann/newsgraph/core/pipeline"
	"github.com/siherrmann/newsgraph/core/resolve"
	"github.com/siherrmann/newsgraph/core/retrieval"
	"github.com/siherrmann/newsgraph/core/router"
	"github.com/siherrmann/newsgraph/core/score"
	"github.com/siherrmann/newsgraph/core/synthesize"
	"github.com/siherrmann/newsgraph/database"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/llm"
	"github.com/siherrmann/newsgraph/model"
	loadSql "github.com/siherrmann/newsgraph/sql"
)

// Newsgraph provides a unified interface to the news knowledge graph:
// ingesting extraction output on the write side and answering natural
// language questions on the read side
type Newsgraph struct {
	DB            *helper.Database
	Entities      *database.EntitiesDBHandler
	Relationships *database.RelationshipsDBHandler
	Documents     *database.DocumentsDBHandler
	Communities   *database.CommunitiesDBHandler
	Builder       *builder.Builder
	Router        *router.Router
	Engine        *retrieval.Engine
	Synthesizer   *synthesize.Synthesizer
	Detector      *community.Detector
	// Resolver shared between the builder and embedder wiring
	resolver *resolve.Resolver
	// Logging
	log *slog.Logger
}

// NewNewsgraph creates a new Newsgraph instance with all handlers initialized
func NewNewsgraph(config *helper.DatabaseConfiguration, embeddingDim int) (*Newsgraph, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("newsgraph", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers, force=false to not reload existing functions
	entities, err := database.NewEntitiesDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	relationships, err := database.NewRelationshipsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create relationships handler", err)
	}

	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	communities, err := database.NewCommunitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create communities handler", err)
	}

	// Write side: resolver, scorer and builder
	resolver := resolve.NewResolver(entities, nil, resolve.DefaultConfig(), logger)
	scorer := score.NewScorer(score.DefaultConfig())
	graphBuilder := builder.NewBuilder(entities, relationships, documents, resolver, scorer, logger)

	// Read side: retrieval engine and synthesizer
	engine := retrieval.NewEngine(entities, relationships, communities, nil, logger)
	synthesizer := synthesize.NewSynthesizer(nil, logger)

	// Writes invalidate cached profiles of the touched entities
	graphBuilder.SetMutationHook(engine.InvalidateEntity)

	detector := community.NewDetector(entities, relationships, communities, logger)

	return &Newsgraph{
		DB:            db,
		Entities:      entities,
		Relationships: relationships,
		Documents:     documents,
		Communities:   communities,
		Builder:       graphBuilder,
		Router:        router.NewRouter(),
		Engine:        engine,
		Synthesizer:   synthesizer,
		Detector:      detector,
		resolver:      resolver,
		log:           logger,
	}, nil
}

// Close closes the database connection
func (n *Newsgraph) Close() error {
	if n.DB != nil && n.DB.Instance != nil {
		return n.DB.Instance.Close()
	}
	return nil
}

// SetEmbedder sets the embedding function used for entity resolution,
// lazy entity embedding and semantic retrieval
func (n *Newsgraph) SetEmbedder(embed pipeline.EmbedFunc) {
	n.Builder.SetEmbedder(embed)
	n.resolver.SetEmbedder(embed)
	n.Engine.SetEmbedder(embed)
}

// UseDefaultEmbedder sets up the default local embedding model.
// This uses the all-MiniLM-L6-v2 sentence transformer (384 dimensions)
// wrapped in an expiring cache.
func (n *Newsgraph) UseDefaultEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	n.SetEmbedder(pipeline.CachedEmbedder(embedder, retrieval.DefaultProfileTTL))
	return nil
}

// SetGenerator sets the LLM backend used for answer synthesis. Without a
// generator every answer is returned in degraded mode.
func (n *Newsgraph) SetGenerator(generator llm.Generator) {
	n.Synthesizer.SetGenerator(generator)
}

// IngestExtraction applies one document's extraction output to the graph:
// entities are resolved and upserted, then relationships are upserted and
// scored. Re-ingesting the same document key is a no-op.
func (n *Newsgraph) IngestExtraction(ctx context.Context, document *model.Document, mentions []model.EntityMention, relations []model.RelationshipMention) (*model.UpsertReport, error) {
	return n.Builder.Upsert(ctx, document, mentions, relations)
}

// Ask answers a natural language question: the question is classified,
// the matching retrieval strategy assembles graph context and the
// synthesizer renders the final answer
func (n *Newsgraph) Ask(ctx context.Context, question string) (*model.Answer, error) {
	return n.AskWithConfig(ctx, question, model.DefaultQueryConfig())
}

// AskWithConfig answers a question with explicit retrieval configuration
func (n *Newsgraph) AskWithConfig(ctx context.Context, question string, config *model.QueryConfig) (*model.Answer, error) {
	if question == "" {
		return nil, helper.NewError("ask", fmt.Errorf("question is empty"))
	}

	intent := n.Router.Classify(question)
	n.log.Info("Classified question",
		slog.String("intent", string(intent.Kind)),
		slog.Float64("confidence", intent.Confidence),
		slog.Any("subjects", intent.Subjects),
	)

	strategy := retrieval.ForIntent(intent.Kind)
	retrieved, err := strategy.Retrieve(ctx, n.Engine, intent, question, config)
	if err != nil {
		return nil, helper.NewError("retrieve context", err)
	}

	answer, err := n.Synthesizer.Synthesize(ctx, question, intent, retrieved)
	if err != nil {
		return nil, helper.NewError("synthesize answer", err)
	}

	return answer, nil
}

// Search performs semantic entity search
func (n *Newsgraph) Search(ctx context.Context, query string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	return n.Engine.SemanticRetrieve(ctx, query, config)
}

// Profile returns an entity with its strongest relationships and peers
func (n *Newsgraph) Profile(ctx context.Context, entityID uuid.UUID) (*model.Profile, error) {
	config := model.DefaultQueryConfig()
	return n.Engine.Profile(ctx, entityID, config.BranchCap)
}

// Traverse performs bounded multi-hop traversal from the given seeds
func (n *Newsgraph) Traverse(ctx context.Context, seeds []uuid.UUID, config *model.QueryConfig) (*model.Subgraph, error) {
	return n.Engine.Traverse(ctx, seeds, config)
}

// RebuildCommunities recomputes the community assignment from the current
// relationship graph, replacing the previous assignment wholesale
func (n *Newsgraph) RebuildCommunities(ctx context.Context) ([]*model.Community, error) {
	return n.Detector.Rebuild(ctx)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (n *Newsgraph) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return n.Entities.ChangeIndexType(ctx, indexType, params)
}

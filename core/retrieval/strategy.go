package retrieval

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/core/graph"
	"github.com/siherrmann/newsgraph/model"
)

// Strategy assembles the graph context for one intent kind
type Strategy interface {
	Retrieve(ctx context.Context, engine *Engine, intent *model.Intent, question string, config *model.QueryConfig) (*Context, error)
}

// ForIntent returns the strategy for an intent kind. Unknown kinds get the
// semantic strategy, which works for any question.
func ForIntent(kind model.IntentKind) Strategy {
	switch kind {
	case model.IntentEntityProfile:
		return &ProfileStrategy{}
	case model.IntentComparison:
		return &ComparisonStrategy{}
	case model.IntentInvestmentInfo:
		return &InvestmentStrategy{}
	case model.IntentTrendAnalysis:
		return &TrendStrategy{}
	case model.IntentMultiHop:
		return &MultiHopStrategy{}
	default:
		return &SemanticStrategy{}
	}
}

// resolveSubjects maps question subjects to known entities, silently
// dropping subjects the graph does not know
func resolveSubjects(ctx context.Context, engine *Engine, subjects []string) ([]*model.Entity, error) {
	var entities []*model.Entity
	for _, subject := range subjects {
		entity, err := engine.ResolveSubject(ctx, subject)
		if err != nil {
			return nil, err
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}

func entityIDs(entities []*model.Entity) []uuid.UUID {
	ids := make([]uuid.UUID, len(entities))
	for i, entity := range entities {
		ids[i] = entity.ID
	}
	return ids
}

// SemanticStrategy retrieves by embedding similarity alone, the default
// for general questions without a recognizable structure
type SemanticStrategy struct{}

func (s *SemanticStrategy) Retrieve(ctx context.Context, engine *Engine, intent *model.Intent, question string, config *model.QueryConfig) (*Context, error) {
	results, err := engine.SemanticRetrieve(ctx, question, config)
	if err != nil {
		return nil, err
	}

	return &Context{Results: results, Method: "semantic"}, nil
}

// ProfileStrategy answers questions about a single named entity with its
// profile and immediate neighborhood. Falls back to semantic retrieval
// when no subject resolves.
type ProfileStrategy struct{}

func (s *ProfileStrategy) Retrieve(ctx context.Context, engine *Engine, intent *model.Intent, question string, config *model.QueryConfig) (*Context, error) {
	if config == nil {
		config = model.DefaultQueryConfig()
	}

	subjects, err := resolveSubjects(ctx, engine, intent.Subjects)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return (&SemanticStrategy{}).Retrieve(ctx, engine, intent, question, config)
	}

	retrieved := &Context{Method: "profile"}
	for _, subject := range subjects {
		profile, err := engine.Profile(ctx, subject.ID, config.BranchCap)
		if err != nil {
			return nil, err
		}
		retrieved.Profiles = append(retrieved.Profiles, profile)
		retrieved.Results = append(retrieved.Results, &model.RetrievalResult{
			Entity:          subject,
			Score:           1.0,
			RetrievalMethod: "profile",
		})
	}

	// One hop around the subject gives the synthesizer the edges to cite
	hopConfig := *config
	hopConfig.MaxHops = 1
	subgraph, err := engine.Traverse(ctx, entityIDs(subjects), &hopConfig)
	if err != nil {
		return nil, err
	}
	retrieved.Subgraph = subgraph

	communities, err := engine.CommunitiesOf(ctx, entityIDs(subjects))
	if err != nil {
		return nil, err
	}
	retrieved.Communities = communities

	return retrieved, nil
}

// ComparisonStrategy retrieves the profiles of every compared entity plus
// the subgraph connecting them, so shared neighbors surface as overlap
type ComparisonStrategy struct{}

func (s *ComparisonStrategy) Retrieve(ctx context.Context, engine *Engine, intent *model.Intent, question string, config *model.QueryConfig) (*Context, error) {
	if config == nil {
		config = model.DefaultQueryConfig()
	}

	subjects, err := resolveSubjects(ctx, engine, intent.Subjects)
	if err != nil {
		return nil, err
	}
	if len(subjects) < 2 {
		return (&ProfileStrategy{}).Retrieve(ctx, engine, intent, question, config)
	}

	retrieved := &Context{Method: "comparison"}
	for _, subject := range subjects {
		profile, err := engine.Profile(ctx, subject.ID, config.BranchCap)
		if err != nil {
			return nil, err
		}
		retrieved.Profiles = append(retrieved.Profiles, profile)
		retrieved.Results = append(retrieved.Results, &model.RetrievalResult{
			Entity:          subject,
			Score:           1.0,
			RetrievalMethod: "profile",
		})
	}

	subgraph, err := engine.Traverse(ctx, entityIDs(subjects), config)
	if err != nil {
		return nil, err
	}
	retrieved.Subgraph = subgraph

	return retrieved, nil
}

// InvestmentStrategy focuses traversal on funding edges around the
// question's subjects, falling back to semantic seeds when none resolve
type InvestmentStrategy struct{}

func (s *InvestmentStrategy) Retrieve(ctx context.Context, engine *Engine, intent *model.Intent, question string, config *model.QueryConfig) (*Context, error) {
	if config == nil {
		config = model.DefaultQueryConfig()
	}

	subjects, err := resolveSubjects(ctx, engine, intent.Subjects)
	if err != nil {
		return nil, err
	}

	retrieved := &Context{Method: "investment"}
	seeds := entityIDs(subjects)

	if len(seeds) == 0 {
		results, err := engine.SemanticRetrieve(ctx, question, config)
		if err != nil {
			return nil, err
		}
		retrieved.Results = results
		for _, result := range results {
			seeds = append(seeds, result.Entity.ID)
		}
	} else {
		for _, subject := range subjects {
			retrieved.Results = append(retrieved.Results, &model.RetrievalResult{
				Entity:          subject,
				Score:           1.0,
				RetrievalMethod: "profile",
			})
		}
	}

	fundingConfig := *config
	fundingConfig.RelationshipTypes = []model.RelationshipType{
		model.RelationshipFundedBy,
		model.RelationshipParticipatedIn,
		model.RelationshipAcquired,
	}
	subgraph, err := engine.Traverse(ctx, seeds, &fundingConfig)
	if err != nil {
		return nil, err
	}
	retrieved.Subgraph = subgraph

	return retrieved, nil
}

// TrendStrategy retrieves a wider semantic slice plus the communities of
// the top matches, so synthesis can talk about clusters instead of single
// entities
type TrendStrategy struct{}

func (s *TrendStrategy) Retrieve(ctx context.Context, engine *Engine, intent *model.Intent, question string, config *model.QueryConfig) (*Context, error) {
	if config == nil {
		config = model.DefaultQueryConfig()
	}

	// Trends need breadth over precision
	wideConfig := *config
	wideConfig.TopK = config.TopK * 3

	results, err := engine.SemanticRetrieve(ctx, question, &wideConfig)
	if err != nil {
		return nil, err
	}

	retrieved := &Context{Results: results, Method: "trend"}

	var seeds []uuid.UUID
	for _, result := range results {
		seeds = append(seeds, result.Entity.ID)
	}

	communities, err := engine.CommunitiesOf(ctx, seeds)
	if err != nil {
		return nil, err
	}
	retrieved.Communities = communities

	return retrieved, nil
}

// MultiHopStrategy traverses outward from every resolved subject and ranks
// discovered entities by hop distance, for questions about how entities
// are connected
type MultiHopStrategy struct{}

func (s *MultiHopStrategy) Retrieve(ctx context.Context, engine *Engine, intent *model.Intent, question string, config *model.QueryConfig) (*Context, error) {
	if config == nil {
		config = model.DefaultQueryConfig()
	}

	subjects, err := resolveSubjects(ctx, engine, intent.Subjects)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return (&SemanticStrategy{}).Retrieve(ctx, engine, intent, question, config)
	}

	seeds := entityIDs(subjects)
	subgraph, err := engine.Traverse(ctx, seeds, config)
	if err != nil {
		return nil, err
	}

	retrieved := &Context{Subgraph: subgraph, Method: "multi_hop"}

	// Closer entities score higher; the seeds themselves score 1.0
	distances := graph.Distances(subgraph, seeds)
	for _, node := range subgraph.Nodes {
		distance, ok := distances[node.ID]
		if !ok {
			continue
		}
		retrieved.Results = append(retrieved.Results, &model.RetrievalResult{
			Entity:          node,
			Score:           1.0 / float64(1+distance),
			GraphDistance:   distance,
			RetrievalMethod: "graph",
		})
	}

	return retrieved, nil
}

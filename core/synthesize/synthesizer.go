// Package synthesize turns retrieved graph context into a natural language
// answer. Generation is optional: without a working LLM backend the
// synthesizer returns the rendered context verbatim and marks the answer
// degraded, so retrieval quality is never hidden behind a model failure.
package synthesize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/siherrmann/newsgraph/core/retrieval"
	"github.com/siherrmann/newsgraph/llm"
	"github.com/siherrmann/newsgraph/model"
)

// Synthesizer renders retrieval context into prompts and answers
type Synthesizer struct {
	generator llm.Generator // may be nil, answers are then always degraded
	log       *slog.Logger
}

// NewSynthesizer creates a synthesizer with an optional generation backend
func NewSynthesizer(generator llm.Generator, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{generator: generator, log: logger}
}

// SetGenerator replaces the generation backend
func (s *Synthesizer) SetGenerator(generator llm.Generator) {
	s.generator = generator
}

// Synthesize produces the final answer for a question from the retrieved
// context. A nil or failing generator degrades to the rendered context.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, intent *model.Intent, retrieved *retrieval.Context) (*model.Answer, error) {
	answer := &model.Answer{Intent: *intent}
	if retrieved != nil {
		answer.Results = retrieved.Results
		answer.Subgraph = retrieved.Subgraph
	}

	rendered := RenderContext(retrieved)

	if s.generator == nil {
		answer.Text = rendered
		answer.Degraded = true
		return answer, nil
	}

	prompt := s.buildPrompt(question, intent, rendered)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.log.Warn("Generation backend unavailable, returning retrieval context",
			slog.String("model", s.generator.Model()), slog.Any("error", err))
		answer.Text = rendered
		answer.Degraded = true
		return answer, nil
	}

	answer.Text = strings.TrimSpace(text)
	return answer, nil
}

// buildPrompt assembles the grounding prompt. The instructions pin the
// model to the provided context so answers stay attributable to the graph.
func (s *Synthesizer) buildPrompt(question string, intent *model.Intent, rendered string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a news intelligence analyst answering questions from a knowledge graph built out of news articles.\n")
	prompt.WriteString("Answer the question using only the graph context below. ")
	prompt.WriteString("If the context does not contain the answer, say so instead of guessing. ")
	prompt.WriteString("Mention relationship strength when it is relevant to how well supported a statement is.\n\n")

	switch intent.Kind {
	case model.IntentComparison:
		prompt.WriteString("The question asks for a comparison. Cover similarities, differences and any shared connections.\n\n")
	case model.IntentInvestmentInfo:
		prompt.WriteString("The question asks about investments and funding. Focus on funding relationships, investors and rounds.\n\n")
	case model.IntentTrendAnalysis:
		prompt.WriteString("The question asks about trends. Focus on clusters of related entities and recent activity.\n\n")
	case model.IntentMultiHop:
		prompt.WriteString("The question asks how entities are connected. Walk through the connecting relationships step by step.\n\n")
	}

	prompt.WriteString("Graph context:\n")
	prompt.WriteString(rendered)
	prompt.WriteString("\n\nQuestion: ")
	prompt.WriteString(question)
	prompt.WriteString("\n\nAnswer:")

	return prompt.String()
}

// RenderContext renders retrieved graph context as plain text, both as
// prompt material and as the degraded-mode answer body
func RenderContext(retrieved *retrieval.Context) string {
	if retrieved == nil {
		return "No relevant information found in the graph."
	}

	var rendered strings.Builder

	if len(retrieved.Results) > 0 {
		results := make([]*model.RetrievalResult, len(retrieved.Results))
		copy(results, retrieved.Results)
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})

		rendered.WriteString("Entities:\n")
		for _, result := range results {
			rendered.WriteString(fmt.Sprintf("- %s (%s)", result.Entity.Name, result.Entity.Type))
			if result.Entity.Description != "" {
				rendered.WriteString(": " + result.Entity.Description)
			}
			rendered.WriteString("\n")
		}
	}

	if len(retrieved.Profiles) > 0 {
		for _, profile := range retrieved.Profiles {
			rendered.WriteString(fmt.Sprintf("\nRelationships of %s:\n", profile.Entity.Name))
			for _, neighbor := range profile.Neighbors {
				rendered.WriteString(renderEdge(profile.Entity, neighbor))
			}
		}
	} else if !retrieved.Subgraph.Empty() && len(retrieved.Subgraph.Edges) > 0 {
		rendered.WriteString("\nRelationships:\n")
		for _, edge := range retrieved.Subgraph.Edges {
			source := retrieved.Subgraph.Node(edge.SourceID)
			target := retrieved.Subgraph.Node(edge.TargetID)
			if source == nil || target == nil {
				continue
			}
			rendered.WriteString(fmt.Sprintf("- %s %s %s (strength %.2f, %d sources)\n",
				source.Name, edge.Type, target.Name, edge.Strength, edge.SourceCount))
		}
	}

	if len(retrieved.Communities) > 0 {
		rendered.WriteString("\nRelated clusters:\n")
		for _, community := range retrieved.Communities {
			rendered.WriteString(fmt.Sprintf("- %s (%d members)\n", community.Label, community.Size))
		}
	}

	if rendered.Len() == 0 {
		return "No relevant information found in the graph."
	}

	return strings.TrimSpace(rendered.String())
}

// renderEdge renders one profile edge in reading direction
func renderEdge(center *model.Entity, edge *model.ProfileEdge) string {
	relationship := edge.Relationship
	if relationship.SourceID == center.ID {
		return fmt.Sprintf("- %s %s %s (strength %.2f, %d sources)\n",
			center.Name, relationship.Type, edge.Peer.Name, relationship.Strength, relationship.SourceCount)
	}
	return fmt.Sprintf("- %s %s %s (strength %.2f, %d sources)\n",
		edge.Peer.Name, relationship.Type, center.Name, relationship.Strength, relationship.SourceCount)
}

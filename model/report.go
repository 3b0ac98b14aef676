package model

// SkippedMention is a reportable, non-fatal item from a batch upsert
type SkippedMention struct {
	Description string `json:"description"` // human readable identification of the item
	Reason      string `json:"reason"`
}

// UpsertReport summarizes what a single document batch changed in the graph.
// Failures of individual items are reported here instead of aborting the
// whole batch.
type UpsertReport struct {
	DocumentKey               string           `json:"document_key"`
	AlreadyProcessed          bool             `json:"already_processed"`
	EntitiesCreated           int              `json:"entities_created"`
	EntitiesMerged            int              `json:"entities_merged"`
	RelationshipsCreated      int              `json:"relationships_created"`
	RelationshipsStrengthened int              `json:"relationships_strengthened"`
	Skipped                   []SkippedMention `json:"skipped,omitempty"`
}

// RetrievalResult represents an entity retrieved for a query
type RetrievalResult struct {
	Entity          *Entity `json:"entity"`
	Score           float64 `json:"score"`            // combined score from ranking
	SimilarityScore float64 `json:"similarity_score"` // cosine similarity score
	GraphDistance   int     `json:"graph_distance"`   // hops from the nearest seed entity
	RetrievalMethod string  `json:"retrieval_method"` // how it was retrieved (vector, graph, profile)
}

// Answer is the final response to a natural-language question.
// When the LLM backend is unavailable, Text carries the rendered retrieval
// context instead of generated prose and Degraded is set.
type Answer struct {
	Text     string             `json:"text"`
	Intent   Intent             `json:"intent"`
	Results  []*RetrievalResult `json:"results,omitempty"`
	Subgraph *Subgraph          `json:"subgraph,omitempty"`
	Degraded bool               `json:"degraded"`
}

package model

// EntityMention is a single occurrence of an entity in one source document,
// as delivered by the upstream extraction feed. Mentions are ephemeral input
// into resolution; they are folded into counters on the canonical entity.
type EntityMention struct {
	Name        string     `json:"name"`
	Type        EntityType `json:"entity_type"`
	Description string     `json:"description,omitempty"`
	Embedding   []float32  `json:"embedding,omitempty"` // optional, precomputed upstream
	Properties  Properties `json:"properties,omitempty"`
}

// RelationshipMention is a single occurrence of a relationship between two
// entity mentions in one source document. Endpoints are referenced by
// (name, type) and must resolve before the edge is upserted.
type RelationshipMention struct {
	SourceName string           `json:"source_name"`
	SourceType EntityType       `json:"source_type"`
	TargetName string           `json:"target_name"`
	TargetType EntityType       `json:"target_type"`
	Type       RelationshipType `json:"relationship_type"`
	Properties Properties       `json:"properties,omitempty"`
}

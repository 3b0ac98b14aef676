package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityType is the closed set of canonical entity types
type EntityType string

const (
	EntityTypeCompany      EntityType = "Company"
	EntityTypePerson       EntityType = "Person"
	EntityTypeInvestor     EntityType = "Investor"
	EntityTypeTechnology   EntityType = "Technology"
	EntityTypeProduct      EntityType = "Product"
	EntityTypeFundingRound EntityType = "FundingRound"
	EntityTypeLocation     EntityType = "Location"
	EntityTypeEvent        EntityType = "Event"
)

// AllEntityTypes lists every valid entity type
var AllEntityTypes = []EntityType{
	EntityTypeCompany,
	EntityTypePerson,
	EntityTypeInvestor,
	EntityTypeTechnology,
	EntityTypeProduct,
	EntityTypeFundingRound,
	EntityTypeLocation,
	EntityTypeEvent,
}

// Valid reports whether the entity type is part of the closed set
func (t EntityType) Valid() bool {
	for _, known := range AllEntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Entity represents a canonical node in the graph.
// Multiple mentions of the same real-world thing resolve to one entity;
// the canonical key is the comparison string duplicates are detected by.
type Entity struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"` // original display casing
	Type         EntityType `json:"entity_type"`
	CanonicalKey string     `json:"canonical_key"`
	Description  string     `json:"description,omitempty"`
	MentionCount int        `json:"mention_count"`
	Embedding    []float32  `json:"embedding,omitempty"` // lazily computed, may be nil
	Properties   Properties `json:"properties,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ScoredEntity is an entity together with a similarity score from vector search
type ScoredEntity struct {
	Entity     *Entity `json:"entity"`
	Similarity float64 `json:"similarity"`
}

// ProfileEdge is one relationship of a profiled entity together with the peer
// entity on the other end
type ProfileEdge struct {
	Relationship *Relationship `json:"relationship"`
	Peer         *Entity       `json:"peer"`
}

// Profile is a structured lookup result for a single entity: the entity
// itself plus its strongest relationships and their peers
type Profile struct {
	Entity    *Entity        `json:"entity"`
	Neighbors []*ProfileEdge `json:"neighbors,omitempty"`
}

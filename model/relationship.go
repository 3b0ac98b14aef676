package model

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipType is the closed set of typed, directed connections
type RelationshipType string

const (
	RelationshipFundedBy       RelationshipType = "FUNDED_BY"
	RelationshipFoundedBy      RelationshipType = "FOUNDED_BY"
	RelationshipWorksAt        RelationshipType = "WORKS_AT"
	RelationshipAcquired       RelationshipType = "ACQUIRED"
	RelationshipCompetesWith   RelationshipType = "COMPETES_WITH"
	RelationshipPartnersWith   RelationshipType = "PARTNERS_WITH"
	RelationshipDevelops       RelationshipType = "DEVELOPS"
	RelationshipLocatedIn      RelationshipType = "LOCATED_IN"
	RelationshipParticipatedIn RelationshipType = "PARTICIPATED_IN"
)

// AllRelationshipTypes lists every valid relationship type
var AllRelationshipTypes = []RelationshipType{
	RelationshipFundedBy,
	RelationshipFoundedBy,
	RelationshipWorksAt,
	RelationshipAcquired,
	RelationshipCompetesWith,
	RelationshipPartnersWith,
	RelationshipDevelops,
	RelationshipLocatedIn,
	RelationshipParticipatedIn,
}

// Valid reports whether the relationship type is part of the closed set
func (t RelationshipType) Valid() bool {
	for _, known := range AllRelationshipTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Relationship represents a typed, directed edge between two canonical
// entities. Repeated mentions of the same (source, type, target) triple
// strengthen one edge rather than creating duplicates.
type Relationship struct {
	ID           uuid.UUID        `json:"id"`
	SourceID     uuid.UUID        `json:"source_id"`
	TargetID     uuid.UUID        `json:"target_id"`
	Type         RelationshipType `json:"relationship_type"`
	Strength     float64          `json:"strength"`
	MentionCount int              `json:"mention_count"`
	SourceCount  int              `json:"source_count"` // distinct documents corroborating the edge
	FirstSeen    time.Time        `json:"first_seen"`
	LastSeen     time.Time        `json:"last_seen"`
	Properties   Properties       `json:"properties,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// OtherEnd returns the entity on the opposite side of the edge from the
// given entity, and whether the edge is outgoing from it
func (r *Relationship) OtherEnd(entityID uuid.UUID) (uuid.UUID, bool) {
	if r.SourceID == entityID {
		return r.TargetID, true
	}
	return r.SourceID, false
}

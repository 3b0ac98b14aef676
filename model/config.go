package model

// QueryConfig represents configuration for a retrieval query
type QueryConfig struct {
	// Vector search parameters
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// Entity filtering
	EntityType *EntityType `json:"entity_type,omitempty"` // restrict search to one type

	// Graph traversal parameters
	MaxHops           int                `json:"max_hops,omitempty"`
	BranchCap         int                `json:"branch_cap,omitempty"` // strongest edges kept per node per hop
	RelationshipTypes []RelationshipType `json:"relationship_types,omitempty"`
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() *QueryConfig {
	return &QueryConfig{
		TopK:                5,
		SimilarityThreshold: 0.7,
		MaxHops:             2,
		BranchCap:           5,
		RelationshipTypes:   nil, // all types
	}
}

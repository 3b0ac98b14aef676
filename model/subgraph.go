package model

import "github.com/google/uuid"

// Subgraph is a bounded context graph produced by multi-hop traversal
type Subgraph struct {
	Nodes []*Entity       `json:"nodes"`
	Edges []*Relationship `json:"edges"`
}

// Node returns the entity with the given ID if it is part of the subgraph
func (s *Subgraph) Node(id uuid.UUID) *Entity {
	for _, node := range s.Nodes {
		if node.ID == id {
			return node
		}
	}
	return nil
}

// Empty reports whether the subgraph contains no nodes
func (s *Subgraph) Empty() bool {
	return s == nil || len(s.Nodes) == 0
}

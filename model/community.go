package model

import (
	"time"

	"github.com/google/uuid"
)

// Community is a derived grouping of entities produced by a clustering pass
// over the relationship graph. Communities are regenerated in batch and are
// a disposable cache; the resolution and query core never depends on them
// for correctness.
type Community struct {
	ID        int64       `json:"id"`
	Label     string      `json:"label"` // representative member name
	MemberIDs []uuid.UUID `json:"member_ids"`
	Size      int         `json:"size"`
	CreatedAt time.Time   `json:"created_at"`
}

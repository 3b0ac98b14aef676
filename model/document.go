package model

import (
	"time"
)

// Document represents a source article whose extraction output was ingested.
// The row doubles as the processed marker for ingest idempotence: a document
// key can be claimed exactly once, so re-ingesting the same extraction
// output never double-counts mentions.
type Document struct {
	ID          int64      `json:"id"`
	Key         string     `json:"key"` // upstream document identifier (URL, feed ID or content hash)
	Title       string     `json:"title"`
	Source      string     `json:"source,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ProcessedAt time.Time  `json:"processed_at"`
	Properties  Properties `json:"properties,omitempty"`
}

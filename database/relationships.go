package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	loadSql "github.com/siherrmann/newsgraph/sql"
)

// RelationshipsDBHandlerFunctions defines the interface for Relationships database operations.
type RelationshipsDBHandlerFunctions interface {
	UpsertRelationship(ctx context.Context, relationship *model.Relationship, documentKey string, seenAt time.Time) (bool, error)
	SelectRelationship(ctx context.Context, id uuid.UUID) (*model.Relationship, error)
	SelectRelationshipBetween(ctx context.Context, sourceID uuid.UUID, relType model.RelationshipType, targetID uuid.UUID) (*model.Relationship, error)
	SelectRelationshipsOfEntity(ctx context.Context, entityID uuid.UUID, relTypes []model.RelationshipType, limit int) ([]*model.Relationship, error)
	SelectAllRelationships(ctx context.Context, limit int) ([]*model.Relationship, error)
	UpdateRelationshipStrength(ctx context.Context, id uuid.UUID, strength float64) error
	DeleteRelationship(ctx context.Context, id uuid.UUID) error
}

// RelationshipsDBHandler handles relationship-related database operations
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// It initializes the database connection and loads relationship-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	err = relationshipsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// CreateTable creates the 'relationships' and 'relationship_sources' tables
// in the database. If the tables already exist, it does not create them
// again. It also creates all necessary indexes.
func (h *RelationshipsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relationships();`)
	if err != nil {
		log.Panicf("error initializing relationships table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table relationships")

	return nil
}

// UpsertRelationship creates the edge on first mention, otherwise
// strengthens the existing (source, type, target) edge: mention counter
// incremented, seen window widened, the document recorded for source
// diversity. Returns true when the edge was newly created. The strength
// field is not touched here; callers recompute it via the scorer.
func (h *RelationshipsDBHandler) UpsertRelationship(ctx context.Context, relationship *model.Relationship, documentKey string, seenAt time.Time) (bool, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM upsert_relationship($1, $2, $3, $4, $5, $6)`,
		relationship.SourceID,
		relationship.Type,
		relationship.TargetID,
		documentKey,
		seenAt,
		relationship.Properties,
	)

	var inserted bool
	err := row.Scan(
		&relationship.ID,
		&relationship.SourceID,
		&relationship.TargetID,
		&relationship.Type,
		&relationship.Strength,
		&relationship.MentionCount,
		&relationship.SourceCount,
		&relationship.FirstSeen,
		&relationship.LastSeen,
		&relationship.Properties,
		&relationship.CreatedAt,
		&relationship.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return inserted, nil
}

// SelectRelationship retrieves a relationship by ID
func (h *RelationshipsDBHandler) SelectRelationship(ctx context.Context, id uuid.UUID) (*model.Relationship, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM select_relationship($1)`,
		id,
	)

	relationship, err := scanRelationship(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return relationship, nil
}

// SelectRelationshipBetween retrieves the edge for an exact
// (source, type, target) triple. Returns nil without error when no edge
// exists.
func (h *RelationshipsDBHandler) SelectRelationshipBetween(ctx context.Context, sourceID uuid.UUID, relType model.RelationshipType, targetID uuid.UUID) (*model.Relationship, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM select_relationship_between($1, $2, $3)`,
		sourceID,
		relType,
		targetID,
	)

	relationship, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return relationship, nil
}

// SelectRelationshipsOfEntity retrieves edges touching an entity in either
// direction, strongest first. The limit acts as the traversal branch cap.
func (h *RelationshipsDBHandler) SelectRelationshipsOfEntity(ctx context.Context, entityID uuid.UUID, relTypes []model.RelationshipType, limit int) ([]*model.Relationship, error) {
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_relationships_of_entity($1, $2, $3)`,
		entityID,
		optionalTypeArray(relTypes),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// SelectAllRelationships retrieves all edges ordered by strength, used by
// the batch community rebuild
func (h *RelationshipsDBHandler) SelectAllRelationships(ctx context.Context, limit int) ([]*model.Relationship, error) {
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_all_relationships($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// UpdateRelationshipStrength sets the recomputed strength of an edge
func (h *RelationshipsDBHandler) UpdateRelationshipStrength(ctx context.Context, id uuid.UUID, strength float64) error {
	_, err := h.db.Instance.ExecContext(ctx,
		`SELECT update_relationship_strength($1, $2)`,
		id,
		strength,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteRelationship deletes a relationship by ID
func (h *RelationshipsDBHandler) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(ctx,
		`SELECT delete_relationship($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanRelationship(row rowScanner) (*model.Relationship, error) {
	relationship := &model.Relationship{}
	err := row.Scan(
		&relationship.ID,
		&relationship.SourceID,
		&relationship.TargetID,
		&relationship.Type,
		&relationship.Strength,
		&relationship.MentionCount,
		&relationship.SourceCount,
		&relationship.FirstSeen,
		&relationship.LastSeen,
		&relationship.Properties,
		&relationship.CreatedAt,
		&relationship.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return relationship, nil
}

func scanRelationships(rows *sql.Rows) ([]*model.Relationship, error) {
	var relationships []*model.Relationship
	for rows.Next() {
		relationship, err := scanRelationship(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		relationships = append(relationships, relationship)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relationships, nil
}

// optionalTypeArray converts an optional relationship type filter to a
// nullable text array parameter
func optionalTypeArray(relTypes []model.RelationshipType) interface{} {
	if len(relTypes) == 0 {
		return nil
	}
	types := make([]string, len(relTypes))
	for i, t := range relTypes {
		types[i] = string(t)
	}
	return pq.Array(types)
}

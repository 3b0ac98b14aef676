package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	loadSql "github.com/siherrmann/newsgraph/sql"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	UpsertEntity(ctx context.Context, entity *model.Entity) (bool, error)
	InsertEntityAlias(ctx context.Context, entityID uuid.UUID, entityType model.EntityType, aliasKey string) error
	SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	SelectEntityByKey(ctx context.Context, entityType model.EntityType, key string) (*model.Entity, error)
	SelectEntitiesByType(ctx context.Context, entityType model.EntityType, limit int) ([]*model.Entity, error)
	SelectEntitiesBySearch(ctx context.Context, searchTerm string, entityType *model.EntityType, limit int) ([]*model.Entity, error)
	SelectEntitiesBySimilarity(ctx context.Context, embedding []float32, entityType *model.EntityType, limit int, threshold float64) ([]*model.ScoredEntity, error)
	UpdateEntityEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
	DeleteEntity(ctx context.Context, id uuid.UUID) error
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, embeddingDim int, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' and 'entity_aliases' tables in the
// database. If the tables already exist, it does not create them again.
// It also creates all necessary indexes.
func (h *EntitiesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// UpsertEntity inserts a new entity or folds the mention into the existing
// row with the same (entity_type, canonical_key). Returns true when the
// entity was newly created. The uniqueness constraint makes a concurrent
// create race resolve as a merge for the losing writer.
func (h *EntitiesDBHandler) UpsertEntity(ctx context.Context, entity *model.Entity) (bool, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM insert_entity($1, $2, $3, $4, $5)`,
		entity.Name,
		entity.Type,
		entity.CanonicalKey,
		entity.Description,
		entity.Properties,
	)

	var inserted bool
	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Type,
		&entity.CanonicalKey,
		&entity.Description,
		&entity.MentionCount,
		&entity.Properties,
		&entity.CreatedAt,
		&entity.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return inserted, nil
}

// InsertEntityAlias registers an alternative canonical key for an entity
// so future mentions using the alias hit the exact-key path
func (h *EntitiesDBHandler) InsertEntityAlias(ctx context.Context, entityID uuid.UUID, entityType model.EntityType, aliasKey string) error {
	_, err := h.db.Instance.ExecContext(ctx,
		`SELECT insert_entity_alias($1, $2, $3)`,
		entityID,
		entityType,
		aliasKey,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectEntity retrieves an entity by ID
func (h *EntitiesDBHandler) SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM select_entity($1)`,
		id,
	)

	entity, err := scanEntity(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntityByKey retrieves an entity by type and canonical key, checking
// registered aliases as well. Returns nil without error when no entity
// matches, so callers can distinguish absence from failure.
func (h *EntitiesDBHandler) SelectEntityByKey(ctx context.Context, entityType model.EntityType, key string) (*model.Entity, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM select_entity_by_key($1, $2)`,
		entityType,
		key,
	)

	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntitiesByType retrieves entities of one type ordered by mention count
func (h *EntitiesDBHandler) SelectEntitiesByType(ctx context.Context, entityType model.EntityType, limit int) ([]*model.Entity, error) {
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_entities_by_type($1, $2)`,
		entityType,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// SelectEntitiesBySearch searches entities by name pattern
func (h *EntitiesDBHandler) SelectEntitiesBySearch(ctx context.Context, searchTerm string, entityType *model.EntityType, limit int) ([]*model.Entity, error) {
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_entities_by_search($1, $2, $3)`,
		searchTerm,
		optionalType(entityType),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// SelectEntitiesBySimilarity performs cosine similarity search over entities
// that have a stored embedding, optionally filtered by type. Entities
// without an embedding are excluded, not treated as zero-similarity matches.
func (h *EntitiesDBHandler) SelectEntitiesBySimilarity(ctx context.Context, embedding []float32, entityType *model.EntityType, limit int, threshold float64) ([]*model.ScoredEntity, error) {
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_entities_by_similarity($1, $2, $3, $4)`,
		pgvector.NewVector(embedding),
		optionalType(entityType),
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var scored []*model.ScoredEntity
	for rows.Next() {
		entity := &model.Entity{}
		var similarity float64
		err := rows.Scan(
			&entity.ID,
			&entity.Name,
			&entity.Type,
			&entity.CanonicalKey,
			&entity.Description,
			&entity.MentionCount,
			&entity.Properties,
			&entity.CreatedAt,
			&entity.UpdatedAt,
			&similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		scored = append(scored, &model.ScoredEntity{Entity: entity, Similarity: similarity})
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return scored, nil
}

// UpdateEntityEmbedding sets the lazily computed embedding of an entity
func (h *EntitiesDBHandler) UpdateEntityEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	_, err := h.db.Instance.ExecContext(ctx,
		`SELECT update_entity_embedding($1, $2)`,
		id,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteEntity deletes an entity by ID
func (h *EntitiesDBHandler) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(ctx,
		`SELECT delete_entity($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// rowScanner covers both sql.Row and sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row rowScanner) (*model.Entity, error) {
	entity := &model.Entity{}
	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Type,
		&entity.CanonicalKey,
		&entity.Description,
		&entity.MentionCount,
		&entity.Properties,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func scanEntities(rows *sql.Rows) ([]*model.Entity, error) {
	var entities []*model.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		entities = append(entities, entity)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// optionalType converts an optional entity type to a nullable query parameter
func optionalType(entityType *model.EntityType) interface{} {
	if entityType == nil {
		return nil
	}
	return string(*entityType)
}

package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	loadSql "github.com/siherrmann/newsgraph/sql"
)

// CommunitiesDBHandlerFunctions defines the interface for Communities database operations.
type CommunitiesDBHandlerFunctions interface {
	ReplaceCommunities(ctx context.Context, communities []*model.Community) error
	SelectCommunities(ctx context.Context, limit int) ([]*model.Community, error)
	SelectCommunitiesForEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Community, error)
}

// CommunitiesDBHandler handles community-related database operations
type CommunitiesDBHandler struct {
	db *helper.Database
}

// NewCommunitiesDBHandler creates a new communities database handler.
// It initializes the database connection and loads community-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCommunitiesDBHandler(db *helper.Database, force bool) (*CommunitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	communitiesDbHandler := &CommunitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadCommunitiesSql(communitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load communities sql", err)
	}

	err = communitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CommunitiesDBHandler")

	return communitiesDbHandler, nil
}

// CreateTable creates the 'communities' table in the database.
// If the table already exists, it does not create it again.
func (h *CommunitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create the table and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_communities();`)
	if err != nil {
		log.Panicf("error initializing communities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table communities")

	return nil
}

// ReplaceCommunities replaces all community rows with the given set.
// Communities are a derived cache, so the rebuild is wholesale.
func (h *CommunitiesDBHandler) ReplaceCommunities(ctx context.Context, communities []*model.Community) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `SELECT delete_all_communities()`)
	if err != nil {
		return helper.NewError("delete communities", err)
	}

	for _, community := range communities {
		memberIDs := make([]string, len(community.MemberIDs))
		for i, id := range community.MemberIDs {
			memberIDs[i] = id.String()
		}

		row := tx.QueryRowContext(ctx,
			`SELECT * FROM insert_community($1, $2, $3)`,
			community.Label,
			pq.Array(memberIDs),
			community.Size,
		)

		var scannedIDs []string
		err := row.Scan(
			&community.ID,
			&community.Label,
			pq.Array(&scannedIDs),
			&community.Size,
			&community.CreatedAt,
		)
		if err != nil {
			return helper.NewError("scan", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// SelectCommunities retrieves communities ordered by size
func (h *CommunitiesDBHandler) SelectCommunities(ctx context.Context, limit int) ([]*model.Community, error) {
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_communities($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var communities []*model.Community
	for rows.Next() {
		community, err := scanCommunity(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		communities = append(communities, community)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return communities, nil
}

// SelectCommunitiesForEntity retrieves the communities an entity belongs to
func (h *CommunitiesDBHandler) SelectCommunitiesForEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Community, error) {
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_communities_for_entity($1)`,
		entityID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var communities []*model.Community
	for rows.Next() {
		community, err := scanCommunity(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		communities = append(communities, community)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return communities, nil
}

func scanCommunity(row rowScanner) (*model.Community, error) {
	community := &model.Community{}
	var memberIDs []string
	err := row.Scan(
		&community.ID,
		&community.Label,
		pq.Array(&memberIDs),
		&community.Size,
		&community.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	community.MemberIDs = make([]uuid.UUID, 0, len(memberIDs))
	for _, raw := range memberIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		community.MemberIDs = append(community.MemberIDs, id)
	}

	return community, nil
}

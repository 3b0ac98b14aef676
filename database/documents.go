package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	loadSql "github.com/siherrmann/newsgraph/sql"
)

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	ClaimDocument(ctx context.Context, document *model.Document) (bool, error)
	SelectDocument(ctx context.Context, key string) (*model.Document, error)
	SelectAllDocuments(ctx context.Context, limit int) ([]*model.Document, error)
	DeleteDocument(ctx context.Context, key string) error
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create the table
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// ClaimDocument claims the document key as processed. Returns true when
// this call claimed it; false means the document was already ingested and
// the batch must be skipped to keep mention counts conservative.
func (h *DocumentsDBHandler) ClaimDocument(ctx context.Context, document *model.Document) (bool, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM claim_document($1, $2, $3, $4, $5)`,
		document.Key,
		document.Title,
		document.Source,
		document.PublishedAt,
		document.Properties,
	)

	var claimed bool
	err := row.Scan(&document.ID, &claimed)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return claimed, nil
}

// SelectDocument retrieves a document by its upstream key. Returns nil
// without error when the document has not been ingested.
func (h *DocumentsDBHandler) SelectDocument(ctx context.Context, key string) (*model.Document, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM select_document($1)`,
		key,
	)

	document, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return document, nil
}

// SelectAllDocuments retrieves ingested documents, most recent first
func (h *DocumentsDBHandler) SelectAllDocuments(ctx context.Context, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_all_documents($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		documents = append(documents, document)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// DeleteDocument deletes a document marker by key, allowing a re-ingest
func (h *DocumentsDBHandler) DeleteDocument(ctx context.Context, key string) error {
	_, err := h.db.Instance.ExecContext(ctx,
		`SELECT delete_document($1)`,
		key,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanDocument(row rowScanner) (*model.Document, error) {
	document := &model.Document{}
	err := row.Scan(
		&document.ID,
		&document.Key,
		&document.Title,
		&document.Source,
		&document.PublishedAt,
		&document.ProcessedAt,
		&document.Properties,
	)
	if err != nil {
		return nil, err
	}
	return document, nil
}

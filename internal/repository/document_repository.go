package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toshahriar/documenter/internal/model"
)

// DocumentRepo persists the document aggregate: the document row, its
// ordered signer set and its append-only activity log. Multi-row writes
// (create, update) run inside one transaction so a failure never leaves a
// document without its signers.
type DocumentRepo struct{ DB *sql.DB }

func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{DB: db} }

const documentColumns = "id, title, metadata, user_id, created_at, updated_at"

// CreateWithSigners inserts the document, its signers in submitted order and
// one activity summarizing the signer count, all in a single transaction.
// Signer Order values are taken as given; the handler validates they form a
// contiguous 1..N sequence.
func (r *DocumentRepo) CreateWithSigners(ctx context.Context, doc *model.Document, signers []model.DocumentSigner) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	doc.ID = uuid.NewString()
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now
	if doc.Metadata.Status == "" {
		doc.Metadata.Status = model.StatusCreated
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO documents (id, title, metadata, user_id, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		doc.ID, doc.Title, doc.Metadata, doc.UserID, doc.CreatedAt, doc.UpdatedAt); err != nil {
		return err
	}

	doc.Signers, err = insertSigners(ctx, tx, doc.ID, signers)
	if err != nil {
		return err
	}

	activity, err := insertActivity(ctx, tx, doc.ID, doc.Metadata.Status,
		fmt.Sprintf("Document created with %d signers", len(signers)))
	if err != nil {
		return err
	}
	doc.Activities = []model.DocumentActivity{*activity}

	return tx.Commit()
}

// UpdateWithSigners replaces the full signer set (delete-all-then-recreate,
// not diffed), writes the merged metadata and title, and appends one
// activity, in a single transaction. The caller supplies metadata already
// merged with the stored blob so the status survives when not resupplied.
func (r *DocumentRepo) UpdateWithSigners(ctx context.Context, doc *model.Document, signers []model.DocumentSigner) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM document_signers WHERE document_id=?", doc.ID); err != nil {
		return err
	}

	doc.UpdatedAt = time.Now().UTC()
	var res sql.Result
	if res, err = tx.ExecContext(ctx,
		"UPDATE documents SET title=?, metadata=?, updated_at=? WHERE id=?",
		doc.Title, doc.Metadata, doc.UpdatedAt, doc.ID); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}

	doc.Signers, err = insertSigners(ctx, tx, doc.ID, signers)
	if err != nil {
		return err
	}

	activity, err := insertActivity(ctx, tx, doc.ID, doc.Metadata.Status,
		fmt.Sprintf("Document updated with %d signers", len(signers)))
	if err != nil {
		return err
	}
	doc.Activities = append(doc.Activities, *activity)

	return tx.Commit()
}

func insertSigners(ctx context.Context, tx *sql.Tx, documentID string, signers []model.DocumentSigner) ([]model.DocumentSigner, error) {
	now := time.Now().UTC()
	out := make([]model.DocumentSigner, 0, len(signers))
	for _, s := range signers {
		s.ID = uuid.NewString()
		s.DocumentID = documentID
		if s.Status == "" {
			s.Status = model.StatusPending
		}
		s.CreatedAt, s.UpdatedAt = now, now
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO document_signers (id, name, email, designation, `order`, status, metadata, document_id, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)",
			s.ID, s.Name, s.Email, s.Designation, s.Order, s.Status, s.Metadata, s.DocumentID, s.CreatedAt, s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func insertActivity(ctx context.Context, tx *sql.Tx, documentID string, status model.DocumentStatus, message string) (*model.DocumentActivity, error) {
	a := model.DocumentActivity{
		ID:         uuid.NewString(),
		Status:     status,
		Metadata:   model.JSON{"message": message},
		DocumentID: documentID,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO document_activities (id, status, metadata, document_id, created_at) VALUES (?,?,?,?,?)",
		a.ID, a.Status, a.Metadata, a.DocumentID, a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByIDAndOwner loads the full aggregate (document, signers in signing
// order, activities oldest-first) scoped to the owning user.
func (r *DocumentRepo) GetByIDAndOwner(ctx context.Context, id, userID string) (*model.Document, error) {
	var d model.Document
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id=? AND user_id=?", id, userID).Scan(
		&d.ID, &d.Title, &d.Metadata, &d.UserID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadRelations(ctx, []*model.Document{&d}); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByOwner returns the user's documents, optionally filtered by a
// case-insensitive title substring and an exact metadata status. Signers
// and activities are batch-loaded with two IN queries.
func (r *DocumentRepo) ListByOwner(ctx context.Context, userID, search string, status model.DocumentStatus) ([]model.Document, error) {
	q := "SELECT " + documentColumns + " FROM documents WHERE user_id=?"
	args := []any{userID}
	if search != "" {
		q += " AND LOWER(title) LIKE ?"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	if status != "" {
		q += " AND JSON_UNQUOTE(JSON_EXTRACT(metadata,'$.status'))=?"
		args = append(args, string(status))
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Metadata, &d.UserID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*model.Document, len(docs))
	for i := range docs {
		refs[i] = &docs[i]
	}
	if err := r.loadRelations(ctx, refs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *DocumentRepo) loadRelations(ctx context.Context, docs []*model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[string]*model.Document, len(docs))
	placeholders := make([]string, 0, len(docs))
	ids := make([]any, 0, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
		placeholders = append(placeholders, "?")
		ids = append(ids, d.ID)
	}
	in := strings.Join(placeholders, ",")

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, email, designation, `order`, status, metadata, document_id, created_at, updated_at FROM document_signers WHERE document_id IN ("+in+") ORDER BY `order` ASC", ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.DocumentSigner
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Designation, &s.Order, &s.Status, &s.Metadata, &s.DocumentID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return err
		}
		if d := byID[s.DocumentID]; d != nil {
			d.Signers = append(d.Signers, s)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	arows, err := r.DB.QueryContext(ctx,
		"SELECT id, status, metadata, document_id, created_at FROM document_activities WHERE document_id IN ("+in+") ORDER BY created_at ASC", ids...)
	if err != nil {
		return err
	}
	defer arows.Close()
	for arows.Next() {
		var a model.DocumentActivity
		if err := arows.Scan(&a.ID, &a.Status, &a.Metadata, &a.DocumentID, &a.CreatedAt); err != nil {
			return err
		}
		if d := byID[a.DocumentID]; d != nil {
			d.Activities = append(d.Activities, a)
		}
	}
	return arows.Err()
}

// Analytics buckets the user's documents by metadata status in a single
// conditional-aggregation query, reading the same source of truth as the
// list view.
func (r *DocumentRepo) Analytics(ctx context.Context, userID string) (model.DocumentAnalytics, error) {
	var a model.DocumentAnalytics
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) AS total,
			COUNT(CASE WHEN JSON_UNQUOTE(JSON_EXTRACT(metadata,'$.status'))='sent' THEN 1 END) AS total_sent,
			COUNT(CASE WHEN JSON_UNQUOTE(JSON_EXTRACT(metadata,'$.status'))='signed' THEN 1 END) AS total_signed,
			COUNT(CASE WHEN JSON_UNQUOTE(JSON_EXTRACT(metadata,'$.status'))='declined' THEN 1 END) AS total_declined,
			COUNT(CASE WHEN JSON_UNQUOTE(JSON_EXTRACT(metadata,'$.status'))='completed' THEN 1 END) AS total_completed
		FROM documents WHERE user_id=?`, userID).Scan(
		&a.Total, &a.TotalSent, &a.TotalSigned, &a.TotalDeclined, &a.TotalCompleted)
	return a, err
}

// UpdateMetadata writes a new metadata blob onto the document row. Used by
// the dispatcher after a successful envelope send.
func (r *DocumentRepo) UpdateMetadata(ctx context.Context, id string, meta model.Metadata) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE documents SET metadata=?, updated_at=? WHERE id=?",
		meta, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document row; signers and activities go with it via
// the FK cascade.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM documents WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendActivity records one audit entry outside of a create/update
// transaction (e.g. after an envelope dispatch).
func (r *DocumentRepo) AppendActivity(ctx context.Context, documentID string, status model.DocumentStatus, message string) (*model.DocumentActivity, error) {
	a := model.DocumentActivity{
		ID:         uuid.NewString(),
		Status:     status,
		Metadata:   model.JSON{"message": message},
		DocumentID: documentID,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO document_activities (id, status, metadata, document_id, created_at) VALUES (?,?,?,?,?)",
		a.ID, a.Status, a.Metadata, a.DocumentID, a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

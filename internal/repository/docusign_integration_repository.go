package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/toshahriar/documenter/internal/model"
)

// DocusignIntegrationRepo persists the per-user signing-provider
// authorization record. At most one row exists per user, enforced by a
// unique key on user_id; Upsert replaces the whole metadata blob.
type DocusignIntegrationRepo struct{ DB *sql.DB }

func NewDocusignIntegrationRepo(db *sql.DB) *DocusignIntegrationRepo {
	return &DocusignIntegrationRepo{DB: db}
}

func (r *DocusignIntegrationRepo) GetByUser(ctx context.Context, userID string) (*model.DocusignIntegration, error) {
	var i model.DocusignIntegration
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, metadata, user_id, created_at, updated_at FROM docusign_integrations WHERE user_id=? LIMIT 1",
		userID).Scan(&i.ID, &i.Metadata, &i.UserID, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

// Upsert inserts the integration row or overwrites its metadata when the
// user already has one. No field-level merging: the callback payload is
// stored whole.
func (r *DocusignIntegrationRepo) Upsert(ctx context.Context, userID string, metadata model.JSON) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO docusign_integrations (id, metadata, user_id, created_at, updated_at) VALUES (?,?,?,?,?) ON DUPLICATE KEY UPDATE metadata=VALUES(metadata), updated_at=VALUES(updated_at)",
		uuid.NewString(), metadata, userID, now, now)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/toshahriar/documenter/internal/model"
	"github.com/toshahriar/documenter/internal/utils"
)

// VerificationTokenRepo persists one-time email-verification and
// password-reset tokens. The two purposes share the table but are never
// cross-matched: every lookup includes the type.
type VerificationTokenRepo struct{ DB *sql.DB }

func NewVerificationTokenRepo(db *sql.DB) *VerificationTokenRepo {
	return &VerificationTokenRepo{DB: db}
}

// Create issues a fresh token of the given type for the user. The value is
// always newly generated; issuing does not revoke older tokens, so callers
// revoke first when only the newest may remain valid.
func (r *VerificationTokenRepo) Create(ctx context.Context, userID string, typ model.VerificationTokenType, expiresAt time.Time) (*model.VerificationToken, error) {
	value, err := utils.GenerateToken(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &model.VerificationToken{
		ID:        uuid.NewString(),
		Token:     value,
		Type:      typ,
		ExpiresAt: expiresAt,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO verification_tokens (id, token, type, expires_at, user_id, is_revoked, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
		t.ID, t.Token, t.Type, t.ExpiresAt, t.UserID, t.IsRevoked, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// FindValid matches token, type and user exactly, rejecting revoked and
// expired rows. Any miss is ErrNotFound; the caller never learns which
// condition failed.
func (r *VerificationTokenRepo) FindValid(ctx context.Context, token string, typ model.VerificationTokenType, userID string) (*model.VerificationToken, error) {
	var t model.VerificationToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token, type, expires_at, user_id, is_revoked, created_at, updated_at FROM verification_tokens WHERE token=? AND type=? AND user_id=? AND is_revoked=0 AND expires_at>? LIMIT 1",
		token, typ, userID, time.Now().UTC()).Scan(
		&t.ID, &t.Token, &t.Type, &t.ExpiresAt, &t.UserID, &t.IsRevoked, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Revoke marks every token of the given type for the user as revoked. It is
// idempotent and used both after successful consumption and before issuing
// a replacement.
func (r *VerificationTokenRepo) Revoke(ctx context.Context, userID string, typ model.VerificationTokenType) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE verification_tokens SET is_revoked=1, updated_at=? WHERE user_id=? AND type=?",
		time.Now().UTC(), userID, typ)
	return err
}

// DeleteExpired sweeps rows past their expiry. Maintenance only, never part
// of the request path.
func (r *VerificationTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM verification_tokens WHERE expires_at<=?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

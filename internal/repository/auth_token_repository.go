package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/toshahriar/documenter/internal/model"
)

// AuthTokenRepo persists login sessions. One row is created per login; a
// refresh replaces only the access token on the same row. Logout revokes
// rather than deletes, keeping the audit trail.
type AuthTokenRepo struct{ DB *sql.DB }

func NewAuthTokenRepo(db *sql.DB) *AuthTokenRepo { return &AuthTokenRepo{DB: db} }

// Create inserts a fresh session row for a successful authentication.
func (r *AuthTokenRepo) Create(ctx context.Context, t *model.AuthToken) error {
	t.ID = uuid.NewString()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO auth_tokens (id, access_token, access_token_expires_at, refresh_token, refresh_token_expires_at, user_id, is_revoked, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?)",
		t.ID, t.AccessToken, t.AccessTokenExpiresAt, t.RefreshToken, t.RefreshTokenExpiresAt,
		t.UserID, t.IsRevoked, t.CreatedAt, t.UpdatedAt)
	return err
}

// FindValidRefresh returns the session row holding refreshToken, provided
// it is not revoked and the refresh expiry lies in the future. A userID
// narrows the match to the token's subject when given. Revoked, expired and
// unknown tokens are indistinguishable: all return ErrNotFound.
func (r *AuthTokenRepo) FindValidRefresh(ctx context.Context, refreshToken, userID string) (*model.AuthToken, error) {
	q := "SELECT id, access_token, access_token_expires_at, refresh_token, refresh_token_expires_at, user_id, is_revoked, created_at, updated_at FROM auth_tokens WHERE refresh_token=? AND is_revoked=0 AND refresh_token_expires_at>?"
	args := []any{refreshToken, time.Now().UTC()}
	if userID != "" {
		q += " AND user_id=?"
		args = append(args, userID)
	}
	var t model.AuthToken
	err := r.DB.QueryRowContext(ctx, q+" LIMIT 1", args...).Scan(
		&t.ID, &t.AccessToken, &t.AccessTokenExpiresAt, &t.RefreshToken, &t.RefreshTokenExpiresAt,
		&t.UserID, &t.IsRevoked, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// UpdateAccessToken persists a newly minted access token onto an existing
// session row; the refresh token is left unchanged.
func (r *AuthTokenRepo) UpdateAccessToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE auth_tokens SET access_token=?, access_token_expires_at=?, updated_at=? WHERE id=?",
		accessToken, expiresAt, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Revoke marks the session holding the given token as revoked. The token
// type selects which column to match.
func (r *AuthTokenRepo) Revoke(ctx context.Context, token string, typ model.TokenType) error {
	col := "access_token"
	if typ == model.TokenTypeRefresh {
		col = "refresh_token"
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE auth_tokens SET is_revoked=1, updated_at=? WHERE "+col+"=?",
		time.Now().UTC(), token)
	return err
}

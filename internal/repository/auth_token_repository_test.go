package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toshahriar/documenter/internal/model"
)

func newMock(t *testing.T) (*AuthTokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthTokenRepo(db), mock
}

func TestAuthTokenCreate(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("INSERT INTO auth_tokens").
		WithArgs(sqlmock.AnyArg(), "acc", sqlmock.AnyArg(), "ref", sqlmock.AnyArg(),
			"user-1", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tok := &model.AuthToken{
		AccessToken:           "acc",
		AccessTokenExpiresAt:  time.Now().Add(time.Hour),
		RefreshToken:          "ref",
		RefreshTokenExpiresAt: time.Now().Add(24 * time.Hour),
		UserID:                "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), tok))
	assert.NotEmpty(t, tok.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindValidRefreshFound(t *testing.T) {
	repo, mock := newMock(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "access_token", "access_token_expires_at", "refresh_token",
		"refresh_token_expires_at", "user_id", "is_revoked", "created_at", "updated_at",
	}).AddRow("tok-1", "acc", now.Add(time.Hour), "ref", now.Add(24*time.Hour), "user-1", false, now, now)

	mock.ExpectQuery("SELECT (.+) FROM auth_tokens WHERE refresh_token=\\? AND is_revoked=0 AND refresh_token_expires_at>\\? AND user_id=\\?").
		WithArgs("ref", sqlmock.AnyArg(), "user-1").
		WillReturnRows(rows)

	tok, err := repo.FindValidRefresh(context.Background(), "ref", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.ID)
	assert.Equal(t, "ref", tok.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindValidRefreshCollapsesToNotFound(t *testing.T) {
	repo, mock := newMock(t)

	// Revoked, expired and unknown tokens all come back as zero rows.
	mock.ExpectQuery("SELECT (.+) FROM auth_tokens").
		WithArgs("ref", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindValidRefresh(context.Background(), "ref", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAccessTokenMissingRow(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE auth_tokens SET access_token=").
		WithArgs("new-acc", sqlmock.AnyArg(), sqlmock.AnyArg(), "tok-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAccessToken(context.Background(), "tok-404", "new-acc", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeMatchesTokenColumn(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE auth_tokens SET is_revoked=1, updated_at=\\? WHERE refresh_token=\\?").
		WithArgs(sqlmock.AnyArg(), "ref").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Revoke(context.Background(), "ref", model.TokenTypeRefresh))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toshahriar/documenter/internal/model"
)

// UserRepo persists user identity records. Email and username uniqueness is
// enforced by database unique keys; Create maps violations onto the
// field-level sentinel errors.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, first_name, last_name, username, email, password, is_verified, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email,
		&u.PasswordHash, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user and fills in the generated id and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.ID = uuid.NewString()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, first_name, last_name, username, email, password, is_verified, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?)",
		u.ID, u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash, u.IsVerified, u.CreatedAt, u.UpdatedAt)
	if msg, ok := isDuplicate(err); ok {
		if strings.Contains(msg, "email") {
			return ErrEmailExists
		}
		return ErrUsernameExists
	}
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=?", id))
}

// GetByIdentifier resolves a login identifier against both email and
// username.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? OR username=? LIMIT 1",
		identifier, identifier))
}

// EmailTaken reports whether email belongs to a user other than excludeID.
// Pass an empty excludeID for registration checks.
func (r *UserRepo) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=? AND id<>?", email, excludeID).Scan(&n)
	return n > 0, err
}

// UsernameTaken mirrors EmailTaken for the username column.
func (r *UserRepo) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	if username == "" {
		return false, nil
	}
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username=? AND id<>?", username, excludeID).Scan(&n)
	return n > 0, err
}

// MarkVerified flips the is_verified flag after a successful email
// verification.
func (r *UserRepo) MarkVerified(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_verified=1, updated_at=? WHERE id=?", time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Update persists profile edits. An empty PasswordHash keeps the stored one.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	var err error
	if u.PasswordHash != "" {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET first_name=?, last_name=?, username=?, email=?, password=?, updated_at=? WHERE id=?",
			u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash, u.UpdatedAt, u.ID)
	} else {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET first_name=?, last_name=?, username=?, email=?, updated_at=? WHERE id=?",
			u.FirstName, u.LastName, u.Username, u.Email, u.UpdatedAt, u.ID)
	}
	if msg, ok := isDuplicate(err); ok {
		if strings.Contains(msg, "email") {
			return ErrEmailExists
		}
		return ErrUsernameExists
	}
	return err
}

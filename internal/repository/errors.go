// Package repository implements the data access layer over database/sql.
// This file defines error values and helpers reused across repositories so
// handlers can distinguish failure scenarios without parsing SQL errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row. Expired and revoked
// tokens also collapse to it so callers cannot tell "wrong" from "expired".
var ErrNotFound = errors.New("not found")

// ErrEmailExists and ErrUsernameExists surface the users table unique keys
// as field-level failures. The DB constraint is the source of truth, so a
// concurrent insert can never slip past.
var (
	ErrEmailExists    = errors.New("email already taken")
	ErrUsernameExists = errors.New("username already taken")
)

const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL duplicate-key violation, and
// returns the server message for constraint matching.
func isDuplicate(err error) (string, bool) {
	var merr *mysql.MySQLError
	if errors.As(err, &merr) && merr.Number == mysqlDuplicateEntry {
		return merr.Message, true
	}
	return "", false
}

// Package repository holds the Record Store: low-level row operations on
// the users, movies and user_movies tables.  Repositories accept a DBTX so
// the same code runs against the pool or inside a transaction owned by
// the caller.  They return the sentinel errors below instead of
// sql.ErrNoRows so higher layers can tell which entity was missing.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is the common cause of every entity-specific not-found error.
var ErrNotFound = errors.New("not found")

// ErrUserNotFound is returned when a user row cannot be found.
var ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

// ErrMovieNotFound is returned when a movie row cannot be found.
var ErrMovieNotFound = fmt.Errorf("movie %w", ErrNotFound)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

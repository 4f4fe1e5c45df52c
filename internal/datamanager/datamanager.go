// Package datamanager is the data access facade used by the web layer.
// It exposes typed operations over users, movies and their many-to-many
// association, and guarantees that callers only ever see the error kinds
// declared here: a not-found sentinel, ErrEmptyName, or a *StorageError
// wrapping whatever the storage engine reported.
package datamanager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/repository"
)

var (
	// ErrNotFound matches both ErrUserNotFound and ErrMovieNotFound.
	ErrNotFound = repository.ErrNotFound
	// ErrUserNotFound is returned when an operation targets a missing user.
	ErrUserNotFound = repository.ErrUserNotFound
	// ErrMovieNotFound is returned when an operation targets a missing movie.
	ErrMovieNotFound = repository.ErrMovieNotFound
	// ErrEmptyName is returned when a user or movie name is blank.
	ErrEmptyName = errors.New("name must not be empty")
)

// StorageError wraps a failure of the underlying store.  Any write that
// was in flight has been rolled back by the time it is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// MovieInput carries the writable fields of a movie.  A nil or empty
// Poster leaves the stored poster untouched on update.
type MovieInput struct {
	Name     string
	Director string
	Year     int
	Rating   float64
	Poster   *string
}

func (in MovieInput) poster() string {
	if in.Poster == nil {
		return ""
	}
	return *in.Poster
}

// DataManager is the persistence contract consumed by the web layer.
// Records are returned by value so callers never hold storage handles.
type DataManager interface {
	AddUser(ctx context.Context, name string) (int64, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)

	AddMovie(ctx context.Context, in MovieInput) (int64, error)
	GetMovie(ctx context.Context, id int64) (*model.Movie, error)
	GetAllMovies(ctx context.Context) ([]model.Movie, error)
	UpdateMovie(ctx context.Context, id int64, in MovieInput) (bool, error)
	DeleteMovie(ctx context.Context, id int64) (bool, error)
	SearchMovies(ctx context.Context, query string) ([]model.Movie, error)

	GetUserMovies(ctx context.Context, userID int64) ([]model.Movie, error)
	AddUserMovie(ctx context.Context, userID, movieID int64) (bool, error)
	RemoveUserMovie(ctx context.Context, userID, movieID int64) (bool, error)
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// wrap keeps the facade's own error kinds and turns everything else into
// a *StorageError.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmptyName) || errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

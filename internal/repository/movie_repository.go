package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movieweb/internal/model"
)

const movieColumns = "id, name, director, year, rating, poster"

// MovieRepo encapsulates all queries against the movies table.
type MovieRepo struct{}

func NewMovieRepo() *MovieRepo { return &MovieRepo{} }

// Create inserts a new movie and populates m.ID with the generated value.
// An empty Poster is stored as NULL.
func (r *MovieRepo) Create(ctx context.Context, db DBTX, m *model.Movie) error {
	const q = "INSERT INTO movies (name, director, year, rating, poster) VALUES (?, ?, ?, ?, ?)"
	res, err := db.ExecContext(ctx, q, m.Name, m.Director, m.Year, m.Rating, nullString(m.Poster))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// GetByID fetches a movie by id or returns ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, db DBTX, id int64) (*model.Movie, error) {
	row := db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ? LIMIT 1", id)
	m, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

// GetByIDForUpdate is GetByID with a row lock, for use inside a transaction.
func (r *MovieRepo) GetByIDForUpdate(ctx context.Context, tx DBTX, id int64) (*model.Movie, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ? FOR UPDATE", id)
	m, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

// Exists reports whether a movie with the given id is present.
func (r *MovieRepo) Exists(ctx context.Context, db DBTX, id int64) (bool, error) {
	return exists(ctx, db, "SELECT 1 FROM movies WHERE id = ? LIMIT 1", id)
}

// ListAll returns all movies ordered by id.
func (r *MovieRepo) ListAll(ctx context.Context, db DBTX) ([]model.Movie, error) {
	return queryMovies(ctx, db, "SELECT "+movieColumns+" FROM movies ORDER BY id")
}

// SearchByName returns movies whose name contains query, ignoring case.
// LIKE wildcards inside query are escaped so they match literally.
func (r *MovieRepo) SearchByName(ctx context.Context, db DBTX, query string) ([]model.Movie, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return queryMovies(ctx, db,
		"SELECT "+movieColumns+" FROM movies WHERE LOWER(name) LIKE ? ORDER BY id", pattern)
}

// Update overwrites every column of the movie.  MySQL reports zero
// affected rows when the new values equal the old ones, so callers must
// check existence themselves rather than rely on RowsAffected.
func (r *MovieRepo) Update(ctx context.Context, db DBTX, m *model.Movie) error {
	const q = `UPDATE movies
	           SET name = ?, director = ?, year = ?, rating = ?, poster = ?
	           WHERE id = ?`
	_, err := db.ExecContext(ctx, q, m.Name, m.Director, m.Year, m.Rating, nullString(m.Poster), m.ID)
	return err
}

// Delete removes a movie row and reports whether one existed.
func (r *MovieRepo) Delete(ctx context.Context, db DBTX, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner) (*model.Movie, error) {
	var m model.Movie
	var poster sql.NullString
	if err := s.Scan(&m.ID, &m.Name, &m.Director, &m.Year, &m.Rating, &poster); err != nil {
		return nil, err
	}
	m.Poster = poster.String
	return &m, nil
}

func queryMovies(ctx context.Context, db DBTX, q string, args ...any) ([]model.Movie, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

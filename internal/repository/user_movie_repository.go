package repository

import (
	"context"

	"github.com/iliyamo/movieweb/internal/model"
)

// UserMovieRepo manages the user_movies association table.  Rows carry no
// payload; the composite primary key (user_id, movie_id) guarantees a pair
// is stored at most once.
type UserMovieRepo struct{}

func NewUserMovieRepo() *UserMovieRepo { return &UserMovieRepo{} }

// Add links a movie to a user.  Re-adding an existing pair is a no-op.
func (r *UserMovieRepo) Add(ctx context.Context, db DBTX, userID, movieID int64) error {
	const q = `INSERT INTO user_movies (user_id, movie_id) VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE user_id = user_id`
	_, err := db.ExecContext(ctx, q, userID, movieID)
	return err
}

// Remove unlinks a movie from a user and reports whether a row was removed.
func (r *UserMovieRepo) Remove(ctx context.Context, db DBTX, userID, movieID int64) (bool, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM user_movies WHERE user_id = ? AND movie_id = ?", userID, movieID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByMovie removes every association that references the movie.
func (r *UserMovieRepo) DeleteByMovie(ctx context.Context, db DBTX, movieID int64) error {
	_, err := db.ExecContext(ctx, "DELETE FROM user_movies WHERE movie_id = ?", movieID)
	return err
}

// ListMovies returns the movies linked to a user ordered by movie id.
func (r *UserMovieRepo) ListMovies(ctx context.Context, db DBTX, userID int64) ([]model.Movie, error) {
	const q = `SELECT m.id, m.name, m.director, m.year, m.rating, m.poster
	           FROM movies m
	           JOIN user_movies um ON um.movie_id = m.id
	           WHERE um.user_id = ?
	           ORDER BY m.id`
	return queryMovies(ctx, db, q, userID)
}

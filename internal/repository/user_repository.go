package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movieweb/internal/model"
)

type UserRepo struct{}

func NewUserRepo() *UserRepo { return &UserRepo{} }

// Create inserts a user and returns its generated ID.
func (r *UserRepo) Create(ctx context.Context, db DBTX, name string) (int64, error) {
	res, err := db.ExecContext(ctx, "INSERT INTO users (name) VALUES (?)", name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, db DBTX, id int64) (*model.User, error) {
	var u model.User
	err := db.QueryRowContext(ctx, "SELECT id, name FROM users WHERE id = ? LIMIT 1", id).Scan(&u.ID, &u.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user with the given id is present.
func (r *UserRepo) Exists(ctx context.Context, db DBTX, id int64) (bool, error) {
	return exists(ctx, db, "SELECT 1 FROM users WHERE id = ? LIMIT 1", id)
}

// ListAll returns every user ordered by id.
func (r *UserRepo) ListAll(ctx context.Context, db DBTX) ([]model.User, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func exists(ctx context.Context, db DBTX, q string, args ...any) (bool, error) {
	var one int
	if err := db.QueryRowContext(ctx, q, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

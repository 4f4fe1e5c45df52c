package datamanager

import (
	"context"
	"database/sql"

	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/repository"
)

// SQLDataManager implements DataManager on top of the MySQL record store.
// Every write runs in its own transaction which is rolled back on any
// error path, including panics.
type SQLDataManager struct {
	db     *sql.DB
	users  *repository.UserRepo
	movies *repository.MovieRepo
	links  *repository.UserMovieRepo
}

var _ DataManager = (*SQLDataManager)(nil)

func NewSQLDataManager(db *sql.DB) *SQLDataManager {
	if db == nil {
		panic("nil db passed to NewSQLDataManager")
	}
	return &SQLDataManager{
		db:     db,
		users:  repository.NewUserRepo(),
		movies: repository.NewMovieRepo(),
		links:  repository.NewUserMovieRepo(),
	}
}

// withTx runs fn inside a transaction.  fn's error decides between commit
// and rollback; the returned error is already translated by wrap.
func (m *SQLDataManager) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(op, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			err = wrap(op, err)
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = wrap(op, cerr)
		}
	}()
	return fn(tx)
}

func (m *SQLDataManager) AddUser(ctx context.Context, name string) (int64, error) {
	name, err := cleanName(name)
	if err != nil {
		return 0, err
	}
	var id int64
	err = m.withTx(ctx, "add user", func(tx *sql.Tx) error {
		var err error
		id, err = m.users.Create(ctx, tx, name)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (m *SQLDataManager) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := m.users.GetByID(ctx, m.db, id)
	if err != nil {
		return nil, wrap("get user", err)
	}
	return u, nil
}

func (m *SQLDataManager) GetAllUsers(ctx context.Context) ([]model.User, error) {
	out, err := m.users.ListAll(ctx, m.db)
	if err != nil {
		return nil, wrap("list users", err)
	}
	return out, nil
}

func (m *SQLDataManager) AddMovie(ctx context.Context, in MovieInput) (int64, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return 0, err
	}
	mv := &model.Movie{Name: name, Director: in.Director, Year: in.Year, Rating: in.Rating, Poster: in.poster()}
	err = m.withTx(ctx, "add movie", func(tx *sql.Tx) error {
		return m.movies.Create(ctx, tx, mv)
	})
	if err != nil {
		return 0, err
	}
	return mv.ID, nil
}

func (m *SQLDataManager) GetMovie(ctx context.Context, id int64) (*model.Movie, error) {
	mv, err := m.movies.GetByID(ctx, m.db, id)
	if err != nil {
		return nil, wrap("get movie", err)
	}
	return mv, nil
}

func (m *SQLDataManager) GetAllMovies(ctx context.Context) ([]model.Movie, error) {
	out, err := m.movies.ListAll(ctx, m.db)
	if err != nil {
		return nil, wrap("list movies", err)
	}
	return out, nil
}

func (m *SQLDataManager) UpdateMovie(ctx context.Context, id int64, in MovieInput) (bool, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return false, err
	}
	err = m.withTx(ctx, "update movie", func(tx *sql.Tx) error {
		mv, err := m.movies.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		mv.Name = name
		mv.Director = in.Director
		mv.Year = in.Year
		mv.Rating = in.Rating
		if p := in.poster(); p != "" {
			mv.Poster = p
		}
		return m.movies.Update(ctx, tx, mv)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteMovie removes the movie together with its associations.  The
// schema cascades as well; deleting the links first keeps the behavior
// identical on engines without foreign key support.
func (m *SQLDataManager) DeleteMovie(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := m.withTx(ctx, "delete movie", func(tx *sql.Tx) error {
		if err := m.links.DeleteByMovie(ctx, tx, id); err != nil {
			return err
		}
		var err error
		deleted, err = m.movies.Delete(ctx, tx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (m *SQLDataManager) SearchMovies(ctx context.Context, query string) ([]model.Movie, error) {
	out, err := m.movies.SearchByName(ctx, m.db, query)
	if err != nil {
		return nil, wrap("search movies", err)
	}
	return out, nil
}

func (m *SQLDataManager) GetUserMovies(ctx context.Context, userID int64) ([]model.Movie, error) {
	ok, err := m.users.Exists(ctx, m.db, userID)
	if err != nil {
		return nil, wrap("list user movies", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	out, err := m.links.ListMovies(ctx, m.db, userID)
	if err != nil {
		return nil, wrap("list user movies", err)
	}
	return out, nil
}

// AddUserMovie links a movie to a user.  It returns false without error
// when either side is missing; an existing link is left as is.
func (m *SQLDataManager) AddUserMovie(ctx context.Context, userID, movieID int64) (bool, error) {
	var added bool
	err := m.withTx(ctx, "add user movie", func(tx *sql.Tx) error {
		ok, err := m.bothExist(ctx, tx, userID, movieID)
		if err != nil || !ok {
			return err
		}
		if err := m.links.Add(ctx, tx, userID, movieID); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// RemoveUserMovie unlinks a movie from a user.  It returns false when the
// user, the movie or the link itself does not exist.
func (m *SQLDataManager) RemoveUserMovie(ctx context.Context, userID, movieID int64) (bool, error) {
	var removed bool
	err := m.withTx(ctx, "remove user movie", func(tx *sql.Tx) error {
		ok, err := m.bothExist(ctx, tx, userID, movieID)
		if err != nil || !ok {
			return err
		}
		removed, err = m.links.Remove(ctx, tx, userID, movieID)
		return err
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (m *SQLDataManager) bothExist(ctx context.Context, tx *sql.Tx, userID, movieID int64) (bool, error) {
	ok, err := m.users.Exists(ctx, tx, userID)
	if err != nil || !ok {
		return false, err
	}
	return m.movies.Exists(ctx, tx, movieID)
}

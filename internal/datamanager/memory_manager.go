package datamanager

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/movieweb/internal/model"
)

// MemoryDataManager is an in-process DataManager with the same contract
// as SQLDataManager.  It backs tests and the "memory" storage mode.
type MemoryDataManager struct {
	mu          sync.RWMutex
	users       map[int64]model.User
	movies      map[int64]model.Movie
	links       map[int64]map[int64]struct{} // user id -> movie ids
	nextUserID  int64
	nextMovieID int64
}

var _ DataManager = (*MemoryDataManager)(nil)

func NewMemoryDataManager() *MemoryDataManager {
	return &MemoryDataManager{
		users:  make(map[int64]model.User),
		movies: make(map[int64]model.Movie),
		links:  make(map[int64]map[int64]struct{}),
	}
}

func (m *MemoryDataManager) AddUser(ctx context.Context, name string) (int64, error) {
	name, err := cleanName(name)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextUserID++
	m.users[m.nextUserID] = model.User{ID: m.nextUserID, Name: name}
	return m.nextUserID, nil
}

func (m *MemoryDataManager) GetUser(ctx context.Context, id int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryDataManager) GetAllUsers(ctx context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryDataManager) AddMovie(ctx context.Context, in MovieInput) (int64, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextMovieID++
	m.movies[m.nextMovieID] = model.Movie{
		ID:       m.nextMovieID,
		Name:     name,
		Director: in.Director,
		Year:     in.Year,
		Rating:   in.Rating,
		Poster:   in.poster(),
	}
	return m.nextMovieID, nil
}

func (m *MemoryDataManager) GetMovie(ctx context.Context, id int64) (*model.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mv, ok := m.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	return &mv, nil
}

func (m *MemoryDataManager) GetAllMovies(ctx context.Context) ([]model.Movie, error) {
	return m.filterMovies(func(model.Movie) bool { return true }), nil
}

func (m *MemoryDataManager) SearchMovies(ctx context.Context, query string) ([]model.Movie, error) {
	q := strings.ToLower(query)
	return m.filterMovies(func(mv model.Movie) bool {
		return strings.Contains(strings.ToLower(mv.Name), q)
	}), nil
}

func (m *MemoryDataManager) UpdateMovie(ctx context.Context, id int64, in MovieInput) (bool, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mv, ok := m.movies[id]
	if !ok {
		return false, ErrMovieNotFound
	}
	mv.Name = name
	mv.Director = in.Director
	mv.Year = in.Year
	mv.Rating = in.Rating
	if p := in.poster(); p != "" {
		mv.Poster = p
	}
	m.movies[id] = mv
	return true, nil
}

func (m *MemoryDataManager) DeleteMovie(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.movies[id]; !ok {
		return false, nil
	}
	delete(m.movies, id)
	for _, set := range m.links {
		delete(set, id)
	}
	return true, nil
}

func (m *MemoryDataManager) GetUserMovies(ctx context.Context, userID int64) ([]model.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	set := m.links[userID]
	out := make([]model.Movie, 0, len(set))
	for movieID := range set {
		if mv, ok := m.movies[movieID]; ok {
			out = append(out, mv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryDataManager) AddUserMovie(ctx context.Context, userID, movieID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.bothExist(userID, movieID) {
		return false, nil
	}
	set, ok := m.links[userID]
	if !ok {
		set = make(map[int64]struct{})
		m.links[userID] = set
	}
	set[movieID] = struct{}{}
	return true, nil
}

func (m *MemoryDataManager) RemoveUserMovie(ctx context.Context, userID, movieID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.bothExist(userID, movieID) {
		return false, nil
	}
	if _, ok := m.links[userID][movieID]; !ok {
		return false, nil
	}
	delete(m.links[userID], movieID)
	return true, nil
}

func (m *MemoryDataManager) bothExist(userID, movieID int64) bool {
	_, uok := m.users[userID]
	_, mok := m.movies[movieID]
	return uok && mok
}

func (m *MemoryDataManager) filterMovies(keep func(model.Movie) bool) []model.Movie {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Movie, 0, len(m.movies))
	for _, mv := range m.movies {
		if keep(mv) {
			out = append(out, mv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

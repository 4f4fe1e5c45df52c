package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movieweb/internal/datamanager"
	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/queue"
)

func movies(n int) []model.Movie {
	out := make([]model.Movie, n)
	for i := range out {
		out[i] = model.Movie{ID: int64(i + 1)}
	}
	return out
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		name      string
		total     int
		page      int
		wantLen   int
		wantFirst int64
		wantPages int
	}{
		{"first page", 23, 1, 10, 1, 3},
		{"last partial page", 23, 3, 3, 21, 3},
		{"past the end", 23, 4, 0, 0, 3},
		{"exact multiple", 20, 2, 10, 11, 2},
		{"empty", 0, 1, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, pages := paginate(movies(tc.total), tc.page, PerPage)
			assert.Len(t, items, tc.wantLen)
			assert.NotNil(t, items)
			assert.Equal(t, tc.wantPages, pages)
			if tc.wantLen > 0 {
				assert.Equal(t, tc.wantFirst, items[0].ID)
			}
		})
	}
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestFail(t *testing.T) {
	cases := []struct {
		err  error
		code int
		body string
	}{
		{datamanager.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{datamanager.ErrMovieNotFound, http.StatusNotFound, "movie not found"},
		{datamanager.ErrEmptyName, http.StatusBadRequest, "name must not be empty"},
		{&datamanager.StorageError{Op: "addUser", Err: errors.New("disk full")}, http.StatusInternalServerError, "storage error"},
		{errors.New("weird"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		c, rec := newContext(http.MethodGet, "/", "")
		require.NoError(t, fail(c, tc.err))
		assert.Equal(t, tc.code, rec.Code)
		assert.Contains(t, rec.Body.String(), tc.body)
		assert.NotContains(t, rec.Body.String(), "disk full")
	}
}

func TestPathID(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	for in, want := range map[string]bool{"1": true, "42": true, "0": false, "-3": false, "x": false, "": false} {
		c.SetParamValues(in)
		_, ok := pathID(c, "id")
		assert.Equal(t, want, ok, in)
	}
}

// failingLinks refuses every association so the orphan cleanup path runs.
type failingLinks struct {
	*datamanager.MemoryDataManager
	err error
}

func (f failingLinks) AddUserMovie(context.Context, int64, int64) (bool, error) {
	return false, f.err
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, queue.ActivityEvent) error {
	p.calls++
	return errors.New("broker down")
}

func TestAddUserMovie_DeletesMovieWhenAssociationFails(t *testing.T) {
	for name, linkErr := range map[string]error{
		"refused":       nil,
		"storage error": &datamanager.StorageError{Op: "addUserMovie", Err: errors.New("deadlock")},
	} {
		t.Run(name, func(t *testing.T) {
			mem := datamanager.NewMemoryDataManager()
			uid, err := mem.AddUser(context.Background(), "Alice")
			require.NoError(t, err)
			pub := &failingPublisher{}
			h := New(failingLinks{MemoryDataManager: mem, err: linkErr}, nil, pub)

			c, rec := newContext(http.MethodPost, "/", `{"name":"Alien","director":"Scott","year":1979,"rating":8.5}`)
			c.SetParamNames("id")
			c.SetParamValues("1")
			require.Equal(t, int64(1), uid)
			require.NoError(t, h.AddUserMovie(c))

			if linkErr == nil {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			} else {
				assert.Equal(t, http.StatusInternalServerError, rec.Code)
			}
			all, err := mem.GetAllMovies(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Zero(t, pub.calls)
		})
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	mem := datamanager.NewMemoryDataManager()
	pub := &failingPublisher{}
	h := New(mem, nil, pub)

	c, rec := newContext(http.MethodPost, "/v1/users", `{"name":"Bob"}`)
	require.NoError(t, h.CreateUser(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, pub.calls)
}

func TestNewRequiresDataManager(t *testing.T) {
	assert.Panics(t, func() { New(nil, nil, nil) })
	h := New(datamanager.NewMemoryDataManager(), nil, nil)
	assert.NotNil(t, h.Events)
}

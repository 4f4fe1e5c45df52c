package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movieweb/internal/datamanager"
	"github.com/iliyamo/movieweb/internal/queue"
)

type userRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// movieRequest is the body of the add and update movie endpoints. Omitting
// poster on update keeps the stored one. Director may be empty and rating
// is taken as given.
type movieRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Director string  `json:"director" validate:"max=100"`
	Year     int     `json:"year" validate:"gte=1,lte=9999"`
	Rating   float64 `json:"rating"`
	Poster   *string `json:"poster" validate:"omitempty,max=500"`
}

func (r movieRequest) input() datamanager.MovieInput {
	return datamanager.MovieInput{
		Name:     r.Name,
		Director: r.Director,
		Year:     r.Year,
		Rating:   r.Rating,
		Poster:   r.Poster,
	}
}

// ListUsers handles GET /v1/users.
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.DM.GetAllUsers(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /v1/users and answers 201 with the new user.
func (h *Handler) CreateUser(c echo.Context) error {
	var req userRequest
	if msg := decode(c, &req); msg != "" {
		return badRequest(c, msg)
	}
	id, err := h.DM.AddUser(c.Request().Context(), req.Name)
	if err != nil {
		return fail(c, err)
	}
	user, err := h.DM.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}

	ev := queue.NewActivityEvent(queue.UserAdded)
	ev.UserID, ev.UserName = user.ID, user.Name
	h.publish(c, ev)
	return c.JSON(http.StatusCreated, user)
}

// GetUser handles GET /v1/users/:id and returns the user with their movies.
func (h *Handler) GetUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	ctx := c.Request().Context()
	user, err := h.DM.GetUser(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	movies, err := h.DM.GetUserMovies(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user, "movies": movies})
}

// ListUserMovies handles GET /v1/users/:id/movies.
func (h *Handler) ListUserMovies(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	movies, err := h.DM.GetUserMovies(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, movies)
}

// AddUserMovie handles POST /v1/users/:id/movies. It creates the movie and
// puts it on the user's list; if the association cannot be made the new
// movie is deleted again.
func (h *Handler) AddUserMovie(c echo.Context) error {
	userID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	ctx := c.Request().Context()
	user, err := h.DM.GetUser(ctx, userID)
	if err != nil {
		return fail(c, err)
	}

	var req movieRequest
	if msg := decode(c, &req); msg != "" {
		return badRequest(c, msg)
	}
	movieID, err := h.DM.AddMovie(ctx, req.input())
	if err != nil {
		return fail(c, err)
	}

	added, err := h.DM.AddUserMovie(ctx, userID, movieID)
	if err != nil || !added {
		if _, derr := h.DM.DeleteMovie(ctx, movieID); derr != nil {
			c.Logger().Errorf("delete orphaned movie %d: %v", movieID, derr)
		}
		if err != nil {
			return fail(c, err)
		}
		return badRequest(c, "could not add movie to user's list")
	}

	movie, err := h.DM.GetMovie(ctx, movieID)
	if err != nil {
		return fail(c, err)
	}

	ev := queue.NewActivityEvent(queue.MovieAdded)
	ev.MovieID, ev.MovieName = movie.ID, movie.Name
	h.publish(c, ev)
	ev = queue.NewActivityEvent(queue.UserMovieAdded)
	ev.UserID, ev.UserName, ev.MovieID, ev.MovieName = user.ID, user.Name, movie.ID, movie.Name
	h.publish(c, ev)

	return c.JSON(http.StatusCreated, movie)
}

// UpdateUserMovie handles PUT /v1/users/:id/movies/:movie_id. Both the user
// and the movie must exist.
func (h *Handler) UpdateUserMovie(c echo.Context) error {
	userID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	movieID, ok := pathID(c, "movie_id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	ctx := c.Request().Context()
	if _, err := h.DM.GetUser(ctx, userID); err != nil {
		return fail(c, err)
	}

	var req movieRequest
	if msg := decode(c, &req); msg != "" {
		return badRequest(c, msg)
	}
	if _, err := h.DM.UpdateMovie(ctx, movieID, req.input()); err != nil {
		return fail(c, err)
	}
	movie, err := h.DM.GetMovie(ctx, movieID)
	if err != nil {
		return fail(c, err)
	}

	ev := queue.NewActivityEvent(queue.MovieUpdated)
	ev.UserID, ev.MovieID, ev.MovieName = userID, movie.ID, movie.Name
	h.publish(c, ev)
	return c.JSON(http.StatusOK, movie)
}

// RemoveUserMovie handles DELETE /v1/users/:id/movies/:movie_id. The movie
// itself is kept; only the association goes.
func (h *Handler) RemoveUserMovie(c echo.Context) error {
	userID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	movieID, ok := pathID(c, "movie_id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	removed, err := h.DM.RemoveUserMovie(c.Request().Context(), userID, movieID)
	if err != nil {
		return fail(c, err)
	}
	if !removed {
		return badRequest(c, "could not remove movie")
	}

	ev := queue.NewActivityEvent(queue.UserMovieRemoved)
	ev.UserID, ev.MovieID = userID, movieID
	h.publish(c, ev)
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/queue"
)

// PerPage is the size of a movie collection page.
const PerPage = 10

// moviePage is the body of GET /v1/movies.
type moviePage struct {
	Movies     []model.Movie `json:"movies"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
	Search     string        `json:"search,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// paginate slices one page out of movies. Pages past the end are empty.
func paginate(movies []model.Movie, page, perPage int) ([]model.Movie, int) {
	total := len(movies)
	totalPages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start >= total {
		return []model.Movie{}, totalPages
	}
	end := min(start+perPage, total)
	return movies[start:end], totalPages
}

// ListMovies handles GET /v1/movies?search=&page=. Without a search term it
// lists every movie; page defaults to 1.
func (h *Handler) ListMovies(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	search := strings.TrimSpace(c.QueryParam("search"))

	ctx := c.Request().Context()
	var movies []model.Movie
	if search != "" {
		movies, err = h.DM.SearchMovies(ctx, search)
	} else {
		movies, err = h.DM.GetAllMovies(ctx)
	}
	if err != nil {
		return fail(c, err)
	}

	if len(movies) == 0 && search != "" {
		return c.JSON(http.StatusOK, moviePage{
			Movies:     []model.Movie{},
			Page:       1,
			PerPage:    PerPage,
			TotalPages: 1,
			Search:     search,
			Message:    fmt.Sprintf("No movies found for %q", search),
		})
	}

	items, totalPages := paginate(movies, page, PerPage)
	return c.JSON(http.StatusOK, moviePage{
		Movies:     items,
		Page:       page,
		PerPage:    PerPage,
		Total:      len(movies),
		TotalPages: totalPages,
		Search:     search,
	})
}

// GetMovie handles GET /v1/movies/:id.
func (h *Handler) GetMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	movie, err := h.DM.GetMovie(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, movie)
}

// DeleteMovie handles DELETE /v1/movies/:id. The movie disappears from
// every user's list.
func (h *Handler) DeleteMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	deleted, err := h.DM.DeleteMovie(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}

	ev := queue.NewActivityEvent(queue.MovieDeleted)
	ev.MovieID = id
	h.publish(c, ev)
	return c.NoContent(http.StatusNoContent)
}

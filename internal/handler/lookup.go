package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movieweb/internal/omdb"
)

// LookupMovie handles GET /v1/lookup?title=. It is used to pre-fill the add
// movie form and never touches the store.
func (h *Handler) LookupMovie(c echo.Context) error {
	if h.Lookup == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "movie lookup is not configured"})
	}
	title := strings.TrimSpace(c.QueryParam("title"))
	if title == "" {
		return badRequest(c, "movie title is required")
	}

	movie, err := h.Lookup.LookupMovie(c.Request().Context(), title)
	switch {
	case errors.Is(err, omdb.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case err != nil:
		c.Logger().Errorf("lookup %q: %v", title, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred while searching for the movie"})
	}
	return c.JSON(http.StatusOK, movie)
}

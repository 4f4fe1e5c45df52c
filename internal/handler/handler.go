// Package handler implements the JSON HTTP API on top of the data access
// facade and the external movie lookup.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movieweb/internal/datamanager"
	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/queue"
	"github.com/iliyamo/movieweb/internal/service"
)

// MovieLookup fetches metadata for a title from an external catalogue.
type MovieLookup interface {
	LookupMovie(ctx context.Context, title string) (*model.MovieLookup, error)
}

// Handler groups the dependencies shared by every endpoint. Lookup may be
// nil, in which case the lookup endpoint answers 503.
type Handler struct {
	DM     datamanager.DataManager
	Lookup MovieLookup
	Events service.Publisher
}

// New panics on a nil data manager. A nil publisher discards events.
func New(dm datamanager.DataManager, lookup MovieLookup, events service.Publisher) *Handler {
	if dm == nil {
		panic("nil data manager passed to handler.New")
	}
	if events == nil {
		events = service.NopPublisher{}
	}
	return &Handler{DM: dm, Lookup: lookup, Events: events}
}

const publishTimeout = 5 * time.Second

// publish sends ev after the response-relevant work is done. Failures are
// logged only.
func (h *Handler) publish(c echo.Context, ev queue.ActivityEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), publishTimeout)
	defer cancel()
	if err := h.Events.Publish(ctx, ev); err != nil {
		c.Logger().Warnf("events: %v", err)
	}
}

// fail maps facade errors onto HTTP responses.
func fail(c echo.Context, err error) error {
	var se *datamanager.StorageError
	switch {
	case errors.Is(err, datamanager.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, datamanager.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case errors.Is(err, datamanager.ErrEmptyName):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &se):
		c.Logger().Errorf("%v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "storage error"})
	default:
		c.Logger().Errorf("unexpected error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movieweb/internal/config"
	"github.com/iliyamo/movieweb/internal/handler"
	"github.com/iliyamo/movieweb/internal/middleware"
)

// Options carries the cross-cutting settings for RegisterRoutes. A nil
// Redis client disables rate limiting and response caching.
type Options struct {
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
}

// RegisterRoutes mounts the health and metrics endpoints at the root and
// the API under /v1.
func RegisterRoutes(e *echo.Echo, h *handler.Handler, opts Options) {
	if e.Validator == nil {
		e.Validator = handler.NewValidator()
	}
	e.Use(middleware.Metrics())

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1",
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis),
		middleware.InvalidateCache(opts.Cache, opts.Redis),
	)

	v1.GET("/users", h.ListUsers)
	v1.POST("/users", h.CreateUser)
	v1.GET("/users/:id", h.GetUser)
	v1.GET("/users/:id/movies", h.ListUserMovies)
	v1.POST("/users/:id/movies", h.AddUserMovie)
	v1.PUT("/users/:id/movies/:movie_id", h.UpdateUserMovie)
	v1.DELETE("/users/:id/movies/:movie_id", h.RemoveUserMovie)

	v1.GET("/movies", h.ListMovies, middleware.NewRedisCache(opts.Cache, opts.Redis))
	v1.GET("/movies/:id", h.GetMovie)
	v1.DELETE("/movies/:id", h.DeleteMovie)

	// external lookups are never cached
	v1.GET("/lookup", h.LookupMovie)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movieweb/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(e *echo.Echo, method, target, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if ip != "" {
		req.Header.Set(echo.HeaderXRealIP, ip)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func rateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func TestTokenBucket_BlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	e := echo.New()
	e.GET("/v1/movies", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewTokenBucket(rateConfig(), rdb))

	first := serve(e, http.MethodGet, "/v1/movies", "10.0.0.1")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/v1/movies", "10.0.0.1").Code)

	blocked := serve(e, http.MethodGet, "/v1/movies", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.NotEqual(t, "0", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "rate limit exceeded")

	// another client has its own bucket
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/v1/movies", "10.0.0.2").Code)
}

func TestTokenBucket_Passthrough(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := rateConfig()
	cfg.Capacity = 1

	cases := map[string]echo.MiddlewareFunc{
		"nil client": NewTokenBucket(cfg, nil),
		"disabled":   NewTokenBucket(config.RateLimitConfig{Enabled: false}, rdb),
	}
	for name, mw := range cases {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, mw)
			for i := 0; i < 3; i++ {
				assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/x", "1.1.1.1").Code)
			}
		})
	}

	t.Run("redis down fails open", func(t *testing.T) {
		e := echo.New()
		e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb))
		mr.Close()
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/x", "1.1.1.1").Code)
	})
}

func TestTokenBucket_ZeroRefillConfig(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, Prefix: "rl"}
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb))

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/x", "1.1.1.1").Code)
	blocked := serve(e, http.MethodGet, "/x", "1.1.1.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.Len(t, mr.Keys(), 1, "bucket is kept without a ttl")
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/movies/7", nil)
	req.Header.Set(echo.HeaderXRealIP, "192.0.2.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/movies/:id")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:192.0.2.9", rateKey(cfg, c))
	cfg.KeyStrategy = "route"
	assert.Equal(t, "rl:route:GET /v1/movies/:id", rateKey(cfg, c))
	cfg.KeyStrategy = ""
	assert.Equal(t, "rl:ip:192.0.2.9:route:GET /v1/movies/:id", rateKey(cfg, c))
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 10,
	}
}

func TestRedisCache_MissThenHit(t *testing.T) {
	_, rdb := newRedis(t)
	calls := 0
	e := echo.New()
	e.GET("/v1/movies", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"page": c.QueryParam("page")})
	}, NewRedisCache(cacheConfig(), rdb))

	miss := serve(e, http.MethodGet, "/v1/movies?page=1", "")
	require.Equal(t, http.StatusOK, miss.Code)
	assert.Equal(t, "MISS", miss.Header().Get("X-Cache"))

	hit := serve(e, http.MethodGet, "/v1/movies?page=1", "")
	require.Equal(t, http.StatusOK, hit.Code)
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.Equal(t, miss.Body.String(), hit.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, hit.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	other := serve(e, http.MethodGet, "/v1/movies?page=2", "")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestRedisCache_QueryAlwaysInKey(t *testing.T) {
	_, rdb := newRedis(t)
	for _, strategy := range []string{"route", "route_query", "method_route_query", ""} {
		t.Run(strategy, func(t *testing.T) {
			cfg := cacheConfig()
			cfg.KeyStrategy = strategy
			cfg.Prefix = "cache-" + strategy
			e := echo.New()
			e.GET("/v1/movies", func(c echo.Context) error {
				return c.String(http.StatusOK, "page="+c.QueryParam("page"))
			}, NewRedisCache(cfg, rdb))

			assert.Equal(t, "page=1", serve(e, http.MethodGet, "/v1/movies?page=1", "").Body.String())
			second := serve(e, http.MethodGet, "/v1/movies?page=2", "")
			assert.Equal(t, "MISS", second.Header().Get("X-Cache"))
			assert.Equal(t, "page=2", second.Body.String())
		})
	}
}

func TestRedisCache_SkipsErrorsAndLargeBodies(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := cacheConfig()
	cfg.MaxBodyBytes = 16
	calls := 0
	e := echo.New()
	mw := NewRedisCache(cfg, rdb)
	e.GET("/missing", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}, mw)
	e.GET("/big", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, strings.Repeat("x", 64))
	}, mw)

	serve(e, http.MethodGet, "/missing", "")
	serve(e, http.MethodGet, "/missing", "")
	serve(e, http.MethodGet, "/big", "")
	big := serve(e, http.MethodGet, "/big", "")

	assert.Equal(t, 4, calls)
	assert.Equal(t, "MISS", big.Header().Get("X-Cache"))
	assert.Len(t, big.Body.String(), 64)
}

func TestInvalidateCache_PurgesOnSuccessfulWrite(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := cacheConfig()
	e := echo.New()
	g := e.Group("/v1", InvalidateCache(cfg, rdb))
	g.GET("/movies", func(c echo.Context) error { return c.String(http.StatusOK, "list") }, NewRedisCache(cfg, rdb))
	g.DELETE("/movies/:id", func(c echo.Context) error {
		if c.Param("id") == "0" {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.NoContent(http.StatusNoContent)
	})
	require.NoError(t, mr.Set("unrelated", "keep"))

	serve(e, http.MethodGet, "/v1/movies", "")
	require.Len(t, mr.Keys(), 2)

	serve(e, http.MethodDelete, "/v1/movies/0", "")
	assert.Len(t, mr.Keys(), 2, "failed writes keep the cache")

	serve(e, http.MethodDelete, "/v1/movies/3", "")
	assert.Equal(t, []string{"unrelated"}, mr.Keys())
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/v1/movies", "").Header().Get("X-Cache"))
}

func TestCacheEntryRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"text/plain"}}
	bs, err := encodeEntry(http.StatusOK, hdr, []byte("body"))
	require.NoError(t, err)

	status, got, body, ok := decodeEntry(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, "body", string(body))

	_, _, _, ok = decodeEntry([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}

func TestMetrics(t *testing.T) {
	e := echo.New()
	e.Use(Metrics())
	e.GET("/v1/movies/:id", func(c echo.Context) error {
		if c.Param("id") == "0" {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return c.NoContent(http.StatusNoContent)
	})

	okBefore := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/movies/:id", "204"))
	nfBefore := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/movies/:id", "404"))

	serve(e, http.MethodGet, "/v1/movies/1", "")
	serve(e, http.MethodGet, "/v1/movies/2", "")
	serve(e, http.MethodGet, "/v1/movies/0", "")

	assert.Equal(t, okBefore+2, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/movies/:id", "204")))
	assert.Equal(t, nfBefore+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/movies/:id", "404")))
}

// Package omdb looks up movie metadata on the OMDb API and normalizes the
// loosely typed response into a model.MovieLookup.
//
// The client never surfaces transport or decoding failures: every failed
// lookup, whatever the cause, is reported as ErrNotFound and the cause is
// only logged.
package omdb

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iliyamo/movieweb/internal/model"
)

const (
	defaultBaseURL = "https://www.omdbapi.com/"
	requestTimeout = 10 * time.Second

	// APIKeyEnv is consulted when New is called without a key.
	APIKeyEnv = "OMDB_API_KEY"
)

var (
	// ErrMissingAPIKey is returned by New when no API key is available.
	ErrMissingAPIKey = errors.New("omdb: api key is required (set " + APIKeyEnv + ")")
	// ErrNotFound is returned by LookupMovie for every unsuccessful lookup.
	ErrNotFound = errors.New("omdb: movie not found")
)

var lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "movieweb_omdb_lookups_total",
	Help: "OMDb lookups by result",
}, []string{"result"})

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.  The caller is then
// responsible for its timeout and TLS settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New builds a client.  An empty apiKey falls back to the OMDB_API_KEY
// environment variable; ErrMissingAPIKey is returned if both are empty.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv(APIKeyEnv)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LookupMovie fetches a movie by exact title.  It returns ErrNotFound when
// OMDb has no match and also when the request or the response is broken.
func (c *Client) LookupMovie(ctx context.Context, title string) (*model.MovieLookup, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		lookupsTotal.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}

	payload, err := c.fetch(ctx, title)
	if err != nil {
		log.Printf("omdb: lookup %q failed: %v", title, err)
		lookupsTotal.WithLabelValues("error").Inc()
		return nil, ErrNotFound
	}
	if payload.str("Response", "") != "True" {
		log.Printf("omdb: no data for %q: %s", title, payload.str("Error", "unknown reason"))
		lookupsTotal.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}

	lookupsTotal.WithLabelValues("found").Inc()
	return &model.MovieLookup{
		Title:    payload.str("Title", title),
		Director: payload.str("Director", "Unknown"),
		Year:     payload.str("Year", "N/A"),
		Rating:   parseRating(payload.str("imdbRating", "0")),
		Poster:   payload.str("Poster", "N/A"),
	}, nil
}

func (c *Client) fetch(ctx context.Context, title string) (response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("apikey", c.apiKey)
	q.Set("t", title)
	q.Set("type", "movie")
	q.Set("r", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if payload == nil {
		return nil, errors.New("empty body")
	}
	return payload, nil
}

// response keeps the raw fields so a field of an unexpected JSON type is
// treated like a missing one instead of failing the whole decode.
type response map[string]json.RawMessage

func (r response) str(key, def string) string {
	raw, ok := r[key]
	if !ok || string(raw) == "null" {
		return def
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return def
}

// parseRating strips "N/A" and parses what is left; anything unparsable or
// not finite becomes 0.
func parseRating(raw string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "N/A", ""))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

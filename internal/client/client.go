// Package client is the HTTP client for the hotel booking backend. Every
// operation serializes its typed input, issues one request and decodes the
// JSON reply into the entities of internal/models. Side effects are
// confined to network I/O; callers own all state updates.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"roomscout/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client calls the booking backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	paths      pathSet
	limiter    *rate.Limiter
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// pathSet resolves the two historical path layouts for the same contract.
type pathSet struct {
	availableRooms string
}

var (
	canonicalPaths = pathSet{availableRooms: "/api/rooms/available"}
	legacyPaths    = pathSet{availableRooms: "/api/available-rooms"}
)

// Option configures a Client.
type Option func(*Client)

// WithLegacyPaths switches the client to the older alias path layout.
func WithLegacyPaths() Option {
	return func(c *Client) {
		c.paths = legacyPaths
	}
}

// WithRateLimit throttles outbound requests.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst <= 0 {
				burst = 5
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithRedisCache enables read-through caching of reference data (chains,
// hotels, employees).
func WithRedisCache(client *redis.Client, ttl time.Duration) Option {
	return func(c *Client) {
		c.redis = client
		c.cacheTTL = ttl
	}
}

// WithHTTPClient replaces the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New constructs a client for the given backend base URL.
func New(baseURL string, logger *zerolog.Logger, opts ...Option) *Client {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		paths:      canonicalPaths,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

func (c *Client) doGet(ctx context.Context, op, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &NetworkError{Operation: op, Err: err}
	}
	return c.do(op, req, out)
}

func (c *Client) doJSON(ctx context.Context, op, method, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return &NetworkError{Operation: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return &NetworkError{Operation: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) doDelete(ctx context.Context, op, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return &NetworkError{Operation: op, Err: err}
	}
	return c.do(op, req, nil)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return &NetworkError{Operation: op, Err: err}
		}
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncRequest(op, "error")
		c.logger.Error().Err(err).Str("operation", op).Str("request_id", requestID).Msg("request failed")
		return &NetworkError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("operation", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IncRequest(op, "error")
		return decodeRemoteError(resp)
	}

	metrics.IncRequest(op, "ok")
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Operation: op, Err: err}
	}
	return nil
}

// decodeRemoteError extracts the backend's {detail} message; a body that
// does not parse falls back to the generic message.
func decodeRemoteError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return NewRemoteError(resp.StatusCode, "")
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return NewRemoteError(resp.StatusCode, "")
	}
	return NewRemoteError(resp.StatusCode, payload.Detail)
}

// cachedGet serves reference-data GETs through Redis when configured.
func (c *Client) cachedGet(ctx context.Context, op, endpoint, cacheKey string, out any) error {
	if c.readCache(ctx, cacheKey, out) {
		return nil
	}
	if err := c.doGet(ctx, op, endpoint, out); err != nil {
		return err
	}
	c.writeCache(ctx, cacheKey, out)
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func intQuery(params map[string]int64) url.Values {
	q := url.Values{}
	for k, v := range params {
		if v > 0 {
			q.Set(k, fmt.Sprintf("%d", v))
		}
	}
	return q
}

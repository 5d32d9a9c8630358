package toolkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client issues authenticated requests against one resolved environment.
// Each run constructs its own client; nothing is shared across runs.
type Client struct {
	baseURL      string
	overridden   bool // config base URL beats any suite-level pin
	http         *http.Client
	auth         *AuthContext
	limiter      *rate.Limiter
	logger       *zap.Logger
	logRequests  bool
	logResponses bool
}

func NewClient(auth *AuthContext, cfg *RunConfig, logger *zap.Logger) *Client {
	baseURL := auth.Environment.BaseURL
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}

	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		overridden:   cfg.BaseURL != "",
		http:         &http.Client{Timeout: cfg.RequestTimeout},
		auth:         auth,
		limiter:      rate.NewLimiter(limit, max(cfg.RateLimitBurst, 1)),
		logger:       logger,
		logRequests:  cfg.LogRequests,
		logResponses: cfg.LogResponses,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// ForSuite returns a client targeting the suite's pinned base URL. An
// explicit config override still wins; without a pin the client is
// returned unchanged.
func (c *Client) ForSuite(baseURL string) *Client {
	if baseURL == "" || c.overridden {
		return c
	}
	clone := *c
	clone.baseURL = strings.TrimSuffix(baseURL, "/")
	return &clone
}

// Do sends one request and returns the status code and raw body. A non-2xx
// status is not an error here: suites assert on it directly.
func (c *Client) Do(ctx context.Context, method, path string, body any, extra map[string]string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	// an explicitly empty caller value drops the header, so cases can
	// exercise missing-header behaviour
	for k, v := range c.auth.Headers(extra) {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}

	if c.logRequests {
		c.logger.Info("request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", latency))
	}
	if c.logResponses && len(raw) > 0 {
		c.logger.Debug("response body",
			zap.String("request_id", requestID),
			zap.ByteString("body", raw))
	}

	return resp.StatusCode, raw, nil
}

// DoJSON is Do plus a decode of the response body into a generic map. An
// empty body decodes to nil.
func (c *Client) DoJSON(ctx context.Context, method, path string, body any, extra map[string]string) (int, map[string]any, error) {
	status, raw, err := c.Do(ctx, method, path, body, extra)
	if err != nil {
		return status, nil, err
	}
	if len(raw) == 0 {
		return status, nil, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return status, nil, fmt.Errorf("decode response body: %w", err)
	}
	return status, decoded, nil
}

// BuildPath substitutes {name} path parameters and appends query values.
func BuildPath(path string, pathParams, query map[string]string) string {
	for k, v := range pathParams {
		path = strings.ReplaceAll(path, "{"+k+"}", url.PathEscape(v))
	}
	if len(query) == 0 {
		return path
	}
	q := url.Values{}
	for k, v := range query {
		q.Set(k, v)
	}
	return path + "?" + q.Encode()
}

// Package mail is a thin client for the mail provider's message REST API.
// It covers the two read-only endpoints the resolution engine needs:
// message search and per-message header metadata. Authentication is an
// OAuth2 bearer access token supplied by the caller; this package never
// refreshes tokens.
package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/rolodex/internal/logging"
)

// Client is a client for the mail provider API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

// New creates a new Client for the given provider instance.
// The bearerToken is sent as an Authorization header on every request.
func New(baseURL, bearerToken string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("mail: baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &clientConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Client{
		baseURL:    baseURL,
		token:      bearerToken,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		cfg.timeout = d
		return nil
	}
}

// SearchMessages returns up to limit message IDs matching the free-text
// query, restricted to messages received at or after the given time.
func (c *Client) SearchMessages(ctx context.Context, query string, after time.Time, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("after", strconv.FormatInt(after.Unix(), 10))
	params.Set("max_results", strconv.Itoa(limit))

	endpoint := c.baseURL + "/v1/messages?" + params.Encode()

	var resp searchResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, "search_messages", &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// GetMessage fetches header metadata (From/To/Subject/Date) plus the
// provider's preview snippet for a single message.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	endpoint := c.baseURL + "/v1/messages/" + url.PathEscape(id)

	var resp messageResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, "get_message", &resp); err != nil {
		return nil, err
	}

	return &Message{
		ID:      resp.ID,
		From:    resp.From,
		To:      resp.To,
		Subject: resp.Subject,
		At:      parseDate(resp.Date),
		Snippet: resp.Snippet,
	}, nil
}

// doJSON executes an HTTP request and decodes the JSON response into dst.
// If the response has an error status, it returns an *APIError.
func (c *Client) doJSON(ctx context.Context, method, endpoint, operation string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.DebugContext(ctx, "provider request", "operation", operation, "method", method, "url", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return newAPIError(operation, resp.StatusCode, errResp.Error.Message)
		}
		return newAPIError(operation, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}

// parseDate parses an RFC 2822 date header into Unix seconds, returning 0
// when the header is absent or malformed.
func parseDate(s string) int64 {
	if s == "" {
		return 0
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix()
		}
	}
	return 0
}

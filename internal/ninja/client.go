package ninja

import (
	"log/slog"
	"net/http"
	"time"
)

// Game selects which poe.ninja API family a client talks to.
const (
	GamePoE  = "poe"
	GamePoE2 = "poe2"
)

// DefaultTimeout bounds each upstream request. There is no cancellation
// mid-cascade: a slow candidate consumes its timeout before the next one is
// tried.
const DefaultTimeout = 10 * time.Second

// Client fetches and reconciles poe.ninja market data.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger

	game      string
	cookie    string
	userAgent string
	endpoints Endpoints
	maxDetail int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a poe.ninja client with the production endpoints.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
		game:       GamePoE2,
		userAgent:  defaultUserAgent,
		endpoints:  DefaultEndpoints(),
		maxDetail:  defaultMaxDetailEntries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithGame selects the API family (GamePoE or GamePoE2, default GamePoE2).
func WithGame(game string) ClientOption {
	return func(c *Client) {
		if game != "" {
			c.game = game
		}
	}
}

// WithSessionCookie sets the opaque poe.ninja session token, forwarded
// verbatim on every request. A bare token is sent as "ninja=<token>".
func WithSessionCookie(cookie string) ClientOption {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithEndpoints overrides the upstream endpoint set (used by tests).
func WithEndpoints(e Endpoints) ClientOption {
	return func(c *Client) {
		c.endpoints = e
	}
}

// WithMaxDetailRequests bounds the per-item detail fetch loop. The cap
// keeps worst-case snapshot latency finite; 0 or negative disables detail
// fetching entirely.
func WithMaxDetailRequests(n int) ClientOption {
	return func(c *Client) {
		c.maxDetail = n
	}
}

package ninja

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError represents an HTTP-level failure from one candidate endpoint.
// Candidate failures are never surfaced to callers of FetchSnapshot; the
// cascade just moves on.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("poe.ninja api error %d: %s", e.StatusCode, e.URL)
}

// NoDataError reports that every candidate across every applicable source
// cascade failed or returned empty. It is the only error FetchSnapshot
// returns.
type NoDataError struct {
	League   string
	Category string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data returned for category %q in league %q", e.Category, e.League)
}

// fetch performs one GET against rawURL and returns the response body.
// extra headers are applied after the defaults and may override them.
func (c *Client) fetch(ctx context.Context, rawURL string, extra map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	if cookie := formatCookie(c.cookie); cookie != "" && req.Header.Get("Cookie") == "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	return body, nil
}

// formatCookie renders the session token as a Cookie header value. A value
// already containing "=" is forwarded verbatim; a bare token becomes
// "ninja=<token>".
func formatCookie(cookie string) string {
	trimmed := strings.TrimSpace(cookie)
	if trimmed == "" {
		return ""
	}
	if strings.Contains(trimmed, "=") {
		return trimmed
	}
	return "ninja=" + trimmed
}

package client

import (
	"log/slog"
	"net/http"
)

// Option configures a Client.
type Option func(*Client)

// WithIdentity sets the caller identity sent with every request via
// the X-User-ID and X-User-Role headers.
func WithIdentity(subject, role string) Option {
	return func(c *Client) {
		c.subject = subject
		c.role = role
	}
}

// WithHTTPClient sets a custom HTTP client, replacing the default with
// its 30s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

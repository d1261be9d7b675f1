package fmc

import (
	"net/http"
	"strings"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built at Connect time. Mainly
// useful for tests that need a preconfigured transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithPageSize overrides the pagination page size.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithBaseURL overrides the https://host base URL derived from the
// settings. Tests point this at a local fixture server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

package mindrender

import (
	"net/http"
	"strings"
)

type clientConfig struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*clientConfig)

// WithBaseURL sets the server address. Default http://localhost:8080.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client, e.g. to set timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.http = hc
	}
}

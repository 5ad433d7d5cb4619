package delivery

import (
	"context"
	"errors"
	"time"

	"resty.dev/v3"
)

const (
	// DefaultScheme is used for both the event and the config endpoints.
	DefaultScheme = "https"

	// DefaultTimeout bounds a single outbound request.
	DefaultTimeout = 5 * time.Second
)

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrMalformedConfig  = errors.New("malformed publisher config")
)

// Sender delivers one output record to the collection endpoint.
type Sender interface {
	SendEvent(ctx context.Context, request EventRequest) error
}

// ConfigFetcher loads the per-publisher event on/off map.
type ConfigFetcher interface {
	FetchConfig(ctx context.Context, request ConfigRequest) (ServerConfig, error)
}

// Client talks to the collection and config endpoints over HTTP.
type Client struct {
	http   *resty.Client
	scheme string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a Client with its own resty client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:   resty.New().SetTimeout(DefaultTimeout),
		scheme: DefaultScheme,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithScheme overrides the URL scheme, e.g. "http" against a local collector.
func WithScheme(scheme string) ClientOption {
	return func(c *Client) {
		c.scheme = scheme
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) url(server, path string) string {
	return c.scheme + "://" + server + "/" + path
}

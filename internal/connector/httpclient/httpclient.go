package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/crimson-sun/preflight/internal/model"
)

// Client is an HTTP client bound to a base URL and one authentication scheme.
// It issues exactly one request per call and never retries.
type Client struct {
	baseURL    string
	query      url.Values
	header     http.Header
	httpClient *http.Client
}

// Response is a successful (2xx) response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBearer authenticates with an "Authorization: Bearer" header.
func WithBearer(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithQueryKey authenticates with an API key query parameter.
func WithQueryKey(name, key string) Option {
	return func(c *Client) {
		c.query.Set(name, key)
	}
}

// WithHeader adds a header to every request.
func WithHeader(name, value string) Option {
	return func(c *Client) {
		c.header.Set(name, value)
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		query:   url.Values{},
		header:  http.Header{"Accept": []string{"application/json"}},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const maxErrorBody = 512

// Get sends one GET request. Returns *model.TransportError when the service
// cannot be reached and *model.HTTPStatusError for non-2xx responses. header
// may be nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values, header http.Header) (*Response, error) {
	target := c.baseURL + path

	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	for k, vs := range c.query {
		q[k] = vs
	}
	fullURL := target
	if len(q) > 0 {
		fullURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &model.TransportError{Op: http.MethodGet, Target: target, Err: err}
	}
	for k, vs := range c.header {
		req.Header[k] = vs
	}
	for k, vs := range header {
		req.Header[k] = vs
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, which may carry an API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &model.TransportError{Op: http.MethodGet, Target: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransportError{Op: http.MethodGet, Target: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(body)
		if len(bodyStr) > maxErrorBody {
			bodyStr = bodyStr[:maxErrorBody]
		}
		return nil, &model.HTTPStatusError{StatusCode: resp.StatusCode, Body: bodyStr}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

package connector

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/crimson-sun/preflight/internal/connector/httpclient"
	"github.com/crimson-sun/preflight/internal/fetch"
	"github.com/crimson-sun/preflight/internal/model"
)

// Connector defines the interface every service connector must implement.
type Connector interface {
	// Check performs the minimal authenticated request used by the
	// connectivity probe and returns a one-line success detail.
	Check(ctx context.Context, cred model.Credential) (string, error)

	// Plan returns the fixed list of endpoints explored for a resource.
	Plan(resourceID string, limit int) []Endpoint

	// Fetch issues one page request.
	Fetch(ctx context.Context, cred model.Credential, req fetch.Request) (fetch.Page, error)
}

// Endpoint is one step of an exploration plan.
type Endpoint struct {
	Request fetch.Request
	View    model.View
}

// Options holds transport settings shared by all connectors.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Log returns the configured logger, or slog.Default().
func (o Options) Log() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Client builds an HTTP client for baseURL with the shared transport options
// followed by auth.
func (o Options) Client(baseURL string, auth ...httpclient.Option) *httpclient.Client {
	opts := []httpclient.Option{httpclient.WithTimeout(o.Timeout), httpclient.WithHTTPClient(o.HTTPClient)}
	return httpclient.New(baseURL, append(opts, auth...)...)
}

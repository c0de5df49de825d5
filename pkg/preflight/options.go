package preflight

import (
	"io"
	"log/slog"
	"net/http"
	"time"
)

type options struct {
	envFile     string
	useKeyring  bool
	timeout     time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
	writer      io.Writer
	sampleLimit int
}

// Option configures a Preflight instance.
type Option func(*options)

// WithEnvFile reads a dotenv file before the environment. A missing file is
// not an error.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
	}
}

// WithKeyring enables the OS keyring fallback for API keys.
func WithKeyring(enabled bool) Option {
	return func(o *options) {
		o.useKeyring = enabled
	}
}

// WithTimeout overrides the per-request timeout. Default: 30s, or
// PREFLIGHT_HTTP_TIMEOUT.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client used for every service.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithWriter renders explorations as console text to w. By default nothing
// is rendered and Explore only returns the report.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithSampleLimit sets how many records Explore samples per endpoint when
// the caller passes a limit below one.
func WithSampleLimit(n int) Option {
	return func(o *options) {
		o.sampleLimit = n
	}
}

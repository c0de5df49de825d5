// Package webhook posts every report to an HTTP endpoint, for chat
// notifications or CI dashboards.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/crimson-sun/preflight/internal/model"
)

const defaultTimeout = 10 * time.Second

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.headers = h }
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.client.Timeout = d }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Output) { o.logger = l }
}

// Payload is the JSON body of one POST. Text is a one-line summary that chat
// services display as the message.
type Payload struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	OK     bool   `json:"ok"`
	Report any    `json:"report"`
}

// Output POSTs each report as it is written, once. A non-2xx response is an
// error.
type Output struct {
	client  *http.Client
	url     string
	headers map[string]string
	logger  *slog.Logger
}

// New creates a webhook output targeting url.
func New(url string, opts ...Option) *Output {
	o := &Output{
		client: &http.Client{Timeout: defaultTimeout},
		url:    url,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WriteReport posts a connectivity report.
func (o *Output) WriteReport(ctx context.Context, report model.ConnectivityReport) error {
	text := fmt.Sprintf("preflight: all %d connections successful", len(report.Results))
	if !report.OK() {
		text = fmt.Sprintf("preflight: %d of %d connections failed", report.Failed(), len(report.Results))
	}
	return o.post(ctx, Payload{Kind: "check", Text: text, OK: report.OK(), Report: report})
}

// WriteExploration posts an exploration.
func (o *Output) WriteExploration(ctx context.Context, exp model.Exploration) error {
	ok := exp.Err == "" && exp.Failed() == 0
	text := fmt.Sprintf("preflight: explored %s %s", exp.Service.DisplayName(), exp.ResourceID)
	switch {
	case exp.Err != "":
		text += ": " + exp.Err
	case !ok:
		text += fmt.Sprintf(" (%d of %d endpoints failed)", exp.Failed(), len(exp.Endpoints))
	}
	return o.post(ctx, Payload{Kind: "explore", Text: text, OK: ok, Report: exp})
}

// Close is a no-op; nothing is buffered.
func (o *Output) Close() error {
	return nil
}

func (o *Output) post(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: HTTP %d", resp.StatusCode)
	}
	o.logger.Debug("webhook delivered", "kind", p.Kind, "status", resp.StatusCode)
	return nil
}

// Package probe verifies that one service is reachable with the configured
// credentials. A probe never returns an error: every failure, including a
// panicking connector, becomes a failed model.ProbeResult.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/preflight/internal/connector"
	"github.com/crimson-sun/preflight/internal/model"
)

// Resolver looks up the credential of a service.
type Resolver interface {
	Resolve(service model.Service) (model.Credential, error)
}

// Prober runs single-service connectivity checks.
type Prober struct {
	resolver   Resolver
	connectors map[model.Service]connector.Connector
	logger     *slog.Logger
}

// New creates a Prober. A nil logger uses slog.Default().
func New(resolver Resolver, connectors map[model.Service]connector.Connector, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{resolver: resolver, connectors: connectors, logger: logger}
}

// Probe resolves the credential of service and performs one minimal
// authenticated request.
func (p *Prober) Probe(ctx context.Context, service model.Service) (res model.ProbeResult) {
	start := time.Now()
	res.Service = service
	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Detail = fmt.Sprintf("internal error: %v", r)
			p.logger.Error("probe panicked", "service", service, "panic", r)
		}
		res.Duration = time.Since(start)
	}()

	cred, err := p.resolver.Resolve(service)
	if err != nil {
		return p.fail(res, err)
	}

	conn, ok := p.connectors[service]
	if !ok {
		return p.fail(res, fmt.Errorf("no connector for %s", service))
	}

	detail, err := conn.Check(ctx, cred)
	if err != nil {
		return p.fail(res, err)
	}

	res.Success = true
	res.Detail = detail
	p.logger.Debug("probe succeeded", "service", service, "detail", detail)
	return res
}

func (p *Prober) fail(res model.ProbeResult, err error) model.ProbeResult {
	res.Success = false
	res.Detail = Describe(err)
	p.logger.Debug("probe failed", "service", res.Service, "kind", model.KindOf(err).String(), "error", err)
	return res
}

// Describe renders err as a one-line probe detail.
func Describe(err error) string {
	switch model.KindOf(err) {
	case model.KindNone:
		return ""
	case model.KindUnknown:
		return "Error: " + err.Error()
	default:
		return err.Error()
	}
}

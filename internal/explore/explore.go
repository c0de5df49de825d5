// Package explore drives connectors through their endpoint plans and
// forwards sampled results to an output.
package explore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/crimson-sun/preflight/internal/connector"
	"github.com/crimson-sun/preflight/internal/model"
	"github.com/crimson-sun/preflight/internal/output"
	"github.com/crimson-sun/preflight/internal/sampler"
)

// Resolver looks up the credential of a service.
type Resolver interface {
	Resolve(service model.Service) (model.Credential, error)
}

// Explorer connects a resolver, connectors and an output into one discovery
// pass per call.
type Explorer struct {
	resolver   Resolver
	connectors map[model.Service]connector.Connector
	output     output.Output
	logger     *slog.Logger
}

// New creates an Explorer. A nil logger uses slog.Default().
func New(resolver Resolver, connectors map[model.Service]connector.Connector, out output.Output, logger *slog.Logger) *Explorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Explorer{resolver: resolver, connectors: connectors, output: out, logger: logger}
}

// Explore fetches every endpoint planned for resourceID and samples the first
// limit records of each. An empty resourceID uses the credential's default
// resource. Endpoint failures are recorded in the report and never stop the
// pass; the returned error is only about writing the report.
func (e *Explorer) Explore(ctx context.Context, service model.Service, resourceID string, limit int) (model.Exploration, error) {
	exp := e.run(ctx, service, resourceID, limit)
	if err := e.output.WriteExploration(ctx, exp); err != nil {
		return exp, fmt.Errorf("explore output: %w", err)
	}
	return exp, nil
}

func (e *Explorer) run(ctx context.Context, service model.Service, resourceID string, limit int) model.Exploration {
	exp := model.Exploration{
		RunID:      uuid.NewString(),
		Service:    service,
		ResourceID: resourceID,
		Endpoints:  []model.EndpointReport{},
	}
	log := e.logger.With("run_id", exp.RunID, "service", service)

	cred, err := e.resolver.Resolve(service)
	if err != nil {
		exp.Err = err.Error()
		log.Warn("exploration skipped", "error", err)
		return exp
	}
	conn, ok := e.connectors[service]
	if !ok {
		exp.Err = fmt.Sprintf("no connector for %s", service)
		return exp
	}
	if exp.ResourceID == "" {
		exp.ResourceID = cred.DefaultResource
	}
	if limit < 1 {
		limit = 1
	}

	for _, ep := range conn.Plan(exp.ResourceID, limit) {
		report := e.endpoint(ctx, conn, cred, ep, limit)
		if report.Err != "" {
			log.Warn("endpoint failed", "endpoint", report.Name, "error", report.Err)
		} else {
			log.Debug("endpoint explored", "endpoint", report.Name, "records", len(report.Records), "total", report.Meta.TotalCount)
		}
		if exp.Title == "" && report.Err == "" && len(report.Records) > 0 {
			exp.Title = report.Records[0].String("title")
		}
		exp.Endpoints = append(exp.Endpoints, report)
	}
	return exp
}

// endpoint fetches one planned endpoint. A panicking connector is reported as
// a failed endpoint.
func (e *Explorer) endpoint(ctx context.Context, conn connector.Connector, cred model.Credential, ep connector.Endpoint, limit int) (report model.EndpointReport) {
	report = model.EndpointReport{Name: ep.Request.Endpoint, Path: ep.Request.Path, View: ep.View}
	defer func() {
		if r := recover(); r != nil {
			report.Records, report.Samples, report.Meta = nil, nil, model.PaginationMeta{}
			report.Err = fmt.Sprintf("internal error: %v", r)
		}
	}()

	page, err := conn.Fetch(ctx, cred, ep.Request)
	if err != nil {
		report.Err = err.Error()
		return report
	}

	records := page.Records
	if ep.View.Columns == nil && len(records) > limit {
		records = records[:limit]
	}
	report.Meta = page.Meta
	report.Records = records
	report.Samples = sampler.SampleAll(page.Records, limit)
	return report
}

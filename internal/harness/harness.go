// Package harness runs connectivity probes across services and aggregates
// them into one report.
package harness

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/crimson-sun/preflight/internal/model"
)

// Prober probes a single service.
type Prober interface {
	Probe(ctx context.Context, service model.Service) model.ProbeResult
}

// Harness runs probes one after another.
type Harness struct {
	prober Prober
	logger *slog.Logger
}

// New creates a Harness. A nil logger uses slog.Default().
func New(prober Prober, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{prober: prober, logger: logger}
}

// Run probes each named service in order. A failing probe never stops the
// run; the report holds one result per name, in input order.
func (h *Harness) Run(ctx context.Context, services []model.Service) model.ConnectivityReport {
	report := model.ConnectivityReport{
		RunID:   uuid.NewString(),
		Results: make([]model.ProbeResult, 0, len(services)),
	}
	log := h.logger.With("run_id", report.RunID)
	log.Info("connectivity check started", "services", len(services))

	for _, service := range services {
		res := h.prober.Probe(ctx, service)
		log.Info("probe finished", "service", service, "success", res.Success, "duration", res.Duration)
		report.Results = append(report.Results, res)
	}

	log.Info("connectivity check finished", "ok", report.OK(), "failed", report.Failed())
	return report
}

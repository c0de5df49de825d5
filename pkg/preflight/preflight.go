package preflight

import (
	"context"
	"fmt"

	"github.com/crimson-sun/preflight/internal/config"
	"github.com/crimson-sun/preflight/internal/connector"
	"github.com/crimson-sun/preflight/internal/credential"
	"github.com/crimson-sun/preflight/internal/explore"
	"github.com/crimson-sun/preflight/internal/harness"
	"github.com/crimson-sun/preflight/internal/model"
	"github.com/crimson-sun/preflight/internal/output"
	"github.com/crimson-sun/preflight/internal/output/console"
	"github.com/crimson-sun/preflight/internal/output/multi"
	"github.com/crimson-sun/preflight/internal/probe"

	// Register connector implementations.
	_ "github.com/crimson-sun/preflight/internal/connector/givebutter"
	_ "github.com/crimson-sun/preflight/internal/connector/jotform"
	_ "github.com/crimson-sun/preflight/internal/connector/supabase"
)

// Preflight runs connectivity checks and explorations. Calls run
// sequentially; do not share an instance across goroutines.
type Preflight struct {
	cfg      *config.Config
	harness  *harness.Harness
	explorer *explore.Explorer
}

// New loads configuration and builds the service connectors. It performs no
// network I/O.
func New(opts ...Option) (*Preflight, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := config.Load(config.Options{EnvFile: o.envFile, UseKeyring: o.useKeyring})
	if err != nil {
		return nil, fmt.Errorf("preflight: %w", err)
	}
	if o.timeout > 0 {
		cfg.HTTP.Timeout = o.timeout
	}
	if o.sampleLimit > 0 {
		cfg.Output.SampleLimit = o.sampleLimit
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("preflight: %w", err)
	}

	return build(cfg, o), nil
}

func build(cfg *config.Config, o options) *Preflight {
	conns := connector.Build(connector.Options{
		Timeout:    cfg.HTTP.Timeout,
		HTTPClient: o.httpClient,
		Logger:     o.logger,
	})
	resolver := credential.NewResolver(cfg)

	var outputs []output.Output
	if o.writer != nil {
		outputs = append(outputs, console.New(o.writer))
	}

	return &Preflight{
		cfg:      cfg,
		harness:  harness.New(probe.New(resolver, conns, o.logger), o.logger),
		explorer: explore.New(resolver, conns, multi.New(outputs...), o.logger),
	}
}

// Check probes the named services, or all of them in default order when none
// are named. Unknown names produce failed results.
func (p *Preflight) Check(ctx context.Context, services ...string) Report {
	names := model.Services()
	if len(services) > 0 {
		names = make([]model.Service, len(services))
		for i, s := range services {
			names[i] = model.Service(s)
		}
	}
	return reportFromModel(p.harness.Run(ctx, names))
}

// Explore samples a resource of one service: a form id, a campaign id or a
// table name. An empty resourceID explores the configured default, and a
// limit below one uses the configured sample limit.
func (p *Preflight) Explore(ctx context.Context, service, resourceID string, limit int) (Exploration, error) {
	s, err := model.ParseService(service)
	if err != nil {
		return Exploration{}, fmt.Errorf("preflight: %w", err)
	}
	if limit < 1 {
		limit = p.cfg.Output.SampleLimit
	}
	return p.explorer.Explore(ctx, s, resourceID, limit)
}

package output

import (
	"context"

	"github.com/crimson-sun/preflight/internal/model"
)

// Output defines the interface for report destinations.
type Output interface {
	WriteReport(ctx context.Context, report model.ConnectivityReport) error
	WriteExploration(ctx context.Context, exp model.Exploration) error
	Close() error
}

package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/preflight/internal/model"
	"github.com/crimson-sun/preflight/internal/output"
)

// Multi fans out reports to multiple output.Output implementations.
// Each call delivers the report to every wrapped output sequentially.
// If one output fails, the remaining outputs still receive the report.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi that fans out to the given outputs.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// WriteReport delivers the report to every wrapped output.
func (m *Multi) WriteReport(ctx context.Context, report model.ConnectivityReport) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.WriteReport(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteExploration delivers the exploration to every wrapped output.
func (m *Multi) WriteExploration(ctx context.Context, exp model.Exploration) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.WriteExploration(ctx, exp); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

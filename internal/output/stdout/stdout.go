// Package stdout writes reports as JSON, YAML or CSV for other programs,
// optionally filtered through a jq expression.
package stdout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/preflight/internal/model"
)

// Format is a structured encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ErrFilterWithCSV is returned when a jq filter is combined with CSV output.
var ErrFilterWithCSV = errors.New("a jq filter cannot be combined with csv output")

// Output encodes each report it is given as one document.
type Output struct {
	w      io.Writer
	format Format
	filter *gojq.Code
}

// New creates an Output. filter is a jq expression applied to the JSON form
// of each report; empty means no filter.
func New(w io.Writer, format Format, filter string) (*Output, error) {
	switch format {
	case FormatJSON, FormatYAML, FormatCSV:
	default:
		return nil, fmt.Errorf("stdout output: unsupported format %q", format)
	}
	o := &Output{w: w, format: format}
	if filter == "" {
		return o, nil
	}
	if format == FormatCSV {
		return nil, ErrFilterWithCSV
	}
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("stdout output: parse jq filter: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("stdout output: compile jq filter: %w", err)
	}
	o.filter = code
	return o, nil
}

// WriteReport writes the report. CSV output has one row per probe.
func (o *Output) WriteReport(ctx context.Context, report model.ConnectivityReport) error {
	if o.format == FormatCSV {
		return o.writeCSV(report.Results)
	}
	return o.write(ctx, report)
}

// sampleRow is one sampled field in CSV form.
type sampleRow struct {
	Service  model.Service   `csv:"service"`
	Resource string          `csv:"resource"`
	Endpoint string          `csv:"endpoint"`
	Record   int             `csv:"record"`
	Key      string          `csv:"key"`
	Type     model.FieldType `csv:"type"`
	Example  string          `csv:"example"`
	Error    string          `csv:"error"`
}

// WriteExploration writes the exploration. CSV output has one row per sampled
// field, and one row per failed endpoint.
func (o *Output) WriteExploration(ctx context.Context, exp model.Exploration) error {
	if o.format != FormatCSV {
		return o.write(ctx, exp)
	}

	rows := []sampleRow{}
	if exp.Err != "" {
		rows = append(rows, sampleRow{Service: exp.Service, Resource: exp.ResourceID, Error: exp.Err})
	}
	for _, ep := range exp.Endpoints {
		if ep.Err != "" {
			rows = append(rows, sampleRow{Service: exp.Service, Resource: exp.ResourceID, Endpoint: ep.Name, Error: ep.Err})
			continue
		}
		for i, fields := range ep.Samples {
			for _, f := range fields {
				rows = append(rows, sampleRow{
					Service:  exp.Service,
					Resource: exp.ResourceID,
					Endpoint: ep.Name,
					Record:   i + 1,
					Key:      f.Key,
					Type:     f.Type,
					Example:  model.FormatScalar(f.Example),
				})
			}
		}
	}
	return o.writeCSV(rows)
}

func (o *Output) writeCSV(rows any) error {
	s, err := gocsv.MarshalString(rows)
	if err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	if _, err := io.WriteString(o.w, s); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) write(ctx context.Context, v any) error {
	if o.filter == nil {
		return o.encode(v)
	}

	// jq works on plain JSON values.
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	var input any
	if err := json.Unmarshal(b, &input); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}

	iter := o.filter.RunWithContext(ctx, input)
	for {
		res, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := res.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil
			}
			return fmt.Errorf("stdout output: jq: %w", err)
		}
		if err := o.encode(res); err != nil {
			return err
		}
	}
}

func (o *Output) encode(v any) error {
	switch o.format {
	case FormatYAML:
		enc := yaml.NewEncoder(o.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
		return nil
	}
}

// Close is a no-op.
func (o *Output) Close() error {
	return nil
}

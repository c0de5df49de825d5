// Package console renders reports for people reading a terminal.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/crimson-sun/preflight/internal/model"
	"github.com/crimson-sun/preflight/internal/output"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Output writes styled text and tables. Colors are dropped when w is not a
// terminal.
type Output struct {
	w io.Writer
}

// New creates a console Output writing to w.
func New(w io.Writer) *Output {
	return &Output{w: w}
}

func (o *Output) println(a ...any) {
	lipgloss.Fprintln(o.w, a...)
}

func (o *Output) table() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(o.w)
	t.SetStyle(table.StyleRounded)
	return t
}

// WriteReport prints one line per probe and an overall verdict.
func (o *Output) WriteReport(_ context.Context, report model.ConnectivityReport) error {
	o.println(headingStyle.Render("Testing service connections..."))
	o.println()

	for _, res := range report.Results {
		name := res.Service.DisplayName()
		if res.Success {
			o.println(okStyle.Render("✔ "+name+": ") + res.Detail)
		} else {
			o.println(errStyle.Render("✘ "+name+": ") + res.Detail)
		}
	}
	o.println()

	if report.OK() {
		o.println(okStyle.Bold(true).Render("All connections successful!"))
	} else {
		o.println(errStyle.Bold(true).Render(fmt.Sprintf("%d of %d connections failed.", report.Failed(), len(report.Results))))
	}
	return nil
}

// WriteExploration prints every endpoint of exp in plan order.
func (o *Output) WriteExploration(_ context.Context, exp model.Exploration) error {
	o.println(headingStyle.Render(fmt.Sprintf("Exploring %s: %s", exp.Service.DisplayName(), exp.ResourceID)))
	o.println()

	if exp.Err != "" {
		o.println(errStyle.Render("✘ " + exp.Err))
		return nil
	}
	for _, ep := range exp.Endpoints {
		if err := o.endpoint(ep); err != nil {
			return err
		}
	}
	return nil
}

func (o *Output) endpoint(ep model.EndpointReport) error {
	title := ep.View.Title
	if title == "" {
		title = ep.Name
	}
	o.println(titleStyle.Render(title) + dimStyle.Render("  GET "+ep.Path))

	if ep.Err != "" {
		o.println(errStyle.Render(fmt.Sprintf("  Error fetching %s: %s", ep.Name, ep.Err)))
		o.println()
		return nil
	}

	switch {
	case ep.Meta == model.SingleResource():
	case ep.Meta.LastPage > 0:
		o.println(fmt.Sprintf("  Total %s: %d (page %d of %d)", ep.Name, ep.Meta.TotalCount, ep.Meta.CurrentPage, ep.Meta.LastPage))
	default:
		o.println(fmt.Sprintf("  Total %s: %d", ep.Name, ep.Meta.TotalCount))
	}

	if len(ep.Records) == 0 {
		o.println(warnStyle.Render(fmt.Sprintf("  No %s found", ep.Name)))
		o.println()
		return nil
	}

	if len(ep.View.Columns) > 0 {
		o.records(ep)
	} else {
		for i, fields := range ep.Samples {
			if i < len(ep.Records) {
				for _, col := range ep.View.Highlights {
					o.println(fmt.Sprintf("  %s: %s", col.Header, output.Cell(ep.Records[i], col)))
				}
			}
			o.samples(fmt.Sprintf("Sampled fields (%s #%d)", ep.Name, i+1), fields)
		}
	}

	if ep.View.ShowRecord {
		b, err := json.MarshalIndent(ep.Records[0], "  ", "  ")
		if err != nil {
			return fmt.Errorf("console output: %w", err)
		}
		o.println(titleStyle.Render("  Full structure of first record:"))
		o.println("  " + string(b))
	}
	o.println()
	return nil
}

func (o *Output) records(ep model.EndpointReport) {
	t := o.table()
	header := make(table.Row, len(ep.View.Columns))
	for i, col := range ep.View.Columns {
		header[i] = col.Header
	}
	t.AppendHeader(header)

	rows := ep.Records
	if ep.View.MaxRows > 0 && len(rows) > ep.View.MaxRows {
		rows = rows[:ep.View.MaxRows]
	}
	for _, r := range rows {
		row := make(table.Row, len(ep.View.Columns))
		for i, col := range ep.View.Columns {
			row[i] = output.Cell(r, col)
		}
		t.AppendRow(row)
	}
	if len(rows) < len(ep.Records) {
		t.SetCaption("showing %d of %d", len(rows), len(ep.Records))
	}
	t.Render()
}

func (o *Output) samples(title string, fields []model.SampleField) {
	t := o.table()
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Field", "Type", "Example"})
	for _, f := range fields {
		key := f.Key
		if f.DisplayName != "" && !strings.EqualFold(f.DisplayName, f.Key) {
			key += " (" + output.Short(f.DisplayName) + ")"
		}
		t.AppendRow(table.Row{key, string(f.Type), output.Short(model.FormatScalar(f.Example))})
	}
	t.Render()
}

// Close is a no-op.
func (o *Output) Close() error {
	return nil
}

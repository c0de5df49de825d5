package model

import "time"

// ProbeResult is the outcome of one connectivity probe.
type ProbeResult struct {
	Service  Service       `json:"service" yaml:"service" csv:"service"`
	Success  bool          `json:"success" yaml:"success" csv:"success"`
	Detail   string        `json:"detail" yaml:"detail" csv:"detail"`
	Duration time.Duration `json:"-" yaml:"-" csv:"-"`
}

// ConnectivityReport aggregates the probe results of one harness run.
type ConnectivityReport struct {
	RunID   string        `json:"run_id" yaml:"run_id"`
	Results []ProbeResult `json:"results" yaml:"results"`
}

// OK reports whether every probe succeeded.
func (r ConnectivityReport) OK() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return true
}

// Failed returns the number of failed probes.
func (r ConnectivityReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Success {
			n++
		}
	}
	return n
}

// Exploration is the discovery report for one resource of one service.
type Exploration struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	Service    Service          `json:"service" yaml:"service"`
	ResourceID string           `json:"resource_id" yaml:"resource_id"`
	Title      string           `json:"title,omitempty" yaml:"title,omitempty"`
	Endpoints  []EndpointReport `json:"endpoints" yaml:"endpoints"`
	// Err is set when the exploration could not start at all.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed returns the number of endpoints that could not be fetched.
func (e Exploration) Failed() int {
	n := 0
	for _, ep := range e.Endpoints {
		if ep.Err != "" {
			n++
		}
	}
	return n
}

// EndpointReport is the result of fetching one endpoint during exploration.
type EndpointReport struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	// Meta is zero when the fetch failed.
	Meta PaginationMeta `json:"meta" yaml:"meta"`
	// Records holds the first records of the page, as returned.
	Records []RawRecord `json:"records,omitempty" yaml:"records,omitempty"`
	// Samples holds one sampled field list per sampled record.
	Samples [][]SampleField `json:"samples,omitempty" yaml:"samples,omitempty"`
	Err     string          `json:"error,omitempty" yaml:"error,omitempty"`

	View View `json:"-" yaml:"-"`
}

// Format controls how a column value is rendered.
type Format int

const (
	FormatText Format = iota
	// FormatMoney renders a number with grouping and no fraction digits.
	FormatMoney
	// FormatShort truncates long text.
	FormatShort
	// FormatTime appends a relative age to a timestamp.
	FormatTime
)

// Column selects values of a record for a table or highlight line. Values of
// several keys are joined with a space.
type Column struct {
	Header string
	Keys   []string
	Format Format
}

// View carries the presentation hints of an endpoint. Rendering sinks may
// ignore it.
type View struct {
	Title string
	// Highlights are shown as "Header: value" lines for each record.
	Highlights []Column
	// Columns, when set, render the records as a table.
	Columns []Column
	// MaxRows caps the record table; zero means all records.
	MaxRows int
	// ShowRecord prints the full structure of the first record.
	ShowRecord bool
}

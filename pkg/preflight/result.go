package preflight

import (
	"time"

	"github.com/crimson-sun/preflight/internal/model"
)

// Service names accepted by Check and Explore.
const (
	FormService     = string(model.FormService)
	CampaignService = string(model.CampaignService)
	DataStore       = string(model.DataStore)
)

// Result is the outcome of one connectivity probe.
// This is the stable public type; internal representations may evolve
// independently without breaking consumers.
type Result struct {
	Service  string        `json:"service"`
	Success  bool          `json:"success"`
	Detail   string        `json:"detail"`             // "Connected as: ..." or the failure reason
	Duration time.Duration `json:"duration,omitempty"` // Wall time of the probe
}

// Report is the outcome of one Check call.
type Report struct {
	RunID   string   `json:"run_id"`
	Results []Result `json:"results"`
}

// OK reports whether every probe succeeded. An empty report is OK.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return true
}

// Exploration is a discovery report for one resource. It is shared with the
// CLI's structured output.
type Exploration = model.Exploration

func reportFromModel(r model.ConnectivityReport) Report {
	out := Report{RunID: r.RunID, Results: make([]Result, len(r.Results))}
	for i, res := range r.Results {
		out.Results[i] = Result{
			Service:  string(res.Service),
			Success:  res.Success,
			Detail:   res.Detail,
			Duration: res.Duration,
		}
	}
	return out
}

package harness

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/crimson-sun/preflight/internal/config"
	"github.com/crimson-sun/preflight/internal/connector"
	"github.com/crimson-sun/preflight/internal/connector/givebutter"
	"github.com/crimson-sun/preflight/internal/connector/jotform"
	"github.com/crimson-sun/preflight/internal/connector/supabase"
	"github.com/crimson-sun/preflight/internal/credential"
	"github.com/crimson-sun/preflight/internal/model"
	"github.com/crimson-sun/preflight/internal/probe"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Idle keep-alive connections of the shared transport.
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

// fakeProber returns canned results and records call order.
type fakeProber struct {
	results map[model.Service]model.ProbeResult
	calls   []model.Service
}

func (f *fakeProber) Probe(_ context.Context, service model.Service) model.ProbeResult {
	f.calls = append(f.calls, service)
	res, ok := f.results[service]
	if !ok {
		return model.ProbeResult{Service: service, Detail: "not configured"}
	}
	return res
}

func TestRun_PreservesOrder(t *testing.T) {
	p := &fakeProber{results: map[model.Service]model.ProbeResult{
		model.DataStore:       {Service: model.DataStore, Success: true},
		model.FormService:     {Service: model.FormService, Success: true},
		model.CampaignService: {Service: model.CampaignService, Success: true},
	}}
	services := []model.Service{model.CampaignService, model.DataStore, model.FormService}

	report := New(p, nil).Run(context.Background(), services)

	require.Len(t, report.Results, 3)
	for i, s := range services {
		assert.Equal(t, s, report.Results[i].Service)
	}
	assert.Equal(t, services, p.calls)
	assert.True(t, report.OK())
	_, err := uuid.Parse(report.RunID)
	assert.NoError(t, err)
}

func TestRun_OverallIsConjunction(t *testing.T) {
	p := &fakeProber{results: map[model.Service]model.ProbeResult{
		model.DataStore:   {Service: model.DataStore, Success: true},
		model.FormService: {Service: model.FormService, Success: false, Detail: "HTTP 401: nope"},
	}}

	report := New(p, nil).Run(context.Background(), []model.Service{model.DataStore, model.FormService})
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Failed())
}

func TestRun_Empty(t *testing.T) {
	report := New(&fakeProber{}, nil).Run(context.Background(), nil)
	assert.Empty(t, report.Results)
	assert.True(t, report.OK())
}

func TestRun_DistinctRunIDs(t *testing.T) {
	h := New(&fakeProber{}, nil)
	a := h.Run(context.Background(), nil)
	b := h.Run(context.Background(), nil)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRun_EndToEnd(t *testing.T) {
	jotformSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseCode":200,"content":{"username":"ops"}}`))
	}))
	defer jotformSrv.Close()

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	cfg := &config.Config{
		FormService: config.FormServiceConfig{APIKey: "jf", BaseURL: jotformSrv.URL},
		DataStore:   config.DataStoreConfig{URL: closedURL, Key: "sb", Table: "jotform_signups"},
	}
	conns := map[model.Service]connector.Connector{
		model.DataStore:       supabase.New(connector.Options{}),
		model.FormService:     jotform.New(connector.Options{}),
		model.CampaignService: givebutter.New(connector.Options{}),
	}
	prober := probe.New(credential.NewResolver(cfg), conns, nil)

	report := New(prober, nil).Run(context.Background(), model.Services())

	require.Len(t, report.Results, 3)

	store := report.Results[0]
	assert.Equal(t, model.DataStore, store.Service)
	assert.False(t, store.Success)
	assert.Contains(t, store.Detail, "connection")

	form := report.Results[1]
	assert.True(t, form.Success)
	assert.Equal(t, "Connected as: ops", form.Detail)

	campaign := report.Results[2]
	assert.False(t, campaign.Success)
	assert.Equal(t, "GIVEBUTTER_API_KEY not set", campaign.Detail)

	assert.False(t, report.OK())
}

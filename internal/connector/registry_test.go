package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/preflight/internal/fetch"
	"github.com/crimson-sun/preflight/internal/model"
)

type stubConnector struct{ opts Options }

func (s *stubConnector) Check(context.Context, model.Credential) (string, error) { return "ok", nil }
func (s *stubConnector) Plan(string, int) []Endpoint                             { return nil }
func (s *stubConnector) Fetch(context.Context, model.Credential, fetch.Request) (fetch.Page, error) {
	return fetch.Page{}, nil
}

func withRegistry(t *testing.T) {
	t.Helper()
	saved := registry
	registry = map[model.Service]Constructor{}
	t.Cleanup(func() { registry = saved })
}

func TestBuildPassesOptions(t *testing.T) {
	withRegistry(t)
	Register(model.DataStore, func(o Options) Connector { return &stubConnector{opts: o} })
	Register(model.FormService, func(o Options) Connector { return &stubConnector{opts: o} })

	conns := Build(Options{Timeout: 7})
	require.Len(t, conns, 2)
	assert.Equal(t, int64(7), int64(conns[model.DataStore].(*stubConnector).opts.Timeout))
	assert.NotContains(t, conns, model.CampaignService)
}

func TestOptionsLogDefault(t *testing.T) {
	assert.NotNil(t, Options{}.Log())
}

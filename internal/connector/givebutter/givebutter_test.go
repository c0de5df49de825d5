package givebutter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/preflight/internal/connector"
	"github.com/crimson-sun/preflight/internal/model"
)

func newServer(t *testing.T, handler http.HandlerFunc) model.Credential {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gb_key" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return model.Credential{Service: model.CampaignService, Token: "gb_key", BaseURL: srv.URL}
}

func TestCheck(t *testing.T) {
	var perPage string
	cred := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("per_page")
		w.Write([]byte(`{"data":[{"id":1,"title":"Spring"}],"meta":{"total":7,"current_page":1,"last_page":7,"per_page":1}}`))
	})

	detail, err := New(connector.Options{}).Check(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "Connected - 7 campaigns accessible", detail)
	assert.Equal(t, "1", perPage)
}

func TestCheck_TrailingSlashBaseURL(t *testing.T) {
	var path string
	cred := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"data":[],"meta":{"total":0,"current_page":1,"last_page":1,"per_page":1}}`))
	})
	cred.BaseURL += "/"

	_, err := New(connector.Options{}).Check(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "/campaigns", path)
}

func TestCheck_Unauthorized(t *testing.T) {
	cred := newServer(t, nil)
	cred.Token = "nope"

	_, err := New(connector.Options{}).Check(context.Background(), cred)
	require.Error(t, err)
	assert.Equal(t, "HTTP 401: {\"message\":\"Unauthenticated.\"}", err.Error())
}

func TestPlan(t *testing.T) {
	plan := New(connector.Options{}).Plan("CQVG3W", 3)
	require.Len(t, plan, 4)

	paths := make([]string, len(plan))
	for i, ep := range plan {
		paths[i] = ep.Request.Path
	}
	assert.Equal(t, []string{"/campaigns/CQVG3W", "/campaigns/CQVG3W/members", "/campaigns/CQVG3W/teams", "/contacts"}, paths)
	assert.Equal(t, "20", plan[1].Request.Query.Get("per_page"))
	assert.Equal(t, "3", plan[3].Request.Query.Get("per_page"))
	assert.Equal(t, 5, plan[1].View.MaxRows)
}

func TestFetch_ZeroMembers(t *testing.T) {
	cred := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"meta":{"total":0}}`))
	})
	c := New(connector.Options{})

	page, err := c.Fetch(context.Background(), cred, c.Plan("CQVG3W", 2)[1].Request)
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.Equal(t, 0, page.Meta.TotalCount)
	assert.False(t, page.HasNext())
}

func TestFetch_CampaignDetail(t *testing.T) {
	cred := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaigns/CQVG3W", r.URL.Path)
		w.Write([]byte(`{"data":{"id":42,"code":"CQVG3W","title":"Spring Drive","type":"collect","goal":10000,"raised":2500.5,"donors":12}}`))
	})
	c := New(connector.Options{})

	page, err := c.Fetch(context.Background(), cred, c.Plan("CQVG3W", 2)[0].Request)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Spring Drive", page.Records[0].String("title"))
	assert.Equal(t, "2500.5", page.Records[0].String("raised"))
	assert.Equal(t, model.SingleResource(), page.Meta)
}

func TestFetch_MissingData(t *testing.T) {
	cred := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	})
	c := New(connector.Options{})

	_, err := c.Fetch(context.Background(), cred, c.Plan("CQVG3W", 2)[2].Request)
	assert.Equal(t, model.KindMalformedResponse, model.KindOf(err))
}

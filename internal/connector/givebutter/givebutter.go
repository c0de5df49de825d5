package givebutter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/crimson-sun/preflight/internal/connector"
	"github.com/crimson-sun/preflight/internal/connector/httpclient"
	"github.com/crimson-sun/preflight/internal/fetch"
	"github.com/crimson-sun/preflight/internal/model"
)

// membersPageSize is the page size used when exploring campaign members.
const membersPageSize = 20

func init() {
	connector.Register(model.CampaignService, New)
}

// Connector implements connector.Connector for the Givebutter v1 API.
type Connector struct {
	opts connector.Options
}

// New creates a Givebutter connector.
func New(opts connector.Options) connector.Connector {
	return &Connector{opts: opts}
}

// envelope unwraps {"data":...,"meta":{...}}.
type envelope struct{}

func (envelope) Records(body []byte) (json.RawMessage, error) {
	return fetch.Field(body, "data")
}

type pageMeta struct {
	Total       int `json:"total"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
}

func (envelope) Meta(resp *httpclient.Response, _ fetch.Request) (model.PaginationMeta, bool) {
	raw, err := fetch.Field(resp.Body, "meta")
	if err != nil {
		return model.PaginationMeta{}, false
	}
	var m pageMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return model.PaginationMeta{}, false
	}
	return model.PaginationMeta{
		TotalCount:  m.Total,
		CurrentPage: m.CurrentPage,
		LastPage:    m.LastPage,
		PageSize:    m.PerPage,
	}, true
}

// Check lists one campaign and reports how many the key can see.
func (c *Connector) Check(ctx context.Context, cred model.Credential) (string, error) {
	page, err := c.Fetch(ctx, cred, fetch.Request{
		Endpoint: "campaigns",
		Path:     "/campaigns",
		Query:    url.Values{"per_page": {"1"}},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Connected - %d campaigns accessible", page.Meta.TotalCount), nil
}

const money = model.FormatMoney

// Plan explores a campaign, its members and teams, and the account's
// contacts.
func (c *Connector) Plan(campaignID string, limit int) []connector.Endpoint {
	base := "/campaigns/" + url.PathEscape(campaignID)
	return []connector.Endpoint{
		{
			Request: fetch.Request{Endpoint: "campaign", Path: base, Shape: fetch.ShapeDetail, ResourceID: campaignID},
			View: model.View{
				Title: "Campaign",
				Highlights: []model.Column{
					{Header: "Title", Keys: []string{"title"}},
					{Header: "Type", Keys: []string{"type"}},
					{Header: "Goal", Keys: []string{"goal"}, Format: money},
					{Header: "Raised", Keys: []string{"raised"}, Format: money},
					{Header: "Donors", Keys: []string{"donors"}},
				},
			},
		},
		{
			Request: fetch.Request{
				Endpoint:   "members",
				Path:       base + "/members",
				Query:      url.Values{"per_page": {strconv.Itoa(membersPageSize)}},
				ResourceID: campaignID,
			},
			View: model.View{
				Title: "Campaign Members",
				Columns: []model.Column{
					{Header: "ID", Keys: []string{"id"}},
					{Header: "Name", Keys: []string{"first_name", "last_name"}},
					{Header: "Email", Keys: []string{"email"}},
					{Header: "Goal", Keys: []string{"goal"}, Format: money},
					{Header: "Raised", Keys: []string{"raised"}, Format: money},
					{Header: "Donors", Keys: []string{"donors"}},
				},
				MaxRows:    5,
				ShowRecord: true,
			},
		},
		{
			Request: fetch.Request{Endpoint: "teams", Path: base + "/teams", ResourceID: campaignID},
			View: model.View{
				Title: "Campaign Teams",
				Columns: []model.Column{
					{Header: "ID", Keys: []string{"id"}},
					{Header: "Name", Keys: []string{"name"}},
					{Header: "Members", Keys: []string{"members"}},
					{Header: "Raised", Keys: []string{"raised"}, Format: money},
				},
			},
		},
		{
			Request: fetch.Request{
				Endpoint: "contacts",
				Path:     "/contacts",
				Query:    url.Values{"per_page": {strconv.Itoa(limit)}},
			},
			View: model.View{Title: "Contacts", ShowRecord: true},
		},
	}
}

// Fetch issues one request authenticated with a bearer token.
func (c *Connector) Fetch(ctx context.Context, cred model.Credential, req fetch.Request) (fetch.Page, error) {
	client := c.opts.Client(strings.TrimRight(cred.BaseURL, "/"), httpclient.WithBearer(cred.Token))
	return fetch.New(client, envelope{}, c.opts.Log()).FetchPage(ctx, req)
}

package jotform

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

const apiKeyParam = "apiKey"

func init() {
	connector.Register(model.FormService, New)
}

// Connector implements connector.Connector for the Jotform REST API.
type Connector struct {
	opts connector.Options
}

// New creates a Jotform connector.
func New(opts connector.Options) connector.Connector {
	return &Connector{opts: opts}
}

// envelope unwraps {"responseCode":200,"content":...,"resultSet":{...}}.
type envelope struct{}

func (envelope) Records(body []byte) (json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, err
	}
	if raw, ok := top["responseCode"]; ok {
		var code int
		if err := json.Unmarshal(raw, &code); err == nil && code != 200 {
			var msg string
			json.Unmarshal(top["message"], &msg)
			return nil, &model.HTTPStatusError{StatusCode: code, Body: msg}
		}
	}
	content, ok := top["content"]
	if !ok {
		return nil, fmt.Errorf("missing top-level key %q", "content")
	}
	return content, nil
}

type resultSet struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Count  int `json:"count"`
}

// Meta maps resultSet onto page numbers. Jotform reports no grand total, so
// a full page is taken to mean another page may follow.
func (envelope) Meta(resp *httpclient.Response, _ fetch.Request) (model.PaginationMeta, bool) {
	raw, err := fetch.Field(resp.Body, "resultSet")
	if err != nil {
		return model.PaginationMeta{}, false
	}
	var rs resultSet
	if err := json.Unmarshal(raw, &rs); err != nil || rs.Limit <= 0 {
		return model.PaginationMeta{}, false
	}
	page := rs.Offset/rs.Limit + 1
	last := page
	if rs.Count >= rs.Limit {
		last = page + 1
	}
	return model.PaginationMeta{
		TotalCount:  rs.Offset + rs.Count,
		CurrentPage: page,
		LastPage:    last,
		PageSize:    rs.Limit,
	}, true
}

// Check fetches the account behind the API key.
func (c *Connector) Check(ctx context.Context, cred model.Credential) (string, error) {
	page, err := c.Fetch(ctx, cred, fetch.Request{Endpoint: "user", Path: "/user", Shape: fetch.ShapeDetail})
	if err != nil {
		return "", err
	}
	username := page.Records[0].String("username")
	if username == "" {
		username = "Unknown"
	}
	return "Connected as: " + username, nil
}

// Plan explores a form: its details, its questions and its latest
// submissions.
func (c *Connector) Plan(formID string, limit int) []connector.Endpoint {
	base := "/form/" + url.PathEscape(formID)
	return []connector.Endpoint{
		{
			Request: fetch.Request{Endpoint: "form", Path: base, Shape: fetch.ShapeDetail, ResourceID: formID},
			View: model.View{
				Title: "Form Details",
				Highlights: []model.Column{
					{Header: "Title", Keys: []string{"title"}},
					{Header: "Created", Keys: []string{"created_at"}, Format: model.FormatTime},
					{Header: "Submissions", Keys: []string{"count"}},
				},
			},
		},
		{
			Request: fetch.Request{Endpoint: "questions", Path: base + "/questions", Shape: fetch.ShapeKeyed, ResourceID: formID},
			View: model.View{
				Title: "Form Questions",
				Columns: []model.Column{
					{Header: "Field ID", Keys: []string{"qid"}},
					{Header: "Name", Keys: []string{"name"}},
					{Header: "Type", Keys: []string{"type"}},
					{Header: "Text", Keys: []string{"text"}, Format: model.FormatShort},
				},
			},
		},
		{
			Request: fetch.Request{
				Endpoint:   "submissions",
				Path:       base + "/submissions",
				Query:      url.Values{"offset": {"0"}, "limit": {strconv.Itoa(limit)}},
				ResourceID: formID,
			},
			View: model.View{
				Title: "Recent Submissions",
				Highlights: []model.Column{
					{Header: "Submission ID", Keys: []string{"id"}},
					{Header: "Created", Keys: []string{"created_at"}, Format: model.FormatTime},
				},
			},
		},
	}
}

// Fetch issues one request authenticated with the apiKey query parameter.
func (c *Connector) Fetch(ctx context.Context, cred model.Credential, req fetch.Request) (fetch.Page, error) {
	client := c.opts.Client(strings.TrimRight(cred.BaseURL, "/"), httpclient.WithQueryKey(apiKeyParam, cred.Token))
	return fetch.New(client, envelope{}, c.opts.Log()).FetchPage(ctx, req)
}

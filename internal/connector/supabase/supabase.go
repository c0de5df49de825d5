package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/crimson-sun/preflight/internal/connector"
	"github.com/crimson-sun/preflight/internal/connector/httpclient"
	"github.com/crimson-sun/preflight/internal/fetch"
	"github.com/crimson-sun/preflight/internal/model"
)

const restPrefix = "/rest/v1/"

// tablePattern accepts plain Postgres identifiers. Table names end up in URL
// paths and SQL, so nothing else is allowed through.
var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func init() {
	connector.Register(model.DataStore, New)
}

// Connector implements connector.Connector for a Supabase project. It talks
// to PostgREST by default and to Postgres directly when the credential
// carries a DSN.
type Connector struct {
	opts connector.Options
}

// New creates a Supabase connector.
func New(opts connector.Options) connector.Connector {
	return &Connector{opts: opts}
}

func validateTable(table string) error {
	if !tablePattern.MatchString(table) {
		return fmt.Errorf("supabase connector: invalid table name %q", table)
	}
	return nil
}

// Check selects a single id from the table.
func (c *Connector) Check(ctx context.Context, cred model.Credential) (string, error) {
	table := cred.DefaultResource
	if err := validateTable(table); err != nil {
		return "", err
	}
	if cred.DSN != "" {
		if err := c.checkPostgres(ctx, cred.DSN, table); err != nil {
			return "", err
		}
		return "Connected successfully (postgres)", nil
	}

	_, err := c.Fetch(ctx, cred, fetch.Request{
		Endpoint:   "table",
		Path:       restPrefix + table,
		Query:      url.Values{"select": {"id"}, "limit": {"1"}},
		ResourceID: table,
	})
	if err != nil {
		return "", err
	}
	return "Connected successfully", nil
}

// Plan samples the first rows of a table.
func (c *Connector) Plan(table string, limit int) []connector.Endpoint {
	return []connector.Endpoint{{
		Request: fetch.Request{
			Endpoint:   "rows",
			Path:       restPrefix + table,
			Query:      url.Values{"select": {"*"}, "limit": {strconv.Itoa(limit)}},
			Header:     http.Header{"Prefer": {"count=exact"}},
			ResourceID: table,
		},
		View: model.View{Title: "Table Rows", ShowRecord: true},
	}}
}

// Fetch issues one page request over REST, or one query over the Postgres
// connection when the credential carries a DSN.
func (c *Connector) Fetch(ctx context.Context, cred model.Credential, req fetch.Request) (fetch.Page, error) {
	if err := validateTable(req.ResourceID); err != nil {
		return fetch.Page{}, err
	}
	if cred.DSN != "" {
		return c.fetchPostgres(ctx, cred.DSN, req)
	}
	client := c.opts.Client(strings.TrimRight(cred.BaseURL, "/"),
		httpclient.WithHeader("apikey", cred.Token),
		httpclient.WithBearer(cred.Token),
	)
	return fetch.New(client, envelope{}, c.opts.Log()).FetchPage(ctx, req)
}

// envelope reads PostgREST responses: a bare JSON array, with the total row
// count in Content-Range when it was asked for.
type envelope struct{}

func (envelope) Records(body []byte) (json.RawMessage, error) {
	return json.RawMessage(body), nil
}

func (envelope) Meta(resp *httpclient.Response, req fetch.Request) (model.PaginationMeta, bool) {
	total, ok := parseContentRange(resp.Header.Get("Content-Range"))
	if !ok {
		return model.PaginationMeta{}, false
	}
	return pageMeta(total, requestLimit(req)), true
}

// parseContentRange extracts the total from "0-24/57" or "*/0". A "*" total
// means the count was not requested.
func parseContentRange(h string) (int, bool) {
	i := strings.LastIndexByte(h, '/')
	if i < 0 {
		return 0, false
	}
	total, err := strconv.Atoi(h[i+1:])
	if err != nil || total < 0 {
		return 0, false
	}
	return total, true
}

func requestLimit(req fetch.Request) int {
	n, err := strconv.Atoi(req.Query.Get("limit"))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// pageMeta describes the first page of a table of total rows.
func pageMeta(total, limit int) model.PaginationMeta {
	m := model.PaginationMeta{TotalCount: total, CurrentPage: 1, LastPage: 1, PageSize: limit}
	if limit > 0 && total > limit {
		m.LastPage = (total + limit - 1) / limit
	}
	return m
}

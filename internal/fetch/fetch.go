// Package fetch implements the paginated fetcher shared by the connectivity
// probes and the exploration reporter: one request, one page.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sort"

	"github.com/crimson-sun/preflight/internal/connector/httpclient"
	"github.com/crimson-sun/preflight/internal/model"
)

// Shape tells the fetcher how the records payload of an endpoint is laid out.
type Shape int

const (
	// ShapeList is a JSON array of records.
	ShapeList Shape = iota
	// ShapeDetail is a single JSON object.
	ShapeDetail
	// ShapeKeyed is an object of records keyed by id.
	ShapeKeyed
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeDetail:
		return "detail"
	case ShapeKeyed:
		return "keyed"
	default:
		return "unknown"
	}
}

// Request describes one page request. It is built per call.
type Request struct {
	// Endpoint names the request in reports and errors ("members").
	Endpoint   string
	Path       string
	Query      url.Values
	Header     http.Header
	Shape      Shape
	ResourceID string
}

// Page is one fetched page.
type Page struct {
	Records []model.RawRecord
	Meta    model.PaginationMeta
}

// HasNext reports whether the service advertised another page. The fetcher
// never follows it; callers that want more data issue another Request.
func (p Page) HasNext() bool {
	return p.Meta.HasNext()
}

// Envelope knows where an endpoint family keeps its records and its
// pagination metadata.
type Envelope interface {
	// Records returns the records payload of a response body. A non-nil error
	// is reported as a malformed response, unless it already is a typed error.
	Records(body []byte) (json.RawMessage, error)
	// Meta extracts pagination metadata for list-like responses. ok is false
	// when the response carries none.
	Meta(resp *httpclient.Response, req Request) (meta model.PaginationMeta, ok bool)
}

// Getter is the transport used by a Fetcher. *httpclient.Client implements it.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values, header http.Header) (*httpclient.Response, error)
}

// Fetcher issues page requests for one endpoint family.
type Fetcher struct {
	client   Getter
	envelope Envelope
	logger   *slog.Logger
}

// New creates a Fetcher. A nil logger uses slog.Default().
func New(client Getter, envelope Envelope, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, envelope: envelope, logger: logger}
}

// FetchPage issues exactly one request and decodes one page. Detail requests
// yield a single record and model.SingleResource metadata.
func (f *Fetcher) FetchPage(ctx context.Context, req Request) (Page, error) {
	f.logger.Debug("fetching page", "endpoint", req.Endpoint, "path", req.Path, "shape", req.Shape.String())

	resp, err := f.client.Get(ctx, req.Path, req.Query, req.Header)
	if err != nil {
		return Page{}, err
	}

	payload, err := f.envelope.Records(resp.Body)
	if err != nil {
		if model.KindOf(err) != model.KindUnknown {
			return Page{}, err
		}
		return Page{}, &model.MalformedResponseError{Endpoint: req.Endpoint, Reason: "unexpected envelope", Err: err}
	}

	records, err := decodeRecords(payload, req.Shape)
	if err != nil {
		return Page{}, &model.MalformedResponseError{Endpoint: req.Endpoint, Reason: "expected " + req.Shape.String() + " payload", Err: err}
	}

	if req.Shape == ShapeDetail {
		return Page{Records: records, Meta: model.SingleResource()}, nil
	}

	meta, ok := f.envelope.Meta(resp, req)
	if !ok {
		meta = model.PaginationMeta{
			TotalCount:  len(records),
			CurrentPage: 1,
			LastPage:    1,
			PageSize:    len(records),
		}
	}
	f.logger.Debug("page fetched", "endpoint", req.Endpoint, "records", len(records), "total", meta.TotalCount)
	return Page{Records: records, Meta: meta}, nil
}

func decodeRecords(payload json.RawMessage, shape Shape) ([]model.RawRecord, error) {
	if isNull(payload) {
		if shape == ShapeDetail {
			return nil, errNullDetail
		}
		return []model.RawRecord{}, nil
	}

	switch shape {
	case ShapeDetail:
		r, err := model.DecodeRecord(payload)
		if err != nil {
			return nil, err
		}
		return []model.RawRecord{r}, nil

	case ShapeKeyed:
		if bytes.Equal(bytes.TrimSpace(payload), []byte("[]")) {
			return []model.RawRecord{}, nil
		}
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(payload, &keyed); err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(keyed))
		for id := range keyed {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return model.NaturalLess(ids[i], ids[j]) })
		records := make([]model.RawRecord, 0, len(ids))
		for _, id := range ids {
			r, err := model.DecodeRecord(keyed[id])
			if err != nil {
				return nil, err
			}
			records = append(records, r)
		}
		return records, nil

	default:
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, err
		}
		records := make([]model.RawRecord, 0, len(items))
		for _, item := range items {
			r, err := model.DecodeRecord(item)
			if err != nil {
				return nil, err
			}
			records = append(records, r)
		}
		return records, nil
	}
}

func isNull(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

package model

import (
	"errors"
	"fmt"
)

// MissingCredentialError reports a required configuration key that is absent
// or empty.
type MissingCredentialError struct {
	Service Service
	Key     string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s not set", e.Key)
}

// TransportError reports that a service could not be reached at all.
type TransportError struct {
	Op     string // "GET", "connect", ...
	Target string // URL without query, or a redacted host
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError reports a non-2xx response: the service was reachable but
// rejected the request.
type HTTPStatusError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// RejectedError reports a non-HTTP server that was reached but refused the
// session, such as Postgres rejecting a password. Code is the server's error
// code (SQLSTATE for Postgres).
type RejectedError struct {
	Target  string
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected connection: %s (%s)", e.Target, e.Message, e.Code)
}

// MalformedResponseError reports a response body that does not have the shape
// expected for its endpoint.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ErrorKind classifies failures surfaced by probes and explorations.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindMissingCredential
	KindTransport
	KindHTTPStatus
	KindRejected
	KindMalformedResponse
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMissingCredential:
		return "missing_credential"
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindRejected:
		return "rejected"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of err. A nil error is KindNone.
func KindOf(err error) ErrorKind {
	var (
		missing   *MissingCredentialError
		transport *TransportError
		status    *HTTPStatusError
		rejected  *RejectedError
		malformed *MalformedResponseError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &missing):
		return KindMissingCredential
	case errors.As(err, &status):
		return KindHTTPStatus
	case errors.As(err, &rejected):
		return KindRejected
	case errors.As(err, &transport):
		return KindTransport
	case errors.As(err, &malformed):
		return KindMalformedResponse
	default:
		return KindUnknown
	}
}

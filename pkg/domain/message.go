package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Request methods understood by the servers. Besides the HTTP verbs, the host
// accepts a few custom verbs describing UI-level operations.
const (
	MethodHead    = "HEAD"
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodDelete  = "DELETE"
	MethodCount   = "COUNT"
	MethodShow    = "SHOW"
	MethodEdit    = "EDIT"
	MethodCheck   = "CHECK"
	MethodUncheck = "UNCHECK"
)

// Status codes used by the servers.
const (
	StatusOK                  = 200
	StatusCreated             = 201
	StatusNoContent           = 204
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusInternalServerError = 500
	StatusBadGateway          = 502
	StatusGatewayTimeout      = 504
)

// Scheme prefixes every in-process address ("local://storage/42").
const Scheme = "local"

// Request is an addressed, HTTP-shaped message.
type Request struct {
	Method string
	// Host names the server the request is addressed to.
	Host   string
	Path   string
	Query  map[string]string
	Header map[string]string
	Body   any
}

// URL renders the absolute address of the request, query included.
func (r *Request) URL() string {
	return FormatAddress(r.Host, r.Path, r.Query)
}

// QueryValue returns a query parameter and whether it was present.
func (r *Request) QueryValue(key string) (string, bool) {
	if r.Query == nil {
		return "", false
	}
	v, ok := r.Query[key]
	return v, ok
}

// Response is the single terminal answer to a Request.
type Response struct {
	Status     int
	StatusText string
	Header     map[string]string
	// Links is the ordered link header of the response.
	Links []Link
	Body  any
}

// NewResponse builds a response with the conventional status text.
func NewResponse(status int) *Response {
	return &Response{
		Status:     status,
		StatusText: StatusText(status),
		Header:     map[string]string{},
	}
}

// ErrorResponse builds the terminal response for a failed request.
func ErrorResponse(err error) *Response {
	res := NewResponse(StatusFor(err))
	res.Body = err.Error()
	return res
}

// SetHeader sets a header, allocating the map if needed.
func (r *Response) SetHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = map[string]string{}
	}
	r.Header[strings.ToLower(key)] = value
	return r
}

// HeaderValue reads a header case-insensitively.
func (r *Response) HeaderValue(key string) string {
	if r.Header == nil {
		return ""
	}
	return r.Header[strings.ToLower(key)]
}

// OK reports whether the status is a success.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// StatusText returns the short reason phrase used by the servers.
func StatusText(status int) string {
	switch status {
	case StatusOK:
		return "ok"
	case StatusCreated:
		return "created"
	case StatusNoContent:
		return "ok, no content"
	case StatusBadRequest:
		return "malformed body"
	case StatusNotFound:
		return "not found"
	case StatusMethodNotAllowed:
		return "bad method"
	case StatusBadGateway:
		return "unknown address"
	case StatusGatewayTimeout:
		return "aggregate timeout"
	case StatusInternalServerError:
		return "aggregate failure"
	}
	return fmt.Sprintf("status %d", status)
}

// FormatAddress renders host, path and query into a local:// address.
// Query keys are sorted to keep addresses stable.
func FormatAddress(host, path string, query map[string]string) string {
	if path == "" {
		path = "/"
	}
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(path)
	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for k := range query {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := url.Values{}
		for _, k := range keys {
			values.Set(k, query[k])
		}
		b.WriteString("?")
		b.WriteString(values.Encode())
	}
	return b.String()
}

// ParseAddress splits a local:// address into host, path and query.
func ParseAddress(address string) (host, path string, query map[string]string, err error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", "", nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	if u.Scheme != Scheme {
		return "", "", nil, fmt.Errorf("invalid address %q: scheme must be %s", address, Scheme)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	query = map[string]string{}
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}
	return u.Host, path, query, nil
}

// ResolveReference resolves href (possibly relative, like "/42") against the
// address base, the way a browser resolves links from a response.
func ResolveReference(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base %q: %w", base, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	return b.ResolveReference(ref).String(), nil
}

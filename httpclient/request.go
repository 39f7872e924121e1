package httpclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-Id"
	headerContentType   = "Content-Type"
	headerUserAgent     = "User-Agent"
)

// Request is one call to the backend. Path is joined to Config.BaseURL unless
// it is already absolute. Body may be an io.Reader, []byte, string or any
// JSON-encodable value. Headers override Config.Headers.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   map[string]string
	Body    any
}

// idempotent reports whether the request may be sent twice safely. An empty
// method means GET.
func (r Request) idempotent() bool {
	switch r.Method {
	case "", http.MethodGet, http.MethodHead:
		return true
	}
	return false
}

// body encodes Body and reports the content type it implies, if any.
func (r Request) body() (io.Reader, string, error) {
	switch v := r.Body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// Response is a fully read answer. Body is empty for 304 and HEAD.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode/100 == 2 }

// NotModified reports a 304 answer to a conditional request.
func (r *Response) NotModified() bool { return r.StatusCode == http.StatusNotModified }

// ETag returns the entity tag, or "" when the server sent none.
func (r *Response) ETag() string { return r.Header.Get("ETag") }

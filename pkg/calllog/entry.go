package calllog

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/msm/pkg/httputil"
)

// Entry is one observed request. Entries are not modified after they are
// appended.
type Entry struct {
	// ID is a unique identifier for the entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Method is the request method as sent by the client.
	Method string `json:"method"`

	// Href is the absolute request URL.
	Href string `json:"href"`

	// Search is the raw query string including the leading '?', or empty.
	Search string `json:"search"`

	// Query holds the parsed query parameters.
	Query url.Values `json:"query"`

	// Pathname is the request path as sent, still percent-encoded.
	Pathname string `json:"pathname"`

	// Body is the decoded request body: a JSON value, url.Values for form
	// posts, a string otherwise, or nil when empty.
	Body any `json:"body,omitempty"`
}

// EntryFromRequest captures r. The request body is buffered and restored
// so handlers further down the chain can still read it.
func EntryFromRequest(r *http.Request) *Entry {
	search := ""
	if r.URL.RawQuery != "" {
		search = "?" + r.URL.RawQuery
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	href := (&url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}).String()

	e := &Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Method:    r.Method,
		Href:      href,
		Search:    search,
		Query:     r.URL.Query(),
		Pathname:  r.URL.EscapedPath(),
	}

	if data, _, err := httputil.ReadBody(r, httputil.DefaultMaxBodySize); err == nil {
		e.Body = httputil.DecodeBody(r.Header.Get("Content-Type"), data)
	}
	return e
}

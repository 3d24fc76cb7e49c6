package httputil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// DefaultMaxBodySize is the default limit for buffered request and
// response bodies (10MB).
const DefaultMaxBodySize = 10 << 20

// ReadBody buffers up to limit bytes of the request body and puts them
// back so later handlers still see the full body. truncated is true when
// the body was longer than limit.
func ReadBody(r *http.Request, limit int64) (data []byte, truncated bool, err error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false, nil
	}
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}

	data, err = io.ReadAll(io.LimitReader(r.Body, limit+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), r.Body), r.Body}
	if err != nil {
		return nil, false, err
	}

	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}

// MediaType returns the lower-cased media type of a Content-Type value,
// without parameters.
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// IsJSON reports whether a media type carries JSON.
func IsJSON(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// DecodeBody interprets a request body by its Content-Type: JSON is
// decoded, form bodies become url.Values and anything else is returned as
// a string. An empty body yields nil.
func DecodeBody(contentType string, data []byte) any {
	if len(data) == 0 {
		return nil
	}

	mt := MediaType(contentType)
	switch {
	case IsJSON(mt):
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err == nil {
			return v
		}
	case mt == "application/x-www-form-urlencoded":
		if values, err := url.ParseQuery(string(data)); err == nil {
			return values
		}
	}
	return string(data)
}

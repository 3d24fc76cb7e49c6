package httputil

import (
	"bytes"
	"net/http"
)

// CaptureWriter wraps an http.ResponseWriter and keeps a copy of the
// status, headers and body while still streaming everything to the client.
type CaptureWriter struct {
	http.ResponseWriter

	limit     int
	status    int
	header    http.Header
	body      bytes.Buffer
	truncated bool
}

// NewCaptureWriter wraps w. At most limit body bytes are kept; a limit of
// zero or less means DefaultMaxBodySize.
func NewCaptureWriter(w http.ResponseWriter, limit int) *CaptureWriter {
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	return &CaptureWriter{ResponseWriter: w, limit: limit}
}

// WriteHeader records the status and a snapshot of the headers.
func (c *CaptureWriter) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
		c.header = c.ResponseWriter.Header().Clone()
	}
	c.ResponseWriter.WriteHeader(code)
}

// Write copies b into the capture buffer and writes it to the client.
func (c *CaptureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.WriteHeader(http.StatusOK)
	}
	if room := c.limit - c.body.Len(); room > 0 {
		if len(b) > room {
			c.body.Write(b[:room])
			c.truncated = true
		} else {
			c.body.Write(b)
		}
	} else if len(b) > 0 {
		c.truncated = true
	}
	return c.ResponseWriter.Write(b)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (c *CaptureWriter) Flush() {
	if flusher, ok := c.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap returns the wrapped writer, for http.ResponseController.
func (c *CaptureWriter) Unwrap() http.ResponseWriter {
	return c.ResponseWriter
}

// StatusCode is the status sent to the client. A handler that wrote
// nothing is reported as 200, matching net/http.
func (c *CaptureWriter) StatusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

// ResponseHeader returns the headers as they were when the status was
// written, or the current headers if nothing was written yet.
func (c *CaptureWriter) ResponseHeader() http.Header {
	if c.header == nil {
		return c.ResponseWriter.Header().Clone()
	}
	return c.header
}

// Body returns the captured body bytes.
func (c *CaptureWriter) Body() []byte {
	return c.body.Bytes()
}

// Truncated reports whether the body exceeded the capture limit.
func (c *CaptureWriter) Truncated() bool {
	return c.truncated
}

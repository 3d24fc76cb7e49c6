package definition

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
)

// Convert returns a handler writing j as the response: status Code (200
// when unset), Content-Type application/json unless j.Headers says
// otherwise, and Body as indented JSON.
func Convert(j JSONDefinition) http.Handler {
	code := j.Code
	if code == 0 {
		code = http.StatusOK
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		payload, err := Encode(j.Body)
		if err != nil {
			http.Error(w, "cannot encode definition body: "+err.Error(), http.StatusInternalServerError)
			return
		}

		h := w.Header()
		h.Set("Content-Type", "application/json")
		for name, value := range j.Headers {
			if value == nil {
				// A nil Content-Type entry stops net/http from sniffing one.
				if http.CanonicalHeaderKey(name) == "Content-Type" {
					h["Content-Type"] = nil
					continue
				}
				h.Del(name)
				continue
			}
			h.Set(name, *value)
		}
		h.Set("Content-Length", strconv.Itoa(len(payload)))

		w.WriteHeader(code)
		_, _ = w.Write(payload)
	})
}

// NotFound is the handler used when nothing matches a request.
func NotFound() http.Handler {
	return Convert(JSONDefinition{Code: http.StatusNotFound, Body: map[string]any{}})
}

// Encode marshals v as JSON indented by two spaces, without HTML escaping
// and without a trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

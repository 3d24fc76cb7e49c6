package recorder

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultBodyType is assumed when a response has no usable Content-Type.
const DefaultBodyType = "plain/text"

var bodyType = regexp.MustCompile(`^\w*/\w*`)

// BodyType extracts the leading type/subtype of a Content-Type value.
func BodyType(contentType string) string {
	if t := bodyType.FindString(contentType); t != "" {
		return t
	}
	return DefaultBodyType
}

// ParseBody converts a decoded response body into the value stored in a
// definition file: parsed JSON for application/json, a string for textual
// content, and a base64 data URI for everything else.
func ParseBody(contentType string, body []byte) any {
	t := BodyType(contentType)

	if t == "application/json" {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err == nil && !dec.More() {
			return v
		}
	}

	if isText(t) && utf8.Valid(body) {
		return string(body)
	}
	return "data:" + t + ";base64," + base64.StdEncoding.EncodeToString(body)
}

func isText(t string) bool {
	switch {
	case strings.HasPrefix(t, "text/"):
		return true
	case t == DefaultBodyType:
		return true
	}
	// \w stops at '-', so x-www-form-urlencoded and friends arrive as
	// "application/x".
	switch t {
	case "application/json", "application/xml", "application/javascript",
		"application/x", "application/graphql", "application/yaml":
		return true
	}
	return false
}

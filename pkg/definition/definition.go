// Package definition holds API definitions: the declarative JSON form
// ({code, headers, body}) and the imperative handler form, how either is
// turned into an http.Handler, and how definitions are loaded from disk.
package definition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/jsonc"
)

// Errors returned while building or loading definitions.
var (
	// ErrNotFound means no definition exists at the looked-up location.
	ErrNotFound = errors.New("definition not found")

	// ErrMalformed means a definition exists but cannot be used.
	ErrMalformed = errors.New("malformed definition")

	// ErrUnrecognizedExport means a code module produced something that is
	// neither a handler nor a JSON definition.
	ErrUnrecognizedExport = errors.New("unrecognized export shape")
)

// Kind discriminates the two forms a Definition can take.
type Kind int

// Definition kinds. The zero Kind marks an empty Definition.
const (
	KindJSON Kind = iota + 1
	KindHandler
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindHandler:
		return "handler"
	default:
		return "none"
	}
}

// JSONDefinition is the declarative response description stored in
// definition files. A nil header value removes that header from the
// response instead of setting it.
type JSONDefinition struct {
	Code    int                `json:"code,omitempty"`
	Headers map[string]*string `json:"headers,omitempty"`
	Body    any                `json:"body"`
}

// Definition is either a JSONDefinition or an http.Handler, never both.
type Definition struct {
	kind    Kind
	json    JSONDefinition
	handler http.Handler
}

// FromJSON wraps a declarative definition.
func FromJSON(j JSONDefinition) Definition {
	return Definition{kind: KindJSON, json: j}
}

// FromHandler wraps a handler. A nil handler yields the empty Definition.
func FromHandler(h http.Handler) Definition {
	if h == nil {
		return Definition{}
	}
	return Definition{kind: KindHandler, handler: h}
}

// Kind reports which form d holds.
func (d Definition) Kind() Kind { return d.kind }

// IsZero reports whether d holds neither form.
func (d Definition) IsZero() bool { return d.kind == 0 }

// JSON returns the declarative form, if that is what d holds.
func (d Definition) JSON() (JSONDefinition, bool) {
	return d.json, d.kind == KindJSON
}

// Handler returns the handler serving d. JSON definitions are converted
// with Convert. The empty Definition returns nil.
func (d Definition) Handler() http.Handler {
	switch d.kind {
	case KindJSON:
		return Convert(d.json)
	case KindHandler:
		return d.handler
	default:
		return nil
	}
}

// Parse decodes a JSON definition from s. Line and block comments are
// allowed.
func Parse(s string) (Definition, error) {
	j, err := DecodeJSON(jsonc.ToJSON([]byte(s)))
	if err != nil {
		return Definition{}, err
	}
	return FromJSON(j), nil
}

// From builds a Definition from any of the accepted forms: a JSON string
// (or []byte), a JSONDefinition, a decoded JSON object holding a "body"
// key, an http.Handler, or a plain handler function.
func From(v any) (Definition, error) {
	switch v := v.(type) {
	case Definition:
		if v.IsZero() {
			return Definition{}, fmt.Errorf("%w: empty definition", ErrMalformed)
		}
		return v, nil
	case string:
		return Parse(v)
	case []byte:
		return Parse(string(v))
	case JSONDefinition:
		if err := validateCode(v.Code); err != nil {
			return Definition{}, err
		}
		return FromJSON(v), nil
	case *JSONDefinition:
		if v == nil {
			return Definition{}, fmt.Errorf("%w: nil definition", ErrMalformed)
		}
		return From(*v)
	case map[string]any:
		j, err := fromObject(v)
		if err != nil {
			return Definition{}, err
		}
		return FromJSON(j), nil
	case func(http.ResponseWriter, *http.Request):
		if v == nil {
			return Definition{}, fmt.Errorf("%w: nil handler", ErrMalformed)
		}
		return FromHandler(http.HandlerFunc(v)), nil
	case http.Handler:
		return FromHandler(v), nil
	default:
		return Definition{}, fmt.Errorf("%w: unsupported type %T", ErrMalformed, v)
	}
}

// DecodeJSON decodes a strict JSON document into a JSONDefinition. Numbers
// in the body keep their original representation.
func DecodeJSON(data []byte) (JSONDefinition, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return JSONDefinition{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return JSONDefinition{}, fmt.Errorf("%w: trailing data after definition", ErrMalformed)
	}
	return FromValue(v)
}

// FromValue converts a decoded JSON value into a JSONDefinition. The value
// must be an object with a "body" key.
func FromValue(v any) (JSONDefinition, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return JSONDefinition{}, fmt.Errorf("%w: expected an object, got %T", ErrMalformed, v)
	}
	return fromObject(obj)
}

func fromObject(obj map[string]any) (JSONDefinition, error) {
	body, ok := obj["body"]
	if !ok {
		return JSONDefinition{}, fmt.Errorf("%w: missing \"body\"", ErrMalformed)
	}
	j := JSONDefinition{Body: body}

	if raw, ok := obj["code"]; ok && raw != nil {
		code, err := toCode(raw)
		if err != nil {
			return JSONDefinition{}, err
		}
		j.Code = code
	}

	if raw, ok := obj["headers"]; ok && raw != nil {
		headers, err := toHeaders(raw)
		if err != nil {
			return JSONDefinition{}, err
		}
		j.Headers = headers
	}
	return j, nil
}

func toCode(raw any) (int, error) {
	var code int
	switch n := raw.(type) {
	case float64:
		code = int(n)
		if float64(code) != n {
			return 0, fmt.Errorf("%w: code %v is not an integer", ErrMalformed, n)
		}
	case int:
		code = n
	case int64:
		code = int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: code %q is not an integer", ErrMalformed, n)
		}
		code = int(i)
	default:
		return 0, fmt.Errorf("%w: code must be a number, got %T", ErrMalformed, raw)
	}
	return code, validateCode(code)
}

func validateCode(code int) error {
	if code == 0 || (code >= 100 && code <= 599) {
		return nil
	}
	return fmt.Errorf("%w: code %d is not a valid HTTP status", ErrMalformed, code)
}

func toHeaders(raw any) (map[string]*string, error) {
	switch h := raw.(type) {
	case map[string]*string:
		return h, nil
	case map[string]string:
		out := make(map[string]*string, len(h))
		for name, value := range h {
			out[name] = &value
		}
		return out, nil
	case map[string]any:
		out := make(map[string]*string, len(h))
		for name, value := range h {
			switch v := value.(type) {
			case nil:
				out[name] = nil
			case string:
				out[name] = &v
			case json.Number:
				s := v.String()
				out[name] = &s
			case float64, bool:
				s := fmt.Sprint(v)
				out[name] = &s
			default:
				return nil, fmt.Errorf("%w: header %q must be a string or null, got %T", ErrMalformed, name, value)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: headers must be an object, got %T", ErrMalformed, raw)
	}
}

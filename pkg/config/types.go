package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the set of user-supplied options. Zero values mean "use the
// default"; pointer fields distinguish an explicit false/0 from absence.
type Config struct {
	// Root is the directory APIDir is resolved against. Defaults to the
	// process working directory.
	Root string `yaml:"root,omitempty" json:"root,omitempty"`

	// APIDir is where the API definition files are located, relative to Root.
	APIDir string `yaml:"apiDir,omitempty" json:"apiDir,omitempty"`

	// APIPrefixes: a request whose path starts with one of these is handled by
	// the mock server, anything else is passed to the next handler.
	APIPrefixes []string `yaml:"apiPrefixes,omitempty" json:"apiPrefixes,omitempty"`

	// NonChar replaces every character outside [A-Za-z0-9/] when looking up
	// definition files.
	NonChar *string `yaml:"nonChar,omitempty" json:"nonChar,omitempty"`

	// LowerCase folds the pathname and query to lower case.
	LowerCase *bool `yaml:"lowerCase,omitempty" json:"lowerCase,omitempty"`

	// Ping delays every mocked response.
	Ping *Duration `yaml:"ping,omitempty" json:"ping,omitempty"`

	// IgnoreQueries is true (drop the whole query), false (keep all
	// parameters) or a list of parameter names to drop.
	IgnoreQueries *QueryPolicy `yaml:"ignoreQueries,omitempty" json:"ignoreQueries,omitempty"`

	// FallbackToNoQuery retries the lookup without the query string when a
	// query-specific definition does not exist.
	FallbackToNoQuery *bool `yaml:"fallbackToNoQuery,omitempty" json:"fallbackToNoQuery,omitempty"`

	// OverwriteMode lets the recorder replace existing definition files.
	OverwriteMode *bool `yaml:"overwriteMode,omitempty" json:"overwriteMode,omitempty"`

	// SaveHeaders lists the response headers the recorder keeps.
	SaveHeaders []string `yaml:"saveHeaders,omitempty" json:"saveHeaders,omitempty"`

	// LogLevel is one of DEBUG, INFO, LOG, WARN, ERROR, NONE.
	LogLevel string `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`

	// LogFormat is text or json.
	LogFormat string `yaml:"logFormat,omitempty" json:"logFormat,omitempty"`
}

// String returns a pointer to s, for the optional string fields.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for the optional boolean fields.
func Bool(b bool) *bool { return &b }

// Ms returns a Duration pointer of n milliseconds.
func Ms(n int) *Duration {
	d := Duration(time.Duration(n) * time.Millisecond)
	return &d
}

// Duration is a time.Duration that decodes from either a number of
// milliseconds or a Go duration string ("250ms", "1s").
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func parseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return Duration(time.Duration(ms * float64(time.Millisecond))), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return Duration(d), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := parseDuration(s)
		if err != nil {
			return err
		}
		*d = v
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return errors.New("ping must be a number of milliseconds or a duration string")
	}
	*d = Duration(time.Duration(ms * float64(time.Millisecond)))
	return nil
}

// MarshalJSON writes the duration as milliseconds.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.New("ping must be a number of milliseconds or a duration string")
	}
	v, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// QueryPolicy decides which query parameters take part in the lookup path.
// The zero value keeps every parameter.
type QueryPolicy struct {
	all   bool
	names []string
}

// IgnoreAll returns a policy that drops the whole query string.
func IgnoreAll() *QueryPolicy { return &QueryPolicy{all: true} }

// PreserveAll returns a policy that keeps every parameter.
func PreserveAll() *QueryPolicy { return &QueryPolicy{} }

// IgnoreNames returns a policy that drops the named parameters only.
func IgnoreNames(names ...string) *QueryPolicy {
	return &QueryPolicy{names: slices.Clone(names)}
}

// All reports whether the whole query is dropped.
func (q QueryPolicy) All() bool { return q.all }

// Names returns the parameter names dropped from the query.
func (q QueryPolicy) Names() []string { return slices.Clone(q.names) }

// Ignores reports whether a parameter is dropped.
func (q QueryPolicy) Ignores(name string) bool {
	return q.all || slices.Contains(q.names, name)
}

func (q QueryPolicy) String() string {
	switch {
	case q.all:
		return "true"
	case len(q.names) == 0:
		return "false"
	default:
		return strings.Join(q.names, ",")
	}
}

// ParseQueryPolicy parses "true", "false" or a comma-separated name list.
func ParseQueryPolicy(s string) *QueryPolicy {
	s = strings.TrimSpace(s)
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return IgnoreAll()
		}
		return PreserveAll()
	}
	return IgnoreNames(splitList(s)...)
}

// UnmarshalJSON accepts a boolean or an array of names.
func (q *QueryPolicy) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*q = QueryPolicy{all: b}
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return errors.New("ignoreQueries must be a boolean or a list of parameter names")
	}
	*q = QueryPolicy{names: names}
	return nil
}

// MarshalJSON writes the policy back as a boolean or a list.
func (q QueryPolicy) MarshalJSON() ([]byte, error) {
	if q.all || len(q.names) == 0 {
		return json.Marshal(q.all)
	}
	return json.Marshal(q.names)
}

// UnmarshalYAML accepts a boolean or a sequence of names.
func (q *QueryPolicy) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := node.Decode(&b); err != nil {
			return errors.New("ignoreQueries must be a boolean or a list of parameter names")
		}
		*q = QueryPolicy{all: b}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*q = QueryPolicy{names: names}
		return nil
	default:
		return errors.New("ignoreQueries must be a boolean or a list of parameter names")
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

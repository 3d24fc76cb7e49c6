package fixtures

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/jsonc"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/getmockd/msm/pkg/config"
	"github.com/getmockd/msm/pkg/definition"
	"github.com/getmockd/msm/pkg/definition/script"
)

// Schema is the JSON schema every JSON and JSON5 definition must satisfy.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["body"],
  "properties": {
    "code": {
      "type": "integer",
      "anyOf": [
        {"const": 0},
        {"minimum": 100, "maximum": 599}
      ]
    },
    "headers": {
      "type": "object",
      "additionalProperties": {"type": ["string", "null"]}
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("definition.json", strings.NewReader(Schema)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("definition.json")
})

// Problem is one validation failure in a fixture.
type Problem struct {
	Fixture Fixture `json:"fixture"`
	// Field is the JSON pointer of the offending value, empty for
	// document-level problems.
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Field != "" {
		return fmt.Sprintf("%s: %s: %s", p.Fixture.Rel, p.Field, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Fixture.Rel, p.Message)
}

// Report is the outcome of Validate.
type Report struct {
	Checked  int       `json:"checked"`
	Problems []Problem `json:"problems"`
}

// OK reports whether no problems were found.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

// Validate checks every fixture under cfg.APIRoot(). JSON and JSON5 files
// are checked against Schema; .expr files must compile.
func Validate(cfg *config.Parsed) (*Report, error) {
	fixtures, err := List(cfg)
	if err != nil {
		return nil, err
	}

	report := &Report{Problems: []Problem{}}
	for _, f := range fixtures {
		report.Checked++
		report.Problems = append(report.Problems, Check(f)...)
	}
	return report, nil
}

// Check validates a single fixture.
func Check(f Fixture) []Problem {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return []Problem{{Fixture: f, Message: err.Error()}}
	}

	if f.Format == definition.FormatCode {
		if _, err := script.Compile(string(data)); err != nil {
			return []Problem{{Fixture: f, Message: err.Error()}}
		}
		return nil
	}

	doc, err := decode(data, f.Format)
	if err != nil {
		return []Problem{{Fixture: f, Message: "invalid " + string(f.Format) + ": " + err.Error()}}
	}

	schema, err := compiledSchema()
	if err != nil {
		return []Problem{{Fixture: f, Message: fmt.Sprintf("schema compilation error: %v", err)}}
	}
	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			return []Problem{{Fixture: f, Message: err.Error()}}
		}
		var problems []Problem
		collect(f, verr, &problems)
		return problems
	}
	return nil
}

func decode(data []byte, format definition.Format) (any, error) {
	var v any
	if format == definition.FormatJSON5 {
		err := json5.Unmarshal(data, &v)
		return v, err
	}

	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after definition")
	}
	return v, nil
}

// collect flattens the leaf causes of a validation error.
func collect(f Fixture, err *jsonschema.ValidationError, out *[]Problem) {
	if len(err.Causes) == 0 {
		*out = append(*out, Problem{Fixture: f, Field: err.InstanceLocation, Message: err.Message})
		return
	}
	for _, cause := range err.Causes {
		collect(f, cause, out)
	}
}

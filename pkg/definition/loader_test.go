package definition

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func bodyOf(t *testing.T, r *Resolved) any {
	t.Helper()
	j, ok := r.Definition.JSON()
	require.True(t, ok)
	return j.Body
}

func TestLoader_ExtensionPriority(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := filepath.Join(dir, "get", "api", "user", "1")

	writeFile(t, filepath.Join(base, "index.json"), `{"body": "index.json"}`)
	l := NewLoader()

	r, err := l.Load(base)
	require.NoError(t, err)
	assert.Equal(t, "index.json", bodyOf(t, r))

	writeFile(t, filepath.Join(base, "index.json5"), `{body: 'index.json5'}`)
	r, err = l.Load(base)
	require.NoError(t, err)
	assert.Equal(t, "index.json5", bodyOf(t, r))

	writeFile(t, base+".json", `{"body": "json"}`)
	r, err = l.Load(base)
	require.NoError(t, err)
	assert.Equal(t, "json", bodyOf(t, r))
	assert.Equal(t, FormatJSON, r.Format)

	writeFile(t, base+".json5", `{body: 'json5', /* c */ code: 202,}`)
	r, err = l.Load(base)
	require.NoError(t, err)
	assert.Equal(t, "json5", bodyOf(t, r))
	assert.Equal(t, FormatJSON5, r.Format)
	assert.Equal(t, base+".json5", r.Path)
}

func TestLoader_JSONWithComments(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "get", "api", "item")
	writeFile(t, base+".json", `{
		// line comment
		"code": 200, /* block comment */
		"body": "OK"
	}`)

	r, err := NewLoader().Load(base)
	require.NoError(t, err)
	assert.Equal(t, "OK", bodyOf(t, r))
}

func TestLoader_MalformedFallsThroughWithWarning(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	base := filepath.Join(t.TempDir(), "get", "api", "item")
	writeFile(t, base+".json5", `{body: `)
	writeFile(t, base+".json", `{"body": "fallback"}`)

	r, err := NewLoader(WithLogger(logger)).Load(base)
	require.NoError(t, err)
	assert.Equal(t, "fallback", bodyOf(t, r))
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "item.json5")
}

func TestLoader_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "get", "missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoader_CodeLoaderIsLast(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "get", "api", "code")
	var calls []string
	code := CodeLoaderFunc(func(basePath string) (*Resolved, error) {
		calls = append(calls, basePath)
		return &Resolved{
			Definition: FromJSON(JSONDefinition{Body: "code"}),
			Path:       basePath + ".expr",
			Format:     FormatCode,
		}, nil
	})
	l := NewLoader(WithCodeLoader(code))

	r, err := l.Load(base)
	require.NoError(t, err)
	assert.Equal(t, FormatCode, r.Format)
	assert.Equal(t, []string{base}, calls)

	writeFile(t, base+".json", `{"body": "json"}`)
	r, err = l.Load(base)
	require.NoError(t, err)
	assert.Equal(t, "json", bodyOf(t, r))
	assert.Len(t, calls, 1)
}

func TestLoader_CodeLoaderFailureIsNotFound(t *testing.T) {
	t.Parallel()

	code := CodeLoaderFunc(func(string) (*Resolved, error) {
		return nil, ErrUnrecognizedExport
	})
	_, err := NewLoader(WithCodeLoader(code)).Load(filepath.Join(t.TempDir(), "x"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	base := filepath.Join("root", "get", "a")
	assert.Equal(t, []string{
		base + ".json5",
		base + ".json",
		filepath.Join(base, "index.json5"),
		filepath.Join(base, "index.json"),
	}, Candidates(base))
}

func TestDecodeJSON5(t *testing.T) {
	t.Parallel()

	j, err := DecodeJSON5([]byte(`{code: 201, headers: {'X-A': 'b'}, body: [1, 2,],}`))
	require.NoError(t, err)
	assert.Equal(t, 201, j.Code)
	assert.Equal(t, "b", *j.Headers["X-A"])
	assert.Equal(t, []any{float64(1), float64(2)}, j.Body)

	_, err = DecodeJSON5([]byte("  "))
	assert.ErrorIs(t, err, ErrMalformed)
}

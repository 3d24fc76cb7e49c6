package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/msm/pkg/config"
	"github.com/getmockd/msm/pkg/definition"
)

func writeTree(t *testing.T, files map[string]string) *config.Parsed {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, "stubapi", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return config.MustParse(config.Config{Root: root})
}

func TestList(t *testing.T) {
	t.Parallel()
	cfg := writeTree(t, map[string]string{
		"get/api/user/1.json":        `{"body": 1}`,
		"get/api/user/index.json5":   `{body: []}`,
		"post/api/user.expr":         `{"body": body}`,
		"get/api/readme.txt":         `ignored`,
		"get/api/myindex.json":       `{"body": null}`,
		"delete/api/user/1-x-1.json": `{"body": {}}`,
	})

	fixtures, err := List(cfg)
	require.NoError(t, err)

	type row struct {
		rel, method, key string
		format           definition.Format
	}
	var got []row
	for _, f := range fixtures {
		assert.Equal(t, filepath.Join(cfg.APIRoot(), filepath.FromSlash(f.Rel)), f.Path)
		got = append(got, row{f.Rel, f.Method, f.Key, f.Format})
	}
	assert.Equal(t, []row{
		{"delete/api/user/1-x-1.json", "delete", "delete/api/user/1-x-1", definition.FormatJSON},
		{"get/api/myindex.json", "get", "get/api/myindex", definition.FormatJSON},
		{"get/api/user/1.json", "get", "get/api/user/1", definition.FormatJSON},
		{"get/api/user/index.json5", "get", "get/api/user", definition.FormatJSON5},
		{"post/api/user.expr", "post", "post/api/user", definition.FormatCode},
	}, got)
}

func TestList_MissingDir(t *testing.T) {
	t.Parallel()
	cfg := config.MustParse(config.Config{Root: t.TempDir()})

	_, err := List(cfg)
	assert.ErrorIs(t, err, ErrNoAPIDir)

	_, err = Validate(cfg)
	assert.ErrorIs(t, err, ErrNoAPIDir)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cfg := writeTree(t, map[string]string{
		"get/ok.json":        "// comment\n{\"code\": 201, \"headers\": {\"X-A\": \"1\", \"X-B\": null}, \"body\": 1}",
		"get/ok.json5":       `{code: 0, body: 'x'}`,
		"get/ok.expr":        `{"body": method}`,
		"get/nobody.json":    `{"code": 200}`,
		"get/badcode.json5":  `{code: 42, body: 1}`,
		"get/badheader.json": `{"headers": {"X-A": 1}, "body": 1}`,
		"get/syntax.json":    `{"body": `,
		"get/notobject.json": `[1, 2]`,
		"get/badscript.expr": `{"body": `,
	})

	report, err := Validate(cfg)
	require.NoError(t, err)
	assert.Equal(t, 9, report.Checked)
	assert.False(t, report.OK())

	byFile := map[string][]Problem{}
	for _, p := range report.Problems {
		byFile[p.Fixture.Rel] = append(byFile[p.Fixture.Rel], p)
	}

	for _, ok := range []string{"get/ok.json", "get/ok.json5", "get/ok.expr"} {
		assert.Empty(t, byFile[ok], ok)
	}
	for _, bad := range []string{"get/nobody.json", "get/badcode.json5", "get/badheader.json", "get/syntax.json", "get/notobject.json", "get/badscript.expr"} {
		assert.NotEmpty(t, byFile[bad], bad)
	}

	require.NotEmpty(t, byFile["get/badheader.json"])
	assert.Equal(t, "/headers/X-A", byFile["get/badheader.json"][0].Field)
	assert.Contains(t, byFile["get/nobody.json"][0].String(), "get/nobody.json: ")
}

func TestValidate_Clean(t *testing.T) {
	t.Parallel()
	cfg := writeTree(t, map[string]string{
		"get/api/a.json": `{"body": {"a": 1}}`,
	})

	report, err := Validate(cfg)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Checked)
	assert.Empty(t, report.Problems)
}

package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querybench/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_BuiltinOnly(t *testing.T) {
	t.Parallel()

	src, err := Load("", LoadOptions{})
	require.NoError(t, err)

	s, err := src.Suite("smoke")
	require.NoError(t, err)
	assert.Equal(t, "smoke", s.Name)
	assert.NotEmpty(t, s.Queries)
	require.NotNil(t, s.Query("q01_pricing_summary"))

	_, err = src.Suite("nope")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestLoad_DirectoryManifests(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "micro.yaml", `
name: micro
description: single-statement sanity suite
queries:
  - name: one
    sql: SELECT 1
  - name: two
    file: two.sql
`)
	writeFile(t, dir, "two.sql", "SELECT 2\n")

	src, err := Load(dir, LoadOptions{})
	require.NoError(t, err)

	s, err := src.Suite("micro")
	require.NoError(t, err)
	require.Len(t, s.Queries, 2)
	assert.Equal(t, "SELECT 1", s.Queries[0].SQL)
	assert.Equal(t, "SELECT 2", s.Queries[1].SQL)

	// Built-ins remain visible alongside directory suites.
	suites, err := src.List()
	require.NoError(t, err)
	names := make([]string, len(suites))
	for i, su := range suites {
		names[i] = su.Name
	}
	assert.Contains(t, names, "smoke")
	assert.Contains(t, names, "micro")
}

func TestList_PreservesLoadOrder(t *testing.T) {
	t.Parallel()

	// Suite names deliberately sort opposite to their manifest filenames:
	// List must follow load order, not alphabetize.
	dir := t.TempDir()
	writeFile(t, dir, "01-first.yaml", `
name: zeta
queries:
  - name: q
    sql: SELECT 1
`)
	writeFile(t, dir, "02-second.yaml", `
name: alpha
queries:
  - name: q
    sql: SELECT 1
`)

	src, err := Load(dir, LoadOptions{})
	require.NoError(t, err)

	suites, err := src.List()
	require.NoError(t, err)
	names := make([]string, len(suites))
	for i, su := range suites {
		names[i] = su.Name
	}
	assert.Equal(t, []string{"smoke", "zeta", "alpha"}, names)
}

func TestLoad_DirectoryOverridesBuiltin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "smoke.yaml", `
name: smoke
queries:
  - name: only
    sql: SELECT 42
`)

	src, err := Load(dir, LoadOptions{})
	require.NoError(t, err)

	s, err := src.Suite("smoke")
	require.NoError(t, err)
	require.Len(t, s.Queries, 1)
	assert.Equal(t, "SELECT 42", s.Queries[0].SQL)
}

func TestLoad_ValidationFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		manifest string
	}{
		{"missing name", "queries:\n  - name: a\n    sql: SELECT 1\n"},
		{"no queries", "name: empty\n"},
		{"unnamed query", "name: s\nqueries:\n  - sql: SELECT 1\n"},
		{"duplicate query", "name: s\nqueries:\n  - name: a\n    sql: SELECT 1\n  - name: a\n    sql: SELECT 2\n"},
		{"sql and file", "name: s\nqueries:\n  - name: a\n    sql: SELECT 1\n    file: a.sql\n"},
		{"neither sql nor file", "name: s\nqueries:\n  - name: a\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeFile(t, dir, "bad.yaml", tc.manifest)
			_, err := Load(dir, LoadOptions{})
			require.Error(t, err)
		})
	}
}

func TestLoad_DuplicateSuiteInDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: dup\nqueries:\n  - name: q\n    sql: SELECT 1\n")
	writeFile(t, dir, "b.yaml", "name: dup\nqueries:\n  - name: q\n    sql: SELECT 2\n")

	_, err := Load(dir, LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `suite "dup"`)
}

func TestStripLimit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"SELECT * FROM t LIMIT 100", "SELECT * FROM t"},
		{"SELECT * FROM t limit 10;", "SELECT * FROM t"},
		{"select * from t\n  LIMIT 5\n", "select * from t"},
		{"SELECT * FROM t", "SELECT * FROM t"},
		// Embedded (non-trailing) LIMIT clauses survive.
		{"SELECT * FROM (SELECT a FROM t LIMIT 5) s ORDER BY a", "SELECT * FROM (SELECT a FROM t LIMIT 5) s ORDER BY a"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StripLimit(tc.in), "input: %q", tc.in)
	}
}

func TestLoad_StripLimitOption(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "s.yaml", "name: s\nqueries:\n  - name: a\n    sql: SELECT * FROM t LIMIT 3\n")

	src, err := Load(dir, LoadOptions{StripLimit: true})
	require.NoError(t, err)

	s, err := src.Suite("s")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t", s.Queries[0].SQL)
}

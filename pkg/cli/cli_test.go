package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStatementServer fakes a coordinator: every POST /v1/statement yields a
// QUEUED response whose continuation resolves to the given terminal body.
func newStatementServer(t *testing.T, terminal map[string]any) *httptest.Server {
	t.Helper()
	var seq atomic.Int64
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("POST /v1/statement", func(w http.ResponseWriter, r *http.Request) {
		id := fmt.Sprintf("q%d", seq.Add(1))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      id,
			"nextUri": srv.URL + "/v1/statement/" + id + "/1",
			"stats":   map[string]any{"state": "QUEUED"},
		})
	})
	mux.HandleFunc("GET /v1/statement/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(terminal)
	})
	return srv
}

func writeSuiteManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	manifest := `name: tiny
description: one-query suite
queries:
  - name: q1
    sql: SELECT 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.yaml"), []byte(manifest), 0o600))
	return dir
}

func TestVersionCmd(t *testing.T) {
	restore := captureStdout(t)
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())

	out := restore()
	assert.Contains(t, out, "qbench version")
}

func TestVersionCmd_JSON(t *testing.T) {
	restore := captureStdout(t)
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"version", "-o", "json"})
	require.NoError(t, rootCmd.Execute())

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(restore()), &body))
	assert.Equal(t, "dev", body["version"])
}

func TestRootCmd_RejectsUnknownOutput(t *testing.T) {
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"version", "-o", "yaml"})
	require.Error(t, rootCmd.Execute())
}

func TestSuitesCmd_ListsBuiltins(t *testing.T) {
	restore := captureStdout(t)
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"suites"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, restore(), "smoke")
}

func TestSuitesCmd_MergesSuiteDir(t *testing.T) {
	dir := writeSuiteManifest(t)

	restore := captureStdout(t)
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"suites", "--suite-dir", dir})
	require.NoError(t, rootCmd.Execute())

	out := restore()
	assert.Contains(t, out, "smoke")
	assert.Contains(t, out, "tiny")
}

func TestRunCmd_Succeeds(t *testing.T) {
	srv := newStatementServer(t, map[string]any{
		"stats": map[string]any{"state": "FINISHED", "processedRows": 7},
	})
	dir := writeSuiteManifest(t)

	restore := captureStdout(t)
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{
		"run", "tiny",
		"--suite-dir", dir,
		"--coordinator", srv.URL,
		"--interval", "10ms",
	})
	require.NoError(t, rootCmd.Execute())

	out := restore()
	assert.Contains(t, out, "q1")
	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "1 succeeded")
}

func TestRunCmd_FailedQueryIsExitError(t *testing.T) {
	srv := newStatementServer(t, map[string]any{
		"stats": map[string]any{"state": "FAILED"},
		"error": map[string]any{"message": "table not found"},
	})
	dir := writeSuiteManifest(t)

	restore := captureStdout(t)
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{
		"run", "tiny",
		"--suite-dir", dir,
		"--coordinator", srv.URL,
		"--interval", "10ms",
	})
	err := rootCmd.Execute()
	restore()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 queries did not succeed")
}

func TestRunCmd_UnknownSuite(t *testing.T) {
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"run", "nope"})
	require.Error(t, rootCmd.Execute())
}

func TestSQLCmd_Succeeds(t *testing.T) {
	srv := newStatementServer(t, map[string]any{
		"stats": map[string]any{"state": "FINISHED", "processedRows": 42},
	})

	restore := captureStdout(t)
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{
		"sql", "SELECT count(*) FROM lineitem",
		"--coordinator", srv.URL,
		"--interval", "10ms",
	})
	require.NoError(t, rootCmd.Execute())

	out := restore()
	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "42")
}

func TestSQLCmd_JSONOutput(t *testing.T) {
	srv := newStatementServer(t, map[string]any{
		"stats": map[string]any{"state": "FINISHED", "processedRows": 5},
	})

	restore := captureStdout(t)
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{
		"sql", "SELECT 1",
		"--coordinator", srv.URL,
		"--interval", "10ms",
		"-o", "json",
	})
	require.NoError(t, rootCmd.Execute())

	var res struct {
		Outcome string `json:"outcome"`
		Metrics struct {
			ProcessedRows int64 `json:"processed_rows"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(restore()), &res))
	assert.Equal(t, "SUCCESS", res.Outcome)
	assert.Equal(t, int64(5), res.Metrics.ProcessedRows)
}

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clusterx/demo-api-check/internal/report"
)

// newBackend serves the demo route the way an unprovisioned server does
func newBackend(t *testing.T, callStatus int, callError string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)

		w.Header().Set("Content-Type", "application/json")
		switch phone := payload["phone_number"]; {
		case phone == "":
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Phone number is required"})
		case phone != "+919876543210":
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid phone number format"})
		default:
			w.WriteHeader(callStatus)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": callError})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunCommandPasses(t *testing.T) {
	srv := newBackend(t, http.StatusServiceUnavailable, "Demo service is not configured. Please contact support.")
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "test_reports", "backend_test_results.json")
	metricsPath := filepath.Join(dir, "metrics", "demo.prom")

	stdout, _, err := execute(t, "run",
		"--base-url", srv.URL,
		"--report", reportPath,
		"--metrics-file", metricsPath,
		"--log-level", "error",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "✅ PASS - Server Health")
	assert.Contains(t, stdout, "📊 Test Summary: 4/4 tests passed")

	summary, err := report.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalTests)
	assert.Equal(t, 4, summary.PassedTests)
	assert.Equal(t, 100.0, summary.SuccessRate)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, srv.URL, summary.BaseURL)

	_, err = os.Stat(metricsPath)
	assert.NoError(t, err)
}

func TestRunCommandFailingCheck(t *testing.T) {
	srv := newBackend(t, http.StatusInternalServerError, "Failed to initiate demo call. Please try again later.")
	reportPath := filepath.Join(t.TempDir(), "report.json")

	stdout, _, err := execute(t, "run", "--base-url", srv.URL, "--report", reportPath, "--log-level", "error")
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, stdout, "❌ FAIL - Demo Call - Valid Phone")

	summary, err := report.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalTests)
	assert.Equal(t, 3, summary.PassedTests)
	assert.InDelta(t, 75.0, summary.SuccessRate, 1e-9)
}

func TestRunCommandServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	reportPath := filepath.Join(t.TempDir(), "report.json")

	stdout, _, err := execute(t, "run", "--base-url", url, "--report", reportPath, "--log-level", "error")
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, stdout, "❌ Server not responding. Stopping tests.")

	summary, err := report.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, summary.Aborted)
	assert.Len(t, summary.Results, 1)
}

func TestRunCommandJSONFormat(t *testing.T) {
	srv := newBackend(t, http.StatusServiceUnavailable, "Demo service is not configured.")
	reportPath := filepath.Join(t.TempDir(), "report.json")

	stdout, _, err := execute(t, "run", "--base-url", srv.URL, "--report", reportPath, "-f", "json", "--log-level", "error")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got), "stdout holds only the JSON summary")
	assert.Equal(t, 4.0, got["total_tests"])
}

func TestRunCommandConfigFile(t *testing.T) {
	srv := newBackend(t, http.StatusServiceUnavailable, "voice backend offline")
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	configPath := filepath.Join(dir, "config.yaml")
	config := "base_url: " + srv.URL + "\n" +
		"report_path: " + reportPath + "\n" +
		"expect:\n  not_configured: backend offline\n"
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	_, _, err := execute(t, "run", "--config", configPath, "--log-level", "error")
	require.NoError(t, err)

	summary, err := report.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, summary.IsPassing())
}

func TestRunCommandInvalidFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "bad log level", args: []string{"run", "--log-level", "loud"}, wantErr: "invalid log level"},
		{name: "bad log format", args: []string{"run", "--log-format", "xml"}, wantErr: "invalid log format"},
		{name: "bad output format", args: []string{"run", "--format", "xml", "--log-level", "error"}, wantErr: "invalid output format"},
		{name: "bad base url", args: []string{"run", "--base-url", "localhost:5000", "--log-level", "error"}, wantErr: "invalid base URL"},
		{name: "extra args", args: []string{"run", "extra"}, wantErr: "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.NotErrorIs(t, err, errChecksFailed)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev (commit: unknown")
}

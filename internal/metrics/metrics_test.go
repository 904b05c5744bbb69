package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clusterx/demo-api-check/internal/checks"
)

func TestObserve(t *testing.T) {
	m := New("run-1", "http://localhost:5000")

	m.ObserveResult(checks.NewTestResult("a", true, ""))
	m.ObserveResult(checks.NewTestResult("b", false, ""))
	m.ObserveResult(checks.NewTestResult("c", false, ""))
	m.ObserveCheck("server-health", true, 20*time.Millisecond)
	m.ObserveCheck("demo-call-invalid-phone", false, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.resultsTotal.WithLabelValues("pass")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.resultsTotal.WithLabelValues("fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checksTotal.WithLabelValues("server-health", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checksTotal.WithLabelValues("demo-call-invalid-phone", "fail")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.checkDuration))
}

func TestRecordSummary(t *testing.T) {
	m := New("run-2", "http://localhost:5000")
	s := checks.NewTestRunSummary([]checks.TestResult{
		checks.NewTestResult("Server Health", false, "down"),
	})
	s.Aborted = true

	m.RecordSummary(s)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.testsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.testsPassed))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.successRate))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aborted))
	assert.Equal(t, float64(s.Timestamp.Unix()), testutil.ToFloat64(m.lastRun))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := New("a", "http://x")
	b := New("b", "http://x")
	a.ObserveResult(checks.NewTestResult("a", true, ""))

	assert.Equal(t, 1.0, testutil.ToFloat64(a.resultsTotal.WithLabelValues("pass")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.resultsTotal.WithLabelValues("pass")))
}

func TestWriteTextfile(t *testing.T) {
	m := New("run-3", "http://localhost:5000")
	m.ObserveResult(checks.NewTestResult("a", true, ""))
	m.RecordSummary(checks.NewTestRunSummary([]checks.TestResult{checks.NewTestResult("a", true, "")}))

	path := filepath.Join(t.TempDir(), "textfile", "demo_check.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "demo_check_results_total")
	assert.Contains(t, out, `run_id="run-3"`)
	assert.Contains(t, out, "demo_check_success_rate_percent")
}

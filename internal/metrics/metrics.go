package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/clusterx/demo-api-check/internal/checks"
)

const MetricsNamespace = "demo_check"

// Metrics collects the outcome of one run in its own registry so that
// consecutive runs in the same process never share counters.
type Metrics struct {
	registry *prometheus.Registry

	resultsTotal  *prometheus.CounterVec
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	testsTotal    prometheus.Gauge
	testsPassed   prometheus.Gauge
	successRate   prometheus.Gauge
	aborted       prometheus.Gauge
	lastRun       prometheus.Gauge
}

// New creates the collectors for a run, labelled with its run ID and target
func New(runID, baseURL string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"run_id": runID, "base_url": baseURL}

	return &Metrics{
		registry: reg,
		resultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   MetricsNamespace,
			Name:        "results_total",
			Help:        "Count of recorded test results",
			ConstLabels: constLabels,
		}, []string{"result"}),
		checksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   MetricsNamespace,
			Name:        "checks_total",
			Help:        "Count of executed checks",
			ConstLabels: constLabels,
		}, []string{"check", "result"}),
		checkDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   MetricsNamespace,
			Name:        "check_duration_seconds",
			Help:        "Wall time of each check",
			ConstLabels: constLabels,
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"check"}),
		testsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   MetricsNamespace,
			Name:        "tests_total",
			Help:        "Total number of results in the last run",
			ConstLabels: constLabels,
		}),
		testsPassed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   MetricsNamespace,
			Name:        "tests_passed",
			Help:        "Number of passed results in the last run",
			ConstLabels: constLabels,
		}),
		successRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   MetricsNamespace,
			Name:        "success_rate_percent",
			Help:        "Passed results as a percentage of all results",
			ConstLabels: constLabels,
		}),
		aborted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   MetricsNamespace,
			Name:        "aborted",
			Help:        "1 if the run stopped after a failed health gate",
			ConstLabels: constLabels,
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   MetricsNamespace,
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time the run finished",
			ConstLabels: constLabels,
		}),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResult implements checks.Observer
func (m *Metrics) ObserveResult(result checks.TestResult) {
	m.resultsTotal.WithLabelValues(resultLabel(result.Success)).Inc()
}

// ObserveCheck implements checks.Observer
func (m *Metrics) ObserveCheck(checkID string, passed bool, duration time.Duration) {
	m.checksTotal.WithLabelValues(checkID, resultLabel(passed)).Inc()
	m.checkDuration.WithLabelValues(checkID).Observe(duration.Seconds())
}

// RecordSummary sets the run-level gauges from the final summary
func (m *Metrics) RecordSummary(summary *checks.TestRunSummary) {
	m.testsTotal.Set(float64(summary.TotalTests))
	m.testsPassed.Set(float64(summary.PassedTests))
	m.successRate.Set(summary.SuccessRate)
	if summary.Aborted {
		m.aborted.Set(1)
	} else {
		m.aborted.Set(0)
	}
	m.lastRun.Set(float64(summary.Timestamp.Unix()))
}

// WriteTextfile writes the registry in the node-exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create metrics directory %s: %w", dir, err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}

func resultLabel(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}

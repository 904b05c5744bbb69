package checks

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/clusterx/demo-api-check/internal/demoapi"
	"github.com/clusterx/demo-api-check/internal/utils"
)

// Observer receives results as the runner records them
type Observer interface {
	ObserveResult(result TestResult)
	ObserveCheck(checkID string, passed bool, duration time.Duration)
}

// CheckRunner executes the registered checks sequentially and owns the
// results of a single run.
type CheckRunner struct {
	registry *CheckRegistry
	client   *demoapi.Client
	out      io.Writer
	logger   *utils.Logger
	observer Observer
	runID    string

	results []TestResult
	passed  int
}

// RunnerOption configures a CheckRunner
type RunnerOption func(*CheckRunner)

// WithOutput sets where progress lines are printed; defaults to stdout
func WithOutput(w io.Writer) RunnerOption {
	return func(r *CheckRunner) {
		if w != nil {
			r.out = w
		}
	}
}

func WithLogger(logger *utils.Logger) RunnerOption {
	return func(r *CheckRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithObserver(o Observer) RunnerOption {
	return func(r *CheckRunner) {
		r.observer = o
	}
}

// WithRunID tags the summary with an identifier for the run
func WithRunID(id string) RunnerOption {
	return func(r *CheckRunner) {
		r.runID = id
	}
}

// NewCheckRunner creates a runner for the checks in registry
func NewCheckRunner(registry *CheckRegistry, client *demoapi.Client, opts ...RunnerOption) *CheckRunner {
	r := &CheckRunner{
		registry: registry,
		client:   client,
		out:      os.Stdout,
		logger:   utils.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunAll runs the gate check, then every other check in registration order.
// If the gate fails the run is aborted and the summary holds only the gate's
// results. Check failures are reported in the summary, not as errors.
func (r *CheckRunner) RunAll(ctx context.Context) (*TestRunSummary, error) {
	if r.registry == nil || r.registry.Count() == 0 {
		return nil, fmt.Errorf("no checks registered")
	}
	if r.client == nil {
		return nil, fmt.Errorf("no demo API client configured")
	}

	r.results = nil
	r.passed = 0
	start := time.Now()
	log := r.logger.WithComponent("runner")

	fmt.Fprintf(r.out, "🚀 Starting demo call API checks against %s\n", r.client.BaseURL())
	fmt.Fprintln(r.out, strings.Repeat("=", 60))

	aborted := false
	if gate := r.registry.Gate(); gate != nil {
		if !r.runCheck(ctx, gate) {
			fmt.Fprintln(r.out, "❌ Server not responding. Stopping tests.")
			log.WithField("check", gate.ID()).Warn("Gate check failed, skipping remaining checks")
			aborted = true
		}
	}

	if !aborted {
		for _, check := range r.registry.Checks() {
			r.runCheck(ctx, check)
		}
	}

	summary := NewTestRunSummary(r.results)
	summary.RunID = r.runID
	summary.BaseURL = r.client.BaseURL()
	summary.Aborted = aborted
	summary.Duration = time.Since(start).Round(time.Millisecond).String()

	if !aborted {
		r.printSummary(summary)
	}

	log.WithFields(map[string]interface{}{
		"total":   summary.TotalTests,
		"passed":  summary.PassedTests,
		"aborted": summary.Aborted,
	}).Debug("Run complete")

	return summary, nil
}

// Results returns the results recorded so far
func (r *CheckRunner) Results() []TestResult {
	out := make([]TestResult, len(r.results))
	copy(out, r.results)
	return out
}

// Counts returns how many results were recorded and how many of them passed
func (r *CheckRunner) Counts() (run, passed int) {
	return len(r.results), r.passed
}

func (r *CheckRunner) runCheck(ctx context.Context, check Check) bool {
	log := r.logger.WithComponent("check").WithField("check", check.ID())
	log.Debugf("Running: %s", check.Description())

	start := time.Now()
	results := check.Execute(ctx, r.client)
	elapsed := time.Since(start)

	for _, res := range results {
		r.record(res)
	}

	passed := allPassed(results)
	if r.observer != nil {
		r.observer.ObserveCheck(check.ID(), passed, elapsed)
	}
	log.WithField("duration", elapsed).Debugf("Passed: %t", passed)
	return passed
}

func (r *CheckRunner) record(res TestResult) {
	r.results = append(r.results, res)
	if res.Success {
		r.passed++
	}
	if r.observer != nil {
		r.observer.ObserveResult(res)
	}

	status := "❌ FAIL"
	if res.Success {
		status = "✅ PASS"
	}
	fmt.Fprintf(r.out, "%s - %s\n", status, res.Name)
	if res.Details != "" {
		fmt.Fprintf(r.out, "    Details: %s\n", res.Details)
	}
}

func (r *CheckRunner) printSummary(summary *TestRunSummary) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, strings.Repeat("=", 60))
	fmt.Fprintf(r.out, "📊 Test Summary: %d/%d tests passed\n", summary.PassedTests, summary.TotalTests)

	if summary.IsPassing() {
		fmt.Fprintln(r.out, "🎉 All backend tests passed!")
	} else {
		fmt.Fprintf(r.out, "⚠️  %d tests failed\n", summary.FailedTests())
	}
}

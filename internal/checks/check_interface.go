package checks

import (
	"context"
	"time"

	"github.com/clusterx/demo-api-check/internal/demoapi"
)

// Check defines the interface for all demo endpoint checks
type Check interface {
	ID() string
	Description() string
	// Execute runs the check and returns the results it recorded, in order.
	// Request failures are reported as failed results, never as panics.
	Execute(ctx context.Context, client *demoapi.Client) []TestResult
}

// TestResult represents the outcome of a single recorded assertion
type TestResult struct {
	Name      string    `json:"name"`
	Success   bool      `json:"success"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTestResult stamps a result with the current time
func NewTestResult(name string, success bool, details string) TestResult {
	return TestResult{
		Name:      name,
		Success:   success,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// TestRunSummary represents the complete report of one run
type TestRunSummary struct {
	RunID       string       `json:"run_id,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
	BaseURL     string       `json:"base_url,omitempty"`
	TotalTests  int          `json:"total_tests"`
	PassedTests int          `json:"passed_tests"`
	SuccessRate float64      `json:"success_rate"`
	Aborted     bool         `json:"aborted,omitempty"`
	Duration    string       `json:"duration,omitempty"`
	Results     []TestResult `json:"results"`
}

// NewTestRunSummary derives the counters from results so they cannot disagree
func NewTestRunSummary(results []TestResult) *TestRunSummary {
	passed := 0
	for _, r := range results {
		if r.Success {
			passed++
		}
	}

	copied := make([]TestResult, len(results))
	copy(copied, results)

	return &TestRunSummary{
		Timestamp:   time.Now(),
		TotalTests:  len(copied),
		PassedTests: passed,
		SuccessRate: SuccessRate(passed, len(copied)),
		Results:     copied,
	}
}

// SuccessRate returns passed/total as a percentage, or 0 when total is 0
func SuccessRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}

// FailedTests returns the number of failed results
func (s *TestRunSummary) FailedTests() int {
	return s.TotalTests - s.PassedTests
}

// IsPassing reports whether the run completed and every result passed
func (s *TestRunSummary) IsPassing() bool {
	return !s.Aborted && s.TotalTests > 0 && s.PassedTests == s.TotalTests
}

// allPassed reports whether a check's results amount to a pass
func allPassed(results []TestResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

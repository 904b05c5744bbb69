package checks

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/clusterx/demo-api-check/internal/demoapi"
	"github.com/clusterx/demo-api-check/internal/utils"
)

// ServerHealthCheck probes the demo route with a GET. Any status below 500
// counts as alive, including 404/405 for a POST-only route.
type ServerHealthCheck struct {
	Timeout time.Duration
}

func (c *ServerHealthCheck) ID() string { return "server-health" }

func (c *ServerHealthCheck) Description() string {
	return "Server responds to a GET on the demo call route without a 5xx"
}

func (c *ServerHealthCheck) Execute(ctx context.Context, client *demoapi.Client) []TestResult {
	const name = "Server Health"

	resp, err := client.Probe(ctx, orDefault(c.Timeout, utils.DefaultHealthTimeout))
	if err != nil {
		return fail(name, "Server not responding: %v", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fail(name, "Server error: %d", resp.StatusCode)
	}
	return pass(name, "Server responding (status: %d)", resp.StatusCode)
}

// ValidPhoneCheck posts a well-formed number. A 503 "not configured" answer is
// correct for an unprovisioned backend, a 200 with success=true for a
// provisioned one.
type ValidPhoneCheck struct {
	PhoneNumber string
	Timeout     time.Duration
	Expect      Expectations
}

func (c *ValidPhoneCheck) ID() string { return "demo-call-valid-phone" }

func (c *ValidPhoneCheck) Description() string {
	return "Valid E.164 number is accepted or rejected as not configured"
}

func (c *ValidPhoneCheck) Execute(ctx context.Context, client *demoapi.Client) []TestResult {
	const (
		name        = "Demo Call - Valid Phone"
		expected503 = "Demo Call - Valid Phone (Expected 503)"
	)
	expect := c.Expect.withDefaults()

	phone := c.PhoneNumber
	if phone == "" {
		phone = utils.DefaultValidPhone
	}

	resp, err := client.Call(ctx, demoapi.CallRequest{PhoneNumber: phone}, orDefault(c.Timeout, utils.DefaultRequestTimeout))
	if err != nil {
		return fail(name, "Request failed: %v", err)
	}

	switch resp.StatusCode {
	case http.StatusServiceUnavailable:
		data, err := resp.Decode()
		if err != nil {
			return fail(name, "Request failed: %v", err)
		}
		if expect.NotConfigured(data.Error) {
			return pass(expected503, "Correctly returns 503 for unconfigured service")
		}
		return fail(expected503, "Wrong error message: %s", data.Error)

	case http.StatusOK:
		data, err := resp.Decode()
		if err != nil {
			return fail(name, "Request failed: %v", err)
		}
		if data.Success {
			return pass(name, "Call initiated: %s", data.ExecutionID)
		}
		return fail(name, "Success=false: %s", resp.Text())

	default:
		return fail(name, "Unexpected status %d: %s", resp.StatusCode, resp.Text())
	}
}

// InvalidPhoneCheck posts each malformed sample and expects a 400 "invalid"
// answer. Failing samples are recorded individually; a single aggregate pass
// is recorded only when every sample was rejected correctly.
type InvalidPhoneCheck struct {
	PhoneNumbers []string
	Timeout      time.Duration
	Expect       Expectations
}

func (c *InvalidPhoneCheck) ID() string { return "demo-call-invalid-phone" }

func (c *InvalidPhoneCheck) Description() string {
	return "Malformed numbers are rejected with 400 invalid"
}

func (c *InvalidPhoneCheck) Execute(ctx context.Context, client *demoapi.Client) []TestResult {
	expect := c.Expect.withDefaults()
	timeout := orDefault(c.Timeout, utils.DefaultRequestTimeout)

	phones := c.PhoneNumbers
	if phones == nil {
		phones = utils.DefaultInvalidPhones
	}
	if len(phones) == 0 {
		return fail("Demo Call - Invalid Phone Numbers", "No invalid phone samples configured")
	}

	var failures []TestResult
	for _, phone := range phones {
		name := fmt.Sprintf("Demo Call - Invalid Phone (%s)", phone)

		resp, err := client.Call(ctx, demoapi.CallRequest{PhoneNumber: phone}, timeout)
		if err != nil {
			failures = append(failures, fail(name, "Request failed: %v", err)...)
			continue
		}
		if ok, details := expectErrorResponse(resp, http.StatusBadRequest, expect.Invalid); !ok {
			failures = append(failures, NewTestResult(name, false, details))
		}
	}

	if len(failures) > 0 {
		return failures
	}
	return pass("Demo Call - Invalid Phone Numbers", "All invalid phone numbers correctly rejected")
}

// MissingPhoneCheck posts an empty object and expects a 400 "required" answer
type MissingPhoneCheck struct {
	Timeout time.Duration
	Expect  Expectations
}

func (c *MissingPhoneCheck) ID() string { return "demo-call-missing-phone" }

func (c *MissingPhoneCheck) Description() string {
	return "Missing phone_number is rejected with 400 required"
}

func (c *MissingPhoneCheck) Execute(ctx context.Context, client *demoapi.Client) []TestResult {
	const name = "Demo Call - Missing Phone"
	expect := c.Expect.withDefaults()

	resp, err := client.Call(ctx, demoapi.CallRequest{}, orDefault(c.Timeout, utils.DefaultRequestTimeout))
	if err != nil {
		return fail(name, "Request failed: %v", err)
	}
	if ok, details := expectErrorResponse(resp, http.StatusBadRequest, expect.Required); !ok {
		return []TestResult{NewTestResult(name, false, details)}
	}
	return pass(name, "Correctly rejects missing phone number")
}

// expectErrorResponse checks status and error message, returning failure details on mismatch
func expectErrorResponse(resp *demoapi.Response, status int, match MessageMatcher) (bool, string) {
	if resp.StatusCode != status {
		return false, fmt.Sprintf("Expected %d, got %d", status, resp.StatusCode)
	}
	data, err := resp.Decode()
	if err != nil {
		return false, fmt.Sprintf("Request failed: %v", err)
	}
	if !match(data.Error) {
		return false, fmt.Sprintf("Wrong error message: %s", data.Error)
	}
	return true, ""
}

func pass(name, format string, args ...interface{}) []TestResult {
	return []TestResult{NewTestResult(name, true, fmt.Sprintf(format, args...))}
}

func fail(name, format string, args ...interface{}) []TestResult {
	return []TestResult{NewTestResult(name, false, fmt.Sprintf(format, args...))}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

package checks

import "strings"

// MessageMatcher decides whether an error message from the server is the expected one
type MessageMatcher func(message string) bool

// ContainsFold matches messages containing substr, ignoring case
func ContainsFold(substr string) MessageMatcher {
	needle := strings.ToLower(substr)
	return func(message string) bool {
		return strings.Contains(strings.ToLower(message), needle)
	}
}

// Expectations is the contract the demo endpoint's error messages must honour
type Expectations struct {
	// NotConfigured matches the 503 returned when the voice backend has no credentials.
	NotConfigured MessageMatcher
	Invalid       MessageMatcher
	Required      MessageMatcher
}

// DefaultExpectations returns the matchers for the stock server messages
func DefaultExpectations() Expectations {
	return Expectations{
		NotConfigured: ContainsFold("service is not configured"),
		Invalid:       ContainsFold("invalid"),
		Required:      ContainsFold("required"),
	}
}

// withDefaults fills any nil matcher from DefaultExpectations
func (e Expectations) withDefaults() Expectations {
	d := DefaultExpectations()
	if e.NotConfigured == nil {
		e.NotConfigured = d.NotConfigured
	}
	if e.Invalid == nil {
		e.Invalid = d.Invalid
	}
	if e.Required == nil {
		e.Required = d.Required
	}
	return e
}

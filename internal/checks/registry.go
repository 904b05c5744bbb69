package checks

import (
	"errors"
	"fmt"
)

var (
	ErrNilCheck       = errors.New("check cannot be nil")
	ErrDuplicateCheck = errors.New("check already registered")
	ErrGateAlreadySet = errors.New("gate check already set")
)

// CheckRegistry holds the checks of a run in registration order.
// The optional gate check runs first and aborts the run when it fails.
type CheckRegistry struct {
	gate   Check
	checks []Check
	ids    map[string]struct{}
}

// NewCheckRegistry creates an empty registry
func NewCheckRegistry() *CheckRegistry {
	return &CheckRegistry{ids: make(map[string]struct{})}
}

// SetGate registers the check that must pass before any other check runs
func (r *CheckRegistry) SetGate(check Check) error {
	if check == nil {
		return ErrNilCheck
	}
	if r.gate != nil {
		return fmt.Errorf("%w: %s", ErrGateAlreadySet, r.gate.ID())
	}
	if err := r.claim(check.ID()); err != nil {
		return err
	}
	r.gate = check
	return nil
}

// Register appends an ordinary check
func (r *CheckRegistry) Register(check Check) error {
	if check == nil {
		return ErrNilCheck
	}
	if err := r.claim(check.ID()); err != nil {
		return err
	}
	r.checks = append(r.checks, check)
	return nil
}

// Gate returns the gate check, or nil if none is set
func (r *CheckRegistry) Gate() Check {
	return r.gate
}

// Checks returns the ordinary checks in registration order
func (r *CheckRegistry) Checks() []Check {
	out := make([]Check, len(r.checks))
	copy(out, r.checks)
	return out
}

// Get looks up a check, the gate included, by ID
func (r *CheckRegistry) Get(id string) (Check, bool) {
	if r.gate != nil && r.gate.ID() == id {
		return r.gate, true
	}
	for _, c := range r.checks {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// Count returns the number of registered checks, the gate included
func (r *CheckRegistry) Count() int {
	n := len(r.checks)
	if r.gate != nil {
		n++
	}
	return n
}

func (r *CheckRegistry) claim(id string) error {
	if id == "" {
		return fmt.Errorf("check ID cannot be empty")
	}
	if _, ok := r.ids[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCheck, id)
	}
	r.ids[id] = struct{}{}
	return nil
}

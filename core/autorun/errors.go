// Package autorun implements the override-rule engine: payload decoding and
// validation, the temporal lifecycle of rules, duplicate detection, and the
// admin-facing rule service.
package autorun

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a delete or lookup of an unknown rule id.
var ErrNotFound = errors.New("autorun: rule not found")

// ValidationError reports a malformed rule payload or scope. The rule is not
// persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid rule: " + e.Reason
	}
	return fmt.Sprintf("invalid rule: %s: %s", e.Field, e.Reason)
}

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a rule whose discriminating key collides with an
// existing rule of the same kind.
type ConflictError struct {
	ExistingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("rule already exists (id %s)", e.ExistingID)
}

// ConfigInconsistencyError reports scopes that resolve to conflicting
// required period counts, or a missing bell-schedule label.
type ConfigInconsistencyError struct {
	Reason string
	Counts []int
}

func (e *ConfigInconsistencyError) Error() string {
	if len(e.Counts) > 0 {
		return fmt.Sprintf("%s: %v", e.Reason, e.Counts)
	}
	return e.Reason
}

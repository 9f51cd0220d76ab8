package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationError returns a ValidationError with a single field error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ValidateDuration checks the optional spin duration bound.
func ValidateDuration(durationMs *int) error {
	if durationMs == nil {
		return nil
	}
	if *durationMs < 0 || *durationMs > MaxSelectionDurationMs {
		return NewValidationError("duration_ms",
			fmt.Sprintf("must be between 0 and %d, got %d", MaxSelectionDurationMs, *durationMs))
	}
	return nil
}

// ValidateParticipant checks a Participant for constraint violations.
func ValidateParticipant(p *Participant) error {
	var ve ValidationError

	if strings.TrimSpace(p.OrganizationID) == "" {
		ve.add("organization_id", "is required")
	}

	// Name: required and at most 200 characters.
	name := strings.TrimSpace(p.Name)
	if name == "" {
		ve.add("name", "is required")
	} else if len([]rune(name)) > 200 {
		ve.add("name", "must be 200 characters or fewer")
	}

	if p.SelectionCount < 0 {
		ve.add("selection_count", fmt.Sprintf("must be non-negative, got %d", p.SelectionCount))
	}

	return ve.orNil()
}

// ValidateMeeting checks a Meeting for constraint violations.
func ValidateMeeting(m *Meeting) error {
	var ve ValidationError

	if strings.TrimSpace(m.OrganizationID) == "" {
		ve.add("organization_id", "is required")
	}

	name := strings.TrimSpace(m.Name)
	if name == "" {
		ve.add("name", "is required")
	} else if len([]rune(name)) > 200 {
		ve.add("name", "must be 200 characters or fewer")
	}

	// Settings: the default method, when set, must be a known value.
	if m.Settings.SelectionMethod != "" && !m.Settings.SelectionMethod.IsValid() {
		ve.add("settings.selection_method", fmt.Sprintf("invalid value %q", m.Settings.SelectionMethod))
	}

	seen := make(map[string]struct{}, len(m.Roster))
	for _, id := range m.Roster {
		if strings.TrimSpace(id) == "" {
			ve.add("roster", "must not contain empty participant ids")
			break
		}
		if _, dup := seen[id]; dup {
			ve.add("roster", fmt.Sprintf("duplicate participant id %q", id))
			break
		}
		seen[id] = struct{}{}
	}

	return ve.orNil()
}

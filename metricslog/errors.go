package metricslog

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is matched by errors for configured fields that are absent from a record.
	ErrMissingField = errors.New("metricslog: missing field")
	// ErrUnsupportedValue is returned for values that are not floats, integers or strings.
	ErrUnsupportedValue = errors.New("metricslog: unsupported value type")
	// ErrEmptyRecord is returned when there is nothing to log.
	ErrEmptyRecord = errors.New("metricslog: record has no fields")
	// ErrInvalidStep is returned when the step field cannot be converted to an integer.
	ErrInvalidStep = errors.New("metricslog: invalid step value")
	// ErrDuplicateField is returned by New when a field is listed more than once.
	ErrDuplicateField = errors.New("metricslog: duplicate field")
	// ErrClosed is returned when logging to a closed Logger.
	ErrClosed = errors.New("metricslog: logger is closed")
)

// MissingFieldError reports a configured field that is absent from a record.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("metricslog: missing field %q", e.Field)
}

// Is makes MissingFieldError match ErrMissingField.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

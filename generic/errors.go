/*
errors.go - Centralized error types for the pay engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages return these (or wrap them with %w) so that callers can
  classify failures with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Configuration errors - A compensation contract is missing the fields
     its declared type requires. Fatal to one employee, never to a batch.
  2. Validation errors - Malformed input (bad period, unknown method)
  3. Store errors - Missing or duplicate records

USAGE:
  pay, err := compensation.Calculate(in, opts)
  var cfgErr *generic.ConfigurationError
  if errors.As(err, &cfgErr) {
      // surface an error row for cfgErr.EmployeeID, keep going
  }

SEE ALSO:
  - compensation/validate.go: Produces ConfigurationError
  - payroll/aggregate.go: Turns ConfigurationError into error rows
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration is wrapped by every ConfigurationError.
	ErrConfiguration = errors.New("invalid compensation configuration")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicate is returned when a record with the same id already exists.
	ErrDuplicate = errors.New("record already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError names the contract field that is missing or not
// allowed for the contract's declared type.
type ConfigurationError struct {
	EmployeeID   EmployeeID
	ContractType string
	Field        string
	Reason       string // "required", "unexpected", or a validation tag
}

func (e *ConfigurationError) Error() string {
	who := string(e.EmployeeID)
	if who == "" {
		who = "<unknown>"
	}
	return fmt.Sprintf("configuration error: %s contract for employee %s: field %q %s",
		e.ContractType, who, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error indicates a write that clashes with
// existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

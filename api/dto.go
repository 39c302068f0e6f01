/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Employees and
  contracts reuse the directory format from factory; everything else is
  declared here with validator tags checked before any store call.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types returned to clients
  - *Response: Response wrappers

VALIDATION:
  Request structs carry go-playground/validator tags. Field names in
  validation messages are the JSON names.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/employee.go: EmployeeJSON and ContractJSON
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// PunchRequest records or corrects a clock event.
type PunchRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
	Kind       string    `json:"kind" validate:"required,oneof=clock_in clock_out break_start break_end"`
	Note       string    `json:"note,omitempty" validate:"max=500"`
}

// PaymentRequest records a per-job payment.
type PaymentRequest struct {
	EmployeeID  string `json:"employee_id" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	Note        string `json:"note,omitempty" validate:"max=500"`
}

// PayoutRequest records tips paid out to an employee.
type PayoutRequest struct {
	EmployeeID  string `json:"employee_id" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
}

// ParticipantRequest is an explicit pool participant. Omit participants on
// the pool request to derive them from the day's sessions.
type ParticipantRequest struct {
	EmployeeID    string `json:"employee_id" validate:"required"`
	WorkedMinutes int    `json:"worked_minutes" validate:"gte=0"`
	RoleWeight    string `json:"role_weight,omitempty" validate:"omitempty,numeric"`
}

// CreatePoolRequest opens a draft tip pool for a day.
type CreatePoolRequest struct {
	Date         string               `json:"date" validate:"required,datetime=2006-01-02"`
	TotalCents   int64                `json:"total_cents" validate:"gte=0"`
	Method       string               `json:"method" validate:"required,oneof=hours role even"`
	Participants []ParticipantRequest `json:"participants,omitempty" validate:"omitempty,dive"`
}

// OverrideShareRequest pins one participant's share.
type OverrideShareRequest struct {
	AmountCents *int64 `json:"amount_cents" validate:"required,gte=0"`
}

// ShiftRequest is a planned shift.
type ShiftRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required"`
}

// ScheduledCostRequest asks for the cost of planned shifts over a period.
type ScheduledCostRequest struct {
	Start  string         `json:"start" validate:"required,datetime=2006-01-02"`
	End    string         `json:"end" validate:"required,datetime=2006-01-02"`
	Shifts []ShiftRequest `json:"shifts" validate:"dive"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// NormalizedPunchesResponse is the annotated stream plus the valid subset.
type NormalizedPunchesResponse struct {
	Period    generic.Period    `json:"period"`
	Annotated []punch.Annotated `json:"annotated"`
	Valid     []punch.Event     `json:"valid"`
}

// SessionsResponse lists reconstructed sessions.
type SessionsResponse struct {
	Period       generic.Period      `json:"period"`
	Sessions     []punch.WorkSession `json:"sessions"`
	AnomalyCount int                 `json:"anomaly_count"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// BINDING
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. The returned error
// wraps generic.ErrInvalidInput with a readable message.
func decode(r io.Reader, dst any) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("%w: %s", generic.ErrInvalidInput, formatBindingError(err))
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", generic.ErrInvalidInput, formatBindingError(err))
	}
	return nil
}

func formatBindingError(err error) string {
	if errors.Is(err, io.EOF) {
		return "Request body is empty"
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("Invalid JSON at byte offset %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("Field '%s' should be of type %s", typeErr.Field, typeErr.Type.String())
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]string, 0, len(ve))
		for _, fe := range ve {
			out = append(out, formatFieldError(fe))
		}
		return strings.Join(out, ", ")
	}

	return err.Error()
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("Field '%s' must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("Field '%s' must be greater than %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("Field '%s' must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("Field '%s' must be a date (%s)", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("Field '%s' must be numeric", fe.Field())
	}
	return fmt.Sprintf("Field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}

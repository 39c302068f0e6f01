package compensation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/warp/pay-engine/generic"
)

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

// Validate checks that the contract carries exactly the terms its type needs
// and that those terms are usable. The error is a *generic.ConfigurationError
// without an employee id; ValidateFor fills it in.
func Validate(c Contract) error {
	return ValidateFor("", c)
}

// ValidateFor is Validate with the owning employee recorded on the error.
func ValidateFor(employee generic.EmployeeID, c Contract) error {
	fail := func(field, reason string) error {
		return &generic.ConfigurationError{
			EmployeeID:   employee,
			ContractType: string(c.Type),
			Field:        field,
			Reason:       reason,
		}
	}

	present := map[string]bool{
		"hourly":     c.Hourly != nil,
		"salary":     c.Salary != nil,
		"daily_rate": c.DailyRate != nil,
		"contractor": c.Contractor != nil,
	}

	var (
		want     string
		terms    any
		required string
	)
	switch c.Type {
	case TypeHourly:
		want, terms, required = "hourly", c.Hourly, "hourly_rate_cents"
	case TypeSalary:
		want, terms, required = "salary", c.Salary, "salary_amount_cents"
	case TypeDailyRate:
		want, terms, required = "daily_rate", c.DailyRate, "daily_rate_amount_cents"
	case TypeContractorRecurring:
		want, terms, required = "contractor", c.Contractor, "contractor_interval_amount_cents"
	case TypeContractorPerJob:
		// paid from manual payments, carries no terms
	case "":
		return fail("type", "required")
	default:
		return fail("type", "unknown")
	}

	for _, name := range []string{"hourly", "salary", "daily_rate", "contractor"} {
		if present[name] && name != want {
			return fail(name, "unexpected")
		}
	}
	if want == "" {
		return nil
	}
	if !present[want] {
		return fail(required, "required")
	}

	if err := validate.Struct(terms); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fail(verrs[0].Field(), reasonFor(verrs[0]))
		}
		return fail(want, err.Error())
	}
	return nil
}

func reasonFor(fe validator.FieldError) string {
	if fe.Value() != nil && reflect.ValueOf(fe.Value()).IsZero() {
		return "required"
	}
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "failed " + fe.Tag()
}

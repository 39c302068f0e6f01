/*
Package generic provides the shared vocabulary of the pay engine.

PURPOSE:
  This package contains the domain-agnostic money, identifier, calendar and
  error types every other package builds on. Punch reconstruction, pay
  calculation, labor-cost attribution and tip pooling all speak in these
  types so that cents never silently turn into floats on the way through.

KEY CONCEPTS IN THIS FILE (types.go):
  - Cents: Integer money. The only representation of an amount of money
    that crosses a package boundary.
  - RoundCents: The single rounding rule (half away from zero) applied when
    a decimal intermediate is turned back into money.
  - Identifiers: Type-safe employee / pool / punch ids.

DESIGN PRINCIPLES:
  1. Precision: Rates and prorations are computed in decimal.Decimal and
     rounded exactly once, at the edge, into Cents.
  2. Type Safety: Strong typing for IDs prevents mixing employee/pool ids.
  3. Determinism: Nothing here reads the wall clock.

USAGE:
  rate := generic.Cents(1500)                      // $15.00/h
  pay := generic.RoundCents(rate.Decimal().Mul(h)) // h in hours

SEE ALSO:
  - time.go: Calendar days and ISO weeks
  - period.go: Inclusive calendar ranges
  - errors.go: ConfigurationError and sentinels
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CENTS - Integer money
// =============================================================================

// Cents is an amount of money in the smallest currency unit.
type Cents int64

var hundred = decimal.NewFromInt(100)

// Decimal returns the amount in cents as a decimal (not dollars).
func (c Cents) Decimal() decimal.Decimal { return decimal.NewFromInt(int64(c)) }

// Dollars returns the amount as a decimal in whole currency units.
func (c Cents) Dollars() decimal.Decimal { return decimal.New(int64(c), -2) }

// String formats the amount as "1234.56".
func (c Cents) String() string { return c.Dollars().StringFixed(2) }

func (c Cents) IsZero() bool     { return c == 0 }
func (c Cents) IsNegative() bool { return c < 0 }

// RoundCents turns a decimal amount of cents into Cents, rounding half away
// from zero.
func RoundCents(d decimal.Decimal) Cents {
	return Cents(d.Round(0).IntPart())
}

// FloorCents truncates a non-negative decimal amount of cents.
func FloorCents(d decimal.Decimal) Cents {
	return Cents(d.Floor().IntPart())
}

// ParseDollars parses "12.34" into 1234 cents.
func ParseDollars(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return RoundCents(d.Mul(hundred)), nil
}

// SumCents adds a list of amounts.
func SumCents(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}

// MinutesToHours converts minutes to hours with two decimal places.
func MinutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).DivRound(decimal.NewFromInt(60), 2)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PoolID string
type PunchID string

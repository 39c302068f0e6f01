// Package punch turns raw clock events into work sessions.
// It cleans a noisy event stream (normalize.go, filters.go) and rebuilds
// clock-in to clock-out sessions with nested breaks (session.go).
package punch

import (
	"time"

	"github.com/warp/pay-engine/generic"
)

// =============================================================================
// EVENTS
// =============================================================================

// Kind is the clock action an event records.
type Kind string

const (
	ClockIn    Kind = "clock_in"
	ClockOut   Kind = "clock_out"
	BreakStart Kind = "break_start"
	BreakEnd   Kind = "break_end"
)

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	switch k {
	case ClockIn, ClockOut, BreakStart, BreakEnd:
		return true
	}
	return false
}

// Event is one clock action. Events are never synthesized or mutated here;
// corrections arrive from upstream as manager edits or soft deletes.
type Event struct {
	ID         generic.PunchID    `json:"id"`
	EmployeeID generic.EmployeeID `json:"employee_id"`
	Timestamp  time.Time          `json:"timestamp"`
	Kind       Kind               `json:"kind"`
	Note       string             `json:"note,omitempty"`
}

// Noise is the reason an event was suppressed.
type Noise string

const (
	NoiseNone           Noise = ""
	NoiseBurst          Noise = "burst"
	NoiseDuplicate      Noise = "duplicate"
	NoiseBreakCancelled Noise = "break-cancelled"
)

// Annotated is an event tagged valid or noise. Suppression flags, it never
// deletes.
type Annotated struct {
	Event
	Noise Noise `json:"noise,omitempty"`
}

// Valid reports whether the event survived every filter.
func (a Annotated) Valid() bool { return a.Noise == NoiseNone }

// =============================================================================
// SESSIONS
// =============================================================================

// Anomaly flags a session whose numbers deserve human review.
type Anomaly string

const (
	MissingClockOut Anomaly = "missing_clock_out"
	IncompleteBreak Anomaly = "incomplete_break"
	AbnormallyShort Anomaly = "abnormally_short"
)

// BreakInterval is a break inside a session. End is nil when the break was
// never closed.
type BreakInterval struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// IsComplete reports whether the break has an end.
func (b BreakInterval) IsComplete() bool { return b.End != nil }

// Duration returns the break length, zero for an incomplete break.
func (b BreakInterval) Duration() time.Duration {
	if b.End == nil {
		return 0
	}
	return b.End.Sub(b.Start)
}

// WorkSession is a derived clock-in to clock-out interval. It is rebuilt on
// every query and never persisted.
type WorkSession struct {
	EmployeeID generic.EmployeeID `json:"employee_id"`

	// Day is the civil date of ClockIn, even when ClockOut falls on the next day.
	Day generic.TimePoint `json:"day"`

	ClockIn  time.Time       `json:"clock_in"`
	ClockOut *time.Time      `json:"clock_out,omitempty"`
	Breaks   []BreakInterval `json:"breaks,omitempty"`

	// WorkedMinutes is what payroll counts: zero for an open session or an
	// excluded short session.
	WorkedMinutes int       `json:"worked_minutes"`
	Anomalies     []Anomaly `json:"anomalies,omitempty"`

	// Excluded is set when a caller policy dropped an AbnormallyShort session.
	Excluded bool `json:"excluded,omitempty"`
}

// IsComplete reports whether the session has a clock-out.
func (s WorkSession) IsComplete() bool { return s.ClockOut != nil }

// Has reports whether the session carries the anomaly.
func (s WorkSession) Has(a Anomaly) bool {
	for _, x := range s.Anomalies {
		if x == a {
			return true
		}
	}
	return false
}

// Options control day attribution and the short-session policy.
type Options struct {
	// Location is the restaurant timezone used for day attribution. nil = UTC.
	Location *time.Location

	// ExcludeShortSessions drops AbnormallyShort sessions from worked minutes.
	ExcludeShortSessions bool
}

package punch

import (
	"time"

	"github.com/warp/pay-engine/generic"
)

// ShortSessionThreshold is the length under which a session that is not the
// only one of its day is flagged AbnormallyShort.
const ShortSessionThreshold = 3 * time.Minute

// Reconstruct groups a valid, time-ordered event stream for one employee into
// work sessions.
//
// Rules:
//   - ClockIn opens a session; ClockOut closes it.
//   - BreakStart/BreakEnd pairs inside an open session become breaks.
//   - A break still open at ClockOut is IncompleteBreak and is NOT deducted.
//   - A session with no ClockOut is MissingClockOut and has zero worked
//     minutes. A ClockIn arriving while a session is open closes the open one
//     that way rather than guessing an end time.
//   - Break or clock-out events with no open session are ignored.
func Reconstruct(events []Event, opts Options) []WorkSession {
	var (
		sessions []WorkSession
		open     *WorkSession
	)

	closeOpen := func(at *time.Time) {
		if open == nil {
			return
		}
		finish(open, at)
		sessions = append(sessions, *open)
		open = nil
	}

	for _, e := range events {
		switch e.Kind {
		case ClockIn:
			closeOpen(nil)
			open = &WorkSession{
				EmployeeID: e.EmployeeID,
				Day:        generic.DateOf(e.Timestamp, opts.Location),
				ClockIn:    e.Timestamp,
			}
		case BreakStart:
			if open == nil || openBreak(open) != nil {
				continue
			}
			open.Breaks = append(open.Breaks, BreakInterval{Start: e.Timestamp})
		case BreakEnd:
			if open == nil {
				continue
			}
			if b := openBreak(open); b != nil {
				end := e.Timestamp
				b.End = &end
			}
		case ClockOut:
			if open == nil {
				continue
			}
			out := e.Timestamp
			closeOpen(&out)
		}
	}
	closeOpen(nil)

	flagShort(sessions, opts)
	return sessions
}

// Build normalizes and reconstructs one employee's raw events.
func Build(events []Event, opts Options) []WorkSession {
	return Reconstruct(Valid(Normalize(events)), opts)
}

// BuildAll builds sessions for a mixed list of events, keyed by employee.
func BuildAll(events []Event, opts Options) map[generic.EmployeeID][]WorkSession {
	out := make(map[generic.EmployeeID][]WorkSession)
	for id, evs := range GroupByEmployee(events) {
		out[id] = Build(evs, opts)
	}
	return out
}

func openBreak(s *WorkSession) *BreakInterval {
	if n := len(s.Breaks); n > 0 && s.Breaks[n-1].End == nil {
		return &s.Breaks[n-1]
	}
	return nil
}

func finish(s *WorkSession, clockOut *time.Time) {
	if clockOut == nil {
		s.Anomalies = append(s.Anomalies, MissingClockOut)
		s.WorkedMinutes = 0
		return
	}
	s.ClockOut = clockOut

	worked := clockOut.Sub(s.ClockIn)
	incomplete := false
	for _, b := range s.Breaks {
		if !b.IsComplete() {
			incomplete = true
			continue
		}
		worked -= b.Duration()
	}
	if incomplete {
		s.Anomalies = append(s.Anomalies, IncompleteBreak)
	}
	if worked < 0 {
		worked = 0
	}
	s.WorkedMinutes = int(worked.Round(time.Minute) / time.Minute)
}

// flagShort marks complete sessions under three minutes that share their day
// with another session.
func flagShort(sessions []WorkSession, opts Options) {
	perDay := make(map[string]int)
	for _, s := range sessions {
		perDay[s.Day.Key()]++
	}
	for i := range sessions {
		s := &sessions[i]
		if !s.IsComplete() || perDay[s.Day.Key()] < 2 {
			continue
		}
		if s.ClockOut.Sub(s.ClockIn) >= ShortSessionThreshold {
			continue
		}
		s.Anomalies = append(s.Anomalies, AbnormallyShort)
		if opts.ExcludeShortSessions {
			s.Excluded = true
			s.WorkedMinutes = 0
		}
	}
}

// InPeriod returns the sessions whose day falls in the period.
func InPeriod(sessions []WorkSession, period generic.Period) []WorkSession {
	var out []WorkSession
	for _, s := range sessions {
		if period.Contains(s.Day) {
			out = append(out, s)
		}
	}
	return out
}

// AnomalyCount totals the anomaly flags across sessions.
func AnomalyCount(sessions []WorkSession) int {
	n := 0
	for _, s := range sessions {
		n += len(s.Anomalies)
	}
	return n
}

package punch

import "time"

// =============================================================================
// FILTERS - Independent, annotating noise heuristics
// =============================================================================

const (
	// BurstWindow is the sliding window in which 3+ events count as a burst.
	BurstWindow = 60 * time.Second
	// BurstSize is the number of events inside BurstWindow that make a burst.
	BurstSize = 3
	// DuplicateWindow is how close two same-kind events must be to be a duplicate.
	DuplicateWindow = 60 * time.Second
	// BreakCancelWindow is how soon a ClockIn must follow a BreakStart for the
	// break to count as an aborted entry.
	BreakCancelWindow = 2 * time.Minute
)

// Filter flags noise in a time-ordered stream. A filter only looks at events
// that are still valid and only ever sets Noise on them.
type Filter interface {
	Name() string
	Apply(events []Annotated)
}

// DefaultPipeline is the fixed filter order: burst, duplicate, break-cancel.
func DefaultPipeline() []Filter {
	return []Filter{BurstFilter{}, DuplicateFilter{}, BreakCancelFilter{}}
}

// validIndexes returns positions of events that are still valid.
func validIndexes(events []Annotated) []int {
	idx := make([]int, 0, len(events))
	for i := range events {
		if events[i].Valid() {
			idx = append(idx, i)
		}
	}
	return idx
}

// BurstFilter keeps the first of 3+ events inside a 60 second window.
type BurstFilter struct{}

func (BurstFilter) Name() string { return string(NoiseBurst) }

func (BurstFilter) Apply(events []Annotated) {
	idx := validIndexes(events)
	for i := 0; i < len(idx); {
		first := events[idx[i]].Timestamp
		j := i
		for j+1 < len(idx) && events[idx[j+1]].Timestamp.Sub(first) <= BurstWindow {
			j++
		}
		if j-i+1 >= BurstSize {
			for k := i + 1; k <= j; k++ {
				events[idx[k]].Noise = NoiseBurst
			}
			i = j + 1
			continue
		}
		i++
	}
}

// DuplicateFilter drops a second event of the same kind within 60 seconds of
// the previous valid event of that kind.
type DuplicateFilter struct{}

func (DuplicateFilter) Name() string { return string(NoiseDuplicate) }

func (DuplicateFilter) Apply(events []Annotated) {
	last := make(map[Kind]time.Time)
	for _, i := range validIndexes(events) {
		e := &events[i]
		if prev, ok := last[e.Kind]; ok && e.Timestamp.Sub(prev) <= DuplicateWindow {
			e.Noise = NoiseDuplicate
			continue
		}
		last[e.Kind] = e.Timestamp
	}
}

// BreakCancelFilter flags a BreakStart whose next valid event is a ClockIn
// within two minutes: the employee hit "break" and took it back. When a
// session is already open the ClockIn only confirms the cancel and is flagged
// too, so the shift carries on unbroken. Off the clock the ClockIn stays and
// starts the session.
type BreakCancelFilter struct{}

func (BreakCancelFilter) Name() string { return string(NoiseBreakCancelled) }

func (BreakCancelFilter) Apply(events []Annotated) {
	idx := validIndexes(events)
	open := false
	for n := 0; n < len(idx); n++ {
		cur := &events[idx[n]]
		switch cur.Kind {
		case ClockIn:
			open = true
		case ClockOut:
			open = false
		case BreakStart:
			if n+1 == len(idx) {
				continue
			}
			next := &events[idx[n+1]]
			if next.Kind == ClockIn && next.Timestamp.Sub(cur.Timestamp) <= BreakCancelWindow {
				cur.Noise = NoiseBreakCancelled
				if open {
					next.Noise = NoiseBreakCancelled
				}
				open = true
				n++
			}
		}
	}
}

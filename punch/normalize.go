package punch

import (
	"sort"

	"github.com/warp/pay-engine/generic"
)

// Normalize orders an employee's events by timestamp and runs the default
// filter pipeline over them. The input slice is not modified.
//
// Empty input returns an empty (non-nil) slice. A single event is always valid.
func Normalize(events []Event) []Annotated {
	return NormalizeWith(events, DefaultPipeline())
}

// NormalizeWith is Normalize with a caller-chosen pipeline.
func NormalizeWith(events []Event, pipeline []Filter) []Annotated {
	out := make([]Annotated, len(events))
	for i, e := range events {
		out[i] = Annotated{Event: e}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if len(out) < 2 {
		return out
	}
	for _, f := range pipeline {
		f.Apply(out)
	}
	return out
}

// Valid extracts the events that survived normalization, in order.
func Valid(annotated []Annotated) []Event {
	out := make([]Event, 0, len(annotated))
	for _, a := range annotated {
		if a.Valid() {
			out = append(out, a.Event)
		}
	}
	return out
}

// GroupByEmployee splits a mixed event list per employee.
func GroupByEmployee(events []Event) map[generic.EmployeeID][]Event {
	out := make(map[generic.EmployeeID][]Event)
	for _, e := range events {
		out[e.EmployeeID] = append(out[e.EmployeeID], e)
	}
	return out
}

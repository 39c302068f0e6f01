package punch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var monday = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func at(day, hour, min, sec int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour +
		time.Duration(min)*time.Minute + time.Duration(sec)*time.Second)
}

func ev(id string, kind punch.Kind, ts time.Time) punch.Event {
	return punch.Event{ID: generic.PunchID(id), EmployeeID: "emp-1", Timestamp: ts, Kind: kind}
}

func noise(annotated []punch.Annotated) map[string]punch.Noise {
	out := make(map[string]punch.Noise)
	for _, a := range annotated {
		out[string(a.ID)] = a.Noise
	}
	return out
}

// =============================================================================
// NORMALIZER TESTS
// =============================================================================

func TestNormalize_Empty(t *testing.T) {
	out := punch.Normalize(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestNormalize_SingleEventAlwaysValid(t *testing.T) {
	out := punch.Normalize([]punch.Event{ev("a", punch.BreakStart, at(0, 9, 0, 0))})
	require.Len(t, out, 1)
	assert.True(t, out[0].Valid())
}

func TestNormalize_SortsByTimestamp(t *testing.T) {
	out := punch.Normalize([]punch.Event{
		ev("out", punch.ClockOut, at(0, 17, 0, 0)),
		ev("in", punch.ClockIn, at(0, 9, 0, 0)),
	})
	require.Len(t, out, 2)
	assert.Equal(t, generic.PunchID("in"), out[0].ID)
	assert.Equal(t, generic.PunchID("out"), out[1].ID)
}

func TestNormalize_Burst_KeepsFirst(t *testing.T) {
	// GIVEN: Four taps in 40 seconds
	out := punch.Normalize([]punch.Event{
		ev("a", punch.ClockIn, at(0, 9, 0, 0)),
		ev("b", punch.ClockOut, at(0, 9, 0, 10)),
		ev("c", punch.ClockIn, at(0, 9, 0, 25)),
		ev("d", punch.ClockOut, at(0, 9, 0, 40)),
		ev("e", punch.ClockOut, at(0, 17, 0, 0)),
	})

	// THEN: Only the first survives; nothing is deleted
	require.Len(t, out, 5)
	n := noise(out)
	assert.Equal(t, punch.NoiseNone, n["a"])
	assert.Equal(t, punch.NoiseBurst, n["b"])
	assert.Equal(t, punch.NoiseBurst, n["c"])
	assert.Equal(t, punch.NoiseBurst, n["d"])
	assert.Equal(t, punch.NoiseNone, n["e"])
}

func TestNormalize_Duplicate_SameKindWithinMinute(t *testing.T) {
	out := punch.Normalize([]punch.Event{
		ev("a", punch.ClockIn, at(0, 9, 0, 0)),
		ev("b", punch.ClockIn, at(0, 9, 0, 45)),
		ev("c", punch.ClockOut, at(0, 17, 0, 0)),
	})
	n := noise(out)
	assert.Equal(t, punch.NoiseNone, n["a"])
	assert.Equal(t, punch.NoiseDuplicate, n["b"])
	assert.Equal(t, punch.NoiseNone, n["c"])
}

func TestNormalize_TwoDifferentKindsWithinMinute_NotNoise(t *testing.T) {
	out := punch.Normalize([]punch.Event{
		ev("a", punch.ClockIn, at(0, 9, 0, 0)),
		ev("b", punch.BreakStart, at(0, 9, 0, 30)),
	})
	for _, a := range out {
		assert.True(t, a.Valid(), "event %s should be valid", a.ID)
	}
}

func TestNormalize_BreakCancelled(t *testing.T) {
	// GIVEN: Employee pressed "break" at arrival, then "clock in" a minute later
	out := punch.Normalize([]punch.Event{
		ev("brk", punch.BreakStart, at(0, 8, 59, 0)),
		ev("in", punch.ClockIn, at(0, 9, 0, 0)),
		ev("out", punch.ClockOut, at(0, 17, 0, 0)),
	})
	n := noise(out)
	assert.Equal(t, punch.NoiseBreakCancelled, n["brk"])
	assert.Equal(t, punch.NoiseNone, n["in"])

	sessions := punch.Reconstruct(punch.Valid(out), punch.Options{})
	require.Len(t, sessions, 1)
	assert.Equal(t, 8*60, sessions[0].WorkedMinutes)
}

func TestNormalize_BreakCancelledInsideOpenShift(t *testing.T) {
	// GIVEN: Mid-shift the employee pressed "break", then "clock in" a minute later
	// WHEN: Building sessions from the stream
	// THEN: Both taps are noise and the shift stays one unbroken 8h session

	out := punch.Normalize([]punch.Event{
		ev("in", punch.ClockIn, at(0, 9, 0, 0)),
		ev("brk", punch.BreakStart, at(0, 12, 0, 0)),
		ev("back", punch.ClockIn, at(0, 12, 1, 0)),
		ev("out", punch.ClockOut, at(0, 17, 0, 0)),
	})
	n := noise(out)
	assert.Equal(t, punch.NoiseNone, n["in"])
	assert.Equal(t, punch.NoiseBreakCancelled, n["brk"])
	assert.Equal(t, punch.NoiseBreakCancelled, n["back"])
	assert.Equal(t, punch.NoiseNone, n["out"])

	sessions := punch.Build([]punch.Event{
		ev("in", punch.ClockIn, at(0, 9, 0, 0)),
		ev("brk", punch.BreakStart, at(0, 12, 0, 0)),
		ev("back", punch.ClockIn, at(0, 12, 1, 0)),
		ev("out", punch.ClockOut, at(0, 17, 0, 0)),
	}, punch.Options{})
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].IsComplete())
	assert.Empty(t, sessions[0].Anomalies)
	assert.Empty(t, sessions[0].Breaks)
	assert.Equal(t, 8*60, sessions[0].WorkedMinutes)
}

func TestNormalize_SlowReturnAfterBreakIsNotCancelled(t *testing.T) {
	out := punch.Normalize([]punch.Event{
		ev("in", punch.ClockIn, at(0, 9, 0, 0)),
		ev("brk", punch.BreakStart, at(0, 12, 0, 0)),
		ev("back", punch.ClockIn, at(0, 12, 5, 0)),
		ev("out", punch.ClockOut, at(0, 17, 0, 0)),
	})
	n := noise(out)
	assert.Equal(t, punch.NoiseNone, n["brk"])
	assert.Equal(t, punch.NoiseNone, n["back"])
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []punch.Event{
		ev("b", punch.ClockOut, at(0, 17, 0, 0)),
		ev("a", punch.ClockIn, at(0, 9, 0, 0)),
	}
	punch.Normalize(in)
	assert.Equal(t, generic.PunchID("b"), in[0].ID)
}

type lateNightFilter struct{}

func (lateNightFilter) Name() string { return "late-night" }
func (lateNightFilter) Apply(events []punch.Annotated) {
	for i := range events {
		if events[i].Valid() && events[i].Timestamp.Hour() >= 23 {
			events[i].Noise = "late-night"
		}
	}
}

func TestNormalizeWith_CustomFilterAppended(t *testing.T) {
	pipeline := append(punch.DefaultPipeline(), lateNightFilter{})
	out := punch.NormalizeWith([]punch.Event{
		ev("a", punch.ClockIn, at(0, 9, 0, 0)),
		ev("b", punch.ClockOut, at(0, 23, 30, 0)),
	}, pipeline)
	assert.Equal(t, punch.Noise("late-night"), noise(out)["b"])
}

// =============================================================================
// RECONSTRUCTOR TESTS
// =============================================================================

func TestReconstruct_CompleteBreakDeducted(t *testing.T) {
	sessions := punch.Reconstruct([]punch.Event{
		ev("1", punch.ClockIn, at(0, 9, 0, 0)),
		ev("2", punch.BreakStart, at(0, 12, 0, 0)),
		ev("3", punch.BreakEnd, at(0, 12, 30, 0)),
		ev("4", punch.ClockOut, at(0, 17, 0, 0)),
	}, punch.Options{})

	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.True(t, s.IsComplete())
	assert.Equal(t, 8*60-30, s.WorkedMinutes, "a complete break is never paid")
	assert.Empty(t, s.Anomalies)
	require.Len(t, s.Breaks, 1)
	assert.True(t, s.Breaks[0].IsComplete())
}

func TestReconstruct_IncompleteBreakNotDeducted(t *testing.T) {
	sessions := punch.Reconstruct([]punch.Event{
		ev("1", punch.ClockIn, at(0, 9, 0, 0)),
		ev("2", punch.BreakStart, at(0, 12, 0, 0)),
		ev("3", punch.ClockOut, at(0, 17, 0, 0)),
	}, punch.Options{})

	require.Len(t, sessions, 1)
	assert.Equal(t, 8*60, sessions[0].WorkedMinutes)
	assert.True(t, sessions[0].Has(punch.IncompleteBreak))
}

func TestReconstruct_MissingClockOut_ZeroMinutes(t *testing.T) {
	sessions := punch.Reconstruct([]punch.Event{
		ev("1", punch.ClockIn, at(0, 9, 0, 0)),
	}, punch.Options{})

	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].IsComplete())
	assert.Equal(t, 0, sessions[0].WorkedMinutes)
	assert.True(t, sessions[0].Has(punch.MissingClockOut))
}

func TestReconstruct_ClockInWhileOpen_ClosesPreviousAsMissing(t *testing.T) {
	sessions := punch.Reconstruct([]punch.Event{
		ev("1", punch.ClockIn, at(0, 9, 0, 0)),
		ev("2", punch.ClockIn, at(1, 9, 0, 0)),
		ev("3", punch.ClockOut, at(1, 17, 0, 0)),
	}, punch.Options{})

	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].Has(punch.MissingClockOut))
	assert.Equal(t, 0, sessions[0].WorkedMinutes)
	assert.Equal(t, 8*60, sessions[1].WorkedMinutes)
}

func TestReconstruct_OvernightAttributedToClockInDay(t *testing.T) {
	sessions := punch.Reconstruct([]punch.Event{
		ev("1", punch.ClockIn, at(0, 23, 0, 0)),
		ev("2", punch.ClockOut, at(1, 3, 0, 0)),
	}, punch.Options{})

	require.Len(t, sessions, 1)
	assert.Equal(t, "2025-03-10", sessions[0].Day.String())
	assert.Equal(t, 240, sessions[0].WorkedMinutes)
}

func TestReconstruct_DayUsesLocation(t *testing.T) {
	ny := time.FixedZone("EDT", -4*60*60)

	// 02:00 UTC on Mar 11 is 22:00 on Mar 10 in New York
	sessions := punch.Reconstruct([]punch.Event{
		ev("1", punch.ClockIn, at(1, 2, 0, 0)),
		ev("2", punch.ClockOut, at(1, 6, 0, 0)),
	}, punch.Options{Location: ny})

	require.Len(t, sessions, 1)
	assert.Equal(t, "2025-03-10", sessions[0].Day.String())
}

func TestReconstruct_AbnormallyShort_FlaggedButCounted(t *testing.T) {
	events := []punch.Event{
		ev("1", punch.ClockIn, at(0, 9, 0, 0)),
		ev("2", punch.ClockOut, at(0, 9, 2, 0)),
		ev("3", punch.ClockIn, at(0, 10, 0, 0)),
		ev("4", punch.ClockOut, at(0, 14, 0, 0)),
	}

	sessions := punch.Reconstruct(events, punch.Options{})
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].Has(punch.AbnormallyShort))
	assert.Equal(t, 2, sessions[0].WorkedMinutes)
	assert.False(t, sessions[1].Has(punch.AbnormallyShort))

	excluded := punch.Reconstruct(events, punch.Options{ExcludeShortSessions: true})
	assert.True(t, excluded[0].Excluded)
	assert.Equal(t, 0, excluded[0].WorkedMinutes)
}

func TestReconstruct_SoleShortSessionNotFlagged(t *testing.T) {
	sessions := punch.Reconstruct([]punch.Event{
		ev("1", punch.ClockIn, at(0, 9, 0, 0)),
		ev("2", punch.ClockOut, at(0, 9, 2, 0)),
	}, punch.Options{})
	require.Len(t, sessions, 1)
	assert.Empty(t, sessions[0].Anomalies)
}

func TestReconstruct_StrayEventsIgnored(t *testing.T) {
	sessions := punch.Reconstruct([]punch.Event{
		ev("1", punch.BreakEnd, at(0, 8, 0, 0)),
		ev("2", punch.ClockOut, at(0, 8, 30, 0)),
		ev("3", punch.ClockIn, at(0, 9, 0, 0)),
		ev("4", punch.ClockOut, at(0, 10, 0, 0)),
	}, punch.Options{})
	require.Len(t, sessions, 1)
	assert.Equal(t, 60, sessions[0].WorkedMinutes)
}

func TestBuildAll_GroupsPerEmployee(t *testing.T) {
	events := []punch.Event{
		{ID: "1", EmployeeID: "a", Kind: punch.ClockIn, Timestamp: at(0, 9, 0, 0)},
		{ID: "2", EmployeeID: "b", Kind: punch.ClockIn, Timestamp: at(0, 9, 0, 5)},
		{ID: "3", EmployeeID: "a", Kind: punch.ClockOut, Timestamp: at(0, 10, 0, 0)},
		{ID: "4", EmployeeID: "b", Kind: punch.ClockOut, Timestamp: at(0, 11, 0, 0)},
	}
	byEmp := punch.BuildAll(events, punch.Options{})
	require.Len(t, byEmp["a"], 1)
	require.Len(t, byEmp["b"], 1)
	assert.Equal(t, 60, byEmp["a"][0].WorkedMinutes)
	assert.Equal(t, 120, byEmp["b"][0].WorkedMinutes)
}

func TestInPeriod_AndAnomalyCount(t *testing.T) {
	sessions := punch.Reconstruct([]punch.Event{
		ev("1", punch.ClockIn, at(0, 9, 0, 0)),
		ev("2", punch.ClockOut, at(0, 17, 0, 0)),
		ev("3", punch.ClockIn, at(2, 9, 0, 0)),
	}, punch.Options{})

	day0 := generic.DateOf(at(0, 0, 0, 0), nil)
	in := punch.InPeriod(sessions, generic.Period{Start: day0, End: day0})
	assert.Len(t, in, 1)
	assert.Equal(t, 1, punch.AnomalyCount(sessions))
}

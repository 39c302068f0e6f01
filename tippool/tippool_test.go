package tippool_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
	"github.com/warp/pay-engine/tippool"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

func part(id string, minutes int, role float64) tippool.Participant {
	return tippool.Participant{
		EmployeeID:    generic.EmployeeID(id),
		WorkedMinutes: minutes,
		RoleWeight:    decimal.NewFromFloat(role),
	}
}

func amounts(shares []tippool.Share) map[generic.EmployeeID]generic.Cents {
	out := map[generic.EmployeeID]generic.Cents{}
	for _, s := range shares {
		out[s.EmployeeID] = s.AmountCents
	}
	return out
}

func sum(shares []tippool.Share) generic.Cents {
	var total generic.Cents
	for _, s := range shares {
		total += s.AmountCents
	}
	return total
}

// =============================================================================
// ALLOCATE
// =============================================================================

func TestAllocate_EvenSplitRemainderToFirstByID(t *testing.T) {
	// GIVEN: $100.00 among three participants, listed out of order
	// WHEN: Allocating evenly
	// THEN: 3334 / 3333 / 3333, the extra cent to the lowest id

	shares, err := tippool.Allocate(10000, tippool.MethodEven, []tippool.Participant{
		part("c", 0, 0), part("a", 0, 0), part("b", 0, 0),
	})
	require.NoError(t, err)

	require.Len(t, shares, 3)
	assert.Equal(t, generic.EmployeeID("a"), shares[0].EmployeeID)
	assert.Equal(t, generic.Cents(3334), shares[0].AmountCents)
	assert.Equal(t, generic.Cents(3333), shares[1].AmountCents)
	assert.Equal(t, generic.Cents(3333), shares[2].AmountCents)
}

func TestAllocate_ByHours(t *testing.T) {
	// GIVEN: 6h, 3h, 1h
	// WHEN: Allocating $100.01 by hours
	// THEN: floor shares 6000/3000/1000, one leftover cent to "a"

	shares, err := tippool.Allocate(10001, tippool.MethodHours, []tippool.Participant{
		part("a", 360, 0), part("b", 180, 0), part("c", 60, 0),
	})
	require.NoError(t, err)

	got := amounts(shares)
	assert.Equal(t, generic.Cents(6001), got["a"])
	assert.Equal(t, generic.Cents(3000), got["b"])
	assert.Equal(t, generic.Cents(1000), got["c"])
}

func TestAllocate_ByRoleSkipsZeroWeightForRemainder(t *testing.T) {
	// GIVEN: "a" has role weight 0, "b" and "c" weigh 1 and 2
	// WHEN: Allocating 100 cents
	// THEN: floors 33 / 66, the leftover cent goes to "b" not "a"

	shares, err := tippool.Allocate(100, tippool.MethodRole, []tippool.Participant{
		part("a", 0, 0), part("b", 0, 1), part("c", 0, 2),
	})
	require.NoError(t, err)

	got := amounts(shares)
	assert.Equal(t, generic.Cents(0), got["a"])
	assert.Equal(t, generic.Cents(34), got["b"])
	assert.Equal(t, generic.Cents(66), got["c"])
}

func TestAllocate_Errors(t *testing.T) {
	_, err := tippool.Allocate(-1, tippool.MethodEven, []tippool.Participant{part("a", 0, 0)})
	assert.ErrorIs(t, err, tippool.ErrNegativeTotal)

	_, err = tippool.Allocate(100, tippool.MethodEven, nil)
	assert.ErrorIs(t, err, tippool.ErrNoParticipants)

	_, err = tippool.Allocate(100, tippool.MethodHours, []tippool.Participant{part("a", 0, 0)})
	assert.ErrorIs(t, err, tippool.ErrZeroBasis)

	_, err = tippool.Allocate(100, "tenure", []tippool.Participant{part("a", 60, 0)})
	assert.ErrorIs(t, err, tippool.ErrUnknownMethod)
}

func TestAllocate_ZeroTotal(t *testing.T) {
	shares, err := tippool.Allocate(0, tippool.MethodHours, nil)
	require.NoError(t, err)
	assert.Empty(t, shares)

	shares, err = tippool.Allocate(0, tippool.MethodHours, []tippool.Participant{part("a", 0, 0)})
	require.NoError(t, err)
	assert.Equal(t, generic.Cents(0), shares[0].AmountCents)
}

func TestAllocate_SumAlwaysExact(t *testing.T) {
	// GIVEN: Seeded random totals, participants and weights
	// WHEN: Allocating with every method
	// THEN: The shares always sum to the total

	rng := rand.New(rand.NewSource(42))
	methods := []tippool.Method{tippool.MethodHours, tippool.MethodRole, tippool.MethodEven}

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(12)
		participants := make([]tippool.Participant, n)
		for j := range participants {
			participants[j] = tippool.Participant{
				EmployeeID:    generic.EmployeeID(fmt.Sprintf("e%02d", j)),
				WorkedMinutes: 1 + rng.Intn(720),
				RoleWeight:    decimal.NewFromInt(int64(1 + rng.Intn(5))).Div(decimal.NewFromInt(int64(1 + rng.Intn(3)))),
			}
		}
		total := generic.Cents(rng.Int63n(1_000_000))
		method := methods[rng.Intn(len(methods))]

		shares, err := tippool.Allocate(total, method, participants)
		require.NoError(t, err)
		require.Equal(t, total, sum(shares), "iteration %d method %s", i, method)
	}
}

// =============================================================================
// POOL
// =============================================================================

func TestPool_OverrideRedistributes(t *testing.T) {
	// GIVEN: $100.00 split evenly among three
	// WHEN: The manager sets "a" to $50.00
	// THEN: "b" and "c" share the remaining $50.00 and "a" is locked

	pool, err := tippool.NewPool("p1", date(2025, time.March, 10), 10000, tippool.MethodEven,
		[]tippool.Participant{part("a", 0, 0), part("b", 0, 0), part("c", 0, 0)})
	require.NoError(t, err)

	require.NoError(t, pool.Override("a", 5000))

	got := amounts(pool.Shares)
	assert.Equal(t, generic.Cents(5000), got["a"])
	assert.Equal(t, generic.Cents(2500), got["b"])
	assert.Equal(t, generic.Cents(2500), got["c"])
	share, _ := pool.Share("a")
	assert.True(t, share.Locked)
	assert.Equal(t, generic.Cents(10000), sum(pool.Shares))
}

func TestPool_OverrideRejections(t *testing.T) {
	pool, err := tippool.NewPool("p1", date(2025, time.March, 10), 10000, tippool.MethodEven,
		[]tippool.Participant{part("a", 0, 0), part("b", 0, 0)})
	require.NoError(t, err)
	before := append([]tippool.Share(nil), pool.Shares...)

	assert.ErrorIs(t, pool.Override("a", 10001), tippool.ErrOverAllocated)
	assert.ErrorIs(t, pool.Override("z", 100), tippool.ErrUnknownParticipant)
	assert.ErrorIs(t, pool.Override("a", -5), tippool.ErrNegativeTotal)
	assert.Equal(t, before, pool.Shares)

	require.NoError(t, pool.Override("a", 4000))
	assert.ErrorIs(t, pool.Override("b", 5000), tippool.ErrUnbalanced)
	assert.Equal(t, generic.Cents(10000), sum(pool.Shares))
}

func TestPool_Unlock(t *testing.T) {
	pool, err := tippool.NewPool("p1", date(2025, time.March, 10), 9000, tippool.MethodEven,
		[]tippool.Participant{part("a", 0, 0), part("b", 0, 0), part("c", 0, 0)})
	require.NoError(t, err)

	require.NoError(t, pool.Override("a", 0))
	require.NoError(t, pool.Unlock("a"))

	got := amounts(pool.Shares)
	assert.Equal(t, generic.Cents(3000), got["a"])
	share, _ := pool.Share("a")
	assert.False(t, share.Locked)
}

func TestPool_Lifecycle(t *testing.T) {
	pool, err := tippool.NewPool("p1", date(2025, time.March, 10), 100, tippool.MethodEven,
		[]tippool.Participant{part("a", 0, 0)})
	require.NoError(t, err)
	assert.Equal(t, tippool.StatusDraft, pool.Status)

	require.NoError(t, pool.Approve())
	assert.Equal(t, tippool.StatusApproved, pool.Status)
	assert.ErrorIs(t, pool.Override("a", 50), tippool.ErrPoolLocked)
	assert.ErrorIs(t, pool.Discard(), tippool.ErrPoolLocked)
	assert.ErrorIs(t, pool.Approve(), tippool.ErrPoolLocked)
}

func TestPool_SumHoldsAcrossRandomOverrides(t *testing.T) {
	// GIVEN: Seeded random pools
	// WHEN: Applying random overrides, some of which are rejected
	// THEN: The shares sum to the total after every edit

	rng := rand.New(rand.NewSource(7))
	methods := []tippool.Method{tippool.MethodHours, tippool.MethodRole, tippool.MethodEven}

	for i := 0; i < 200; i++ {
		n := 2 + rng.Intn(8)
		participants := make([]tippool.Participant, n)
		for j := range participants {
			participants[j] = part(fmt.Sprintf("e%02d", j), 1+rng.Intn(600), float64(1+rng.Intn(4)))
		}
		total := generic.Cents(rng.Int63n(200_000))
		pool, err := tippool.NewPool("p", date(2025, time.March, 10), total, methods[rng.Intn(3)], participants)
		require.NoError(t, err)

		for k := 0; k < 6; k++ {
			who := participants[rng.Intn(n)].EmployeeID
			amount := generic.Cents(rng.Int63n(int64(total)/2 + 1))
			_ = pool.Override(who, amount)
			require.Equal(t, total, sum(pool.Shares), "pool %d edit %d", i, k)
		}
	}
}

// =============================================================================
// PAYROLL FEED
// =============================================================================

func TestTipsOwed_OnlyApprovedPoolsInPeriod(t *testing.T) {
	march := generic.Period{Start: date(2025, time.March, 1), End: date(2025, time.March, 31)}

	approved, _ := tippool.NewPool("p1", date(2025, time.March, 10), 1000, tippool.MethodEven,
		[]tippool.Participant{part("a", 0, 0), part("b", 0, 0)})
	require.NoError(t, approved.Approve())
	draft, _ := tippool.NewPool("p2", date(2025, time.March, 11), 1000, tippool.MethodEven,
		[]tippool.Participant{part("a", 0, 0)})
	april, _ := tippool.NewPool("p3", date(2025, time.April, 1), 1000, tippool.MethodEven,
		[]tippool.Participant{part("a", 0, 0)})
	require.NoError(t, april.Approve())

	owed := tippool.TipsOwed(
		[]tippool.Pool{*approved, *draft, *april},
		[]tippool.Payout{{ID: "x", EmployeeID: "a", Date: date(2025, time.March, 12), AmountCents: 200}},
		march,
	)

	assert.Equal(t, generic.Cents(300), owed["a"])
	assert.Equal(t, generic.Cents(500), owed["b"])
}

// =============================================================================
// ELIGIBILITY
// =============================================================================

func TestEligible(t *testing.T) {
	day := date(2025, time.March, 10)
	hourly := compensation.Employee{
		ID:         "h",
		ActiveFrom: date(2025, time.January, 1),
		Contracts:  []compensation.ContractVersion{{EffectiveFrom: date(2025, time.January, 1), Contract: compensation.NewHourlyContract(1500)}},
	}
	salaried := hourly
	salaried.ID = "s"
	salaried.Contracts = []compensation.ContractVersion{{EffectiveFrom: date(2025, time.January, 1), Contract: compensation.NewSalaryContract(100000, compensation.PayWeekly)}}

	yes, no := true, false
	optedIn := salaried
	optedIn.TipEligible = &yes
	optedOut := hourly
	optedOut.TipEligible = &no
	gone := hourly
	until := date(2025, time.March, 1)
	gone.ActiveUntil = &until
	inactive := hourly
	inactive.Status = compensation.StatusInactive
	inactiveOptedIn := inactive
	inactiveOptedIn.TipEligible = &yes

	assert.True(t, tippool.Eligible(hourly, day))
	assert.False(t, tippool.Eligible(salaried, day))
	assert.True(t, tippool.Eligible(optedIn, day))
	assert.False(t, tippool.Eligible(optedOut, day))
	assert.False(t, tippool.Eligible(gone, day))
	assert.False(t, tippool.Eligible(inactive, day))
	assert.True(t, tippool.Eligible(inactiveOptedIn, day))
}

func TestParticipantsFromSessions(t *testing.T) {
	day := date(2025, time.March, 10)
	mk := func(id, position string) compensation.Employee {
		return compensation.Employee{
			ID:         generic.EmployeeID(id),
			Position:   position,
			ActiveFrom: date(2025, time.January, 1),
			Contracts:  []compensation.ContractVersion{{EffectiveFrom: date(2025, time.January, 1), Contract: compensation.NewHourlyContract(1500)}},
		}
	}
	employees := []compensation.Employee{mk("b", "server"), mk("a", "busser"), mk("c", "server")}
	sessions := map[generic.EmployeeID][]punch.WorkSession{
		"a": {{Day: day, WorkedMinutes: 240}, {Day: day, WorkedMinutes: 60}},
		"b": {{Day: day, WorkedMinutes: 480}, {Day: day.AddDays(1), WorkedMinutes: 480}},
		"c": {{Day: day.AddDays(1), WorkedMinutes: 480}},
	}

	got := tippool.ParticipantsFromSessions(employees, sessions, day,
		map[string]decimal.Decimal{"server": decimal.NewFromInt(2)})

	require.Len(t, got, 2)
	assert.Equal(t, generic.EmployeeID("a"), got[0].EmployeeID)
	assert.Equal(t, 300, got[0].WorkedMinutes)
	assert.True(t, got[0].RoleWeight.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 480, got[1].WorkedMinutes)
	assert.True(t, got[1].RoleWeight.Equal(decimal.NewFromInt(2)))
}

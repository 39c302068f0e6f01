package compensation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
)

// WeeklyOvertimeThreshold is 40 hours per ISO week, in minutes.
const WeeklyOvertimeThreshold = 40 * 60

// DayMinutes sums counted minutes per day for sessions whose day falls in the
// period.
func DayMinutes(sessions []punch.WorkSession, period generic.Period) map[string]int {
	out := make(map[string]int)
	for _, s := range sessions {
		if !period.Contains(s.Day) || s.WorkedMinutes <= 0 {
			continue
		}
		out[s.Day.Key()] += s.WorkedMinutes
	}
	return out
}

// DaySplit is one day's worked minutes split at the weekly threshold.
type DaySplit struct {
	Day             generic.TimePoint
	RegularMinutes  int
	OvertimeMinutes int
}

// SplitOvertime walks days in order and splits each one's minutes into regular
// and overtime once its ISO week passes 40 hours. prior holds minutes already
// counted toward a week, for example by an earlier contract segment, and is
// not modified. The returned map holds the week totals including prior.
func SplitOvertime(dayMinutes map[string]int, prior map[generic.Week]int) ([]DaySplit, map[generic.Week]int) {
	weeks := make(map[generic.Week]int, len(prior))
	for w, m := range prior {
		weeks[w] = m
	}

	keys := make([]string, 0, len(dayMinutes))
	for k := range dayMinutes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	splits := make([]DaySplit, 0, len(keys))
	for _, k := range keys {
		day, err := generic.ParseDate(k)
		if err != nil {
			continue
		}
		minutes := dayMinutes[k]
		week := generic.WeekOf(day)
		before := weeks[week]
		weeks[week] = before + minutes

		regular := WeeklyOvertimeThreshold - before
		if regular < 0 {
			regular = 0
		}
		if regular > minutes {
			regular = minutes
		}
		splits = append(splits, DaySplit{Day: day, RegularMinutes: regular, OvertimeMinutes: minutes - regular})
	}
	return splits, weeks
}

// RegularPay is round(minutes x rate / 60).
func RegularPay(minutes int, rate generic.Cents) generic.Cents {
	return generic.RoundCents(regularExact(minutes, rate))
}

// OvertimePay is round(minutes x rate x 3 / 120), time and a half.
func OvertimePay(minutes int, rate generic.Cents) generic.Cents {
	return generic.RoundCents(overtimeExact(minutes, rate))
}

// HourlyDayCost is the rounded cost of one day's split, overtime premium included.
func HourlyDayCost(split DaySplit, rate generic.Cents) generic.Cents {
	return generic.RoundCents(regularExact(split.RegularMinutes, rate).Add(overtimeExact(split.OvertimeMinutes, rate)))
}

func regularExact(minutes int, rate generic.Cents) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Mul(rate.Decimal()).Div(decimal.NewFromInt(60))
}

func overtimeExact(minutes int, rate generic.Cents) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Mul(rate.Decimal()).Mul(decimal.NewFromInt(3)).Div(decimal.NewFromInt(120))
}

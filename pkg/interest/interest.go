// Package interest holds the day-count arithmetic every other component
// builds on. All functions are pure and operate on decimals; nothing here
// rounds to cents; callers decide presentation rounding.
package interest

import (
	"math"
	"time"

	"github.com/Dhanushj213/LendFlow/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	daysInYear  = decimal.NewFromInt(365)
	daysInMonth = decimal.NewFromInt(30)
	one         = decimal.NewFromInt(1)
)

// DailyRate converts a quoted rate into an effective rate per day.
// ANNUALLY divides by 365, MONTHLY by 30, DAILY passes through.
func DailyRate(rate decimal.Decimal, interval models.RateInterval) decimal.Decimal {
	switch interval {
	case models.RateAnnually:
		return rate.Div(daysInYear)
	case models.RateMonthly:
		return rate.Div(daysInMonth)
	default:
		return rate
	}
}

// ElapsedDays counts calendar days from 'from' to 'to', rounding partial
// days up. The ceiling matches the stored ledgers this engine reads: it
// biases in the lender's favor and must not be changed to floor or round.
// A span that hasn't started yet yields a negative count; callers clamp.
func ElapsedDays(from, to time.Time) int64 {
	diff := to.Sub(from)
	return int64(math.Ceil(diff.Hours() / 24))
}

// Accrued computes the interest earned on principal over the given number
// of days. Non-positive day counts accrue nothing.
//
// SIMPLE:   principal * dailyRate * days
// COMPOUND: principal * ((1+dailyRate)^days - 1), compounding daily
func Accrued(principal, rate decimal.Decimal, interval models.RateInterval, typ models.InterestType, days int64) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	daily := DailyRate(rate, interval)
	if typ == models.InterestCompound {
		factor := one.Add(daily).Pow(decimal.NewFromInt(days))
		return principal.Mul(factor.Sub(one))
	}
	return principal.Mul(daily).Mul(decimal.NewFromInt(days))
}

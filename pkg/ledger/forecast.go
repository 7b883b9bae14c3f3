package ledger

import (
	"time"

	"github.com/Dhanushj213/LendFlow/pkg/interest"
	"github.com/Dhanushj213/LendFlow/pkg/models"
	"github.com/shopspring/decimal"
)

// Forecast is the projected position of a loan at a target date.
type Forecast struct {
	Days     int64           `json:"days"`
	Interest decimal.Decimal `json:"interest"`
	Total    decimal.Decimal `json:"total"`
}

// ForecastLoan computes the interest a loan would carry at targetDate.
// Pure function; nothing is persisted.
//
// A past target recomputes total accrual from the start date from scratch,
// ignoring the recorded accrued figure ("what would it have been"). A
// future target projects additional accrual on top of the recorded figure.
func ForecastLoan(loan *models.Loan, targetDate, now time.Time) Forecast {
	var days int64
	var projected decimal.Decimal

	if targetDate.Before(now) {
		days = interest.ElapsedDays(loan.StartDate, targetDate)
		if days < 0 {
			days = 0
		}
		projected = interest.Accrued(loan.CurrentPrincipal, loan.InterestRate,
			loan.RateInterval, loan.InterestType, days)
	} else {
		days = interest.ElapsedDays(now, targetDate)
		if days < 0 {
			days = 0
		}
		future := interest.Accrued(loan.CurrentPrincipal, loan.InterestRate,
			loan.RateInterval, loan.InterestType, days)
		projected = loan.AccruedInterest.Add(future)
	}

	return Forecast{
		Days:     days,
		Interest: projected,
		Total:    loan.CurrentPrincipal.Add(projected),
	}
}

// Quote is a stateless interest calculation over a date span, backing the
// calculator screen. Rates arrive as percentages there, so the caller is
// expected to divide by 100 first. A span that ends before it starts
// yields zero interest.
func Quote(principal, rate decimal.Decimal, interval models.RateInterval,
	typ models.InterestType, startDate, endDate time.Time) Forecast {

	days := interest.ElapsedDays(startDate, endDate)
	if days < 0 {
		return Forecast{Days: 0, Interest: decimal.Zero, Total: principal}
	}
	accrued := interest.Accrued(principal, rate, interval, typ, days)
	return Forecast{
		Days:     days,
		Interest: accrued,
		Total:    principal.Add(accrued),
	}
}

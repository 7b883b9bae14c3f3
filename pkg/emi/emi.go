// Package emi reconstructs amortization state for fixed-installment loans.
// An EMI record stores only the installment, nominal annual rate and tenure;
// the original principal and the month-by-month interest/principal split are
// derived, never stored.
package emi

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Amortization is the reconstructed position of an EMI loan.
type Amortization struct {
	OriginalPrincipal decimal.Decimal `json:"original_principal"`
	CurrentPrincipal  decimal.Decimal `json:"current_principal"`
	TotalInterestPaid decimal.Decimal `json:"total_interest_paid"`
	ProgressPct       decimal.Decimal `json:"progress_pct"`
}

// monthlyRate converts a nominal annual percentage (e.g. 10.5) into a
// monthly fraction.
func monthlyRate(annualRatePct decimal.Decimal) decimal.Decimal {
	return annualRatePct.Div(twelve).Div(hundred)
}

// Installment computes the fixed monthly payment for a principal amortized
// over the given tenure, rounded to the nearest whole unit the way the
// product has always displayed it. A zero rate divides evenly.
//
//	EMI = P * R * (1+R)^N / ((1+R)^N - 1)
func Installment(principal, annualRatePct decimal.Decimal, months int) (decimal.Decimal, error) {
	if months <= 0 {
		return decimal.Zero, fmt.Errorf("tenure must be positive, got %d", months)
	}
	r := monthlyRate(annualRatePct)
	n := decimal.NewFromInt(int64(months))
	if r.IsZero() {
		return principal.Div(n).Round(0), nil
	}
	factor := one.Add(r).Pow(n)
	emi := principal.Mul(r).Mul(factor).Div(factor.Sub(one))
	return emi.Round(0), nil
}

// Reconstruct derives original principal and the running balance after
// monthsPaid installments, using the annuity inverse:
//
//	P = EMI * ((1+r)^n - 1) / (r * (1+r)^n)
//
// then replays each paid month's interest/principal split against the
// balance. With a zero rate the original principal is simply EMI * n.
func Reconstruct(installment, annualRatePct decimal.Decimal, totalMonths, monthsPaid int) (Amortization, error) {
	if totalMonths <= 0 {
		return Amortization{}, fmt.Errorf("tenure must be positive, got %d", totalMonths)
	}
	if monthsPaid < 0 || monthsPaid > totalMonths {
		return Amortization{}, fmt.Errorf("months paid %d out of range [0, %d]", monthsPaid, totalMonths)
	}

	r := monthlyRate(annualRatePct)
	n := decimal.NewFromInt(int64(totalMonths))

	var original decimal.Decimal
	if r.IsZero() {
		original = installment.Mul(n)
	} else {
		factor := one.Add(r).Pow(n)
		original = installment.Mul(factor.Sub(one)).Div(r.Mul(factor))
	}

	balance := original
	totalInterest := decimal.Zero
	for i := 0; i < monthsPaid; i++ {
		monthInterest := balance.Mul(r)
		principalComponent := installment.Sub(monthInterest)
		balance = balance.Sub(principalComponent)
		totalInterest = totalInterest.Add(monthInterest)
	}
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	progress := decimal.NewFromInt(int64(monthsPaid)).Div(n).Mul(hundred)

	return Amortization{
		OriginalPrincipal: original,
		CurrentPrincipal:  balance,
		TotalInterestPaid: totalInterest,
		ProgressPct:       progress,
	}, nil
}

// Prepayment is the outcome of putting a lump sum against an EMI balance.
// When the lump is too small to shave a whole month off the tenure, it
// instead reduces the final installment, and MonthsSaved is zero.
type Prepayment struct {
	NewPrincipal            decimal.Decimal `json:"new_principal"`
	NewTenureMonths         int             `json:"new_tenure_months"`
	MonthsSaved             int             `json:"months_saved"`
	ReducesFinalInstallment bool            `json:"reduces_final_installment"`
}

// SimulatePrepayment applies an extra lump payment to the current balance
// and re-solves the remaining tenure at the same installment:
//
//	n = -ln(1 - r*P/EMI) / ln(1+r)
//
// The month count is not money, so the logarithms run in float64.
func SimulatePrepayment(installment, annualRatePct, currentPrincipal, extra decimal.Decimal, remainingMonths int) (Prepayment, error) {
	if !extra.IsPositive() {
		return Prepayment{}, fmt.Errorf("prepayment must be positive, got %s", extra)
	}
	if remainingMonths < 0 {
		return Prepayment{}, fmt.Errorf("remaining months must not be negative, got %d", remainingMonths)
	}

	newPrincipal := currentPrincipal.Sub(extra)
	if newPrincipal.IsNegative() {
		newPrincipal = decimal.Zero
	}
	if newPrincipal.IsZero() {
		return Prepayment{
			NewPrincipal:    decimal.Zero,
			NewTenureMonths: 0,
			MonthsSaved:     remainingMonths,
		}, nil
	}

	r := monthlyRate(annualRatePct)
	var n float64
	if r.IsZero() {
		ratio, _ := newPrincipal.Div(installment).Float64()
		n = ratio
	} else {
		rf, _ := r.Float64()
		ratio, _ := newPrincipal.Mul(r).Div(installment).Float64()
		if ratio >= 1 {
			return Prepayment{}, fmt.Errorf("installment %s does not cover monthly interest on %s", installment, newPrincipal)
		}
		n = -math.Log(1-ratio) / math.Log(1+rf)
	}

	newTenure := int(math.Ceil(n))
	monthsSaved := remainingMonths - newTenure
	if monthsSaved < 0 {
		monthsSaved = 0
	}

	return Prepayment{
		NewPrincipal:            newPrincipal,
		NewTenureMonths:         newTenure,
		MonthsSaved:             monthsSaved,
		ReducesFinalInstallment: monthsSaved == 0,
	}, nil
}

package emi

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestInstallment(t *testing.T) {
	// 100000 at 10% over 12 months is a well-known ~8791.59, rounded to 8792.
	got, err := Installment(decimal.NewFromInt(100000), decimal.NewFromInt(10), 12)
	if err != nil {
		t.Fatalf("Failed to compute installment: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(8792)) {
		t.Errorf("Expected installment 8792, got %s", got)
	}
}

func TestInstallmentZeroRate(t *testing.T) {
	got, err := Installment(decimal.NewFromInt(12000), decimal.Zero, 12)
	if err != nil {
		t.Fatalf("Failed to compute installment: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected installment 1000, got %s", got)
	}
}

func TestInstallmentInvalidTenure(t *testing.T) {
	if _, err := Installment(decimal.NewFromInt(1000), decimal.NewFromInt(10), 0); err == nil {
		t.Error("Expected error for zero tenure")
	}
}

func TestReconstructNothingPaid(t *testing.T) {
	a, err := Reconstruct(decimal.NewFromInt(5000), decimal.NewFromInt(10), 24, 0)
	if err != nil {
		t.Fatalf("Failed to reconstruct: %v", err)
	}
	if !a.CurrentPrincipal.Equal(a.OriginalPrincipal) {
		t.Errorf("Expected current == original with nothing paid, got %s vs %s",
			a.CurrentPrincipal, a.OriginalPrincipal)
	}
	if !a.TotalInterestPaid.IsZero() {
		t.Errorf("Expected zero interest paid, got %s", a.TotalInterestPaid)
	}
	if !a.ProgressPct.IsZero() {
		t.Errorf("Expected 0%% progress, got %s", a.ProgressPct)
	}
}

func TestReconstructHalfway(t *testing.T) {
	a, err := Reconstruct(decimal.NewFromInt(5000), decimal.NewFromInt(10), 24, 12)
	if err != nil {
		t.Fatalf("Failed to reconstruct: %v", err)
	}

	if !a.CurrentPrincipal.LessThan(a.OriginalPrincipal) {
		t.Errorf("Expected balance to shrink: %s vs %s", a.CurrentPrincipal, a.OriginalPrincipal)
	}
	if !a.TotalInterestPaid.IsPositive() {
		t.Errorf("Expected positive interest paid, got %s", a.TotalInterestPaid)
	}
	if !a.ProgressPct.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected 50%% progress, got %s", a.ProgressPct)
	}

	// The simulated split must conserve money: everything paid in equals
	// interest plus the principal retired so far.
	paidIn := decimal.NewFromInt(5000 * 12)
	retired := a.OriginalPrincipal.Sub(a.CurrentPrincipal)
	if !paidIn.Sub(a.TotalInterestPaid).Equal(retired) {
		t.Errorf("Simulation does not conserve: paid %s, interest %s, retired %s",
			paidIn, a.TotalInterestPaid, retired)
	}
}

func TestReconstructFullTenureRetiresBalance(t *testing.T) {
	a, err := Reconstruct(decimal.NewFromInt(5000), decimal.NewFromInt(10), 24, 24)
	if err != nil {
		t.Fatalf("Failed to reconstruct: %v", err)
	}
	// The annuity inverse and the forward simulation cancel exactly in
	// decimal arithmetic apart from division precision; the residue is
	// far below a cent.
	if a.CurrentPrincipal.Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		t.Errorf("Expected balance to retire at end of tenure, got %s", a.CurrentPrincipal)
	}
	if !a.ProgressPct.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected 100%% progress, got %s", a.ProgressPct)
	}
}

func TestReconstructZeroRate(t *testing.T) {
	a, err := Reconstruct(decimal.NewFromInt(1000), decimal.Zero, 12, 5)
	if err != nil {
		t.Fatalf("Failed to reconstruct: %v", err)
	}
	if !a.OriginalPrincipal.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("Expected original principal 12000, got %s", a.OriginalPrincipal)
	}
	if !a.CurrentPrincipal.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("Expected current principal 7000, got %s", a.CurrentPrincipal)
	}
	if !a.TotalInterestPaid.IsZero() {
		t.Errorf("Expected zero interest at zero rate, got %s", a.TotalInterestPaid)
	}
}

func TestReconstructValidation(t *testing.T) {
	if _, err := Reconstruct(decimal.NewFromInt(1000), decimal.NewFromInt(10), 0, 0); err == nil {
		t.Error("Expected error for zero tenure")
	}
	if _, err := Reconstruct(decimal.NewFromInt(1000), decimal.NewFromInt(10), 12, 13); err == nil {
		t.Error("Expected error for months paid beyond tenure")
	}
	if _, err := Reconstruct(decimal.NewFromInt(1000), decimal.NewFromInt(10), 12, -1); err == nil {
		t.Error("Expected error for negative months paid")
	}
}

func TestSimulatePrepaymentSavesMonths(t *testing.T) {
	// Halfway through a 24-month loan, a large lump should shorten tenure.
	a, err := Reconstruct(decimal.NewFromInt(5000), decimal.NewFromInt(10), 24, 12)
	if err != nil {
		t.Fatalf("Failed to reconstruct: %v", err)
	}

	p, err := SimulatePrepayment(decimal.NewFromInt(5000), decimal.NewFromInt(10),
		a.CurrentPrincipal, decimal.NewFromInt(20000), 12)
	if err != nil {
		t.Fatalf("Failed to simulate prepayment: %v", err)
	}

	if p.MonthsSaved <= 0 {
		t.Errorf("Expected months saved, got %d", p.MonthsSaved)
	}
	if p.NewTenureMonths >= 12 {
		t.Errorf("Expected shorter tenure than 12, got %d", p.NewTenureMonths)
	}
	if p.ReducesFinalInstallment {
		t.Error("Large lump should shorten tenure, not the final installment")
	}
}

func TestSimulatePrepaymentSmallLumpReducesFinalInstallment(t *testing.T) {
	a, err := Reconstruct(decimal.NewFromInt(5000), decimal.NewFromInt(10), 24, 12)
	if err != nil {
		t.Fatalf("Failed to reconstruct: %v", err)
	}

	// A tiny lump cannot shave a whole month off.
	p, err := SimulatePrepayment(decimal.NewFromInt(5000), decimal.NewFromInt(10),
		a.CurrentPrincipal, decimal.NewFromInt(100), 12)
	if err != nil {
		t.Fatalf("Failed to simulate prepayment: %v", err)
	}

	if p.MonthsSaved != 0 {
		t.Errorf("Expected no whole months saved, got %d", p.MonthsSaved)
	}
	if !p.ReducesFinalInstallment {
		t.Error("Expected the lump to reduce the final installment")
	}
}

func TestSimulatePrepaymentClearsBalance(t *testing.T) {
	p, err := SimulatePrepayment(decimal.NewFromInt(5000), decimal.NewFromInt(10),
		decimal.NewFromInt(30000), decimal.NewFromInt(40000), 7)
	if err != nil {
		t.Fatalf("Failed to simulate prepayment: %v", err)
	}
	if !p.NewPrincipal.IsZero() {
		t.Errorf("Expected zero principal, got %s", p.NewPrincipal)
	}
	if p.MonthsSaved != 7 {
		t.Errorf("Expected all 7 months saved, got %d", p.MonthsSaved)
	}
}

func TestSimulatePrepaymentValidation(t *testing.T) {
	if _, err := SimulatePrepayment(decimal.NewFromInt(5000), decimal.NewFromInt(10),
		decimal.NewFromInt(30000), decimal.Zero, 7); err == nil {
		t.Error("Expected error for zero prepayment")
	}

	// Installment below the monthly interest can never amortize.
	if _, err := SimulatePrepayment(decimal.NewFromInt(10), decimal.NewFromInt(12),
		decimal.NewFromInt(100000), decimal.NewFromInt(50), 120); err == nil {
		t.Error("Expected error when installment does not cover interest")
	}
}

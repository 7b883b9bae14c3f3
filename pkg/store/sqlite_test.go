package store

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Dhanushj213/LendFlow/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T, dbFile string) *SQLiteStore {
	t.Helper()
	os.Remove(dbFile)
	t.Cleanup(func() { os.Remove(dbFile) })

	s, err := NewSQLiteStore(dbFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testLoan(borrowerID uuid.UUID) *models.Loan {
	now := time.Now().UTC()
	return &models.Loan{
		ID:               uuid.New(),
		BorrowerID:       borrowerID,
		Title:            "Bike loan",
		PrincipalAmount:  decimal.NewFromInt(2000),
		CurrentPrincipal: decimal.NewFromInt(2000),
		AccruedInterest:  decimal.Zero,
		InterestRate:     decimal.NewFromFloat(0.05),
		RateInterval:     models.RateAnnually,
		InterestType:     models.InterestSimple,
		Status:           models.StatusActive,
		StartDate:        now,
		LastAccrualDate:  now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestSQLiteStore_CreateAndGetLoan(t *testing.T) {
	s := newTestStore(t, "test_store_loan.db")

	borrower := &models.Borrower{ID: uuid.New(), Name: "Asha", Phone: "555-0101"}
	if err := s.CreateBorrower(borrower); err != nil {
		t.Fatalf("Failed to create borrower: %v", err)
	}

	loan := testLoan(borrower.ID)
	if err := s.CreateLoan(loan); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	fetched, err := s.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get loan: %v", err)
	}

	if fetched.BorrowerID != borrower.ID {
		t.Errorf("Expected borrower %s, got %s", borrower.ID, fetched.BorrowerID)
	}
	if !fetched.PrincipalAmount.Equal(loan.PrincipalAmount) {
		t.Errorf("Expected principal %s, got %s", loan.PrincipalAmount, fetched.PrincipalAmount)
	}
	if fetched.RateInterval != models.RateAnnually || fetched.InterestType != models.InterestSimple {
		t.Errorf("Rate metadata did not round-trip: %s / %s", fetched.RateInterval, fetched.InterestType)
	}
}

func TestSQLiteStore_UpdateLoan(t *testing.T) {
	s := newTestStore(t, "test_store_update.db")

	borrower := &models.Borrower{ID: uuid.New(), Name: "Asha"}
	if err := s.CreateBorrower(borrower); err != nil {
		t.Fatalf("Failed to create borrower: %v", err)
	}
	loan := testLoan(borrower.ID)
	if err := s.CreateLoan(loan); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	loan.CurrentPrincipal = decimal.NewFromInt(1500)
	loan.AccruedInterest = decimal.NewFromFloat(12.5)
	loan.Status = models.StatusClosed
	if err := s.UpdateLoan(loan); err != nil {
		t.Fatalf("Failed to update loan: %v", err)
	}

	fetched, err := s.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get loan: %v", err)
	}
	if !fetched.CurrentPrincipal.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected principal 1500, got %s", fetched.CurrentPrincipal)
	}
	if !fetched.AccruedInterest.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("Expected accrued 12.5, got %s", fetched.AccruedInterest)
	}
	if fetched.Status != models.StatusClosed {
		t.Errorf("Expected CLOSED, got %s", fetched.Status)
	}
}

func TestSQLiteStore_NotFound(t *testing.T) {
	s := newTestStore(t, "test_store_missing.db")

	if _, err := s.GetLoan(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing loan, got %v", err)
	}
	if err := s.UpdateLoan(testLoan(uuid.New())); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound updating missing loan, got %v", err)
	}
	if err := s.DeleteLiability(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting missing liability, got %v", err)
	}
}

func TestSQLiteStore_ActiveLoanFilter(t *testing.T) {
	s := newTestStore(t, "test_store_active.db")

	borrower := &models.Borrower{ID: uuid.New(), Name: "Asha"}
	if err := s.CreateBorrower(borrower); err != nil {
		t.Fatalf("Failed to create borrower: %v", err)
	}

	active := testLoan(borrower.ID)
	closed := testLoan(borrower.ID)
	closed.Status = models.StatusClosed
	for _, loan := range []*models.Loan{active, closed} {
		if err := s.CreateLoan(loan); err != nil {
			t.Fatalf("Failed to create loan: %v", err)
		}
	}

	loans, err := s.GetAllActiveLoans()
	if err != nil {
		t.Fatalf("Failed to get active loans: %v", err)
	}
	if len(loans) != 1 || loans[0].ID != active.ID {
		t.Errorf("Expected only the active loan, got %d rows", len(loans))
	}
}

func TestSQLiteStore_Liabilities(t *testing.T) {
	s := newTestStore(t, "test_store_liab.db")

	now := time.Now().UTC()
	l := &models.Liability{
		ID:              uuid.New(),
		LenderName:      "HDFC",
		PrincipalAmount: decimal.NewFromInt(50000),
		InterestRate:    decimal.NewFromFloat(0.12),
		RateInterval:    models.RateAnnually,
		StartDate:       now,
		Status:          models.StatusActive,
		CreatedAt:       now,
	}
	if err := s.CreateLiability(l); err != nil {
		t.Fatalf("Failed to create liability: %v", err)
	}

	fetched, err := s.GetLiability(l.ID)
	if err != nil {
		t.Fatalf("Failed to get liability: %v", err)
	}
	if fetched.LenderName != "HDFC" || !fetched.PrincipalAmount.Equal(l.PrincipalAmount) {
		t.Errorf("Liability did not round-trip: %+v", fetched)
	}

	// Backdating the start date is how retroactive payments persist.
	l.StartDate = now.Add(-72 * time.Hour)
	if err := s.UpdateLiability(l); err != nil {
		t.Fatalf("Failed to update liability: %v", err)
	}
	fetched, err = s.GetLiability(l.ID)
	if err != nil {
		t.Fatalf("Failed to get liability: %v", err)
	}
	if !fetched.StartDate.Equal(l.StartDate) {
		t.Errorf("Expected start date %v, got %v", l.StartDate, fetched.StartDate)
	}
}

func TestSQLiteStore_RenameLenderGroup(t *testing.T) {
	s := newTestStore(t, "test_store_rename.db")

	now := time.Now().UTC()
	ids := []uuid.UUID{}
	for _, lender := range []string{"HDFC", "HDFC Bank"} {
		l := &models.Liability{
			ID:              uuid.New(),
			LenderName:      lender,
			PrincipalAmount: decimal.NewFromInt(1000),
			InterestRate:    decimal.NewFromFloat(0.1),
			RateInterval:    models.RateAnnually,
			StartDate:       now,
			Status:          models.StatusActive,
			CreatedAt:       now,
		}
		if err := s.CreateLiability(l); err != nil {
			t.Fatalf("Failed to create liability: %v", err)
		}
		ids = append(ids, l.ID)
	}

	if err := s.RenameLenderGroup(ids, "HDFC"); err != nil {
		t.Fatalf("Failed to rename group: %v", err)
	}
	for _, id := range ids {
		l, err := s.GetLiability(id)
		if err != nil {
			t.Fatalf("Failed to get liability: %v", err)
		}
		if l.LenderName != "HDFC" {
			t.Errorf("Expected lender HDFC, got %s", l.LenderName)
		}
	}
}

func TestSQLiteStore_EMIs(t *testing.T) {
	s := newTestStore(t, "test_store_emi.db")

	now := time.Now().UTC()
	e := &models.EMI{
		ID:              uuid.New(),
		Name:            "Phone",
		Lender:          "Bajaj",
		Amount:          decimal.NewFromInt(5000),
		InterestRate:    decimal.NewFromInt(10),
		TenureMonths:    24,
		RemainingMonths: 24,
		StartDate:       now,
		NextDueDate:     now.AddDate(0, 1, 0),
		Status:          models.StatusActive,
		CreatedAt:       now,
	}
	if err := s.CreateEMI(e); err != nil {
		t.Fatalf("Failed to create emi: %v", err)
	}

	e.RemainingMonths = 23
	e.NextDueDate = now.AddDate(0, 2, 0)
	if err := s.UpdateEMI(e); err != nil {
		t.Fatalf("Failed to update emi: %v", err)
	}

	fetched, err := s.GetEMI(e.ID)
	if err != nil {
		t.Fatalf("Failed to get emi: %v", err)
	}
	if fetched.RemainingMonths != 23 {
		t.Errorf("Expected 23 remaining months, got %d", fetched.RemainingMonths)
	}
	if !fetched.Amount.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected installment 5000, got %s", fetched.Amount)
	}

	if err := s.DeleteEMI(e.ID); err != nil {
		t.Fatalf("Failed to delete emi: %v", err)
	}
	if _, err := s.GetEMI(e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteStore_Transactions(t *testing.T) {
	s := newTestStore(t, "test_store_tx.db")

	borrower := &models.Borrower{ID: uuid.New(), Name: "Asha"}
	if err := s.CreateBorrower(borrower); err != nil {
		t.Fatalf("Failed to create borrower: %v", err)
	}
	loan := testLoan(borrower.ID)
	if err := s.CreateLoan(loan); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	tx := &models.Transaction{
		ID:           uuid.New(),
		InstrumentID: loan.ID,
		Amount:       decimal.NewFromInt(500),
		Type:         models.TransactionTypePayment,
		Breakdown: &models.Breakdown{
			Principal:   decimal.NewFromInt(400),
			Interest:    decimal.NewFromInt(100),
			Overpayment: decimal.Zero,
		},
		Timestamp: time.Now().UTC(),
	}
	if err := s.CreateTransaction(tx); err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	// An accrual carries no breakdown.
	accrual := &models.Transaction{
		ID:           uuid.New(),
		InstrumentID: loan.ID,
		Amount:       decimal.NewFromFloat(1.37),
		Type:         models.TransactionTypeAccrual,
		Timestamp:    time.Now().UTC().Add(time.Second),
	}
	if err := s.CreateTransaction(accrual); err != nil {
		t.Fatalf("Failed to create accrual transaction: %v", err)
	}

	txs, err := s.GetTransactionsForInstrument(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(txs))
	}

	if txs[0].Breakdown == nil {
		t.Fatal("Expected breakdown on payment transaction")
	}
	if !txs[0].Breakdown.Interest.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected interest share 100, got %s", txs[0].Breakdown.Interest)
	}
	if txs[1].Breakdown != nil {
		t.Error("Expected no breakdown on accrual transaction")
	}

	// Deleting the loan sweeps its history.
	if err := s.DeleteLoan(loan.ID); err != nil {
		t.Fatalf("Failed to delete loan: %v", err)
	}
	txs, err = s.GetTransactionsForInstrument(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("Expected transactions removed with loan, got %d", len(txs))
	}
}

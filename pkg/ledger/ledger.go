package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dhanushj213/LendFlow/pkg/interest"
	"github.com/Dhanushj213/LendFlow/pkg/models"
	"github.com/Dhanushj213/LendFlow/pkg/observability"
	"github.com/Dhanushj213/LendFlow/pkg/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OverpaymentPolicy decides what happens to the slice of a payment that
// exceeds total due.
type OverpaymentPolicy string

const (
	// OverpaymentDiscard silently drops the excess. This matches the data
	// already in production ledgers and is the default.
	OverpaymentDiscard OverpaymentPolicy = "discard"
	// OverpaymentReject fails the whole payment instead.
	OverpaymentReject OverpaymentPolicy = "reject"
)

// syncConcurrency bounds the fan-out when syncing accrual across loans.
const syncConcurrency = 8

// Ledger handles the business logic for loans, liabilities and transactions.
// Every engine method takes the current time as a parameter; the Ledger
// never reads the system clock itself.
type Ledger struct {
	storage store.Storage
	logger  *zap.Logger
	metrics *observability.Metrics
	policy  OverpaymentPolicy

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage, logger *zap.Logger, metrics *observability.Metrics, policy OverpaymentPolicy) *Ledger {
	if policy == "" {
		policy = OverpaymentDiscard
	}
	return &Ledger{
		storage: s,
		logger:  logger,
		metrics: metrics,
		policy:  policy,
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing operations on one instrument.
// Two concurrent payments against the same instrument must not both read
// the pre-payment balance; operations on different instruments proceed
// in parallel.
func (l *Ledger) lockFor(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// CreateBorrower registers a new borrower.
func (l *Ledger) CreateBorrower(name, phone, email string) (*models.Borrower, error) {
	b := &models.Borrower{
		ID:    uuid.New(),
		Name:  name,
		Phone: phone,
		Email: email,
	}
	if err := l.storage.CreateBorrower(b); err != nil {
		return nil, fmt.Errorf("failed to store borrower: %w", err)
	}
	return b, nil
}

// GetBorrower retrieves a borrower by ID.
func (l *Ledger) GetBorrower(id uuid.UUID) (*models.Borrower, error) {
	return l.storage.GetBorrower(id)
}

// GetAllBorrowers retrieves all borrowers.
func (l *Ledger) GetAllBorrowers() ([]*models.Borrower, error) {
	return l.storage.GetAllBorrowers()
}

// CreateLoan initializes a new loan for a borrower and records the
// disbursement. The accrual clock starts at the given start date.
func (l *Ledger) CreateLoan(borrowerID uuid.UUID, title string, principal, rate decimal.Decimal,
	interval models.RateInterval, typ models.InterestType, startDate, now time.Time) (*models.Loan, error) {

	if principal.IsNegative() {
		return nil, fmt.Errorf("principal must not be negative")
	}

	loan := &models.Loan{
		ID:               uuid.New(),
		BorrowerID:       borrowerID,
		Title:            title,
		PrincipalAmount:  principal,
		CurrentPrincipal: principal,
		AccruedInterest:  decimal.Zero,
		InterestRate:     rate,
		RateInterval:     interval,
		InterestType:     typ,
		Status:           models.StatusActive,
		StartDate:        startDate,
		LastAccrualDate:  startDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := l.storage.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}

	transaction := models.Transaction{
		ID:           uuid.New(),
		InstrumentID: loan.ID,
		Amount:       principal,
		Type:         models.TransactionTypeDisbursement,
		Timestamp:    now,
	}
	if err := l.storage.CreateTransaction(&transaction); err != nil {
		return nil, fmt.Errorf("failed to store disbursement transaction: %w", err)
	}

	l.logger.Info("loan created",
		zap.String("loan_id", loan.ID.String()),
		zap.String("principal", principal.String()))
	return loan, nil
}

// SyncAccrual brings a loan's accrued interest up to asOf. Closed loans are
// untouched. Calling twice with the same asOf is a no-op the second time,
// since the elapsed day count comes out zero.
//
// This is the only place ACCRUAL transactions are written.
func (l *Ledger) SyncAccrual(loanID uuid.UUID, asOf time.Time) (*models.Loan, error) {
	defer l.observe("sync_accrual", time.Now())

	lock := l.lockFor(loanID)
	lock.Lock()
	defer lock.Unlock()

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}

	if loan.Status == models.StatusClosed {
		return loan, nil
	}
	if loan.CurrentPrincipal.IsNegative() || loan.AccruedInterest.IsNegative() {
		return nil, fmt.Errorf("loan %s: %w", loan.ID, ErrInternalConsistency)
	}

	days := interest.ElapsedDays(loan.LastAccrualDate, asOf)
	if days <= 0 {
		return loan, nil
	}

	delta := interest.Accrued(loan.CurrentPrincipal, loan.InterestRate, loan.RateInterval, loan.InterestType, days)
	loan.AccruedInterest = loan.AccruedInterest.Add(delta)
	loan.LastAccrualDate = asOf
	loan.UpdatedAt = asOf

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan during accrual: %w", err)
	}

	// Zero-rate loans still advance the clock but leave no ledger entry.
	if delta.IsPositive() {
		transaction := models.Transaction{
			ID:           uuid.New(),
			InstrumentID: loan.ID,
			Amount:       delta,
			Type:         models.TransactionTypeAccrual,
			Timestamp:    asOf,
		}
		if err := l.storage.CreateTransaction(&transaction); err != nil {
			return nil, fmt.Errorf("failed to store accrual transaction: %w", err)
		}
		l.metrics.IncrAccrual()
		l.logger.Debug("interest accrued",
			zap.String("loan_id", loan.ID.String()),
			zap.Int64("days", days),
			zap.String("delta", delta.String()))
	}

	return loan, nil
}

// SyncAllAccruals syncs accrual for every active loan, fanning out across
// instruments. Per-instrument serialization still holds inside SyncAccrual,
// so a concurrent payment cannot interleave with its loan's sync.
func (l *Ledger) SyncAllAccruals(ctx context.Context, asOf time.Time) error {
	loans, err := l.storage.GetAllActiveLoans()
	if err != nil {
		return fmt.Errorf("failed to list active loans: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)
	for _, loan := range loans {
		id := loan.ID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := l.SyncAccrual(id, asOf); err != nil {
				return fmt.Errorf("sync loan %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ApplyPayment applies a payment against a loan, interest first. The
// returned transaction carries the principal/interest breakdown. A payment
// settling the full balance closes the loan.
func (l *Ledger) ApplyPayment(loanID uuid.UUID, amount decimal.Decimal, now time.Time) (*models.Loan, *models.Transaction, error) {
	defer l.observe("apply_payment", time.Now())

	lock := l.lockFor(loanID)
	lock.Lock()
	defer lock.Unlock()

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, nil, err
	}

	if !amount.IsPositive() {
		l.metrics.IncrPayment("rejected")
		return nil, nil, fmt.Errorf("amount must be positive: %w", ErrInvalidPayment)
	}
	if loan.Status != models.StatusActive {
		l.metrics.IncrPayment("rejected")
		return nil, nil, fmt.Errorf("loan is not active: %w", ErrInvalidPayment)
	}
	if loan.CurrentPrincipal.IsNegative() || loan.AccruedInterest.IsNegative() {
		return nil, nil, fmt.Errorf("loan %s: %w", loan.ID, ErrInternalConsistency)
	}

	interestPortion := decimal.Min(amount, loan.AccruedInterest)
	principalPortion := decimal.Min(amount.Sub(interestPortion), loan.CurrentPrincipal)
	overpayment := amount.Sub(interestPortion).Sub(principalPortion)

	if overpayment.IsPositive() && l.policy == OverpaymentReject {
		l.metrics.IncrPayment("rejected")
		return nil, nil, fmt.Errorf("amount exceeds total due by %s: %w", overpayment, ErrInvalidPayment)
	}

	loan.AccruedInterest = loan.AccruedInterest.Sub(interestPortion)
	loan.CurrentPrincipal = loan.CurrentPrincipal.Sub(principalPortion)
	loan.UpdatedAt = now

	outcome := "applied"
	if loan.CurrentPrincipal.IsZero() && loan.AccruedInterest.IsZero() {
		loan.Status = models.StatusClosed
		outcome = "closed"
	}

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, nil, fmt.Errorf("failed to update loan balance: %w", err)
	}

	transaction := &models.Transaction{
		ID:           uuid.New(),
		InstrumentID: loan.ID,
		Amount:       amount,
		Type:         models.TransactionTypePayment,
		Breakdown: &models.Breakdown{
			Principal:   principalPortion,
			Interest:    interestPortion,
			Overpayment: overpayment,
		},
		Timestamp: now,
	}
	if err := l.storage.CreateTransaction(transaction); err != nil {
		return nil, nil, fmt.Errorf("failed to store payment transaction: %w", err)
	}

	l.metrics.IncrPayment(outcome)
	l.logger.Info("payment applied",
		zap.String("loan_id", loan.ID.String()),
		zap.String("amount", amount.String()),
		zap.String("interest_portion", interestPortion.String()),
		zap.String("principal_portion", principalPortion.String()),
		zap.String("status", string(loan.Status)))

	return loan, transaction, nil
}

// CloseLoan closes a loan regardless of balance. Balances are frozen; no
// further accrual or payments apply until reopened.
func (l *Ledger) CloseLoan(loanID uuid.UUID, now time.Time) (*models.Loan, error) {
	return l.setStatus(loanID, models.StatusClosed, now)
}

// ReopenLoan returns a closed loan to ACTIVE without resetting balances.
// The accrual clock restarts from now so the closed period accrues nothing.
func (l *Ledger) ReopenLoan(loanID uuid.UUID, now time.Time) (*models.Loan, error) {
	lock := l.lockFor(loanID)
	lock.Lock()
	defer lock.Unlock()

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == models.StatusActive {
		return loan, nil
	}
	loan.Status = models.StatusActive
	loan.LastAccrualDate = now
	loan.UpdatedAt = now
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to reopen loan: %w", err)
	}
	l.logger.Info("loan reopened", zap.String("loan_id", loan.ID.String()))
	return loan, nil
}

func (l *Ledger) setStatus(loanID uuid.UUID, status models.Status, now time.Time) (*models.Loan, error) {
	lock := l.lockFor(loanID)
	lock.Lock()
	defer lock.Unlock()

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == status {
		return loan, nil
	}
	loan.Status = status
	loan.UpdatedAt = now
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan status: %w", err)
	}
	l.logger.Info("loan status changed",
		zap.String("loan_id", loan.ID.String()),
		zap.String("status", string(status)))
	return loan, nil
}

// RenameLoan updates a loan's title. Balances and terms only change
// through accrual and payments, so this is the only direct edit allowed.
func (l *Ledger) RenameLoan(loanID uuid.UUID, title string, now time.Time) (*models.Loan, error) {
	lock := l.lockFor(loanID)
	lock.Lock()
	defer lock.Unlock()

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	loan.Title = title
	loan.UpdatedAt = now
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to rename loan: %w", err)
	}
	return loan, nil
}

// GetLoan retrieves a loan by its ID.
func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	return l.storage.GetLoan(id)
}

// GetAllLoans retrieves all loans.
func (l *Ledger) GetAllLoans() ([]*models.Loan, error) {
	return l.storage.GetAllLoans()
}

// GetLoansForBorrower retrieves a borrower's loans.
func (l *Ledger) GetLoansForBorrower(borrowerID uuid.UUID) ([]*models.Loan, error) {
	return l.storage.GetLoansForBorrower(borrowerID)
}

// DeleteLoan deletes a loan and its history.
func (l *Ledger) DeleteLoan(id uuid.UUID) error {
	lock := l.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return l.storage.DeleteLoan(id)
}

// GetTransactions retrieves the ledger history for an instrument.
func (l *Ledger) GetTransactions(instrumentID uuid.UUID) ([]*models.Transaction, error) {
	return l.storage.GetTransactionsForInstrument(instrumentID)
}

// PortfolioSummary aggregates the active book for the dashboard.
type PortfolioSummary struct {
	TotalPrincipal decimal.Decimal `json:"total_principal"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	ActiveLoans    int             `json:"active_loans"`
	ClosedLoans    int             `json:"closed_loans"`
}

// Summarize computes portfolio totals over the given loans. Only ACTIVE
// loans contribute balances; closed loans only count.
func Summarize(loans []*models.Loan) PortfolioSummary {
	s := PortfolioSummary{
		TotalPrincipal: decimal.Zero,
		TotalInterest:  decimal.Zero,
	}
	for _, loan := range loans {
		if loan.Status == models.StatusActive {
			s.ActiveLoans++
			s.TotalPrincipal = s.TotalPrincipal.Add(loan.CurrentPrincipal)
			s.TotalInterest = s.TotalInterest.Add(loan.AccruedInterest)
		} else {
			s.ClosedLoans++
		}
	}
	return s
}

func (l *Ledger) observe(op string, start time.Time) {
	l.metrics.RecordRequestDuration(op, time.Since(start))
}

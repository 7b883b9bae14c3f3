package ledger

import (
	"fmt"
	"time"

	"github.com/Dhanushj213/LendFlow/pkg/emi"
	"github.com/Dhanushj213/LendFlow/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateEMI registers a fixed-installment loan. When installment is zero the
// amount is derived from principal, rate and tenure; passing it explicitly
// covers the case where the lender's quoted figure does not match the
// formula. The first due date lands one month after the start date.
func (l *Ledger) CreateEMI(name, lender string, installment, principal, annualRatePct decimal.Decimal,
	tenureMonths int, startDate, now time.Time) (*models.EMI, error) {

	if tenureMonths <= 0 {
		return nil, fmt.Errorf("tenure must be positive, got %d", tenureMonths)
	}
	if installment.IsZero() {
		derived, err := emi.Installment(principal, annualRatePct, tenureMonths)
		if err != nil {
			return nil, fmt.Errorf("failed to derive installment: %w", err)
		}
		installment = derived
	}
	if !installment.IsPositive() {
		return nil, fmt.Errorf("installment must be positive, got %s", installment)
	}

	record := &models.EMI{
		ID:              uuid.New(),
		Name:            name,
		Lender:          lender,
		Amount:          installment,
		InterestRate:    annualRatePct,
		TenureMonths:    tenureMonths,
		RemainingMonths: tenureMonths,
		StartDate:       startDate,
		NextDueDate:     startDate.AddDate(0, 1, 0),
		Status:          models.StatusActive,
		CreatedAt:       now,
	}
	if err := l.storage.CreateEMI(record); err != nil {
		return nil, fmt.Errorf("failed to store emi: %w", err)
	}

	l.logger.Info("emi created",
		zap.String("emi_id", record.ID.String()),
		zap.String("installment", installment.String()),
		zap.Int("tenure_months", tenureMonths))
	return record, nil
}

// RecordInstallment marks one installment as paid: the remaining month count
// drops, the due date advances a month, and a PAYMENT transaction records
// the installment amount. Paying the last installment closes the record.
func (l *Ledger) RecordInstallment(emiID uuid.UUID, now time.Time) (*models.EMI, error) {
	defer l.observe("emi_installment", time.Now())

	lock := l.lockFor(emiID)
	lock.Lock()
	defer lock.Unlock()

	record, err := l.storage.GetEMI(emiID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.StatusActive {
		return nil, fmt.Errorf("emi is not active: %w", ErrInvalidPayment)
	}
	if record.RemainingMonths <= 0 {
		return nil, fmt.Errorf("no installments remain: %w", ErrInvalidPayment)
	}

	record.RemainingMonths--
	record.NextDueDate = record.NextDueDate.AddDate(0, 1, 0)
	if record.RemainingMonths == 0 {
		record.Status = models.StatusClosed
	}

	if err := l.storage.UpdateEMI(record); err != nil {
		return nil, fmt.Errorf("failed to update emi: %w", err)
	}

	transaction := &models.Transaction{
		ID:           uuid.New(),
		InstrumentID: record.ID,
		Amount:       record.Amount,
		Type:         models.TransactionTypePayment,
		Timestamp:    now,
	}
	if err := l.storage.CreateTransaction(transaction); err != nil {
		return nil, fmt.Errorf("failed to store installment transaction: %w", err)
	}

	l.logger.Info("emi installment recorded",
		zap.String("emi_id", record.ID.String()),
		zap.Int("remaining_months", record.RemainingMonths),
		zap.String("status", string(record.Status)))
	return record, nil
}

// AmortizationFor reconstructs an EMI's derived position from its stored
// terms and payment progress.
func (l *Ledger) AmortizationFor(emiID uuid.UUID) (*models.EMI, emi.Amortization, error) {
	record, err := l.storage.GetEMI(emiID)
	if err != nil {
		return nil, emi.Amortization{}, err
	}
	a, err := emi.Reconstruct(record.Amount, record.InterestRate, record.TenureMonths, record.MonthsPaid())
	if err != nil {
		return nil, emi.Amortization{}, fmt.Errorf("failed to reconstruct amortization: %w", err)
	}
	return record, a, nil
}

// SimulateEMIPrepayment answers "what if I put extra down now" without
// touching the record.
func (l *Ledger) SimulateEMIPrepayment(emiID uuid.UUID, extra decimal.Decimal) (emi.Prepayment, error) {
	record, err := l.storage.GetEMI(emiID)
	if err != nil {
		return emi.Prepayment{}, err
	}
	a, err := emi.Reconstruct(record.Amount, record.InterestRate, record.TenureMonths, record.MonthsPaid())
	if err != nil {
		return emi.Prepayment{}, fmt.Errorf("failed to reconstruct amortization: %w", err)
	}
	return emi.SimulatePrepayment(record.Amount, record.InterestRate, a.CurrentPrincipal, extra, record.RemainingMonths)
}

// GetEMI retrieves an EMI record by ID.
func (l *Ledger) GetEMI(id uuid.UUID) (*models.EMI, error) {
	return l.storage.GetEMI(id)
}

// GetAllEMIs retrieves all EMI records.
func (l *Ledger) GetAllEMIs() ([]*models.EMI, error) {
	return l.storage.GetAllEMIs()
}

// UpdateEMI rewrites an EMI's terms (user edit).
func (l *Ledger) UpdateEMI(record *models.EMI) error {
	lock := l.lockFor(record.ID)
	lock.Lock()
	defer lock.Unlock()
	return l.storage.UpdateEMI(record)
}

// DeleteEMI removes an EMI record.
func (l *Ledger) DeleteEMI(id uuid.UUID) error {
	lock := l.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return l.storage.DeleteEMI(id)
}

package ledger

import (
	"fmt"
	"time"

	"github.com/Dhanushj213/LendFlow/pkg/interest"
	"github.com/Dhanushj213/LendFlow/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Liabilities use the implicit accrual model: the record stores no interest
// figure, so "unpaid interest" is always derived from the start date, and a
// partial payment is encoded by moving that date. Only simple interest is
// invertible this way, which is why the model forces SIMPLE.

var nanosPerDay = decimal.NewFromInt(int64(24 * time.Hour))

// CreateLiability records money borrowed from a lender.
func (l *Ledger) CreateLiability(lenderName string, principal, rate decimal.Decimal,
	interval models.RateInterval, startDate, now time.Time) (*models.Liability, error) {

	if principal.IsNegative() {
		return nil, fmt.Errorf("principal must not be negative")
	}

	liability := &models.Liability{
		ID:              uuid.New(),
		LenderName:      lenderName,
		PrincipalAmount: principal,
		InterestRate:    rate,
		RateInterval:    interval,
		StartDate:       startDate,
		Status:          models.StatusActive,
		CreatedAt:       now,
	}
	if err := l.storage.CreateLiability(liability); err != nil {
		return nil, fmt.Errorf("failed to store liability: %w", err)
	}
	return liability, nil
}

// DerivedInterest computes a liability's unpaid interest as of now. This is
// the read-side of the implicit model; nothing is persisted.
func DerivedInterest(liability *models.Liability, now time.Time) decimal.Decimal {
	days := interest.ElapsedDays(liability.StartDate, now)
	return interest.Accrued(liability.PrincipalAmount, liability.InterestRate,
		liability.RateInterval, models.InterestSimple, days)
}

// LiabilityView is a liability with its derived figures attached, matching
// what list screens need.
type LiabilityView struct {
	models.Liability
	AccruedInterest decimal.Decimal `json:"accrued_interest"`
	TotalDue        decimal.Decimal `json:"total_due"`
	DaysElapsed     int64           `json:"days_elapsed"`
}

// ViewLiability attaches derived interest, total due and elapsed days.
func ViewLiability(liability *models.Liability, now time.Time) LiabilityView {
	days := interest.ElapsedDays(liability.StartDate, now)
	if days < 0 {
		days = 0
	}
	accrued := DerivedInterest(liability, now)
	return LiabilityView{
		Liability:       *liability,
		AccruedInterest: accrued,
		TotalDue:        liability.PrincipalAmount.Add(accrued),
		DaysElapsed:     days,
	}
}

// ApplyPartialPayment settles part of a liability. Interest is paid first.
//
// If the amount covers all derived interest, the excess reduces principal
// and the start date resets to now. Otherwise principal is untouched and
// the start date is backdated so that re-deriving interest at now yields
// exactly the unpaid remainder:
//
//	d = remaining / (principal * dailyRate)
//	start_date = now - d days
//
// The backdate is applied at nanosecond resolution, not rounded to whole
// days. A REPAYMENT transaction records the amount for audit.
func (l *Ledger) ApplyPartialPayment(liabilityID uuid.UUID, amount decimal.Decimal, now time.Time) (*models.Liability, error) {
	defer l.observe("liability_payment", time.Now())

	lock := l.lockFor(liabilityID)
	lock.Lock()
	defer lock.Unlock()

	liability, err := l.storage.GetLiability(liabilityID)
	if err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %w", ErrInvalidPayment)
	}
	if liability.Status != models.StatusActive {
		return nil, fmt.Errorf("liability is not active: %w", ErrInvalidPayment)
	}
	if liability.PrincipalAmount.IsNegative() {
		return nil, fmt.Errorf("liability %s: %w", liability.ID, ErrInternalConsistency)
	}

	currentAccrued := DerivedInterest(liability, now)

	var resolution string
	if amount.GreaterThanOrEqual(currentAccrued) {
		// Payment clears all interest; the remainder reduces principal and
		// the accrual clock restarts.
		principalPortion := amount.Sub(currentAccrued)
		liability.PrincipalAmount = liability.PrincipalAmount.Sub(principalPortion)
		if liability.PrincipalAmount.IsNegative() {
			liability.PrincipalAmount = decimal.Zero
		}
		liability.StartDate = now
		if liability.PrincipalAmount.IsZero() {
			liability.Status = models.StatusClosed
		}
		resolution = "cleared"
	} else {
		daily := interest.DailyRate(liability.InterestRate, liability.RateInterval)
		if daily.IsZero() || liability.PrincipalAmount.IsZero() {
			// Cannot encode "interest partly paid" via the start date when
			// nothing accrues. Leave the record untouched and surface it.
			l.metrics.IncrAdjustment("undefined")
			return nil, fmt.Errorf("liability %s: %w", liability.ID, ErrUndefinedInversion)
		}
		remaining := currentAccrued.Sub(amount)
		days := remaining.Div(liability.PrincipalAmount.Mul(daily))
		offset := time.Duration(days.Mul(nanosPerDay).IntPart())
		liability.StartDate = now.Add(-offset)
		resolution = "backdated"
	}

	if err := l.storage.UpdateLiability(liability); err != nil {
		return nil, fmt.Errorf("failed to update liability: %w", err)
	}

	transaction := &models.Transaction{
		ID:           uuid.New(),
		InstrumentID: liability.ID,
		Amount:       amount,
		Type:         models.TransactionTypeRepayment,
		Timestamp:    now,
	}
	if err := l.storage.CreateTransaction(transaction); err != nil {
		return nil, fmt.Errorf("failed to store repayment transaction: %w", err)
	}

	l.metrics.IncrAdjustment(resolution)
	l.logger.Info("liability payment applied",
		zap.String("liability_id", liability.ID.String()),
		zap.String("amount", amount.String()),
		zap.String("resolution", resolution))

	return liability, nil
}

// GetLiability retrieves a liability by ID.
func (l *Ledger) GetLiability(id uuid.UUID) (*models.Liability, error) {
	return l.storage.GetLiability(id)
}

// GetAllLiabilities retrieves all liabilities.
func (l *Ledger) GetAllLiabilities() ([]*models.Liability, error) {
	return l.storage.GetAllLiabilities()
}

// UpdateLiability rewrites a liability's terms (user edit).
func (l *Ledger) UpdateLiability(liability *models.Liability) error {
	lock := l.lockFor(liability.ID)
	lock.Lock()
	defer lock.Unlock()
	return l.storage.UpdateLiability(liability)
}

// DeleteLiability removes a liability and its audit history.
func (l *Ledger) DeleteLiability(id uuid.UUID) error {
	lock := l.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return l.storage.DeleteLiability(id)
}

// MergeLenderGroup renames the given liabilities under one lender name.
func (l *Ledger) MergeLenderGroup(ids []uuid.UUID, newName string) error {
	if newName == "" {
		return fmt.Errorf("group name must not be empty")
	}
	if err := l.storage.RenameLenderGroup(ids, newName); err != nil {
		return err
	}
	l.logger.Info("lender group merged",
		zap.Int("count", len(ids)),
		zap.String("name", newName))
	return nil
}

// LenderGroup aggregates a lender's liabilities for the grouped view.
type LenderGroup struct {
	Name      string          `json:"name"`
	Count     int             `json:"count"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Items     []LiabilityView `json:"items"`
}

// GroupByLender buckets liabilities by lender name, preserving first-seen
// order, with derived interest per item.
func GroupByLender(liabilities []*models.Liability, now time.Time) []LenderGroup {
	index := make(map[string]int)
	var groups []LenderGroup
	for _, liability := range liabilities {
		i, ok := index[liability.LenderName]
		if !ok {
			i = len(groups)
			index[liability.LenderName] = i
			groups = append(groups, LenderGroup{
				Name:      liability.LenderName,
				Principal: decimal.Zero,
				Interest:  decimal.Zero,
			})
		}
		view := ViewLiability(liability, now)
		groups[i].Count++
		groups[i].Principal = groups[i].Principal.Add(liability.PrincipalAmount)
		groups[i].Interest = groups[i].Interest.Add(view.AccruedInterest)
		groups[i].Items = append(groups[i].Items, view)
	}
	return groups
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateInterval is the period an interest rate is quoted against.
type RateInterval string

const (
	RateAnnually RateInterval = "ANNUALLY"
	RateMonthly  RateInterval = "MONTHLY"
	RateDaily    RateInterval = "DAILY"
)

// InterestType selects the compounding policy; both apply at day granularity.
type InterestType string

const (
	InterestSimple   InterestType = "SIMPLE"
	InterestCompound InterestType = "COMPOUND"
)

// Status is the lifecycle state of an instrument.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
)

// Borrower is a person money was lent to.
type Borrower struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone,omitempty"`
	Email string    `json:"email,omitempty"`
}

// Loan is a lent amount with an explicit accrual model: accrued interest is
// stored on the record and every accrual or payment leaves a transaction.
type Loan struct {
	ID               uuid.UUID       `json:"id"`
	BorrowerID       uuid.UUID       `json:"borrower_id"`
	Title            string          `json:"title,omitempty"`
	PrincipalAmount  decimal.Decimal `json:"principal_amount"` // original principal, immutable once set
	CurrentPrincipal decimal.Decimal `json:"current_principal"`
	AccruedInterest  decimal.Decimal `json:"accrued_interest"`
	InterestRate     decimal.Decimal `json:"interest_rate"` // fraction per RateInterval, e.g. 0.12
	RateInterval     RateInterval    `json:"rate_interval"`
	InterestType     InterestType    `json:"interest_type"`
	Status           Status          `json:"status"`
	StartDate        time.Time       `json:"start_date"`
	LastAccrualDate  time.Time       `json:"last_accrual_date"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TotalDue is the payoff amount as of the last accrual sync.
func (l *Loan) TotalDue() decimal.Decimal {
	return l.CurrentPrincipal.Add(l.AccruedInterest)
}

// Liability is money borrowed from a lender, tracked with the implicit
// accrual model: unpaid interest is derived on read from StartDate, and a
// partial payment shifts StartDate instead of updating a stored figure.
// Only simple interest is supported for this instrument class.
type Liability struct {
	ID              uuid.UUID       `json:"id"`
	LenderName      string          `json:"lender_name"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	RateInterval    RateInterval    `json:"rate_interval"`
	StartDate       time.Time       `json:"start_date"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// EMI is a fixed-installment loan identified by its installment amount,
// nominal annual rate and tenure rather than by a stored running balance.
type EMI struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Lender          string          `json:"lender"`
	Amount          decimal.Decimal `json:"amount"`        // monthly installment
	InterestRate    decimal.Decimal `json:"interest_rate"` // nominal annual percent, e.g. 10.5
	TenureMonths    int             `json:"tenure_months"`
	RemainingMonths int             `json:"remaining_months"`
	StartDate       time.Time       `json:"start_date"`
	NextDueDate     time.Time       `json:"next_due_date"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// MonthsPaid derives how many installments have been settled so far.
func (e *EMI) MonthsPaid() int {
	paid := e.TenureMonths - e.RemainingMonths
	if paid < 0 {
		return 0
	}
	return paid
}

type TransactionType string

const (
	TransactionTypeDisbursement TransactionType = "DISBURSEMENT"
	TransactionTypePayment      TransactionType = "PAYMENT"
	TransactionTypeAccrual      TransactionType = "ACCRUAL"
	TransactionTypeRepayment    TransactionType = "REPAYMENT" // liability audit entries
)

// Breakdown records how a payment was split. Overpayment is the slice of the
// amount beyond total due; no balance absorbs it under the discard policy,
// but the figure is kept on the transaction for audit.
type Breakdown struct {
	Principal   decimal.Decimal `json:"principal"`
	Interest    decimal.Decimal `json:"interest"`
	Overpayment decimal.Decimal `json:"overpayment"`
}

// Transaction is an immutable ledger entry against an instrument.
// Never updated or deleted once written.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	InstrumentID uuid.UUID       `json:"instrument_id"`
	Amount       decimal.Decimal `json:"amount"`
	Type         TransactionType `json:"type"`
	Breakdown    *Breakdown      `json:"breakdown,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

package store

import (
	"errors"

	"github.com/Dhanushj213/LendFlow/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage defines the persistence contract for the lending ledger.
// Transactions are insert-only: there is deliberately no update or delete.
type Storage interface {
	CreateBorrower(b *models.Borrower) error
	GetBorrower(id uuid.UUID) (*models.Borrower, error)
	GetAllBorrowers() ([]*models.Borrower, error)

	CreateLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	UpdateLoan(loan *models.Loan) error
	DeleteLoan(id uuid.UUID) error
	GetAllLoans() ([]*models.Loan, error)
	GetAllActiveLoans() ([]*models.Loan, error)
	GetLoansForBorrower(borrowerID uuid.UUID) ([]*models.Loan, error)

	CreateLiability(l *models.Liability) error
	GetLiability(id uuid.UUID) (*models.Liability, error)
	UpdateLiability(l *models.Liability) error
	DeleteLiability(id uuid.UUID) error
	GetAllLiabilities() ([]*models.Liability, error)
	RenameLenderGroup(ids []uuid.UUID, newName string) error

	CreateEMI(e *models.EMI) error
	GetEMI(id uuid.UUID) (*models.EMI, error)
	UpdateEMI(e *models.EMI) error
	DeleteEMI(id uuid.UUID) error
	GetAllEMIs() ([]*models.EMI, error)

	CreateTransaction(tx *models.Transaction) error
	GetTransactionsForInstrument(instrumentID uuid.UUID) ([]*models.Transaction, error)

	Close() error
}

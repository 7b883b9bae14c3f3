package ledger

import (
	"github.com/Dhanushj213/LendFlow/pkg/models"
	"github.com/Dhanushj213/LendFlow/pkg/store"
	"github.com/google/uuid"
)

// MockStore is a simple in-memory implementation of the Storage interface
// for testing.
type MockStore struct {
	borrowers    map[uuid.UUID]*models.Borrower
	loans        map[uuid.UUID]*models.Loan
	liabilities  map[uuid.UUID]*models.Liability
	emis         map[uuid.UUID]*models.EMI
	transactions []*models.Transaction
}

func NewMockStore() *MockStore {
	return &MockStore{
		borrowers:    make(map[uuid.UUID]*models.Borrower),
		loans:        make(map[uuid.UUID]*models.Loan),
		liabilities:  make(map[uuid.UUID]*models.Liability),
		emis:         make(map[uuid.UUID]*models.EMI),
		transactions: []*models.Transaction{},
	}
}

func (m *MockStore) CreateBorrower(b *models.Borrower) error {
	m.borrowers[b.ID] = b
	return nil
}

func (m *MockStore) GetBorrower(id uuid.UUID) (*models.Borrower, error) {
	b, ok := m.borrowers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b, nil
}

func (m *MockStore) GetAllBorrowers() ([]*models.Borrower, error) {
	borrowers := []*models.Borrower{}
	for _, b := range m.borrowers {
		borrowers = append(borrowers, b)
	}
	return borrowers, nil
}

func (m *MockStore) CreateLoan(loan *models.Loan) error {
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *loan
	return &copied, nil
}

func (m *MockStore) UpdateLoan(loan *models.Loan) error {
	copied := *loan
	m.loans[loan.ID] = &copied
	return nil
}

func (m *MockStore) DeleteLoan(id uuid.UUID) error {
	delete(m.loans, id)
	return nil
}

func (m *MockStore) GetAllLoans() ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for _, l := range m.loans {
		loans = append(loans, l)
	}
	return loans, nil
}

func (m *MockStore) GetAllActiveLoans() ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for _, l := range m.loans {
		if l.Status == models.StatusActive {
			loans = append(loans, l)
		}
	}
	return loans, nil
}

func (m *MockStore) GetLoansForBorrower(borrowerID uuid.UUID) ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for _, l := range m.loans {
		if l.BorrowerID == borrowerID {
			loans = append(loans, l)
		}
	}
	return loans, nil
}

func (m *MockStore) CreateLiability(l *models.Liability) error {
	m.liabilities[l.ID] = l
	return nil
}

func (m *MockStore) GetLiability(id uuid.UUID) (*models.Liability, error) {
	l, ok := m.liabilities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (m *MockStore) UpdateLiability(l *models.Liability) error {
	copied := *l
	m.liabilities[l.ID] = &copied
	return nil
}

func (m *MockStore) DeleteLiability(id uuid.UUID) error {
	delete(m.liabilities, id)
	return nil
}

func (m *MockStore) GetAllLiabilities() ([]*models.Liability, error) {
	liabilities := []*models.Liability{}
	for _, l := range m.liabilities {
		liabilities = append(liabilities, l)
	}
	return liabilities, nil
}

func (m *MockStore) RenameLenderGroup(ids []uuid.UUID, newName string) error {
	for _, id := range ids {
		if l, ok := m.liabilities[id]; ok {
			l.LenderName = newName
		}
	}
	return nil
}

func (m *MockStore) CreateEMI(e *models.EMI) error {
	m.emis[e.ID] = e
	return nil
}

func (m *MockStore) GetEMI(id uuid.UUID) (*models.EMI, error) {
	e, ok := m.emis[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return e, nil
}

func (m *MockStore) UpdateEMI(e *models.EMI) error {
	m.emis[e.ID] = e
	return nil
}

func (m *MockStore) DeleteEMI(id uuid.UUID) error {
	delete(m.emis, id)
	return nil
}

func (m *MockStore) GetAllEMIs() ([]*models.EMI, error) {
	emis := []*models.EMI{}
	for _, e := range m.emis {
		emis = append(emis, e)
	}
	return emis, nil
}

func (m *MockStore) CreateTransaction(tx *models.Transaction) error {
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *MockStore) GetTransactionsForInstrument(instrumentID uuid.UUID) ([]*models.Transaction, error) {
	txs := []*models.Transaction{}
	for _, tx := range m.transactions {
		if tx.InstrumentID == instrumentID {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (m *MockStore) Close() error {
	return nil
}

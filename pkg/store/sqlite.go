package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Dhanushj213/LendFlow/pkg/models"
	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err = db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err = db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the tables if they don't already exist.
// Decimal fields are stored as TEXT so no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS borrowers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		borrower_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		principal_amount TEXT NOT NULL,
		current_principal TEXT NOT NULL,
		accrued_interest TEXT NOT NULL DEFAULT '0',
		interest_rate TEXT NOT NULL,
		rate_interval TEXT NOT NULL,
		interest_type TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		last_accrual_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(borrower_id) REFERENCES borrowers(id)
	);
	CREATE TABLE IF NOT EXISTS liabilities (
		id TEXT PRIMARY KEY,
		lender_name TEXT NOT NULL,
		principal_amount TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		rate_interval TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS emis (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lender TEXT NOT NULL,
		amount TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		tenure_months INTEGER NOT NULL,
		remaining_months INTEGER NOT NULL,
		start_date DATETIME NOT NULL,
		next_due_date DATETIME NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		instrument_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		type TEXT NOT NULL,
		breakdown TEXT,
		timestamp DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateBorrower inserts a new borrower.
func (s *SQLiteStore) CreateBorrower(b *models.Borrower) error {
	_, err := s.db.Exec(
		`INSERT INTO borrowers (id, name, phone, email) VALUES (?, ?, ?, ?)`,
		b.ID.String(), b.Name, b.Phone, b.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to create borrower: %w", err)
	}
	return nil
}

// GetBorrower retrieves a borrower by ID.
func (s *SQLiteStore) GetBorrower(id uuid.UUID) (*models.Borrower, error) {
	var b models.Borrower
	var idStr string
	row := s.db.QueryRow(`SELECT id, name, phone, email FROM borrowers WHERE id = ?`, id.String())
	if err := row.Scan(&idStr, &b.Name, &b.Phone, &b.Email); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get borrower: %w", err)
	}
	b.ID = uuid.MustParse(idStr)
	return &b, nil
}

// GetAllBorrowers retrieves all borrowers.
func (s *SQLiteStore) GetAllBorrowers() ([]*models.Borrower, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, email FROM borrowers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get borrowers: %w", err)
	}
	defer rows.Close()

	var borrowers []*models.Borrower
	for rows.Next() {
		var b models.Borrower
		var idStr string
		if err := rows.Scan(&idStr, &b.Name, &b.Phone, &b.Email); err != nil {
			return nil, fmt.Errorf("failed to scan borrower row: %w", err)
		}
		b.ID = uuid.MustParse(idStr)
		borrowers = append(borrowers, &b)
	}
	return borrowers, rows.Err()
}

const loanColumns = `id, borrower_id, title, principal_amount, current_principal, accrued_interest,
	interest_rate, rate_interval, interest_type, status, start_date, last_accrual_date, created_at, updated_at`

// CreateLoan inserts a new loan into the database.
func (s *SQLiteStore) CreateLoan(loan *models.Loan) error {
	_, err := s.db.Exec(
		`INSERT INTO loans (`+loanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.BorrowerID.String(), loan.Title, loan.PrincipalAmount, loan.CurrentPrincipal,
		loan.AccruedInterest, loan.InterestRate, loan.RateInterval, loan.InterestType, loan.Status,
		loan.StartDate, loan.LastAccrualDate, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by its ID.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRow(`SELECT `+loanColumns+` FROM loans WHERE id = ?`, id.String())
	loan, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// UpdateLoan updates an existing loan in the database.
func (s *SQLiteStore) UpdateLoan(loan *models.Loan) error {
	result, err := s.db.Exec(
		`UPDATE loans SET borrower_id = ?, title = ?, principal_amount = ?, current_principal = ?,
		accrued_interest = ?, interest_rate = ?, rate_interval = ?, interest_type = ?, status = ?,
		start_date = ?, last_accrual_date = ?, updated_at = ? WHERE id = ?`,
		loan.BorrowerID.String(), loan.Title, loan.PrincipalAmount, loan.CurrentPrincipal,
		loan.AccruedInterest, loan.InterestRate, loan.RateInterval, loan.InterestType, loan.Status,
		loan.StartDate, loan.LastAccrualDate, loan.UpdatedAt, loan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	return requireRow(result)
}

// DeleteLoan removes a loan and its transactions within a database transaction.
func (s *SQLiteStore) DeleteLoan(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`DELETE FROM transactions WHERE instrument_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete associated transactions: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM loans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}
	return tx.Commit()
}

// GetAllLoans retrieves all loans.
func (s *SQLiteStore) GetAllLoans() ([]*models.Loan, error) {
	return s.queryLoans(`SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`)
}

// GetAllActiveLoans retrieves all active loans.
func (s *SQLiteStore) GetAllActiveLoans() ([]*models.Loan, error) {
	return s.queryLoans(`SELECT `+loanColumns+` FROM loans WHERE status = ? ORDER BY created_at DESC`, string(models.StatusActive))
}

// GetLoansForBorrower retrieves every loan held by a borrower.
func (s *SQLiteStore) GetLoansForBorrower(borrowerID uuid.UUID) ([]*models.Loan, error) {
	return s.queryLoans(`SELECT `+loanColumns+` FROM loans WHERE borrower_id = ? ORDER BY created_at DESC`, borrowerID.String())
}

func (s *SQLiteStore) queryLoans(query string, args ...any) ([]*models.Loan, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(row scanner) (*models.Loan, error) {
	var loan models.Loan
	var idStr, borrowerStr string
	var start, lastAccrual, created, updated time.Time
	err := row.Scan(&idStr, &borrowerStr, &loan.Title, &loan.PrincipalAmount, &loan.CurrentPrincipal,
		&loan.AccruedInterest, &loan.InterestRate, &loan.RateInterval, &loan.InterestType, &loan.Status,
		&start, &lastAccrual, &created, &updated)
	if err != nil {
		return nil, err
	}
	loan.ID = uuid.MustParse(idStr)
	loan.BorrowerID = uuid.MustParse(borrowerStr)
	loan.StartDate = start
	loan.LastAccrualDate = lastAccrual
	loan.CreatedAt = created
	loan.UpdatedAt = updated
	return &loan, nil
}

// CreateLiability inserts a new liability.
func (s *SQLiteStore) CreateLiability(l *models.Liability) error {
	_, err := s.db.Exec(
		`INSERT INTO liabilities (id, lender_name, principal_amount, interest_rate, rate_interval, start_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID.String(), l.LenderName, l.PrincipalAmount, l.InterestRate, l.RateInterval, l.StartDate, l.Status, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create liability: %w", err)
	}
	return nil
}

// GetLiability retrieves a liability by ID.
func (s *SQLiteStore) GetLiability(id uuid.UUID) (*models.Liability, error) {
	row := s.db.QueryRow(`SELECT id, lender_name, principal_amount, interest_rate, rate_interval, start_date, status, created_at
		FROM liabilities WHERE id = ?`, id.String())
	l, err := scanLiability(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get liability: %w", err)
	}
	return l, nil
}

// UpdateLiability updates an existing liability.
func (s *SQLiteStore) UpdateLiability(l *models.Liability) error {
	result, err := s.db.Exec(
		`UPDATE liabilities SET lender_name = ?, principal_amount = ?, interest_rate = ?, rate_interval = ?,
		start_date = ?, status = ? WHERE id = ?`,
		l.LenderName, l.PrincipalAmount, l.InterestRate, l.RateInterval, l.StartDate, l.Status, l.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update liability: %w", err)
	}
	return requireRow(result)
}

// DeleteLiability removes a liability and its audit transactions.
func (s *SQLiteStore) DeleteLiability(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`DELETE FROM transactions WHERE instrument_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete associated transactions: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM liabilities WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete liability: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}
	return tx.Commit()
}

// GetAllLiabilities retrieves all liabilities, newest first.
func (s *SQLiteStore) GetAllLiabilities() ([]*models.Liability, error) {
	rows, err := s.db.Query(`SELECT id, lender_name, principal_amount, interest_rate, rate_interval, start_date, status, created_at
		FROM liabilities ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get liabilities: %w", err)
	}
	defer rows.Close()

	var liabilities []*models.Liability
	for rows.Next() {
		l, err := scanLiability(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan liability row: %w", err)
		}
		liabilities = append(liabilities, l)
	}
	return liabilities, rows.Err()
}

// RenameLenderGroup sets a new lender name on the given liabilities in one
// statement, merging them into a single group.
func (s *SQLiteStore) RenameLenderGroup(ids []uuid.UUID, newName string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)+1)
	args = append(args, newName)
	for _, id := range ids {
		args = append(args, id.String())
	}
	_, err := s.db.Exec(`UPDATE liabilities SET lender_name = ? WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to rename lender group: %w", err)
	}
	return nil
}

func scanLiability(row scanner) (*models.Liability, error) {
	var l models.Liability
	var idStr string
	var start, created time.Time
	err := row.Scan(&idStr, &l.LenderName, &l.PrincipalAmount, &l.InterestRate, &l.RateInterval, &start, &l.Status, &created)
	if err != nil {
		return nil, err
	}
	l.ID = uuid.MustParse(idStr)
	l.StartDate = start
	l.CreatedAt = created
	return &l, nil
}

// CreateEMI inserts a new EMI record.
func (s *SQLiteStore) CreateEMI(e *models.EMI) error {
	_, err := s.db.Exec(
		`INSERT INTO emis (id, name, lender, amount, interest_rate, tenure_months, remaining_months, start_date, next_due_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Name, e.Lender, e.Amount, e.InterestRate, e.TenureMonths, e.RemainingMonths,
		e.StartDate, e.NextDueDate, e.Status, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create emi: %w", err)
	}
	return nil
}

// GetEMI retrieves an EMI by ID.
func (s *SQLiteStore) GetEMI(id uuid.UUID) (*models.EMI, error) {
	row := s.db.QueryRow(`SELECT id, name, lender, amount, interest_rate, tenure_months, remaining_months,
		start_date, next_due_date, status, created_at FROM emis WHERE id = ?`, id.String())
	e, err := scanEMI(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get emi: %w", err)
	}
	return e, nil
}

// UpdateEMI updates an existing EMI record.
func (s *SQLiteStore) UpdateEMI(e *models.EMI) error {
	result, err := s.db.Exec(
		`UPDATE emis SET name = ?, lender = ?, amount = ?, interest_rate = ?, tenure_months = ?,
		remaining_months = ?, start_date = ?, next_due_date = ?, status = ? WHERE id = ?`,
		e.Name, e.Lender, e.Amount, e.InterestRate, e.TenureMonths, e.RemainingMonths,
		e.StartDate, e.NextDueDate, e.Status, e.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update emi: %w", err)
	}
	return requireRow(result)
}

// DeleteEMI removes an EMI record.
func (s *SQLiteStore) DeleteEMI(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM emis WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete emi: %w", err)
	}
	return requireRow(result)
}

// GetAllEMIs retrieves all EMI records, newest first.
func (s *SQLiteStore) GetAllEMIs() ([]*models.EMI, error) {
	rows, err := s.db.Query(`SELECT id, name, lender, amount, interest_rate, tenure_months, remaining_months,
		start_date, next_due_date, status, created_at FROM emis ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get emis: %w", err)
	}
	defer rows.Close()

	var emis []*models.EMI
	for rows.Next() {
		e, err := scanEMI(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan emi row: %w", err)
		}
		emis = append(emis, e)
	}
	return emis, rows.Err()
}

func scanEMI(row scanner) (*models.EMI, error) {
	var e models.EMI
	var idStr string
	var start, nextDue, created time.Time
	err := row.Scan(&idStr, &e.Name, &e.Lender, &e.Amount, &e.InterestRate, &e.TenureMonths,
		&e.RemainingMonths, &start, &nextDue, &e.Status, &created)
	if err != nil {
		return nil, err
	}
	e.ID = uuid.MustParse(idStr)
	e.StartDate = start
	e.NextDueDate = nextDue
	e.CreatedAt = created
	return &e, nil
}

// CreateTransaction inserts a new transaction. The breakdown, when present,
// is stored as JSON.
func (s *SQLiteStore) CreateTransaction(transaction *models.Transaction) error {
	var breakdown sql.NullString
	if transaction.Breakdown != nil {
		raw, err := json.Marshal(transaction.Breakdown)
		if err != nil {
			return fmt.Errorf("failed to encode breakdown: %w", err)
		}
		breakdown = sql.NullString{String: string(raw), Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO transactions (id, instrument_id, amount, type, breakdown, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		transaction.ID.String(), transaction.InstrumentID.String(), transaction.Amount,
		transaction.Type, breakdown, transaction.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionsForInstrument retrieves the ledger history for an instrument.
func (s *SQLiteStore) GetTransactionsForInstrument(instrumentID uuid.UUID) ([]*models.Transaction, error) {
	rows, err := s.db.Query(`SELECT id, instrument_id, amount, type, breakdown, timestamp
		FROM transactions WHERE instrument_id = ? ORDER BY timestamp ASC`, instrumentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for %s: %w", instrumentID, err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var txIDStr, instrumentStr string
		var breakdown sql.NullString
		var timestamp time.Time
		if err := rows.Scan(&txIDStr, &instrumentStr, &tx.Amount, &tx.Type, &breakdown, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		tx.ID = uuid.MustParse(txIDStr)
		tx.InstrumentID = uuid.MustParse(instrumentStr)
		tx.Timestamp = timestamp
		if breakdown.Valid {
			var b models.Breakdown
			if err := json.Unmarshal([]byte(breakdown.String), &b); err != nil {
				return nil, fmt.Errorf("failed to decode breakdown: %w", err)
			}
			tx.Breakdown = &b
		}
		transactions = append(transactions, &tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return transactions, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

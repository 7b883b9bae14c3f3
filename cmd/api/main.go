package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Dhanushj213/LendFlow/pkg/config"
	"github.com/Dhanushj213/LendFlow/pkg/ledger"
	"github.com/Dhanushj213/LendFlow/pkg/models"
	"github.com/Dhanushj213/LendFlow/pkg/observability"
	"github.com/Dhanushj213/LendFlow/pkg/store"
)

// Server holds the ledger instance and its dependencies. The engine never
// reads the clock; every handler stamps time.Now and passes it down.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewServer(s store.Storage, logger *zap.Logger, metrics *observability.Metrics, policy ledger.OverpaymentPolicy) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s, logger, metrics, policy),
		storage: s,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrInvalidPayment):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrUndefinedInversion):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.logger.Error("request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

func (s *Server) createBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	borrower, err := s.ledger.CreateBorrower(req.Name, req.Phone, req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, borrower)
}

func (s *Server) listBorrowersHandler(w http.ResponseWriter, r *http.Request) {
	borrowers, err := s.ledger.GetAllBorrowers()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, borrowers)
}

func (s *Server) getBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid borrower ID", http.StatusBadRequest)
		return
	}
	borrower, err := s.ledger.GetBorrower(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, borrower)
}

func (s *Server) borrowerLoansHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid borrower ID", http.StatusBadRequest)
		return
	}
	loans, err := s.ledger.GetLoansForBorrower(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loans)
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BorrowerID   uuid.UUID           `json:"borrower_id"`
		Title        string              `json:"title"`
		Principal    decimal.Decimal     `json:"principal"`
		InterestRate decimal.Decimal     `json:"interest_rate"`
		RateInterval models.RateInterval `json:"rate_interval"`
		InterestType models.InterestType `json:"interest_type"`
		StartDate    time.Time           `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	if req.StartDate.IsZero() {
		req.StartDate = now
	}

	loan, err := s.ledger.CreateLoan(req.BorrowerID, req.Title, req.Principal, req.InterestRate,
		req.RateInterval, req.InterestType, req.StartDate, now)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	// Reading a loan brings its accrued interest up to the moment.
	loan, err := s.ledger.SyncAccrual(id, time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.GetAllLoans()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loans)
}

func (s *Server) updateLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loan, err := s.ledger.RenameLoan(id, req.Title, time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteLoan(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	// Interest must be current before allocation, or the split is stale.
	if _, err := s.ledger.SyncAccrual(id, now); err != nil {
		s.writeError(w, err)
		return
	}
	loan, tx, err := s.ledger.ApplyPayment(id, req.Amount, now)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"loan": loan, "transaction": tx})
}

func (s *Server) forecastLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	target, err := time.Parse(time.RFC3339, r.URL.Query().Get("target"))
	if err != nil {
		http.Error(w, "Invalid target date, want RFC3339", http.StatusBadRequest)
		return
	}

	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ledger.ForecastLoan(loan, target, time.Now().UTC()))
}

func (s *Server) closeLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	loan, err := s.ledger.CloseLoan(id, time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) reopenLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	loan, err := s.ledger.ReopenLoan(id, time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) loanTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	txs, err := s.ledger.GetTransactions(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, txs)
}

// summaryHandler backs the dashboard: sync every active loan, then total
// the book.
func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	if err := s.ledger.SyncAllAccruals(r.Context(), now); err != nil {
		s.writeError(w, err)
		return
	}
	loans, err := s.ledger.GetAllLoans()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ledger.Summarize(loans))
}

func (s *Server) createLiabilityHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LenderName   string              `json:"lender_name"`
		Principal    decimal.Decimal     `json:"principal"`
		InterestRate decimal.Decimal     `json:"interest_rate"`
		RateInterval models.RateInterval `json:"rate_interval"`
		StartDate    time.Time           `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.LenderName == "" {
		http.Error(w, "Lender name is required", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	if req.StartDate.IsZero() {
		req.StartDate = now
	}

	liability, err := s.ledger.CreateLiability(req.LenderName, req.Principal, req.InterestRate,
		req.RateInterval, req.StartDate, now)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, liability)
}

func (s *Server) listLiabilitiesHandler(w http.ResponseWriter, r *http.Request) {
	liabilities, err := s.ledger.GetAllLiabilities()
	if err != nil {
		s.writeError(w, err)
		return
	}
	now := time.Now().UTC()
	views := make([]ledger.LiabilityView, 0, len(liabilities))
	for _, liability := range liabilities {
		views = append(views, ledger.ViewLiability(liability, now))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) getLiabilityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid liability ID", http.StatusBadRequest)
		return
	}
	liability, err := s.ledger.GetLiability(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ledger.ViewLiability(liability, time.Now().UTC()))
}

func (s *Server) updateLiabilityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid liability ID", http.StatusBadRequest)
		return
	}

	var req struct {
		LenderName   string              `json:"lender_name"`
		Principal    decimal.Decimal     `json:"principal"`
		InterestRate decimal.Decimal     `json:"interest_rate"`
		RateInterval models.RateInterval `json:"rate_interval"`
		StartDate    time.Time           `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	liability, err := s.ledger.GetLiability(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	liability.LenderName = req.LenderName
	liability.PrincipalAmount = req.Principal
	liability.InterestRate = req.InterestRate
	liability.RateInterval = req.RateInterval
	if !req.StartDate.IsZero() {
		liability.StartDate = req.StartDate
	}
	if err := s.ledger.UpdateLiability(liability); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ledger.ViewLiability(liability, time.Now().UTC()))
}

func (s *Server) deleteLiabilityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid liability ID", http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteLiability(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) liabilityPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid liability ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	liability, err := s.ledger.ApplyPartialPayment(id, req.Amount, time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ledger.ViewLiability(liability, time.Now().UTC()))
}

func (s *Server) groupedLiabilitiesHandler(w http.ResponseWriter, r *http.Request) {
	liabilities, err := s.ledger.GetAllLiabilities()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ledger.GroupByLender(liabilities, time.Now().UTC()))
}

func (s *Server) mergeLendersHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs  []uuid.UUID `json:"ids"`
		Name string      `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ledger.MergeLenderGroup(req.IDs, req.Name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createEMIHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string          `json:"name"`
		Lender       string          `json:"lender"`
		Installment  decimal.Decimal `json:"installment"`
		Principal    decimal.Decimal `json:"principal"`
		InterestRate decimal.Decimal `json:"interest_rate"`
		TenureMonths int             `json:"tenure_months"`
		StartDate    time.Time       `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	if req.StartDate.IsZero() {
		req.StartDate = now
	}

	record, err := s.ledger.CreateEMI(req.Name, req.Lender, req.Installment, req.Principal,
		req.InterestRate, req.TenureMonths, req.StartDate, now)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Server) listEMIsHandler(w http.ResponseWriter, r *http.Request) {
	emis, err := s.ledger.GetAllEMIs()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, emis)
}

func (s *Server) getEMIHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid EMI ID", http.StatusBadRequest)
		return
	}
	record, err := s.ledger.GetEMI(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) updateEMIHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid EMI ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Name         string          `json:"name"`
		Lender       string          `json:"lender"`
		Installment  decimal.Decimal `json:"installment"`
		InterestRate decimal.Decimal `json:"interest_rate"`
		NextDueDate  time.Time       `json:"next_due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := s.ledger.GetEMI(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	record.Name = req.Name
	record.Lender = req.Lender
	record.Amount = req.Installment
	record.InterestRate = req.InterestRate
	if !req.NextDueDate.IsZero() {
		record.NextDueDate = req.NextDueDate
	}
	if err := s.ledger.UpdateEMI(record); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) deleteEMIHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid EMI ID", http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteEMI(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordInstallmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid EMI ID", http.StatusBadRequest)
		return
	}
	record, err := s.ledger.RecordInstallment(id, time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Server) amortizationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid EMI ID", http.StatusBadRequest)
		return
	}
	record, a, err := s.ledger.AmortizationFor(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"emi": record, "amortization": a})
}

func (s *Server) prepaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid EMI ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.ledger.SimulateEMIPrepayment(id, req.Amount)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, err)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// calculateHandler is the stateless calculator: no record is created. The
// rate arrives as a percentage, matching the calculator screen.
func (s *Server) calculateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Principal    decimal.Decimal     `json:"principal"`
		RatePct      decimal.Decimal     `json:"rate_pct"`
		RateInterval models.RateInterval `json:"rate_interval"`
		InterestType models.InterestType `json:"interest_type"`
		StartDate    time.Time           `json:"start_date"`
		EndDate      time.Time           `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rate := req.RatePct.Div(decimal.NewFromInt(100))
	quote := ledger.Quote(req.Principal, rate, req.RateInterval, req.InterestType,
		req.StartDate, req.EndDate)
	s.writeJSON(w, http.StatusOK, quote)
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/borrowers", s.listBorrowersHandler).Methods("GET")
	router.HandleFunc("/borrowers", s.createBorrowerHandler).Methods("POST")
	router.HandleFunc("/borrowers/{id}", s.getBorrowerHandler).Methods("GET")
	router.HandleFunc("/borrowers/{id}/loans", s.borrowerLoansHandler).Methods("GET")

	router.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	router.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}", s.updateLoanHandler).Methods("PUT")
	router.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	router.HandleFunc("/loans/{id}/payments", s.recordPaymentHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/forecast", s.forecastLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/close", s.closeLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/reopen", s.reopenLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/transactions", s.loanTransactionsHandler).Methods("GET")

	router.HandleFunc("/summary", s.summaryHandler).Methods("GET")

	router.HandleFunc("/liabilities", s.listLiabilitiesHandler).Methods("GET")
	router.HandleFunc("/liabilities", s.createLiabilityHandler).Methods("POST")
	router.HandleFunc("/liabilities/grouped", s.groupedLiabilitiesHandler).Methods("GET")
	router.HandleFunc("/liabilities/merge", s.mergeLendersHandler).Methods("POST")
	router.HandleFunc("/liabilities/{id}", s.getLiabilityHandler).Methods("GET")
	router.HandleFunc("/liabilities/{id}", s.updateLiabilityHandler).Methods("PUT")
	router.HandleFunc("/liabilities/{id}", s.deleteLiabilityHandler).Methods("DELETE")
	router.HandleFunc("/liabilities/{id}/payments", s.liabilityPaymentHandler).Methods("POST")

	router.HandleFunc("/emis", s.listEMIsHandler).Methods("GET")
	router.HandleFunc("/emis", s.createEMIHandler).Methods("POST")
	router.HandleFunc("/emis/{id}", s.getEMIHandler).Methods("GET")
	router.HandleFunc("/emis/{id}", s.updateEMIHandler).Methods("PUT")
	router.HandleFunc("/emis/{id}", s.deleteEMIHandler).Methods("DELETE")
	router.HandleFunc("/emis/{id}/installments", s.recordInstallmentHandler).Methods("POST")
	router.HandleFunc("/emis/{id}/amortization", s.amortizationHandler).Methods("GET")
	router.HandleFunc("/emis/{id}/prepayment", s.prepaymentHandler).Methods("POST")

	router.HandleFunc("/calculate", s.calculateHandler).Methods("POST")

	router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	return router
}

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize SQLite store", zap.Error(err))
	}
	defer sqliteStore.Close()

	metrics := observability.NewMetrics()
	server := NewServer(sqliteStore, logger, metrics, ledger.OverpaymentPolicy(cfg.OverpaymentPolicy))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("server starting", zap.Int("port", cfg.Port))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server exited", zap.Error(err))
	}
}

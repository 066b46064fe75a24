package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
	"github.com/finlab-br/patrimonio/internal/storage"
)

const dateLayout = "2006-01-02"

type contributionRequest struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

func (req contributionRequest) validate() (time.Time, string) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return time.Time{}, "invalid date, expected YYYY-MM-DD"
	}
	if !req.Amount.IsPositive() {
		return time.Time{}, "amount must be positive"
	}
	return date, ""
}

// ListContributions handles GET /api/v1/contributions.
func (h *Handler) ListContributions(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	entries, err := h.contributions.List(r.Context(), user)
	if err != nil {
		slog.Error("failed to list contributions", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []domain.Contribution{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// CreateContribution handles POST /api/v1/contributions.
func (h *Handler) CreateContribution(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req contributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	date, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	c := domain.Contribution{UserID: user, Date: date, Amount: req.Amount, Note: req.Note}
	if err := h.contributions.Create(r.Context(), &c); err != nil {
		slog.Error("failed to create contribution", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateContribution handles PUT /api/v1/contributions/{id}.
func (h *Handler) UpdateContribution(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req contributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	date, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	c := domain.Contribution{ID: id, UserID: user, Date: date, Amount: req.Amount, Note: req.Note}
	if err := h.contributions.Update(r.Context(), &c); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contribution not found")
			return
		}
		slog.Error("failed to update contribution", "user", user, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteContribution handles DELETE /api/v1/contributions/{id}.
func (h *Handler) DeleteContribution(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.contributions.Delete(r.Context(), user, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contribution not found")
			return
		}
		slog.Error("failed to delete contribution", "user", user, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transactionRequest struct {
	Kind        domain.OperationKind       `json:"kind"`
	Class       domain.AssetClass          `json:"class"`
	Ticker      string                     `json:"ticker"`
	Name        string                     `json:"name"`
	Date        string                     `json:"date"`
	Quantity    decimal.Decimal            `json:"quantity"`
	UnitPrice   decimal.Decimal            `json:"unitPrice"`
	Costs       decimal.Decimal            `json:"costs"`
	FixedIncome *domain.FixedIncomeDetails `json:"fixedIncome,omitempty"`
}

var validClasses = map[domain.AssetClass]bool{
	domain.AssetClassStocks: true, domain.AssetClassFunds: true,
	domain.AssetClassREITs: true, domain.AssetClassCrypto: true,
	domain.AssetClassBDRs: true, domain.AssetClassETFs: true,
	domain.AssetClassTreasury: true, domain.AssetClassFixedIncome: true,
	domain.AssetClassOther: true,
}

func (req transactionRequest) toDomain(user string) (domain.Transaction, string) {
	if req.Kind != domain.OperationBuy && req.Kind != domain.OperationSell {
		return domain.Transaction{}, "kind must be BUY or SELL"
	}
	if !validClasses[req.Class] {
		return domain.Transaction{}, "unknown asset class"
	}
	if req.Name == "" && req.Ticker == "" {
		return domain.Transaction{}, "name or ticker is required"
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return domain.Transaction{}, "invalid date, expected YYYY-MM-DD"
	}
	if !req.Quantity.IsPositive() {
		return domain.Transaction{}, "quantity must be positive"
	}
	if req.UnitPrice.IsNegative() {
		return domain.Transaction{}, "unitPrice must not be negative"
	}

	name := req.Name
	if name == "" {
		name = req.Ticker
	}
	return domain.Transaction{
		UserID:      user,
		Kind:        req.Kind,
		Class:       req.Class,
		Ticker:      req.Ticker,
		Name:        name,
		Date:        date,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Costs:       req.Costs,
		Total:       req.Quantity.Mul(req.UnitPrice).Add(req.Costs),
		FixedIncome: req.FixedIncome,
	}, ""
}

// ListTransactions handles GET /api/v1/transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	txs, err := h.transactions.List(r.Context(), user)
	if err != nil {
		slog.Error("failed to list transactions", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// CreateTransaction handles POST /api/v1/transactions.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	t, msg := req.toDomain(user)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.transactions.Create(r.Context(), &t); err != nil {
		slog.Error("failed to create transaction", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTransaction handles PUT /api/v1/transactions/{id}.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	t, msg := req.toDomain(user)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	t.ID = id

	if err := h.transactions.Update(r.Context(), &t); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.Error("failed to update transaction", "user", user, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTransaction handles DELETE /api/v1/transactions/{id}.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.transactions.Delete(r.Context(), user, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.Error("failed to delete transaction", "user", user, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type planRequest struct {
	PlannedAmount decimal.Decimal `json:"plannedAmount"`
	StartDate     string          `json:"startDate"`
}

// planResponse wraps the stored plan with its inflation-corrected value.
type planResponse struct {
	domain.MonthlyPlan
	CorrectedAmount *decimal.Decimal `json:"correctedAmount,omitempty"`
}

// GetPlan handles GET /api/v1/plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	plan, err := h.plans.Get(r.Context(), user)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no plan defined")
			return
		}
		slog.Error("failed to get plan", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := planResponse{MonthlyPlan: *plan}
	if h.planner != nil {
		corrected, err := h.planner.PlanCorrected(r.Context(), *plan)
		if err != nil {
			slog.Error("failed to correct plan", "user", user, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		rounded := domain.Round2(corrected)
		resp.CorrectedAmount = &rounded
	}
	writeJSON(w, http.StatusOK, resp)
}

// PutPlan handles PUT /api/v1/plan.
func (h *Handler) PutPlan(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !req.PlannedAmount.IsPositive() {
		writeError(w, http.StatusBadRequest, "plannedAmount must be positive")
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate, expected YYYY-MM-DD")
		return
	}

	plan := domain.MonthlyPlan{UserID: user, PlannedAmount: req.PlannedAmount, StartDate: start}
	if err := h.plans.Upsert(r.Context(), &plan); err != nil {
		slog.Error("failed to upsert plan", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

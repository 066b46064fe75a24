package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/dashboard"
	"github.com/finlab-br/patrimonio/internal/domain"
	"github.com/finlab-br/patrimonio/internal/fundamentals"
	"github.com/finlab-br/patrimonio/internal/ledger"
	"github.com/finlab-br/patrimonio/internal/quote"
	"github.com/finlab-br/patrimonio/internal/storage"
	"github.com/finlab-br/patrimonio/internal/valuation"
)

// Dashboards builds the per-user landing summary.
type Dashboards interface {
	Build(ctx context.Context, userID string) (dashboard.Summary, error)
}

// Valuations builds per-ticker valuation reports.
type Valuations interface {
	Report(ctx context.Context, ticker string) (valuation.Report, error)
}

// Refresher re-fetches cached market data on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Planner corrects a monthly plan for accumulated inflation. Satisfied by
// correction.Service.
type Planner interface {
	PlanCorrected(ctx context.Context, plan domain.MonthlyPlan) (decimal.Decimal, error)
}

// Handler provides the HTTP endpoints.
type Handler struct {
	dashboards    Dashboards
	valuations    Valuations
	refresher     Refresher
	planner       Planner
	contributions storage.ContributionRepository
	transactions  storage.TransactionRepository
	plans         storage.PlanRepository
	quotes        ledger.QuoteProvider
}

// HandlerDeps carries the handler's collaborators.
type HandlerDeps struct {
	Dashboards    Dashboards
	Valuations    Valuations
	Refresher     Refresher
	Planner       Planner
	Contributions storage.ContributionRepository
	Transactions  storage.TransactionRepository
	Plans         storage.PlanRepository
	Quotes        ledger.QuoteProvider
}

// NewHandler creates the API handler. Refresher may be nil, which turns the
// refresh endpoint into a no-op.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		dashboards:    deps.Dashboards,
		valuations:    deps.Valuations,
		refresher:     deps.Refresher,
		planner:       deps.Planner,
		contributions: deps.Contributions,
		transactions:  deps.Transactions,
		plans:         deps.Plans,
		quotes:        deps.Quotes,
	}
}

// GetDashboard handles GET /api/v1/dashboard.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	summary, err := h.dashboards.Build(r.Context(), user)
	if err != nil {
		slog.Error("failed to build dashboard", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetPortfolio handles GET /api/v1/portfolio: the consolidated ledger with
// market prices where available.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
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

	positions, err := ledger.Consolidate(txs, ledger.OversellDrop)
	if err != nil {
		slog.Error("failed to consolidate ledger", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	ledger.Enrich(r.Context(), positions, h.quotes)

	writeJSON(w, http.StatusOK, ledger.Summarize(positions))
}

// GetValuation handles GET /api/v1/valuation/{ticker}.
func (h *Handler) GetValuation(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "missing ticker")
		return
	}

	report, err := h.valuations.Report(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, fundamentals.ErrExtractFailed) {
			writeError(w, http.StatusNotFound, "no data found for ticker")
			return
		}
		slog.Error("failed to build valuation report", "ticker", ticker, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Refresh handles POST /api/v1/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "nothing to refresh"})
		return
	}
	if err := h.refresher.Refresh(r.Context()); err != nil {
		if errors.Is(err, quote.ErrFetchFailed) {
			writeError(w, http.StatusBadGateway, "quote provider unavailable")
			return
		}
		slog.Error("refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

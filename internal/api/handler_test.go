package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/dashboard"
	"github.com/finlab-br/patrimonio/internal/domain"
	"github.com/finlab-br/patrimonio/internal/storage"
	"github.com/finlab-br/patrimonio/internal/valuation"
)

type memContributions struct {
	entries map[uuid.UUID]domain.Contribution
}

func newMemContributions() *memContributions {
	return &memContributions{entries: make(map[uuid.UUID]domain.Contribution)}
}

func (m *memContributions) Create(_ context.Context, c *domain.Contribution) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	m.entries[c.ID] = *c
	return nil
}

func (m *memContributions) Get(_ context.Context, userID string, id uuid.UUID) (*domain.Contribution, error) {
	c, ok := m.entries[id]
	if !ok || c.UserID != userID {
		return nil, errNotFound()
	}
	return &c, nil
}

func (m *memContributions) List(_ context.Context, userID string) ([]domain.Contribution, error) {
	var out []domain.Contribution
	for _, c := range m.entries {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memContributions) Update(_ context.Context, c *domain.Contribution) error {
	old, ok := m.entries[c.ID]
	if !ok || old.UserID != c.UserID {
		return errNotFound()
	}
	m.entries[c.ID] = *c
	return nil
}

func (m *memContributions) Delete(_ context.Context, userID string, id uuid.UUID) error {
	c, ok := m.entries[id]
	if !ok || c.UserID != userID {
		return errNotFound()
	}
	delete(m.entries, id)
	return nil
}

func (m *memContributions) UpdateCorrected(_ context.Context, userID string, id uuid.UUID, corrected decimal.Decimal) error {
	c, ok := m.entries[id]
	if !ok || c.UserID != userID {
		return errNotFound()
	}
	c.CorrectedAmount = &corrected
	m.entries[id] = c
	return nil
}

type memTransactions struct {
	txs map[uuid.UUID]domain.Transaction
}

func newMemTransactions() *memTransactions {
	return &memTransactions{txs: make(map[uuid.UUID]domain.Transaction)}
}

func (m *memTransactions) Create(_ context.Context, t *domain.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.txs[t.ID] = *t
	return nil
}

func (m *memTransactions) Get(_ context.Context, userID string, id uuid.UUID) (*domain.Transaction, error) {
	t, ok := m.txs[id]
	if !ok || t.UserID != userID {
		return nil, errNotFound()
	}
	return &t, nil
}

func (m *memTransactions) List(_ context.Context, userID string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, t := range m.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	domain.SortChronological(out)
	return out, nil
}

func (m *memTransactions) Update(_ context.Context, t *domain.Transaction) error {
	old, ok := m.txs[t.ID]
	if !ok || old.UserID != t.UserID {
		return errNotFound()
	}
	m.txs[t.ID] = *t
	return nil
}

func (m *memTransactions) Delete(_ context.Context, userID string, id uuid.UUID) error {
	t, ok := m.txs[id]
	if !ok || t.UserID != userID {
		return errNotFound()
	}
	delete(m.txs, id)
	return nil
}

func (m *memTransactions) DistinctTickers(context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, t := range m.txs {
		if t.Ticker != "" && !seen[t.Ticker] {
			seen[t.Ticker] = true
			out = append(out, t.Ticker)
		}
	}
	return out, nil
}

type memPlans struct {
	plans map[string]domain.MonthlyPlan
}

func newMemPlans() *memPlans {
	return &memPlans{plans: make(map[string]domain.MonthlyPlan)}
}

func (m *memPlans) Get(_ context.Context, userID string) (*domain.MonthlyPlan, error) {
	p, ok := m.plans[userID]
	if !ok {
		return nil, errNotFound()
	}
	return &p, nil
}

func (m *memPlans) Upsert(_ context.Context, p *domain.MonthlyPlan) error {
	p.UpdatedAt = time.Now()
	m.plans[p.UserID] = *p
	return nil
}

type stubDashboards struct {
	summary dashboard.Summary
	err     error
}

func (s *stubDashboards) Build(context.Context, string) (dashboard.Summary, error) {
	return s.summary, s.err
}

type stubValuations struct {
	report valuation.Report
	err    error
}

func (s *stubValuations) Report(context.Context, string) (valuation.Report, error) {
	return s.report, s.err
}

type stubRefresher struct {
	called bool
	err    error
}

func (s *stubRefresher) Refresh(context.Context) error {
	s.called = true
	return s.err
}

type stubQuotes struct {
	prices map[string]decimal.Decimal
}

func (s *stubQuotes) GetPrice(_ context.Context, ticker string) (decimal.Decimal, error) {
	p, ok := s.prices[ticker]
	if !ok {
		return decimal.Zero, errNotFound()
	}
	return p, nil
}

type stubPlanner struct {
	corrected decimal.Decimal
	err       error
}

func (s *stubPlanner) PlanCorrected(context.Context, domain.MonthlyPlan) (decimal.Decimal, error) {
	return s.corrected, s.err
}

func errNotFound() error {
	return storage.ErrNotFound
}

type testEnv struct {
	server        *httptest.Server
	contributions *memContributions
	transactions  *memTransactions
	plans         *memPlans
	refresher     *stubRefresher
}

func newTestEnv(t *testing.T, adminKey string) *testEnv {
	t.Helper()
	env := &testEnv{
		contributions: newMemContributions(),
		transactions:  newMemTransactions(),
		plans:         newMemPlans(),
		refresher:     &stubRefresher{},
	}
	handler := NewHandler(HandlerDeps{
		Dashboards:    &stubDashboards{},
		Valuations:    &stubValuations{},
		Refresher:     env.refresher,
		Planner:       &stubPlanner{corrected: decimal.NewFromInt(1050)},
		Contributions: env.contributions,
		Transactions:  env.transactions,
		Plans:         env.plans,
		Quotes:        &stubQuotes{prices: map[string]decimal.Decimal{"PETR4": decimal.NewFromInt(40)}},
	})
	srv := NewServer("0", handler, adminKey)
	env.server = httptest.NewServer(srv.Handler)
	t.Cleanup(env.server.Close)
	return env
}

func doRequest(t *testing.T, env *testEnv, method, path, user, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, env.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDashboardRequiresUser(t *testing.T) {
	env := newTestEnv(t, "")

	resp := doRequest(t, env, http.MethodGet, "/api/v1/dashboard", "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateAndListContributions(t *testing.T) {
	env := newTestEnv(t, "")

	resp := doRequest(t, env, http.MethodPost, "/api/v1/contributions", "u1",
		`{"date":"2024-01-05","amount":"1000","note":"janeiro"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	var created domain.Contribution
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("created contribution has no id")
	}
	if !created.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("amount = %s, want 1000", created.Amount)
	}

	resp = doRequest(t, env, http.MethodGet, "/api/v1/contributions", "u1", "")
	var entries []domain.Contribution
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("list = %d entries, want 1", len(entries))
	}

	// Another user sees nothing.
	resp = doRequest(t, env, http.MethodGet, "/api/v1/contributions", "u2", "")
	entries = nil
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("foreign list = %d entries, want 0", len(entries))
	}
}

func TestCreateContributionValidation(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		name, body string
	}{
		{"negative amount", `{"date":"2024-01-05","amount":"-10"}`},
		{"zero amount", `{"date":"2024-01-05","amount":"0"}`},
		{"bad date", `{"date":"05/01/2024","amount":"100"}`},
		{"not json", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, env, http.MethodPost, "/api/v1/contributions", "u1", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestUpdateContributionNotFound(t *testing.T) {
	env := newTestEnv(t, "")

	resp := doRequest(t, env, http.MethodPut, "/api/v1/contributions/"+uuid.NewString(), "u1",
		`{"date":"2024-01-05","amount":"100"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteContribution(t *testing.T) {
	env := newTestEnv(t, "")

	resp := doRequest(t, env, http.MethodPost, "/api/v1/contributions", "u1",
		`{"date":"2024-01-05","amount":"1000"}`)
	var created domain.Contribution
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	resp = doRequest(t, env, http.MethodDelete, "/api/v1/contributions/"+created.ID.String(), "u1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	// Deleting again reports not found.
	resp = doRequest(t, env, http.MethodDelete, "/api/v1/contributions/"+created.ID.String(), "u1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateTransactionComputesTotal(t *testing.T) {
	env := newTestEnv(t, "")

	resp := doRequest(t, env, http.MethodPost, "/api/v1/transactions", "u1",
		`{"kind":"BUY","class":"STOCKS","ticker":"PETR4","name":"Petrobras","date":"2024-01-10","quantity":"10","unitPrice":"38.50","costs":"4.90"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	var created domain.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !created.Total.Equal(decimal.RequireFromString("389.90")) {
		t.Errorf("total = %s, want 389.90", created.Total)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		name, body string
	}{
		{"bad kind", `{"kind":"HOLD","class":"STOCKS","name":"X","date":"2024-01-10","quantity":"1","unitPrice":"1"}`},
		{"bad class", `{"kind":"BUY","class":"ART","name":"X","date":"2024-01-10","quantity":"1","unitPrice":"1"}`},
		{"no identity", `{"kind":"BUY","class":"STOCKS","date":"2024-01-10","quantity":"1","unitPrice":"1"}`},
		{"zero quantity", `{"kind":"BUY","class":"STOCKS","name":"X","date":"2024-01-10","quantity":"0","unitPrice":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, env, http.MethodPost, "/api/v1/transactions", "u1", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestGetPortfolio(t *testing.T) {
	env := newTestEnv(t, "")

	doRequest(t, env, http.MethodPost, "/api/v1/transactions", "u1",
		`{"kind":"BUY","class":"STOCKS","ticker":"PETR4","name":"Petrobras","date":"2024-01-10","quantity":"10","unitPrice":"30"}`)

	resp := doRequest(t, env, http.MethodGet, "/api/v1/portfolio", "u1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var summary struct {
		Positions  []domain.Position `json:"positions"`
		TotalValue decimal.Decimal   `json:"totalValue"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if len(summary.Positions) != 1 {
		t.Fatalf("positions = %d, want 1", len(summary.Positions))
	}
	// 10 shares at the stubbed market price of 40.
	if !summary.TotalValue.Equal(decimal.NewFromInt(400)) {
		t.Errorf("totalValue = %s, want 400", summary.TotalValue)
	}
}

func TestPlanRoundTrip(t *testing.T) {
	env := newTestEnv(t, "")

	resp := doRequest(t, env, http.MethodGet, "/api/v1/plan", "u1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get before put status = %d, want 404", resp.StatusCode)
	}

	resp = doRequest(t, env, http.MethodPut, "/api/v1/plan", "u1",
		`{"plannedAmount":"1000","startDate":"2024-01-01"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d, want 200", resp.StatusCode)
	}

	resp = doRequest(t, env, http.MethodGet, "/api/v1/plan", "u1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	var got struct {
		PlannedAmount   decimal.Decimal  `json:"plannedAmount"`
		CorrectedAmount *decimal.Decimal `json:"correctedAmount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding plan: %v", err)
	}
	if !got.PlannedAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("plannedAmount = %s, want 1000", got.PlannedAmount)
	}
	if got.CorrectedAmount == nil || !got.CorrectedAmount.Equal(decimal.NewFromInt(1050)) {
		t.Errorf("correctedAmount = %v, want 1050", got.CorrectedAmount)
	}
}

func TestRefreshRequiresAuth(t *testing.T) {
	env := newTestEnv(t, "secret-key")

	resp := doRequest(t, env, http.MethodPost, "/api/v1/refresh", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if env.refresher.called {
		t.Error("refresher called without auth")
	}

	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/refresh", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("authed status = %d, want 200", authed.StatusCode)
	}
	if !env.refresher.called {
		t.Error("refresher not called")
	}
}

// Package api exposes the JSON API.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, handler *Handler, adminAPIKey string) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/dashboard", handler.GetDashboard)
	mux.HandleFunc("GET /api/v1/portfolio", handler.GetPortfolio)
	mux.HandleFunc("GET /api/v1/valuation/{ticker}", handler.GetValuation)

	mux.HandleFunc("GET /api/v1/contributions", handler.ListContributions)
	mux.HandleFunc("POST /api/v1/contributions", handler.CreateContribution)
	mux.HandleFunc("PUT /api/v1/contributions/{id}", handler.UpdateContribution)
	mux.HandleFunc("DELETE /api/v1/contributions/{id}", handler.DeleteContribution)

	mux.HandleFunc("GET /api/v1/transactions", handler.ListTransactions)
	mux.HandleFunc("POST /api/v1/transactions", handler.CreateTransaction)
	mux.HandleFunc("PUT /api/v1/transactions/{id}", handler.UpdateTransaction)
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", handler.DeleteTransaction)

	mux.HandleFunc("GET /api/v1/plan", handler.GetPlan)
	mux.HandleFunc("PUT /api/v1/plan", handler.PutPlan)

	refreshHandler := http.HandlerFunc(handler.Refresh)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/refresh", requireAuth(adminAPIKey, refreshHandler))
	} else {
		mux.Handle("POST /api/v1/refresh", refreshHandler)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userID extracts the caller identity from the X-User-ID header. Session
// handling lives in front of this service.
func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

package index

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

func TestFetchMonthExactMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"data":"01/06/2025","valor":"0,87"}]`))
	}))
	defer server.Close()

	client := NewBCBClient(server.URL, 0, time.Millisecond)
	rate, err := client.FetchMonth(context.Background(), domain.YearMonth{Year: 2025, Month: time.June})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := decimal.RequireFromString("0.0087")
	if !rate.Equal(want) {
		t.Errorf("rate = %s, want %s", rate, want)
	}
}

func TestFetchMonthRejectsNeighborMonths(t *testing.T) {
	// The API pads the range with the prior observation; only rows dated in
	// the requested month may count.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"data":"01/10/2025","valor":"0,56"}]`))
	}))
	defer server.Close()

	client := NewBCBClient(server.URL, 0, time.Millisecond)
	_, err := client.FetchMonth(context.Background(), domain.YearMonth{Year: 2025, Month: time.November})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}

	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatal("expected an UnavailableError")
	}
	if ue.Month != (domain.YearMonth{Year: 2025, Month: time.November}) {
		t.Errorf("error month = %v, want 2025-11", ue.Month)
	}
}

func TestFetchMonthEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewBCBClient(server.URL, 0, time.Millisecond)
	_, err := client.FetchMonth(context.Background(), domain.YearMonth{Year: 2025, Month: time.November})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFetchMonthTransportFailureFoldsToUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewBCBClient(server.URL, 1, time.Millisecond)
	_, err := client.FetchMonth(context.Background(), domain.YearMonth{Year: 2025, Month: time.June})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFetchMonthRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"data":"01/06/2025","valor":"0,50"}]`))
	}))
	defer server.Close()

	client := NewBCBClient(server.URL, 2, time.Millisecond)
	rate, err := client.FetchMonth(context.Background(), domain.YearMonth{Year: 2025, Month: time.June})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if !rate.Equal(decimal.RequireFromString("0.005")) {
		t.Errorf("rate = %s, want 0.005", rate)
	}
}

func TestFetchMonthUsesLastRowOfMonth(t *testing.T) {
	// Revised observations appear as later rows; the last one wins.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"data":"01/06/2025","valor":"0,80"},
			{"data":"01/06/2025","valor":"0,83"}
		]`))
	}))
	defer server.Close()

	client := NewBCBClient(server.URL, 0, time.Millisecond)
	rate, err := client.FetchMonth(context.Background(), domain.YearMonth{Year: 2025, Month: time.June})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.0083")) {
		t.Errorf("rate = %s, want 0.0083", rate)
	}
}

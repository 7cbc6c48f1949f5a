package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/billing-simulator/internal/model"
)

func testDate(day int) model.Date {
	return model.NewDate(2022, time.January, day)
}

func TestAdvances_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/v2/advances" {
			t.Fatalf("path = %s, want /v2/advances", r.URL.Path)
		}
		if r.Header.Get("Today") != "2022-01-08" {
			t.Fatalf("Today header = %s, want 2022-01-08", r.Header.Get("Today"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"advances":[{
			"id": 1001,
			"customer_id": 1,
			"created": "2022-01-02",
			"total_advanced": "60000.00",
			"fee": "2000.00",
			"mandate_id": 102,
			"repayment_start_date": "2022-01-07",
			"repayment_percentage": 11
		}]}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	advances, err := client.Advances(ctx, testDate(8))
	if err != nil {
		t.Fatalf("Advances error: %v", err)
	}
	if len(advances) != 1 {
		t.Fatalf("advances = %d, want 1", len(advances))
	}
	if advances[0].ID != 1001 || advances[0].MandateID != 102 {
		t.Fatalf("unexpected advance: %+v", advances[0])
	}
	if !advances[0].TotalAdvanced.Equal(decimal.RequireFromString("60000.00")) {
		t.Fatalf("total advanced = %s, want 60000.00", advances[0].TotalAdvanced)
	}
}

func TestAdvances_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.Advances(ctx, testDate(8)); err == nil {
		t.Fatalf("expected error for server error response")
	}
}

func TestRevenue_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/customers/1/revenues/2022-01-07" {
			t.Fatalf("path = %s, want /v2/customers/1/revenues/2022-01-07", r.URL.Path)
		}
		if r.Header.Get("Today") != "2022-01-08" {
			t.Fatalf("Today header = %s, want 2022-01-08", r.Header.Get("Today"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"amount":"1234.56"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, zap.NewNop())

	revenue := client.Revenue(context.Background(), testDate(8), 1, testDate(7))
	if revenue.Amount == nil || !revenue.Amount.Equal(decimal.RequireFromString("1234.56")) {
		t.Fatalf("amount = %v, want 1234.56", revenue.Amount)
	}
	if revenue.CustomerID != 1 || !revenue.Date.Equal(testDate(7)) {
		t.Fatalf("unexpected revenue: %+v", revenue)
	}
}

func TestRevenue_NotAvailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"amount":`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			client := NewClient(ts.URL, zap.NewNop())

			revenue := client.Revenue(context.Background(), testDate(8), 1, testDate(7))
			if revenue.Amount != nil {
				t.Fatalf("amount = %v, want absent", revenue.Amount)
			}
			if revenue.CustomerID != 1 || !revenue.Date.Equal(testDate(7)) {
				t.Fatalf("unexpected revenue: %+v", revenue)
			}
		})
	}
}

func TestCharge_OK(t *testing.T) {
	amount := decimal.RequireFromString("135.80")
	charge := &model.Charge{
		Advance: &model.Advance{ID: 1001, MandateID: 102},
		DateFor: testDate(8),
		Amount:  &amount,
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v2/mandates/102/charge" {
			t.Fatalf("path = %s, want /v2/mandates/102/charge", r.URL.Path)
		}

		var body struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !body.Amount.Equal(amount) {
			t.Fatalf("amount = %s, want %s", body.Amount, amount)
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, zap.NewNop())

	if !client.Charge(context.Background(), testDate(8), charge) {
		t.Fatalf("Charge = false, want true")
	}
}

func TestCharge_Failure(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, zap.NewNop())

	amount := decimal.NewFromInt(50)
	charge := &model.Charge{
		Advance: &model.Advance{ID: 1001, MandateID: 102},
		DateFor: testDate(8),
		Amount:  &amount,
	}

	if client.Charge(context.Background(), testDate(8), charge) {
		t.Fatalf("Charge = true, want false")
	}

	// Списание не повторяется на транспортном уровне.
	if requests != 1 {
		t.Fatalf("requests = %d, want exactly 1", requests)
	}
}

func TestReportComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/advances/1001/billing_complete" {
			t.Fatalf("path = %s, want /v2/advances/1001/billing_complete", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, zap.NewNop())

	if !client.ReportComplete(context.Background(), testDate(8), 1001) {
		t.Fatalf("ReportComplete = false, want true")
	}
}

func TestReportComplete_Failure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, zap.NewNop())

	if client.ReportComplete(context.Background(), testDate(8), 1001) {
		t.Fatalf("ReportComplete = true, want false")
	}
}

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"

	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}

	prices := core.NewStaticPriceSource(map[string]decimal.Decimal{
		"BOVA11": decimal.RequireFromString("120.00"),
	})
	svc := services.NewLedgerService(repo, nil, prices, core.Money{Cents: 0})
	t.Cleanup(func() { _ = svc.Close() })

	return NewServer(":0", svc)
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"Expense","amount":45.90,"description":"Internet","date":"2025-03-10","recurrence":"Fixed"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var created transactionResponse
	decodeBody(t, rr, &created)
	if created.ID == 0 {
		t.Fatal("create did not return an id")
	}
	if created.Amount != 45.90 {
		t.Errorf("Amount = %v, want 45.90", created.Amount)
	}
	if created.Category != "Other" {
		t.Errorf("Category = %q, want default Other", created.Category)
	}
	if created.Status != "ToPay" {
		t.Errorf("Status = %q, want default ToPay", created.Status)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions?year=2025&month=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var listed []transactionResponse
	decodeBody(t, rr, &listed)
	if len(listed) != 1 {
		t.Fatalf("list returned %d transactions, want 1", len(listed))
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions?year=2025&month=4", "")
	decodeBody(t, rr, &listed)
	if len(listed) != 0 {
		t.Errorf("other month returned %d transactions, want 0", len(listed))
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/transactions/1",
		`{"kind":"Expense","amount":49.90,"description":"Internet","date":"2025-03-10","recurrence":"Fixed","status":"Paid"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var updated transactionResponse
	decodeBody(t, rr, &updated)
	if updated.Amount != 49.90 || updated.Status != "Paid" {
		t.Errorf("update = %+v, want amount 49.90 status Paid", updated)
	}
	if updated.CreatedAt.IsZero() {
		t.Error("update lost the creation timestamp")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("update CreatedAt = %v, want %v from create", updated.CreatedAt, created.CreatedAt)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/transactions/1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/transactions/1", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "malformed JSON",
			body: `{"kind":`,
			want: http.StatusBadRequest,
		},
		{
			name: "unknown kind",
			body: `{"kind":"Transfer","amount":10,"description":"x","date":"2025-03-10"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "missing description",
			body: `{"kind":"Expense","amount":10,"description":"","date":"2025-03-10"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date",
			body: `{"kind":"Expense","amount":10,"description":"x","date":"10/03/2025"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "income with expense status",
			body: `{"kind":"Income","amount":10,"description":"x","date":"2025-03-10","status":"Paid"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "description over 200 characters",
			body: `{"kind":"Expense","amount":10,"description":"` + strings.Repeat("x", 201) + `","date":"2025-03-10"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "installment without numbers",
			body: `{"kind":"Expense","amount":10,"description":"x","date":"2025-03-10","recurrence":"Installment"}`,
			want: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
			if tt.want == http.StatusUnprocessableEntity {
				var resp errorResponse
				decodeBody(t, rr, &resp)
				if resp.Error == "" || resp.Error == "internal error" {
					t.Errorf("error = %q, want the validation message surfaced", resp.Error)
				}
			}
		})
	}
}

func TestGoalDepositFlow(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/goals", `{"title":"Trip","targetAmount":100}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var goal goalResponse
	decodeBody(t, rr, &goal)
	if goal.CreatedAt.IsZero() {
		t.Error("create did not return a creation timestamp")
	}
	createdAt := goal.CreatedAt

	rr = doJSON(t, srv, http.MethodPut, "/api/goals/1", `{"title":"Big trip","targetAmount":100}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update goal status = %d, body = %s", rr.Code, rr.Body.String())
	}
	decodeBody(t, rr, &goal)
	if goal.Title != "Big trip" {
		t.Errorf("Title = %q, want Big trip", goal.Title)
	}
	if !goal.CreatedAt.Equal(createdAt) {
		t.Errorf("update CreatedAt = %v, want %v from create", goal.CreatedAt, createdAt)
	}

	rr = doJSON(t, srv, http.MethodPatch, "/api/goals/1/deposit", `{"amount":30}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("deposit 30 status = %d, body = %s", rr.Code, rr.Body.String())
	}
	decodeBody(t, rr, &goal)
	if goal.CollectedAmount != 30 {
		t.Errorf("collected = %v, want 30", goal.CollectedAmount)
	}
	if goal.ProgressPercent != 30 {
		t.Errorf("progressPercent = %d, want 30", goal.ProgressPercent)
	}

	rr = doJSON(t, srv, http.MethodPatch, "/api/goals/1/deposit", `{"amount":20}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("deposit 20 status = %d", rr.Code)
	}
	decodeBody(t, rr, &goal)
	if goal.CollectedAmount != 50 {
		t.Errorf("collected = %v, want 50", goal.CollectedAmount)
	}

	t.Run("exceeding remaining is rejected with the exact remaining", func(t *testing.T) {
		rr := doJSON(t, srv, http.MethodPatch, "/api/goals/1/deposit", `{"amount":51}`)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("deposit 51 status = %d, want 422", rr.Code)
		}
		var resp errorResponse
		decodeBody(t, rr, &resp)
		if !strings.Contains(resp.Error, "50.00") {
			t.Errorf("error = %q, want remaining 50.00 in message", resp.Error)
		}

		rr = doJSON(t, srv, http.MethodGet, "/api/goals/1", "")
		var g goalResponse
		decodeBody(t, rr, &g)
		if g.CollectedAmount != 50 {
			t.Errorf("collected after rejection = %v, want 50 (unchanged)", g.CollectedAmount)
		}
	})

	t.Run("below minimum is rejected", func(t *testing.T) {
		rr := doJSON(t, srv, http.MethodPatch, "/api/goals/1/deposit", `{"amount":0.50}`)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("deposit 0.50 status = %d, want 422", rr.Code)
		}
	})

	t.Run("unknown goal is 404", func(t *testing.T) {
		rr := doJSON(t, srv, http.MethodPatch, "/api/goals/999/deposit", `{"amount":10}`)
		if rr.Code != http.StatusNotFound {
			t.Errorf("deposit on unknown goal status = %d, want 404", rr.Code)
		}
	})

	t.Run("bad amount on unknown goal is 422", func(t *testing.T) {
		for _, body := range []string{`{"amount":0}`, `{"amount":0.50}`} {
			rr := doJSON(t, srv, http.MethodPatch, "/api/goals/999/deposit", body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Errorf("deposit %s on unknown goal status = %d, want 422", body, rr.Code)
			}
		}
	})

	t.Run("completing deposit flips isComplete", func(t *testing.T) {
		rr := doJSON(t, srv, http.MethodPatch, "/api/goals/1/deposit", `{"amount":50}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("deposit 50 status = %d", rr.Code)
		}
		var g goalResponse
		decodeBody(t, rr, &g)
		if !g.IsComplete || g.ProgressPercent != 100 || g.Remaining != 0 {
			t.Errorf("completed goal = %+v, want isComplete 100%% remaining 0", g)
		}
	})
}

func TestGoalStats(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/goals", `{"title":"Done","targetAmount":10,"collectedAmount":10}`)
	doJSON(t, srv, http.MethodPost, "/api/goals", `{"title":"Open","targetAmount":100,"collectedAmount":25}`)

	rr := doJSON(t, srv, http.MethodGet, "/api/goals/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rr.Code)
	}
	var stats goalStatsResponse
	decodeBody(t, rr, &stats)
	if stats.Total != 2 || stats.Active != 1 || stats.Completed != 1 {
		t.Errorf("stats = %+v, want total 2 active 1 completed 1", stats)
	}
	if stats.TotalCollected != 35 {
		t.Errorf("totalCollected = %v, want 35", stats.TotalCollected)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"Income","amount":1000,"description":"Salary","date":"2025-03-01"}`)
	doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"Expense","amount":200,"description":"ETF","date":"2025-03-05","category":"Investments"}`)
	doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"Expense","amount":300,"description":"Rent","date":"2025-03-05"}`)

	rr := doJSON(t, srv, http.MethodGet, "/api/summary?year=2025&month=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rr.Code)
	}
	var summary summaryResponse
	decodeBody(t, rr, &summary)
	if summary.ScheduledIncome != 1000 {
		t.Errorf("scheduledIncome = %v, want 1000", summary.ScheduledIncome)
	}
	if summary.FixedExpenses != 500 {
		t.Errorf("fixedExpenses = %v, want 500", summary.FixedExpenses)
	}
	if summary.ProjectedBalance != 500 {
		t.Errorf("projectedBalance = %v, want 500", summary.ProjectedBalance)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/summary?year=2024&month=1", "")
	decodeBody(t, rr, &summary)
	if summary.ScheduledIncome != 0 || summary.FixedExpenses != 0 {
		t.Errorf("empty period summary = %+v, want zeros", summary)
	}
}

func TestProjectionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"Income","amount":4000,"description":"Salary","date":"2025-01-01"}`)
	doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"Income","amount":6000,"description":"Bonus","date":"2025-02-01"}`)
	doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"Expense","amount":1000,"description":"Rent","date":"2025-01-05"}`)

	rr := doJSON(t, srv, http.MethodGet, "/api/balance/projection", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("projection status = %d", rr.Code)
	}
	var projection []monthBalanceResponse
	decodeBody(t, rr, &projection)
	if len(projection) != 12 {
		t.Fatalf("projection length = %d, want 12", len(projection))
	}
	for _, m := range projection {
		if m.Income != 5000 {
			t.Errorf("%s income = %v, want 5000", m.Month, m.Income)
		}
		if m.Expense != 1000 {
			t.Errorf("%s expense = %v, want 1000", m.Month, m.Expense)
		}
	}
}

func TestPortfolioEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/assets",
		`{"product":"BOVA11","class":"Stocks","quantity":10,"avgCost":100}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create asset status = %d, body = %s", rr.Code, rr.Body.String())
	}
	doJSON(t, srv, http.MethodPost, "/api/assets",
		`{"product":"Unknown Fund","class":"Funds","quantity":1,"avgCost":3000}`)

	rr = doJSON(t, srv, http.MethodGet, "/api/portfolio/consolidated", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("consolidated status = %d", rr.Code)
	}
	var consolidated consolidatedResponse
	decodeBody(t, rr, &consolidated)
	if !consolidated.TotalValue.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("totalValue = %s, want 4000", consolidated.TotalValue)
	}
	if len(consolidated.Allocations) != 2 || consolidated.Allocations[0].Class != "Funds" {
		t.Errorf("allocations = %+v, want Funds first (largest)", consolidated.Allocations)
	}
	var percentSum float64
	for _, a := range consolidated.Allocations {
		percentSum += a.Percent
	}
	if percentSum < 99.99 || percentSum > 100.01 {
		t.Errorf("allocation percents sum = %v, want 100", percentSum)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/portfolio/positions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("positions status = %d", rr.Code)
	}
	var positions []positionResponse
	decodeBody(t, rr, &positions)
	if len(positions) != 2 {
		t.Fatalf("positions length = %d, want 2", len(positions))
	}
	// BOVA11 is priced at 120.00, Unknown Fund falls back to 1.00
	for _, p := range positions {
		switch p.Product {
		case "BOVA11":
			if !p.CurrentValue.Equal(decimal.NewFromInt(1200)) {
				t.Errorf("BOVA11 currentValue = %s, want 1200", p.CurrentValue)
			}
		case "Unknown Fund":
			if !p.CurrentPrice.Equal(decimal.NewFromInt(1)) {
				t.Errorf("Unknown Fund currentPrice = %s, want fallback 1", p.CurrentPrice)
			}
		}
	}
}

func TestBudgetEndpointUsesCurrentMonth(t *testing.T) {
	srv := newTestServer(t)

	// The budget KPI always reads the current month; an empty ledger
	// yields all zeros rather than an error.
	rr := doJSON(t, srv, http.MethodGet, "/api/summary/budget", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("budget status = %d", rr.Code)
	}
	var budget budgetResponse
	decodeBody(t, rr, &budget)
	if budget.TotalIncome != 0 || budget.Leftover != 0 {
		t.Errorf("empty budget = %+v, want zeros", budget)
	}
}

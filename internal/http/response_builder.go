package http

import (
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Response bodies expose amounts as decimal numbers in the base currency
// unit. Field names are part of the API contract.

type transactionResponse struct {
	ID                 int64     `json:"id"`
	Kind               string    `json:"kind"`
	Amount             float64   `json:"amount"`
	Description        string    `json:"description"`
	Date               string    `json:"date"`
	Category           string    `json:"category"`
	Status             string    `json:"status"`
	Recurrence         string    `json:"recurrence"`
	InstallmentCurrent int       `json:"installmentCurrent,omitempty"`
	InstallmentTotal   int       `json:"installmentTotal,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func buildTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:                 t.ID,
		Kind:               string(t.Kind),
		Amount:             t.Amount.Units(),
		Description:        t.Description,
		Date:               t.Date.String(),
		Category:           t.Category,
		Status:             string(t.Status),
		Recurrence:         string(t.Recurrence),
		InstallmentCurrent: t.InstallmentCurrent,
		InstallmentTotal:   t.InstallmentTotal,
		CreatedAt:          t.CreatedAt,
	}
}

func buildTransactionList(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, buildTransactionResponse(t))
	}
	return out
}

type transactionGroupsResponse struct {
	Income                  []transactionResponse `json:"income"`
	FixedExpenses           []transactionResponse `json:"fixedExpenses"`
	InstallmentExpenses     []transactionResponse `json:"installmentExpenses"`
	IncomeTotal             float64               `json:"incomeTotal"`
	FixedExpenseTotal       float64               `json:"fixedExpenseTotal"`
	InstallmentExpenseTotal float64               `json:"installmentExpenseTotal"`
}

func buildTransactionGroups(p core.TransactionPartition) transactionGroupsResponse {
	return transactionGroupsResponse{
		Income:                  buildTransactionList(p.Income),
		FixedExpenses:           buildTransactionList(p.FixedExpenses),
		InstallmentExpenses:     buildTransactionList(p.InstallmentExpenses),
		IncomeTotal:             p.IncomeTotal.Units(),
		FixedExpenseTotal:       p.FixedExpenseTotal.Units(),
		InstallmentExpenseTotal: p.InstallmentExpenseTotal.Units(),
	}
}

type goalResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	TargetAmount    float64   `json:"targetAmount"`
	CollectedAmount float64   `json:"collectedAmount"`
	DeadlineMonths  int       `json:"deadlineMonths"`
	ProgressPercent int       `json:"progressPercent"`
	IsComplete      bool      `json:"isComplete"`
	Remaining       float64   `json:"remaining"`
	CreatedAt       time.Time `json:"createdAt"`
}

func buildGoalResponse(g core.Goal) goalResponse {
	p := g.Progress()
	return goalResponse{
		ID:              g.ID,
		Title:           g.Title,
		TargetAmount:    g.Target.Units(),
		CollectedAmount: g.Collected.Units(),
		DeadlineMonths:  g.DeadlineMonths,
		ProgressPercent: p.Percent,
		IsComplete:      p.IsComplete,
		Remaining:       p.Remaining.Units(),
		CreatedAt:       g.CreatedAt,
	}
}

func buildGoalList(goals []core.Goal) []goalResponse {
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, buildGoalResponse(g))
	}
	return out
}

type goalStatsResponse struct {
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	Completed      int     `json:"completed"`
	TotalCollected float64 `json:"totalCollected"`
}

func buildGoalStats(s core.GoalStats) goalStatsResponse {
	return goalStatsResponse{
		Total:          s.Total,
		Active:         s.Active,
		Completed:      s.Completed,
		TotalCollected: s.TotalCollected.Units(),
	}
}

type assetResponse struct {
	ID            int64           `json:"id"`
	Product       string          `json:"product"`
	Class         string          `json:"class"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgCost       decimal.Decimal `json:"avgCost"`
	InvestedValue decimal.Decimal `json:"investedValue"`
	Institution   string          `json:"institution,omitempty"`
	Maturity      string          `json:"maturity,omitempty"`
	AcquiredAt    time.Time       `json:"acquiredAt"`
}

func buildAssetResponse(a core.Asset) assetResponse {
	return assetResponse{
		ID:            a.ID,
		Product:       a.Product,
		Class:         a.Class,
		Quantity:      a.Quantity,
		AvgCost:       a.AvgCost,
		InvestedValue: a.InvestedValue(),
		Institution:   a.Institution,
		Maturity:      a.Maturity.String(),
		AcquiredAt:    a.AcquiredAt,
	}
}

func buildAssetList(assets []core.Asset) []assetResponse {
	out := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, buildAssetResponse(a))
	}
	return out
}

type summaryResponse struct {
	ScheduledIncome  float64 `json:"scheduledIncome"`
	FixedExpenses    float64 `json:"fixedExpenses"`
	PlannedDeduction float64 `json:"plannedDeduction"`
	ProjectedBalance float64 `json:"projectedBalance"`
}

func buildSummaryResponse(s core.MonthlySummary) summaryResponse {
	return summaryResponse{
		ScheduledIncome:  s.ScheduledIncome.Units(),
		FixedExpenses:    s.FixedExpenses.Units(),
		PlannedDeduction: s.PlannedDeduction.Units(),
		ProjectedBalance: s.ProjectedBalance.Units(),
	}
}

type budgetResponse struct {
	PlannedInvestmentSpend float64 `json:"plannedInvestmentSpend"`
	TotalIncome            float64 `json:"totalIncome"`
	ActualExpense          float64 `json:"actualExpense"`
	Leftover               float64 `json:"leftover"`
}

func buildBudgetResponse(k core.BudgetKPI) budgetResponse {
	return budgetResponse{
		PlannedInvestmentSpend: k.PlannedInvestmentSpend.Units(),
		TotalIncome:            k.TotalIncome.Units(),
		ActualExpense:          k.ActualExpense.Units(),
		Leftover:               k.Leftover.Units(),
	}
}

type monthBalanceResponse struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

func buildProjectionResponse(projection []core.MonthBalance) []monthBalanceResponse {
	out := make([]monthBalanceResponse, 0, len(projection))
	for _, m := range projection {
		out = append(out, monthBalanceResponse{
			Month:   m.Month,
			Income:  m.Income.Units(),
			Expense: m.Expense.Units(),
		})
	}
	return out
}

type allocationResponse struct {
	Class         string          `json:"class"`
	InvestedValue decimal.Decimal `json:"investedValue"`
	Percent       float64         `json:"percent"`
}

type consolidatedResponse struct {
	TotalValue        decimal.Decimal      `json:"totalValue"`
	Allocations       []allocationResponse `json:"allocations"`
	TotalCurrentValue decimal.Decimal      `json:"totalCurrentValue"`
	TotalInvested     decimal.Decimal      `json:"totalInvested"`
	Profit            decimal.Decimal      `json:"profit"`
	ReturnPercent     float64              `json:"returnPercent"`
}

func buildConsolidatedResponse(c core.PortfolioConsolidation, r core.PortfolioReturn) consolidatedResponse {
	out := consolidatedResponse{
		TotalValue:        c.TotalValue,
		Allocations:       make([]allocationResponse, 0, len(c.Allocations)),
		TotalCurrentValue: r.TotalCurrentValue,
		TotalInvested:     r.TotalInvested,
		Profit:            r.Profit,
		ReturnPercent:     r.ReturnPercent,
	}
	for _, a := range c.Allocations {
		out.Allocations = append(out.Allocations, allocationResponse{
			Class:         a.Class,
			InvestedValue: a.InvestedValue,
			Percent:       a.Percent,
		})
	}
	return out
}

type positionResponse struct {
	ID            int64           `json:"id"`
	Product       string          `json:"product"`
	Class         string          `json:"class"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgCost       decimal.Decimal `json:"avgCost"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	InvestedValue decimal.Decimal `json:"investedValue"`
	ReturnPercent float64         `json:"returnPercent"`
	Institution   string          `json:"institution,omitempty"`
	Maturity      string          `json:"maturity,omitempty"`
}

func buildPositionList(positions []core.AssetPosition) []positionResponse {
	out := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, positionResponse{
			ID:            p.Asset.ID,
			Product:       p.Asset.Product,
			Class:         p.Asset.Class,
			Quantity:      p.Asset.Quantity,
			AvgCost:       p.Asset.AvgCost,
			CurrentPrice:  p.CurrentPrice,
			CurrentValue:  p.CurrentValue,
			InvestedValue: p.InvestedValue,
			ReturnPercent: p.ReturnPercent,
			Institution:   p.Asset.Institution,
			Maturity:      p.Asset.Maturity.String(),
		})
	}
	return out
}

package core

// InvestmentCategory is the expense category the budget KPI reclassifies
// as planned savings instead of ordinary spend.
const InvestmentCategory = "Investments"

// MonthlySummary holds the KPI figures for one month of transactions.
type MonthlySummary struct {
	ScheduledIncome  Money
	FixedExpenses    Money
	PlannedDeduction Money
	ProjectedBalance Money
}

// BudgetKPI is the investment-exclusion variant of the monthly summary:
// expenses in the Investments category count as planned savings, not spend.
type BudgetKPI struct {
	PlannedInvestmentSpend Money
	TotalIncome            Money
	ActualExpense          Money
	Leftover               Money
}

// TransactionPartition splits a transaction set into the three listing
// groups. The groups are a disjoint cover of the input; order within each
// group follows the input.
type TransactionPartition struct {
	Income              []Transaction
	FixedExpenses       []Transaction
	InstallmentExpenses []Transaction

	IncomeTotal             Money
	FixedExpenseTotal       Money
	InstallmentExpenseTotal Money
}

// MonthBalance is one bar of the 12-month projected balance chart.
type MonthBalance struct {
	Month   string
	Income  Money
	Expense Money
}

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Summarize computes the monthly KPI summary over transactions already
// filtered to one period. An empty period yields zero sums and a balance
// of -plannedDeduction.
func Summarize(transactions []Transaction, plannedDeduction Money) MonthlySummary {
	s := MonthlySummary{PlannedDeduction: plannedDeduction}
	for _, t := range transactions {
		switch t.Kind {
		case Income:
			s.ScheduledIncome = s.ScheduledIncome.Add(t.Amount)
		case Expense:
			s.FixedExpenses = s.FixedExpenses.Add(t.Amount)
		}
	}
	s.ProjectedBalance = Money{Cents: s.ScheduledIncome.Cents - s.FixedExpenses.Cents - plannedDeduction.Cents}
	return s
}

// ComputeBudgetKPI reclassifies Investments expenses as planned savings
// and reports what is left of the period's income.
func ComputeBudgetKPI(transactions []Transaction) BudgetKPI {
	var k BudgetKPI
	for _, t := range transactions {
		switch t.Kind {
		case Income:
			k.TotalIncome = k.TotalIncome.Add(t.Amount)
		case Expense:
			if t.Category == InvestmentCategory {
				k.PlannedInvestmentSpend = k.PlannedInvestmentSpend.Add(t.Amount)
			} else {
				k.ActualExpense = k.ActualExpense.Add(t.Amount)
			}
		}
	}
	k.Leftover = Money{Cents: k.TotalIncome.Cents - k.ActualExpense.Cents - k.PlannedInvestmentSpend.Cents}
	return k
}

// Partition groups transactions for listing: income, fixed expenses and
// installment expenses, each with its subtotal.
func Partition(transactions []Transaction) TransactionPartition {
	var p TransactionPartition
	for _, t := range transactions {
		switch {
		case t.Kind == Income:
			p.Income = append(p.Income, t)
			p.IncomeTotal = p.IncomeTotal.Add(t.Amount)
		case t.Recurrence == RecurrenceInstallment:
			p.InstallmentExpenses = append(p.InstallmentExpenses, t)
			p.InstallmentExpenseTotal = p.InstallmentExpenseTotal.Add(t.Amount)
		default:
			p.FixedExpenses = append(p.FixedExpenses, t)
			p.FixedExpenseTotal = p.FixedExpenseTotal.Add(t.Amount)
		}
	}
	return p
}

// ProjectAnnualBalance builds the 12-month projected balance from the
// historical average income and expense amounts. The projection is flat:
// every month repeats the same averages. Empty histories project zeros.
func ProjectAnnualBalance(avgIncome, avgExpense Money) []MonthBalance {
	out := make([]MonthBalance, 0, len(monthLabels))
	for _, label := range monthLabels {
		out = append(out, MonthBalance{
			Month:   label,
			Income:  avgIncome,
			Expense: avgExpense,
		})
	}
	return out
}

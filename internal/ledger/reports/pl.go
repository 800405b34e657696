package reports

import "github.com/covenant-hq/covenant/internal/ledger"

// IncomeStatementItem is one revenue or expense line. Budget and variance
// are placeholders until budgeting lands.
type IncomeStatementItem struct {
	Category string  `json:"category"`
	Actual   float64 `json:"actual"`
	Budget   float64 `json:"budget"`
	Variance float64 `json:"variance"`
}

// IncomeStatement contains the structured output for the report.
type IncomeStatement struct {
	Revenue   []IncomeStatementItem `json:"revenue"`
	Expenses  []IncomeStatementItem `json:"expenses"`
	NetIncome float64               `json:"net_income"`
}

// BuildIncomeStatement aggregates accounts into revenue and expense sections.
func BuildIncomeStatement(accounts []AccountBalance) IncomeStatement {
	revenueItems, totalRevenue := BuildBreakdown(accounts, ledger.AccountTypeRevenue)
	expenseItems, totalExpense := BuildBreakdown(accounts, ledger.AccountTypeExpense)

	return IncomeStatement{
		Revenue:   toStatementItems(revenueItems),
		Expenses:  toStatementItems(expenseItems),
		NetIncome: totalRevenue - totalExpense,
	}
}

func toStatementItems(items []ReportItem) []IncomeStatementItem {
	out := make([]IncomeStatementItem, 0, len(items))
	for _, item := range items {
		out = append(out, IncomeStatementItem{Category: item.Category, Actual: item.Amount})
	}
	return out
}

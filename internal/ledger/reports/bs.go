package reports

import (
	"math"

	"github.com/covenant-hq/covenant/internal/ledger"
)

// BalanceSheet is the structured balance sheet response. Current net income
// is folded into equity so TotalAssets == TotalLiabilitiesEquity holds after
// any sequence of balanced postings.
type BalanceSheet struct {
	Assets                 []ReportItem `json:"assets"`
	Liabilities            []ReportItem `json:"liabilities"`
	Equity                 []ReportItem `json:"equity"`
	TotalAssets            float64      `json:"total_assets"`
	TotalLiabilitiesEquity float64      `json:"total_liabilities_equity"`
}

// BuildBalanceSheet aggregates balances into asset, liability, and equity
// sections, appending current net income as a synthetic equity line.
func BuildBalanceSheet(accounts []AccountBalance) BalanceSheet {
	assets, totalAssets := BuildBreakdown(accounts, ledger.AccountTypeAsset)
	liabilities, totalLiabilities := BuildBreakdown(accounts, ledger.AccountTypeLiability)
	equity, totalEquity := BuildBreakdown(accounts, ledger.AccountTypeEquity)

	_, totalRevenue := BuildBreakdown(accounts, ledger.AccountTypeRevenue)
	_, totalExpense := BuildBreakdown(accounts, ledger.AccountTypeExpense)
	netIncome := totalRevenue - totalExpense
	if math.Abs(netIncome) >= minReportBalance {
		equity = append(equity, ReportItem{Category: "Current Net Income", Amount: netIncome})
		totalEquity += netIncome
	}

	return BalanceSheet{
		Assets:                 assets,
		Liabilities:            liabilities,
		Equity:                 equity,
		TotalAssets:            totalAssets,
		TotalLiabilitiesEquity: totalLiabilities + totalEquity,
	}
}

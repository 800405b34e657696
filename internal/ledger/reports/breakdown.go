package reports

import (
	"math"
	"sort"

	"github.com/covenant-hq/covenant/internal/ledger"
)

// BuildBreakdown returns the signed balance per account of the given type,
// sorted by account code, together with the section total. Accounts with a
// negligible balance are omitted.
func BuildBreakdown(accounts []AccountBalance, accountType ledger.AccountType) ([]ReportItem, float64) {
	filtered := make([]AccountBalance, 0, len(accounts))
	for _, acc := range accounts {
		if acc.Type != accountType {
			continue
		}
		filtered = append(filtered, acc)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Code < filtered[j].Code })

	items := make([]ReportItem, 0, len(filtered))
	var total float64
	for _, acc := range filtered {
		balance := acc.Balance()
		if math.Abs(balance) < minReportBalance {
			continue
		}
		items = append(items, ReportItem{Category: acc.Name, Amount: balance})
		total += balance
	}
	return items, total
}

package reports

import (
	"math"
	"testing"

	"github.com/covenant-hq/covenant/internal/ledger"
	_ "github.com/covenant-hq/covenant/testing"
)

func sampleBalances() []AccountBalance {
	return []AccountBalance{
		{AccountID: 1, Code: "1000", Name: "Operating Cash", Type: ledger.AccountTypeAsset, Debit: 1200, Credit: 200},
		{AccountID: 2, Code: "1100", Name: "Accounts Receivable", Type: ledger.AccountTypeAsset, Debit: 800, Credit: 300},
		{AccountID: 3, Code: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, Debit: 0, Credit: 400},
		{AccountID: 4, Code: "3000", Name: "Retained Earnings", Type: ledger.AccountTypeEquity, Debit: 0, Credit: 500},
		{AccountID: 5, Code: "4000", Name: "Assessment Income", Type: ledger.AccountTypeRevenue, Debit: 0, Credit: 900},
		{AccountID: 6, Code: "4100", Name: "Late Fee Income", Type: ledger.AccountTypeRevenue, Debit: 0, Credit: 100},
		{AccountID: 7, Code: "6000", Name: "Landscaping Expense", Type: ledger.AccountTypeExpense, Debit: 400, Credit: 0},
	}
}

func TestBuildBreakdownSortsAndOmitsNearZero(t *testing.T) {
	balances := append(sampleBalances(), AccountBalance{
		AccountID: 8, Code: "1200", Name: "Prepaid Assessments", Type: ledger.AccountTypeAsset, Debit: 100, Credit: 100.0005,
	})
	items, total := BuildBreakdown(balances, ledger.AccountTypeAsset)
	if len(items) != 2 {
		t.Fatalf("expected near-zero account omitted, got %d items", len(items))
	}
	if items[0].Category != "Operating Cash" || items[1].Category != "Accounts Receivable" {
		t.Fatalf("unexpected ordering: %+v", items)
	}
	if total != 1500 {
		t.Fatalf("expected asset total 1500, got %v", total)
	}
}

func TestBuildBalanceSheetBalances(t *testing.T) {
	sheet := BuildBalanceSheet(sampleBalances())
	if sheet.TotalAssets != 1500 {
		t.Fatalf("total assets = %v", sheet.TotalAssets)
	}
	if math.Abs(sheet.TotalAssets-sheet.TotalLiabilitiesEquity) > 0.001 {
		t.Fatalf("balance sheet out of balance: assets %v vs liabilities+equity %v",
			sheet.TotalAssets, sheet.TotalLiabilitiesEquity)
	}
}

func TestBuildBalanceSheetFoldsNetIncomeIntoEquity(t *testing.T) {
	sheet := BuildBalanceSheet(sampleBalances())
	var found bool
	for _, item := range sheet.Equity {
		if item.Category == "Current Net Income" {
			found = true
			if item.Amount != 600 {
				t.Fatalf("net income = %v, want 600", item.Amount)
			}
		}
	}
	if !found {
		t.Fatalf("equity section missing current net income: %+v", sheet.Equity)
	}
}

func TestBuildBalanceSheetOmitsZeroNetIncome(t *testing.T) {
	balances := []AccountBalance{
		{AccountID: 1, Code: "1000", Name: "Operating Cash", Type: ledger.AccountTypeAsset, Debit: 500, Credit: 0},
		{AccountID: 4, Code: "3000", Name: "Retained Earnings", Type: ledger.AccountTypeEquity, Debit: 0, Credit: 500},
	}
	sheet := BuildBalanceSheet(balances)
	for _, item := range sheet.Equity {
		if item.Category == "Current Net Income" {
			t.Fatalf("zero net income must not appear: %+v", sheet.Equity)
		}
	}
}

func TestBuildIncomeStatement(t *testing.T) {
	statement := BuildIncomeStatement(sampleBalances())
	if len(statement.Revenue) != 2 {
		t.Fatalf("expected 2 revenue lines, got %d", len(statement.Revenue))
	}
	if len(statement.Expenses) != 1 {
		t.Fatalf("expected 1 expense line, got %d", len(statement.Expenses))
	}
	if statement.NetIncome != 600 {
		t.Fatalf("net income = %v, want 600", statement.NetIncome)
	}
	if statement.Revenue[0].Budget != 0 || statement.Revenue[0].Variance != 0 {
		t.Fatalf("budget columns should be zero until budgeting lands")
	}
}

package finance

import "github.com/go-chi/chi/v5"

// MountRoutes registers the finance routes. The router is expected to be
// mounted under a tenant-scoped prefix with the tenant middleware applied.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.ListAccounts)
	r.Post("/transactions", h.CreateTransaction)
	r.Get("/transactions/{transactionID}", h.GetTransaction)
	r.Post("/transactions/{transactionID}/reverse", h.ReverseTransaction)
	r.Get("/ledger", h.GetLedger)
	r.Get("/residents/{residentID}/balance", h.ResidentBalance)
	r.Get("/delinquencies", h.Delinquencies)
	r.Get("/delinquencies/export", h.ExportDelinquencies)
	r.Get("/reports/balance-sheet", h.BalanceSheet)
	r.Get("/reports/income-statement", h.IncomeStatement)
	r.Post("/assessments/generate", h.GenerateAssessments)
	r.Post("/assessments/late-fees", h.AssessLateFees)
	r.Post("/payments/intents", h.CreatePaymentIntent)
	r.Post("/payments/webhook", h.PaymentWebhook)
}

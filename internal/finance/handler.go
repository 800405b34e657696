package finance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/covenant-hq/covenant/internal/billing"
	"github.com/covenant-hq/covenant/internal/ledger"
	"github.com/covenant-hq/covenant/internal/ledger/chart"
	"github.com/covenant-hq/covenant/internal/ledger/reports"
	"github.com/covenant-hq/covenant/internal/ledger/subledger"
	"github.com/covenant-hq/covenant/internal/payments"
	"github.com/covenant-hq/covenant/internal/platform/httpx"
	"github.com/covenant-hq/covenant/internal/tenant"
)

// Handler serves the tenant-scoped finance API.
type Handler struct {
	logger        *slog.Logger
	engine        *ledger.Service
	chart         *chart.Service
	subledger     *subledger.Service
	reports       *reports.Service
	billing       *billing.Service
	payments      *payments.Service
	validator     *validator.Validate
	webhookSecret string
}

// HandlerConfig collects handler dependencies.
type HandlerConfig struct {
	Logger        *slog.Logger
	Engine        *ledger.Service
	Chart         *chart.Service
	Subledger     *subledger.Service
	Reports       *reports.Service
	Billing       *billing.Service
	Payments      *payments.Service
	WebhookSecret string
}

// NewHandler constructs the finance API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:        logger,
		engine:        cfg.Engine,
		chart:         cfg.Chart,
		subledger:     cfg.Subledger,
		reports:       cfg.Reports,
		billing:       cfg.Billing,
		payments:      cfg.Payments,
		validator:     validator.New(),
		webhookSecret: cfg.WebhookSecret,
	}
}

func tenantID(r *http.Request) int64 {
	if t, ok := tenant.FromContext(r.Context()); ok {
		return t.ID
	}
	return 0
}

// respondError maps ledger domain errors onto RFC7807 responses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnbalanced),
		errors.Is(err, ledger.ErrTooFewEntries),
		errors.Is(err, ledger.ErrInvalidAccount):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Transaction", err.Error())
	case errors.Is(err, ledger.ErrCrossTenant):
		httpx.Problem(w, http.StatusBadRequest, "Cross-Tenant Reference", err.Error())
	case errors.Is(err, ledger.ErrTransactionNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ledger.ErrDuplicateExternalRef),
		errors.Is(err, ledger.ErrDuplicateCharge),
		errors.Is(err, ledger.ErrInvalidStatus):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, chart.ErrAccountNotConfigured),
		errors.Is(err, billing.ErrPolicyNotConfigured):
		httpx.Problem(w, http.StatusConflict, "Not Configured", err.Error())
	default:
		h.logger.Error("finance handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// ListAccounts returns the tenant's chart of accounts, seeding defaults
// on first touch.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	tid := tenantID(r)
	if err := h.chart.EnsureSeeded(r.Context(), tid); err != nil {
		h.respondError(w, err)
		return
	}
	accounts, err := h.chart.List(r.Context(), tid)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponses(accounts))
}

// CreateTransaction posts a manual journal transaction.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := ledger.PostingInput{
		TenantID:    tenantID(r),
		Description: req.Description,
		Reference:   req.Reference,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}
	for _, e := range req.Entries {
		input.Entries = append(input.Entries, ledger.EntryInput{
			AccountID:   e.AccountID,
			Debit:       e.Debit,
			Credit:      e.Credit,
			ResidentID:  e.ResidentID,
			Description: e.Description,
		})
	}
	txn, err := h.engine.PostTransaction(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(txn))
}

// GetLedger returns the most recent transactions with entries.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Limit", "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}
	txns, err := h.engine.ListLedger(r.Context(), tenantID(r), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionResponse(txn))
	}
	httpx.JSON(w, http.StatusOK, out)
}

// GetTransaction returns one transaction with its entries.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "transaction id must be a positive integer")
		return
	}
	txn, err := h.engine.GetTransaction(r.Context(), tenantID(r), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(txn))
}

// ReverseTransaction posts a balancing correction for a completed
// transaction.
func (h *Handler) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "transaction id must be a positive integer")
		return
	}
	txn, err := h.engine.ReverseTransaction(r.Context(), ledger.ReverseInput{
		TenantID:      tenantID(r),
		TransactionID: id,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(txn))
}

// ResidentBalance returns the resident's receivable balance.
func (h *Handler) ResidentBalance(w http.ResponseWriter, r *http.Request) {
	residentID, err := strconv.ParseInt(chi.URLParam(r, "residentID"), 10, 64)
	if err != nil || residentID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "resident id must be a positive integer")
		return
	}
	balance, err := h.subledger.ResidentBalance(r.Context(), tenantID(r), residentID, chart.RoleReceivable)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balanceResponse{ResidentID: residentID, Balance: balance})
}

// Delinquencies lists residents with outstanding receivable balances.
func (h *Handler) Delinquencies(w http.ResponseWriter, r *http.Request) {
	delinquents, err := h.subledger.Delinquents(r.Context(), tenantID(r), chart.RoleReceivable)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, delinquents)
}

// BalanceSheet serves the derived balance sheet.
func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	tid := tenantID(r)
	value, err, _ := singleflightBuild(r.Context(), "bs:"+strconv.FormatInt(tid, 10), func(ctx context.Context) (any, error) {
		return h.reports.BalanceSheet(ctx, tid)
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, value)
}

// IncomeStatement serves the derived income statement.
func (h *Handler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	tid := tenantID(r)
	value, err, _ := singleflightBuild(r.Context(), "pl:"+strconv.FormatInt(tid, 10), func(ctx context.Context) (any, error) {
		return h.reports.IncomeStatement(ctx, tid)
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, value)
}

// GenerateAssessments runs the assessment job synchronously.
func (h *Handler) GenerateAssessments(w http.ResponseWriter, r *http.Request) {
	result, err := h.billing.GenerateAssessments(r.Context(), tenantID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// AssessLateFees runs the late fee job synchronously.
func (h *Handler) AssessLateFees(w http.ResponseWriter, r *http.Request) {
	result, err := h.billing.AssessLateFees(r.Context(), tenantID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// CreatePaymentIntent records a pending payment shadow transaction.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ref, err := h.payments.CreateIntent(r.Context(), tenantID(r), req.ResidentID, req.Description)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, intentResponse{ExternalRef: ref})
}

// PaymentWebhook journalizes a gateway confirmation callback.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if h.webhookSecret != "" && !h.verifySignature(body, r.Header.Get("X-Signature")) {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid webhook signature")
		return
	}
	var req webhookRequest
	if err := decodeBytes(body, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var txn ledger.Transaction
	if req.Status == "succeeded" {
		txn, err = h.payments.Confirm(r.Context(), tenantID(r), req.ExternalRef, req.ResidentID, req.Amount)
	} else {
		txn, err = h.payments.Fail(r.Context(), tenantID(r), req.ExternalRef)
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

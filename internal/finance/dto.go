package finance

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/covenant-hq/covenant/internal/ledger"
)

func decodeBytes(body []byte, target any) error {
	return json.NewDecoder(bytes.NewReader(body)).Decode(target)
}

type entryRequest struct {
	AccountID   int64   `json:"account_id" validate:"required,gt=0"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
	ResidentID  *int64  `json:"resident_id,omitempty"`
	Description string  `json:"description,omitempty"`
}

type transactionRequest struct {
	Date        *time.Time     `json:"date,omitempty"`
	Description string         `json:"description" validate:"required"`
	Reference   *string        `json:"reference,omitempty"`
	Entries     []entryRequest `json:"entries" validate:"required,min=2,dive"`
}

type entryResponse struct {
	ID          int64   `json:"id"`
	AccountID   int64   `json:"account_id"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	ResidentID  *int64  `json:"resident_id,omitempty"`
	Description string  `json:"description,omitempty"`
}

type transactionResponse struct {
	ID          int64           `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Reference   *string         `json:"reference,omitempty"`
	ExternalRef *string         `json:"external_ref,omitempty"`
	Status      string          `json:"status"`
	Entries     []entryResponse `json:"entries"`
}

type accountResponse struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

type balanceResponse struct {
	ResidentID int64   `json:"resident_id"`
	Balance    float64 `json:"balance"`
}

type intentRequest struct {
	ResidentID  int64  `json:"resident_id" validate:"required,gt=0"`
	Description string `json:"description,omitempty"`
}

type intentResponse struct {
	ExternalRef string `json:"external_ref"`
}

type webhookRequest struct {
	ExternalRef string  `json:"external_ref" validate:"required"`
	ResidentID  int64   `json:"resident_id" validate:"required,gt=0"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Currency    string  `json:"currency,omitempty"`
	Status      string  `json:"status" validate:"required,oneof=succeeded failed"`
}

func toTransactionResponse(txn ledger.Transaction) transactionResponse {
	entries := make([]entryResponse, 0, len(txn.Entries))
	for _, e := range txn.Entries {
		entries = append(entries, entryResponse{
			ID:          e.ID,
			AccountID:   e.AccountID,
			Debit:       e.Debit,
			Credit:      e.Credit,
			ResidentID:  e.ResidentID,
			Description: e.Description,
		})
	}
	return transactionResponse{
		ID:          txn.ID,
		Date:        txn.Date,
		Description: txn.Description,
		Reference:   txn.Reference,
		ExternalRef: txn.ExternalRef,
		Status:      string(txn.Status),
		Entries:     entries,
	}
}

func toAccountResponses(accounts []ledger.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{
			ID:       a.ID,
			Code:     a.Code,
			Name:     a.Name,
			Type:     string(a.Type),
			ParentID: a.ParentID,
		})
	}
	return out
}

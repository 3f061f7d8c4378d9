package dto

import (
	"strings"
	"time"

	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// TransactionResponse represents a recorded transaction in API responses.
type TransactionResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	AccountID  string `json:"account_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Source     string `json:"source"`
	CreatedAt  string `json:"created_at"`
}

// TransactionListResponse is returned when listing transactions.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	TotalCount   int                   `json:"total_count"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	HasMore      bool                  `json:"has_more"`
}

// RecordResponse is returned with 201 when a transaction is recorded.
// Check is set when the transaction was forced through as a likely duplicate.
type RecordResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	CheckID     int64               `json:"check_id"`
	Check       *CheckResponse      `json:"duplicate,omitempty"`
}

// ToTransaction builds the domain transaction from a request body.
func (r TransactionRequest) ToTransaction() ledger.Transaction {
	return ledger.Transaction{
		ID:         strings.TrimSpace(r.ID),
		Type:       ledger.TransactionType(strings.ToLower(strings.TrimSpace(r.Type))),
		Amount:     r.Amount,
		Name:       strings.TrimSpace(r.Name),
		Date:       r.Date.UTC(),
		AccountID:  r.AccountID,
		CategoryID: r.CategoryID,
		Source:     r.Source,
	}
}

// ToTransactionResponse converts a domain transaction.
func ToTransactionResponse(tx ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:         tx.ID,
		Type:       string(tx.Type),
		Amount:     tx.Amount.StringFixed(2),
		Name:       tx.Name,
		Date:       tx.Date.UTC().Format(time.RFC3339),
		AccountID:  tx.AccountID,
		CategoryID: tx.CategoryID,
		Source:     tx.Source,
		CreatedAt:  tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToTransactionListResponse converts a paginated storage result.
func ToTransactionListResponse(result *storage.TransactionListResult) TransactionListResponse {
	response := TransactionListResponse{
		Transactions: make([]TransactionResponse, 0, len(result.Transactions)),
		TotalCount:   result.TotalCount,
		Limit:        result.Limit,
		Offset:       result.Offset,
	}
	for _, tx := range result.Transactions {
		response.Transactions = append(response.Transactions, ToTransactionResponse(tx))
	}
	response.HasMore = result.Offset+len(result.Transactions) < result.TotalCount
	return response
}

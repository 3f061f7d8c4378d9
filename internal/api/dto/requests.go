package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRequest is the body of POST /api/transactions.
// Amount accepts a JSON number or a decimal string.
type TransactionRequest struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Name       string          `json:"name"`
	Date       time.Time       `json:"date"`
	AccountID  string          `json:"account_id"`
	CategoryID string          `json:"category_id"`
	Source     string          `json:"source"`
}

// CheckRequest is the body of POST /api/duplicates/check.
// Every candidate field is optional; absent fields are left out of scoring.
type CheckRequest struct {
	Type            *string          `json:"type"`
	Amount          *decimal.Decimal `json:"amount"`
	Name            *string          `json:"name"`
	Date            *time.Time       `json:"date"`
	AccountID       *string          `json:"account_id"`
	CategoryID      *string          `json:"category_id"`
	TimeWindowHours float64          `json:"time_window_hours"`
	SameAccountOnly bool             `json:"same_account_only"`
}

// CheckListParams represents query parameters for listing duplicate checks.
type CheckListParams struct {
	Limit          int  `form:"limit"`
	DuplicatesOnly bool `form:"duplicates_only"`
}

// DefaultCheckListParams returns default values for check list params.
func DefaultCheckListParams() CheckListParams {
	return CheckListParams{
		Limit: 20,
	}
}

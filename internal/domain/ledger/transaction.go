// Package ledger defines the transaction model shared by storage, the duplicate
// detector and the API.
package ledger

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// ParseTransactionType parses a case-insensitive type name
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid transaction type %q (want income or expense)", s)
	}
	return t, nil
}

// Source describes where a transaction entered the ledger
const (
	SourceManual  = "manual"
	SourceImport  = "import"
	SourceReceipt = "receipt"
)

// MaxNameLength is the longest name, in runes, a transaction may carry
const MaxNameLength = 256

// Transaction is a recorded income or expense
type Transaction struct {
	ID         string          `json:"id"`
	Type       TransactionType `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Name       string          `json:"name"`
	Date       time.Time       `json:"date"`
	AccountID  string          `json:"account_id"`
	CategoryID string          `json:"category_id,omitempty"`
	Source     string          `json:"source,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewID returns a fresh transaction ID
func NewID() string {
	return uuid.NewString()
}

// ValidationError lists every problem found on a transaction
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid transaction: " + strings.Join(e.Problems, "; ")
}

// Validate checks the fields required to record a transaction.
// Returns a *ValidationError when any field is invalid.
func (t *Transaction) Validate() error {
	var problems []string

	if !t.Type.Valid() {
		problems = append(problems, fmt.Sprintf("type %q must be income or expense", t.Type))
	}
	if !t.Amount.IsPositive() {
		problems = append(problems, "amount must be positive")
	}
	if strings.TrimSpace(t.Name) == "" {
		problems = append(problems, "name is required")
	} else if n := utf8.RuneCountInString(t.Name); n > MaxNameLength {
		problems = append(problems, fmt.Sprintf("name is %d characters long (max %d)", n, MaxNameLength))
	}
	if t.Date.IsZero() {
		problems = append(problems, "date is required")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

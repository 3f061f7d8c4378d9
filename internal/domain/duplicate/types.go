package duplicate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
)

// Default thresholds and weights. Weights sum to 1.0.
const (
	DefaultDuplicateThreshold = 0.8
	DefaultPotentialThreshold = 0.7
	DefaultTimeWindowHours    = 24

	AmountWeight  = 0.4
	NameWeight    = 0.3
	AccountWeight = 0.2
	TypeWeight    = 0.1
)

// Weights holds the coefficient of each compared field
type Weights struct {
	Amount  float64
	Name    float64
	Account float64
	Type    float64
}

// Config holds detector configuration
type Config struct {
	DuplicateThreshold float64 // Score must be strictly above this to flag a duplicate
	PotentialThreshold float64 // Score must be strictly above this to surface a pair
	Weights            Weights
}

// DefaultConfig returns the standard thresholds and weights
func DefaultConfig() Config {
	return Config{
		DuplicateThreshold: DefaultDuplicateThreshold,
		PotentialThreshold: DefaultPotentialThreshold,
		Weights: Weights{
			Amount:  AmountWeight,
			Name:    NameWeight,
			Account: AccountWeight,
			Type:    TypeWeight,
		},
	}
}

// Record is a transaction where every compared field may be absent.
// A nil field is excluded from scoring on both sides.
type Record struct {
	ID         string                  `json:"id,omitempty"`
	Type       *ledger.TransactionType `json:"type,omitempty"`
	Amount     *decimal.Decimal        `json:"amount,omitempty"`
	Name       *string                 `json:"name,omitempty"`
	Date       *time.Time              `json:"date,omitempty"`
	AccountID  *string                 `json:"account_id,omitempty"`
	CategoryID *string                 `json:"category_id,omitempty"`
}

// FromTransaction builds a Record, treating zero values as absent
func FromTransaction(tx ledger.Transaction) Record {
	r := Record{ID: tx.ID}

	if tx.Type != "" {
		typ := tx.Type
		r.Type = &typ
	}
	if !tx.Amount.IsZero() {
		amount := tx.Amount
		r.Amount = &amount
	}
	if tx.Name != "" {
		name := tx.Name
		r.Name = &name
	}
	if !tx.Date.IsZero() {
		date := tx.Date
		r.Date = &date
	}
	if tx.AccountID != "" {
		account := tx.AccountID
		r.AccountID = &account
	}
	if tx.CategoryID != "" {
		category := tx.CategoryID
		r.CategoryID = &category
	}

	return r
}

// FromTransactions converts a slice of transactions
func FromTransactions(txs []ledger.Transaction) []Record {
	records := make([]Record, 0, len(txs))
	for _, tx := range txs {
		records = append(records, FromTransaction(tx))
	}
	return records
}

// DisplayName returns the name or an empty string when absent
func (r Record) DisplayName() string {
	if r.Name == nil {
		return ""
	}
	return *r.Name
}

// SimilarityResult is the outcome of checking one candidate
type SimilarityResult struct {
	IsDuplicate        bool     `json:"is_duplicate"`
	Confidence         float64  `json:"confidence"`
	SimilarTransaction *Record  `json:"similar_transaction,omitempty"`
	Reasons            []string `json:"reasons"`
}

// PotentialDuplicate groups a transaction with the later transactions resembling it
type PotentialDuplicate struct {
	Transaction Record   `json:"transaction"`
	Duplicates  []Record `json:"duplicates"`
	Confidence  float64  `json:"confidence"` // Highest score among Duplicates
}

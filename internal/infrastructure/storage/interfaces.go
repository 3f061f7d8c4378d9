package storage

import (
	"context"
	"errors"
	"time"

	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
)

// ErrNotFound is returned when a transaction or check does not exist
var ErrNotFound = errors.New("not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	TransactionRepository
	DuplicateCheckRepository
	Close() error
}

// TransactionRepository handles recorded transactions
type TransactionRepository interface {
	// SaveTransaction inserts or replaces a transaction by ID
	SaveTransaction(ctx context.Context, tx *ledger.Transaction) error

	// GetTransaction retrieves a transaction by ID (ErrNotFound if missing)
	GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error)

	// DeleteTransaction removes a transaction by ID (ErrNotFound if missing)
	DeleteTransaction(ctx context.Context, id string) error

	// ListTransactions returns transactions matching the filters with pagination
	ListTransactions(ctx context.Context, filters TransactionFilters) (*TransactionListResult, error)

	// TransactionsBetween returns every transaction dated in [from, to].
	// An empty accountID matches all accounts.
	TransactionsBetween(ctx context.Context, from, to time.Time, accountID string) ([]ledger.Transaction, error)
}

// TransactionFilters defines filters for listing transactions
type TransactionFilters struct {
	AccountID string    // Filter by account (empty = all)
	Type      string    // "income" or "expense" (empty = all)
	Search    string    // Case-insensitive substring of the name
	From      time.Time // Inclusive lower date bound (zero = unbounded)
	To        time.Time // Inclusive upper date bound (zero = unbounded)
	Limit     int       // Max results (0 = default 50, -1 = no limit)
	Offset    int       // Pagination offset
	OrderAsc  bool      // Sort by date ascending (default: newest first)
}

// TransactionListResult contains paginated transaction results
type TransactionListResult struct {
	Transactions []ledger.Transaction `json:"transactions"`
	TotalCount   int                  `json:"total_count"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// DuplicateCheckRepository keeps the audit trail of duplicate checks
type DuplicateCheckRepository interface {
	// SaveDuplicateCheck records a check and returns its ID
	SaveDuplicateCheck(ctx context.Context, check *DuplicateCheck) (int64, error)

	// GetDuplicateCheck retrieves a check by ID (ErrNotFound if missing)
	GetDuplicateCheck(ctx context.Context, id int64) (*DuplicateCheck, error)

	// ListDuplicateChecks returns the most recent checks first
	ListDuplicateChecks(ctx context.Context, limit int, onlyDuplicates bool) ([]DuplicateCheck, error)

	// GetStats returns aggregate statistics
	GetStats(ctx context.Context) (*Stats, error)
}

package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu           sync.Mutex
	transactions map[string]ledger.Transaction
	checks       []DuplicateCheck
	nextCheckID  int64

	// Hooks for test assertions
	SaveTransactionCalled bool
	LastSavedTransaction  *ledger.Transaction
	BetweenCalled         bool
	LastBetweenFrom       time.Time
	LastBetweenTo         time.Time
	LastSavedCheck        *DuplicateCheck

	// Error injection for testing error paths
	SaveTransactionErr error
	GetTransactionErr  error
	ListErr            error
	BetweenErr         error
	SaveCheckErr       error
	StatsErr           error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		transactions: make(map[string]ledger.Transaction),
		checks:       make([]DuplicateCheck, 0),
		nextCheckID:  1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveTransaction stores a copy of the transaction
func (m *MockRepository) SaveTransaction(_ context.Context, tx *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveTransactionCalled = true
	m.LastSavedTransaction = tx
	if m.SaveTransactionErr != nil {
		return m.SaveTransactionErr
	}

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	m.transactions[tx.ID] = *tx
	return nil
}

// GetTransaction returns a copy of the stored transaction
func (m *MockRepository) GetTransaction(_ context.Context, id string) (*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetTransactionErr != nil {
		return nil, m.GetTransactionErr
	}

	tx, ok := m.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &tx, nil
}

// DeleteTransaction removes a stored transaction
func (m *MockRepository) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[id]; !ok {
		return ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

// ListTransactions filters, sorts and paginates the stored transactions
func (m *MockRepository) ListTransactions(_ context.Context, filters TransactionFilters) (*TransactionListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}

	matched := m.filter(filters)
	sort.Slice(matched, func(i, j int) bool {
		if filters.OrderAsc {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].Date.After(matched[j].Date)
	})

	limit := filters.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	page := make([]ledger.Transaction, 0)
	for i := filters.Offset; i < len(matched); i++ {
		if limit > 0 && len(page) >= limit {
			break
		}
		page = append(page, matched[i])
	}

	return &TransactionListResult{
		Transactions: page,
		TotalCount:   len(matched),
		Limit:        limit,
		Offset:       filters.Offset,
	}, nil
}

// TransactionsBetween returns stored transactions dated in [from, to]
func (m *MockRepository) TransactionsBetween(_ context.Context, from, to time.Time, accountID string) ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BetweenCalled = true
	m.LastBetweenFrom = from
	m.LastBetweenTo = to
	if m.BetweenErr != nil {
		return nil, m.BetweenErr
	}

	matched := m.filter(TransactionFilters{AccountID: accountID, From: from, To: to})
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Date.Before(matched[j].Date)
	})
	return matched, nil
}

func (m *MockRepository) filter(filters TransactionFilters) []ledger.Transaction {
	matched := make([]ledger.Transaction, 0)
	for _, tx := range m.transactions {
		if filters.AccountID != "" && tx.AccountID != filters.AccountID {
			continue
		}
		if filters.Type != "" && string(tx.Type) != filters.Type {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(tx.Name), strings.ToLower(filters.Search)) {
			continue
		}
		if !filters.From.IsZero() && tx.Date.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && tx.Date.After(filters.To) {
			continue
		}
		matched = append(matched, tx)
	}
	return matched
}

// SaveDuplicateCheck appends a check to the in-memory log
func (m *MockRepository) SaveDuplicateCheck(_ context.Context, check *DuplicateCheck) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastSavedCheck = check
	if m.SaveCheckErr != nil {
		return 0, m.SaveCheckErr
	}

	check.ID = m.nextCheckID
	m.nextCheckID++
	if check.CheckedAt.IsZero() {
		check.CheckedAt = time.Now().UTC()
	}
	if check.Action == "" {
		check.Action = ActionChecked
	}
	m.checks = append(m.checks, *check)
	return check.ID, nil
}

// GetDuplicateCheck returns a stored check by ID
func (m *MockRepository) GetDuplicateCheck(_ context.Context, id int64) (*DuplicateCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, check := range m.checks {
		if check.ID == id {
			c := check
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// ListDuplicateChecks returns the most recent checks first
func (m *MockRepository) ListDuplicateChecks(_ context.Context, limit int, onlyDuplicates bool) ([]DuplicateCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = defaultListLimit
	}

	checks := make([]DuplicateCheck, 0)
	for i := len(m.checks) - 1; i >= 0 && len(checks) < limit; i-- {
		if onlyDuplicates && !m.checks[i].IsDuplicate {
			continue
		}
		checks = append(checks, m.checks[i])
	}
	return checks, nil
}

// GetStats computes statistics over the in-memory data
func (m *MockRepository) GetStats(_ context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StatsErr != nil {
		return nil, m.StatsErr
	}

	stats := &Stats{TransactionsByType: make(map[string]int)}
	for _, tx := range m.transactions {
		stats.TransactionsByType[string(tx.Type)]++
		stats.TotalTransactions++
	}

	var confidenceSum float64
	for _, check := range m.checks {
		stats.TotalChecks++
		switch check.Action {
		case ActionRejected:
			stats.RejectedCount++
		case ActionForced:
			stats.ForcedCount++
		}
		if check.IsDuplicate {
			stats.DuplicatesFlagged++
			confidenceSum += check.Confidence
		}
	}
	if stats.DuplicatesFlagged > 0 {
		stats.AverageDuplicateConfidence = confidenceSum / float64(stats.DuplicatesFlagged)
	}

	return stats, nil
}

// TransactionCount returns the number of stored transactions
func (m *MockRepository) TransactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

// Checks returns a copy of every stored check, oldest first
func (m *MockRepository) Checks() []DuplicateCheck {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DuplicateCheck(nil), m.checks...)
}

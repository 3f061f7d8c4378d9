package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
)

// dateLayout is fixed-width so stored dates sort lexicographically.
// Dates are always stored in UTC.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

const defaultListLimit = 50

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// SaveTransaction inserts or replaces a transaction
func (s *Storage) SaveTransaction(ctx context.Context, tx *ledger.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT OR REPLACE INTO transactions
	(id, type, amount, name, date, account_id, category_id, source, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		string(tx.Type),
		tx.Amount.String(),
		tx.Name,
		formatDate(tx.Date),
		tx.AccountID,
		tx.CategoryID,
		tx.Source,
		formatDate(tx.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", tx.ID, err)
	}

	return nil
}

const transactionColumns = `id, type, amount, name, date, account_id, category_id, source, created_at`

// GetTransaction retrieves a transaction by ID
func (s *Storage) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return tx, nil
}

// DeleteTransaction removes a transaction by ID
func (s *Storage) DeleteTransaction(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListTransactions returns transactions matching the given filters with pagination
func (s *Storage) ListTransactions(ctx context.Context, filters TransactionFilters) (*TransactionListResult, error) {
	where, args := buildTransactionWhere(filters)

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	limit := filters.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	order := "DESC"
	if filters.OrderAsc {
		order = "ASC"
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		` ORDER BY date ` + order + `, id ` + order + ` LIMIT ? OFFSET ?`
	args = append(args, limit, filters.Offset)

	txs, err := s.queryTransactions(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &TransactionListResult{
		Transactions: txs,
		TotalCount:   total,
		Limit:        limit,
		Offset:       filters.Offset,
	}, nil
}

// TransactionsBetween returns every transaction dated in [from, to]
func (s *Storage) TransactionsBetween(ctx context.Context, from, to time.Time, accountID string) ([]ledger.Transaction, error) {
	where, args := buildTransactionWhere(TransactionFilters{
		AccountID: accountID,
		From:      from,
		To:        to,
	})

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY date ASC, id ASC`
	return s.queryTransactions(ctx, query, args...)
}

func buildTransactionWhere(filters TransactionFilters) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filters.AccountID != "" {
		conditions = append(conditions, "account_id = ?")
		args = append(args, filters.AccountID)
	}
	if filters.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filters.Type)
	}
	if filters.Search != "" {
		conditions = append(conditions, "name LIKE ?")
		args = append(args, "%"+filters.Search+"%")
	}
	if !filters.From.IsZero() {
		conditions = append(conditions, "date >= ?")
		args = append(args, formatDate(filters.From))
	}
	if !filters.To.IsZero() {
		conditions = append(conditions, "date <= ?")
		args = append(args, formatDate(filters.To))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (s *Storage) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txs := make([]ledger.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}

	return txs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*ledger.Transaction, error) {
	var (
		tx        ledger.Transaction
		txType    string
		amount    string
		date      string
		createdAt string
	)

	err := row.Scan(
		&tx.ID,
		&txType,
		&amount,
		&tx.Name,
		&date,
		&tx.AccountID,
		&tx.CategoryID,
		&tx.Source,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Type = ledger.TransactionType(txType)

	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("transaction %s has invalid amount %q: %w", tx.ID, amount, err)
	}
	if tx.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("transaction %s has invalid date %q: %w", tx.ID, date, err)
	}
	if tx.CreatedAt, err = parseDate(createdAt); err != nil {
		return nil, fmt.Errorf("transaction %s has invalid created_at %q: %w", tx.ID, createdAt, err)
	}

	return &tx, nil
}

// SaveDuplicateCheck records a duplicate check
func (s *Storage) SaveDuplicateCheck(ctx context.Context, check *DuplicateCheck) (int64, error) {
	if check.CheckedAt.IsZero() {
		check.CheckedAt = time.Now().UTC()
	}
	if check.Action == "" {
		check.Action = ActionChecked
	}

	reasons := check.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return 0, err
	}

	query := `
	INSERT INTO duplicate_checks
	(candidate_json, matched_transaction_id, is_duplicate, confidence, reasons_json,
	 time_window_hours, compared_count, action, checked_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		check.CandidateJSON,
		check.MatchedTransactionID,
		check.IsDuplicate,
		check.Confidence,
		string(reasonsJSON),
		check.TimeWindowHours,
		check.ComparedCount,
		check.Action,
		formatDate(check.CheckedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save duplicate check: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	check.ID = id

	return id, nil
}

const checkColumns = `id, candidate_json, matched_transaction_id, is_duplicate, confidence,
	reasons_json, time_window_hours, compared_count, action, checked_at`

// GetDuplicateCheck retrieves a check by ID
func (s *Storage) GetDuplicateCheck(ctx context.Context, id int64) (*DuplicateCheck, error) {
	query := `SELECT ` + checkColumns + ` FROM duplicate_checks WHERE id = ?`

	check, err := scanDuplicateCheck(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return check, nil
}

// ListDuplicateChecks returns the most recent checks first
func (s *Storage) ListDuplicateChecks(ctx context.Context, limit int, onlyDuplicates bool) ([]DuplicateCheck, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + checkColumns + ` FROM duplicate_checks`
	if onlyDuplicates {
		query += ` WHERE is_duplicate = 1`
	}
	query += ` ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate checks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	checks := make([]DuplicateCheck, 0)
	for rows.Next() {
		check, err := scanDuplicateCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, *check)
	}

	return checks, rows.Err()
}

func scanDuplicateCheck(row rowScanner) (*DuplicateCheck, error) {
	var (
		check       DuplicateCheck
		reasonsJSON string
		checkedAt   string
	)

	err := row.Scan(
		&check.ID,
		&check.CandidateJSON,
		&check.MatchedTransactionID,
		&check.IsDuplicate,
		&check.Confidence,
		&reasonsJSON,
		&check.TimeWindowHours,
		&check.ComparedCount,
		&check.Action,
		&checkedAt,
	)
	if err != nil {
		return nil, err
	}

	// Reasons are informational; a malformed value leaves the list empty
	check.Reasons = []string{}
	_ = json.Unmarshal([]byte(reasonsJSON), &check.Reasons)

	if check.CheckedAt, err = parseDate(checkedAt); err != nil {
		return nil, fmt.Errorf("duplicate check %d has invalid checked_at %q: %w", check.ID, checkedAt, err)
	}

	return &check, nil
}

// GetStats returns aggregate statistics
func (s *Storage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		TransactionsByType: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM transactions GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var txType string
		var count int
		if err := rows.Scan(&txType, &count); err != nil {
			return nil, err
		}
		stats.TransactionsByType[txType] = count
		stats.TotalTransactions += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query := `
	SELECT
		COUNT(*) as total,
		COUNT(CASE WHEN is_duplicate = 1 THEN 1 END) as flagged,
		COUNT(CASE WHEN action = 'rejected' THEN 1 END) as rejected,
		COUNT(CASE WHEN action = 'forced' THEN 1 END) as forced,
		COALESCE(AVG(CASE WHEN is_duplicate = 1 THEN confidence END), 0) as avg_confidence
	FROM duplicate_checks
	`

	err = s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalChecks,
		&stats.DuplicatesFlagged,
		&stats.RejectedCount,
		&stats.ForcedCount,
		&stats.AverageDuplicateConfidence,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

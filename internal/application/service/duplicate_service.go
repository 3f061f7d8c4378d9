package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eshaffer321/ledger-dedupe/internal/domain/duplicate"
	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// ErrLikelyDuplicate is returned when a transaction was not recorded because
// it resembles one already in the ledger. Retry with Force to record it anyway.
var ErrLikelyDuplicate = errors.New("likely duplicate transaction")

// CheckRequest holds parameters for a duplicate check.
type CheckRequest struct {
	Candidate       duplicate.Record
	TimeWindowHours float64 // 0 = service default
	AccountID       string  // If set, only compare against this account
}

// CheckOutcome is the detector result plus audit metadata.
type CheckOutcome struct {
	CheckID       int64
	Result        duplicate.SimilarityResult
	ComparedCount int // Transactions loaded from the window
}

// RecordOptions controls how a transaction is recorded.
type RecordOptions struct {
	Force           bool    // Record even when flagged as a duplicate
	TimeWindowHours float64 // 0 = service default
}

// RecordOutcome reports what happened to a transaction.
type RecordOutcome struct {
	Transaction ledger.Transaction
	Check       *CheckOutcome
	Recorded    bool
}

// ImportOptions controls a bulk import.
type ImportOptions struct {
	DryRun          bool // Check only, record nothing
	Force           bool
	TimeWindowHours float64
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Total      int
	Imported   int
	Duplicates int
	Invalid    int
	Errors     []error
	Flagged    []RecordOutcome
}

// DuplicateService checks candidates against recorded transactions and
// records transactions that pass.
type DuplicateService struct {
	storage         storage.Repository
	detector        *duplicate.Detector
	logger          *slog.Logger
	timeWindowHours float64
	now             func() time.Time
}

// NewDuplicateService creates a new duplicate service.
// A non-positive timeWindowHours uses the detector default of 24 hours.
func NewDuplicateService(store storage.Repository, detector *duplicate.Detector, timeWindowHours float64, logger *slog.Logger) *DuplicateService {
	if detector == nil {
		detector = duplicate.NewDetector(duplicate.DefaultConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeWindowHours <= 0 {
		timeWindowHours = duplicate.DefaultTimeWindowHours
	}

	return &DuplicateService{
		storage:         store,
		detector:        detector,
		logger:          logger,
		timeWindowHours: timeWindowHours,
		now:             time.Now,
	}
}

// TimeWindowHours returns the default comparison window.
func (s *DuplicateService) TimeWindowHours() float64 {
	return s.timeWindowHours
}

// CheckTransaction runs the detector for a candidate and audits the result.
func (s *DuplicateService) CheckTransaction(ctx context.Context, req CheckRequest) (*CheckOutcome, error) {
	return s.check(ctx, req, storage.ActionChecked)
}

func (s *DuplicateService) check(ctx context.Context, req CheckRequest, action string) (*CheckOutcome, error) {
	window := req.TimeWindowHours
	if window <= 0 {
		window = s.timeWindowHours
	}

	existing, err := s.loadWindow(ctx, req.Candidate, window, req.AccountID)
	if err != nil {
		return nil, err
	}

	var result duplicate.SimilarityResult
	if req.Candidate.Date == nil {
		result = noWindowResult()
	} else {
		result = s.detector.DetectDuplicate(req.Candidate, duplicate.FromTransactions(existing), window)
	}

	outcome := &CheckOutcome{
		Result:        result,
		ComparedCount: len(existing),
	}

	if result.IsDuplicate && action == storage.ActionRecorded {
		action = storage.ActionRejected
	}

	checkID, err := s.audit(ctx, req.Candidate, window, outcome, action)
	if err != nil {
		return nil, err
	}
	outcome.CheckID = checkID

	s.logger.Debug("duplicate check",
		"candidate", req.Candidate.DisplayName(),
		"compared", outcome.ComparedCount,
		"confidence", result.Confidence,
		"duplicate", result.IsDuplicate)

	return outcome, nil
}

// noWindowResult is what the detector reports for a dateless candidate:
// every stored record falls outside its window, so nothing scores.
func noWindowResult() duplicate.SimilarityResult {
	return duplicate.SimilarityResult{Reasons: []string{}}
}

// loadWindow fetches the transactions the detector may compare with.
// Without a candidate date nothing can fall inside the window, so nothing is loaded.
func (s *DuplicateService) loadWindow(ctx context.Context, candidate duplicate.Record, windowHours float64, accountID string) ([]ledger.Transaction, error) {
	if candidate.Date == nil {
		return nil, nil
	}

	window := duplicate.WindowDuration(windowHours)
	from := candidate.Date.Add(-window)
	to := candidate.Date.Add(window)
	if from.After(*candidate.Date) || to.Before(*candidate.Date) {
		// Zero bounds leave the range open
		from, to = time.Time{}, time.Time{}
	}

	txs, err := s.storage.TransactionsBetween(ctx, from, to, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions in window: %w", err)
	}

	// The candidate itself may already be stored (re-check after save)
	if candidate.ID != "" {
		filtered := txs[:0]
		for _, tx := range txs {
			if tx.ID != candidate.ID {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}

	return txs, nil
}

func (s *DuplicateService) audit(ctx context.Context, candidate duplicate.Record, window float64, outcome *CheckOutcome, action string) (int64, error) {
	candidateJSON, err := json.Marshal(candidate)
	if err != nil {
		return 0, fmt.Errorf("failed to encode candidate: %w", err)
	}

	check := &storage.DuplicateCheck{
		CandidateJSON:   string(candidateJSON),
		IsDuplicate:     outcome.Result.IsDuplicate,
		Confidence:      outcome.Result.Confidence,
		Reasons:         outcome.Result.Reasons,
		TimeWindowHours: window,
		ComparedCount:   outcome.ComparedCount,
		Action:          action,
		CheckedAt:       s.now().UTC(),
	}
	if outcome.Result.SimilarTransaction != nil {
		check.MatchedTransactionID = outcome.Result.SimilarTransaction.ID
	}

	id, err := s.storage.SaveDuplicateCheck(ctx, check)
	if err != nil {
		return 0, fmt.Errorf("failed to record duplicate check: %w", err)
	}
	return id, nil
}

// RecordTransaction validates tx, checks it for duplicates and saves it.
// A likely duplicate is not saved unless opts.Force is set; the returned
// outcome carries the similarity result either way.
func (s *DuplicateService) RecordTransaction(ctx context.Context, tx ledger.Transaction, opts RecordOptions) (*RecordOutcome, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	if tx.ID == "" {
		tx.ID = ledger.NewID()
	}
	if tx.Source == "" {
		tx.Source = ledger.SourceManual
	}

	action := storage.ActionRecorded
	if opts.Force {
		action = storage.ActionForced
	}

	check, err := s.check(ctx, CheckRequest{
		Candidate:       duplicate.FromTransaction(tx),
		TimeWindowHours: opts.TimeWindowHours,
	}, action)
	if err != nil {
		return nil, err
	}

	outcome := &RecordOutcome{
		Transaction: tx,
		Check:       check,
	}

	if check.Result.IsDuplicate && !opts.Force {
		s.logger.Warn("transaction not recorded: likely duplicate",
			"name", tx.Name,
			"amount", tx.Amount.StringFixed(2),
			"confidence", check.Result.Confidence,
			"matched", check.Result.SimilarTransaction.ID)
		return outcome, fmt.Errorf("%w of %s (confidence %.2f)",
			ErrLikelyDuplicate, check.Result.SimilarTransaction.ID, check.Result.Confidence)
	}

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now().UTC()
	}
	if err := s.storage.SaveTransaction(ctx, &tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	outcome.Transaction = tx
	outcome.Recorded = true

	s.logger.Info("transaction recorded",
		"id", tx.ID,
		"name", tx.Name,
		"amount", tx.Amount.StringFixed(2),
		"forced", opts.Force && check.Result.IsDuplicate)

	return outcome, nil
}

// ScanPotentialDuplicates runs the all-pairs scan over the matching transactions,
// oldest first. The scan is O(n²); narrow the filters for large ledgers.
func (s *DuplicateService) ScanPotentialDuplicates(ctx context.Context, filters storage.TransactionFilters) ([]duplicate.PotentialDuplicate, error) {
	filters.Limit = -1
	filters.Offset = 0
	filters.OrderAsc = true

	list, err := s.storage.ListTransactions(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	results := s.detector.FindPotentialDuplicates(duplicate.FromTransactions(list.Transactions))

	s.logger.Info("potential duplicate scan",
		"transactions", len(list.Transactions),
		"groups", len(results))

	return results, nil
}

// ImportTransactions records each transaction in order. Transactions recorded
// earlier in the batch are visible to later duplicate checks. Invalid rows and
// duplicates are counted and skipped; storage failures abort the import.
func (s *DuplicateService) ImportTransactions(ctx context.Context, txs []ledger.Transaction, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{Total: len(txs)}

	for i, tx := range txs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if tx.Source == "" {
			tx.Source = ledger.SourceImport
		}

		if opts.DryRun {
			if err := s.dryRunOne(ctx, i, tx, opts, result); err != nil {
				return result, err
			}
			continue
		}

		outcome, err := s.RecordTransaction(ctx, tx, RecordOptions{
			Force:           opts.Force,
			TimeWindowHours: opts.TimeWindowHours,
		})

		var verr *ledger.ValidationError
		switch {
		case errors.As(err, &verr):
			result.Invalid++
			result.Errors = append(result.Errors, fmt.Errorf("row %d: %w", i+1, err))
		case errors.Is(err, ErrLikelyDuplicate):
			result.Duplicates++
			result.Flagged = append(result.Flagged, *outcome)
		case err != nil:
			return result, fmt.Errorf("row %d: %w", i+1, err)
		default:
			result.Imported++
			if outcome.Check.Result.IsDuplicate {
				result.Flagged = append(result.Flagged, *outcome)
			}
		}
	}

	s.logger.Info("import finished",
		"total", result.Total,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"invalid", result.Invalid,
		"dry_run", opts.DryRun)

	return result, nil
}

func (s *DuplicateService) dryRunOne(ctx context.Context, i int, tx ledger.Transaction, opts ImportOptions, result *ImportResult) error {
	if err := tx.Validate(); err != nil {
		result.Invalid++
		result.Errors = append(result.Errors, fmt.Errorf("row %d: %w", i+1, err))
		return nil
	}

	check, err := s.CheckTransaction(ctx, CheckRequest{
		Candidate:       duplicate.FromTransaction(tx),
		TimeWindowHours: opts.TimeWindowHours,
	})
	if err != nil {
		return fmt.Errorf("row %d: %w", i+1, err)
	}

	if check.Result.IsDuplicate {
		result.Duplicates++
		result.Flagged = append(result.Flagged, RecordOutcome{Transaction: tx, Check: check})
		return nil
	}
	result.Imported++
	return nil
}

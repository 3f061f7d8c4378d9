package storage

import "time"

// Actions recorded on a duplicate check
const (
	ActionChecked  = "checked"  // Check only, nothing saved
	ActionRecorded = "recorded" // Not a duplicate, transaction saved
	ActionRejected = "rejected" // Likely duplicate, transaction not saved
	ActionForced   = "forced"   // Likely duplicate, saved anyway
)

// DuplicateCheck is one audited run of the duplicate detector
type DuplicateCheck struct {
	ID                   int64     `json:"id"`
	CandidateJSON        string    `json:"candidate_json"`
	MatchedTransactionID string    `json:"matched_transaction_id,omitempty"`
	IsDuplicate          bool      `json:"is_duplicate"`
	Confidence           float64   `json:"confidence"`
	Reasons              []string  `json:"reasons"`
	TimeWindowHours      float64   `json:"time_window_hours"`
	ComparedCount        int       `json:"compared_count"`
	Action               string    `json:"action"`
	CheckedAt            time.Time `json:"checked_at"`
}

// Stats contains aggregate statistics
type Stats struct {
	TotalTransactions          int            `json:"total_transactions"`
	TransactionsByType         map[string]int `json:"transactions_by_type"`
	TotalChecks                int            `json:"total_checks"`
	DuplicatesFlagged          int            `json:"duplicates_flagged"`
	RejectedCount              int            `json:"rejected_count"`
	ForcedCount                int            `json:"forced_count"`
	AverageDuplicateConfidence float64        `json:"average_duplicate_confidence"`
}

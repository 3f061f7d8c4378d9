package dto

import (
	"time"

	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	TotalTransactions          int            `json:"total_transactions"`
	TransactionsByType         map[string]int `json:"transactions_by_type"`
	TotalChecks                int            `json:"total_checks"`
	DuplicatesFlagged          int            `json:"duplicates_flagged"`
	RejectedCount              int            `json:"rejected_count"`
	ForcedCount                int            `json:"forced_count"`
	AverageDuplicateConfidence float64        `json:"average_duplicate_confidence"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ToStatsResponse converts storage stats.
func ToStatsResponse(stats *storage.Stats) StatsResponse {
	byType := stats.TransactionsByType
	if byType == nil {
		byType = map[string]int{}
	}
	return StatsResponse{
		TotalTransactions:          stats.TotalTransactions,
		TransactionsByType:         byType,
		TotalChecks:                stats.TotalChecks,
		DuplicatesFlagged:          stats.DuplicatesFlagged,
		RejectedCount:              stats.RejectedCount,
		ForcedCount:                stats.ForcedCount,
		AverageDuplicateConfidence: stats.AverageDuplicateConfidence,
	}
}

package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eshaffer321/ledger-dedupe/internal/application/service"
	"github.com/eshaffer321/ledger-dedupe/internal/domain/duplicate"
	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// CheckResponse is the outcome of a duplicate check.
type CheckResponse struct {
	CheckID            int64             `json:"check_id"`
	IsDuplicate        bool              `json:"is_duplicate"`
	Confidence         float64           `json:"confidence"`
	SimilarTransaction *duplicate.Record `json:"similar_transaction,omitempty"`
	Reasons            []string          `json:"reasons"`
	ComparedCount      int               `json:"compared_count"`
}

// DuplicateCheckResponse is a stored audit entry.
type DuplicateCheckResponse struct {
	ID                   int64           `json:"id"`
	Candidate            json.RawMessage `json:"candidate"`
	MatchedTransactionID string          `json:"matched_transaction_id,omitempty"`
	IsDuplicate          bool            `json:"is_duplicate"`
	Confidence           float64         `json:"confidence"`
	Reasons              []string        `json:"reasons"`
	TimeWindowHours      float64         `json:"time_window_hours"`
	ComparedCount        int             `json:"compared_count"`
	Action               string          `json:"action"`
	CheckedAt            string          `json:"checked_at"`
}

// DuplicateCheckListResponse is returned when listing duplicate checks.
type DuplicateCheckListResponse struct {
	Checks []DuplicateCheckResponse `json:"checks"`
	Count  int                      `json:"count"`
}

// PotentialDuplicatesResponse is returned by the all-pairs scan.
type PotentialDuplicatesResponse struct {
	Groups []duplicate.PotentialDuplicate `json:"groups"`
	Count  int                            `json:"count"`
}

// ToServiceRequest converts the body into a service check request.
// Returns a ledger.ValidationError when the type is present but unknown.
func (r CheckRequest) ToServiceRequest() (service.CheckRequest, error) {
	candidate := duplicate.Record{
		Amount:     r.Amount,
		Name:       r.Name,
		AccountID:  r.AccountID,
		CategoryID: r.CategoryID,
	}

	if r.Type != nil {
		typ, err := ledger.ParseTransactionType(*r.Type)
		if err != nil {
			return service.CheckRequest{}, &ledger.ValidationError{Problems: []string{err.Error()}}
		}
		candidate.Type = &typ
	}
	if r.Date != nil {
		date := r.Date.UTC()
		candidate.Date = &date
	}
	if candidate.Name != nil {
		name := strings.TrimSpace(*candidate.Name)
		if n := utf8.RuneCountInString(name); n > ledger.MaxNameLength {
			return service.CheckRequest{}, &ledger.ValidationError{Problems: []string{
				fmt.Sprintf("name is %d characters long (max %d)", n, ledger.MaxNameLength),
			}}
		}
		candidate.Name = &name
	}

	req := service.CheckRequest{
		Candidate:       candidate,
		TimeWindowHours: r.TimeWindowHours,
	}
	if r.SameAccountOnly && r.AccountID != nil {
		req.AccountID = *r.AccountID
	}
	return req, nil
}

// ToCheckResponse converts a service outcome.
func ToCheckResponse(outcome *service.CheckOutcome) CheckResponse {
	reasons := outcome.Result.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return CheckResponse{
		CheckID:            outcome.CheckID,
		IsDuplicate:        outcome.Result.IsDuplicate,
		Confidence:         outcome.Result.Confidence,
		SimilarTransaction: outcome.Result.SimilarTransaction,
		Reasons:            reasons,
		ComparedCount:      outcome.ComparedCount,
	}
}

// ToDuplicateCheckResponse converts a stored check.
func ToDuplicateCheckResponse(check storage.DuplicateCheck) DuplicateCheckResponse {
	candidate := json.RawMessage(check.CandidateJSON)
	if !json.Valid(candidate) {
		candidate = json.RawMessage("null")
	}
	reasons := check.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return DuplicateCheckResponse{
		ID:                   check.ID,
		Candidate:            candidate,
		MatchedTransactionID: check.MatchedTransactionID,
		IsDuplicate:          check.IsDuplicate,
		Confidence:           check.Confidence,
		Reasons:              reasons,
		TimeWindowHours:      check.TimeWindowHours,
		ComparedCount:        check.ComparedCount,
		Action:               check.Action,
		CheckedAt:            check.CheckedAt.UTC().Format(time.RFC3339),
	}
}

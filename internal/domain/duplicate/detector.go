// Package duplicate detects transactions that were probably recorded twice,
// for example once from a receipt import and once by hand.
//
// Two records are scored on four weighted fields:
//   - amount (0.4): 1 - |a-b| / max(|a|,|b|)
//   - name (0.3): normalized edit distance, case-insensitive
//   - account (0.2): equal or not
//   - type (0.1): equal or not
//
// A field missing on either side is dropped and the remaining weights are
// renormalized, so the score always stays in [0,1].
//
// Example usage:
//
//	d := duplicate.NewDetector(duplicate.DefaultConfig())
//	result := d.DetectDuplicate(candidate, existing, 24)
//	if result.IsDuplicate {
//		// warn before saving
//	}
//
// Detector holds no mutable state and is safe for concurrent use.
package duplicate

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const noExistingReason = "No existing transactions to compare against"

// Detector scores candidates against recorded transactions
type Detector struct {
	config Config
}

// NewDetector creates a detector with the given config
func NewDetector(config Config) *Detector {
	return &Detector{
		config: config,
	}
}

// Config returns the detector configuration
func (d *Detector) Config() Config {
	return d.config
}

// CalculateSimilarity returns the weighted similarity of two records in [0,1]
func (d *Detector) CalculateSimilarity(a, b Record) float64 {
	return d.config.score(a, b).InexactFloat64()
}

// DetectDuplicate compares candidate with every existing record dated within
// timeWindowHours of it (either direction) and flags it when the best score is
// strictly above the duplicate threshold. A non-positive window means the default.
func (d *Detector) DetectDuplicate(candidate Record, existing []Record, timeWindowHours float64) SimilarityResult {
	if len(existing) == 0 {
		return SimilarityResult{
			IsDuplicate: false,
			Confidence:  0,
			Reasons:     []string{noExistingReason},
		}
	}

	window := WindowDuration(timeWindowHours)

	var bestMatch *Record
	bestScore := decimal.Zero

	for i := range existing {
		other := existing[i]

		// Records without a date on either side cannot be placed in the window
		if candidate.Date == nil || other.Date == nil {
			continue
		}
		if absDuration(candidate.Date.Sub(*other.Date)) > window {
			continue
		}

		score := d.config.score(candidate, other)
		if score.GreaterThan(bestScore) {
			bestScore = score
			bestMatch = &other
		}
	}

	threshold := decimal.NewFromFloat(d.config.DuplicateThreshold)
	result := SimilarityResult{
		IsDuplicate:        bestMatch != nil && bestScore.GreaterThan(threshold),
		Confidence:         bestScore.InexactFloat64(),
		SimilarTransaction: bestMatch,
		Reasons:            []string{},
	}

	if result.IsDuplicate {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("Similar transaction found: %s", bestMatch.DisplayName()),
			fmt.Sprintf("Amount difference: %s", amountDifference(candidate, *bestMatch)),
			fmt.Sprintf("Time difference: %s", TimeDifference(candidate.Date, bestMatch.Date)),
		)
	}

	return result
}

// FindPotentialDuplicates compares every pair of transactions, ignoring dates,
// and groups each transaction with the later ones scoring strictly above the
// potential threshold. Runs in O(n²) edit-distance computations.
func (d *Detector) FindPotentialDuplicates(transactions []Record) []PotentialDuplicate {
	results := make([]PotentialDuplicate, 0)
	if len(transactions) == 0 {
		return results
	}

	threshold := decimal.NewFromFloat(d.config.PotentialThreshold)

	for i := range transactions {
		var similar []Record
		maxScore := decimal.Zero

		for j := i + 1; j < len(transactions); j++ {
			score := d.config.score(transactions[i], transactions[j])
			if !score.GreaterThan(threshold) {
				continue
			}

			similar = append(similar, transactions[j])
			if score.GreaterThan(maxScore) {
				maxScore = score
			}
		}

		if len(similar) > 0 {
			results = append(results, PotentialDuplicate{
				Transaction: transactions[i],
				Duplicates:  similar,
				Confidence:  maxScore.InexactFloat64(),
			})
		}
	}

	return results
}

var defaultDetector = NewDetector(DefaultConfig())

// DetectDuplicate runs Detector.DetectDuplicate with the default config
func DetectDuplicate(candidate Record, existing []Record, timeWindowHours float64) SimilarityResult {
	return defaultDetector.DetectDuplicate(candidate, existing, timeWindowHours)
}

// FindPotentialDuplicates runs Detector.FindPotentialDuplicates with the default config
func FindPotentialDuplicates(transactions []Record) []PotentialDuplicate {
	return defaultDetector.FindPotentialDuplicates(transactions)
}

// CalculateSimilarity runs Detector.CalculateSimilarity with the default config
func CalculateSimilarity(a, b Record) float64 {
	return defaultDetector.CalculateSimilarity(a, b)
}

// WindowDuration converts a window in hours to a duration. A non-positive
// window means the default; windows beyond the Duration range saturate.
func WindowDuration(hours float64) time.Duration {
	if hours <= 0 || math.IsNaN(hours) {
		hours = DefaultTimeWindowHours
	}
	ns := hours * float64(time.Hour)
	if ns >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

func amountDifference(a, b Record) string {
	if a.Amount == nil || b.Amount == nil {
		return "unknown"
	}
	return "$" + a.Amount.Abs().Sub(b.Amount.Abs()).Abs().StringFixed(2)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

package duplicate

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
)

func ptr[T any](v T) *T { return &v }

func amount(s string) *decimal.Decimal {
	return ptr(decimal.RequireFromString(s))
}

func at(s string) *time.Time {
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &tm
}

// Helper to create a fully populated record
func makeRecord(id, name, amt, date string) Record {
	return Record{
		ID:        id,
		Type:      ptr(ledger.TypeExpense),
		Amount:    amount(amt),
		Name:      ptr(name),
		Date:      at(date),
		AccountID: ptr("acc1"),
	}
}

func TestDetectDuplicate_NoExisting(t *testing.T) {
	candidate := makeRecord("", "Starbucks Coffee", "5.50", "2024-01-15T10:00:00Z")

	for name, existing := range map[string][]Record{"nil": nil, "empty": {}} {
		t.Run(name, func(t *testing.T) {
			result := DetectDuplicate(candidate, existing, 24)

			assert.False(t, result.IsDuplicate)
			assert.Equal(t, 0.0, result.Confidence)
			assert.Nil(t, result.SimilarTransaction)
			assert.Equal(t, []string{"No existing transactions to compare against"}, result.Reasons)
		})
	}
}

func TestDetectDuplicate_ExactCopy(t *testing.T) {
	// Arrange
	candidate := makeRecord("", "Groceries", "42.10", "2024-03-01T12:00:00Z")
	existing := []Record{candidate}
	existing[0].ID = "tx1"

	// Act
	result := DetectDuplicate(candidate, existing, 24)

	// Assert
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, 1.0, result.Confidence)
	require.NotNil(t, result.SimilarTransaction)
	assert.Equal(t, "tx1", result.SimilarTransaction.ID)
}

func TestDetectDuplicate_StarbucksExample(t *testing.T) {
	// Arrange
	candidate := makeRecord("", "Starbucks Coffee", "5.50", "2024-01-15T10:00:00Z")
	existing := []Record{
		makeRecord("tx1", "Starbucks Coffee", "5.50", "2024-01-15T10:05:00Z"),
	}

	// Act
	result := DetectDuplicate(candidate, existing, 24)

	// Assert
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, 1.0, result.Confidence)
	require.Len(t, result.Reasons, 3)
	assert.Equal(t, "Similar transaction found: Starbucks Coffee", result.Reasons[0])
	assert.Equal(t, "Amount difference: $0.00", result.Reasons[1])
	assert.Equal(t, "Time difference: 5 minute(s)", result.Reasons[2])
}

func TestDetectDuplicate_OutsideTimeWindow(t *testing.T) {
	// Arrange - identical except 48 hours apart
	candidate := makeRecord("", "Rent", "1200.00", "2024-02-01T09:00:00Z")
	existing := []Record{
		makeRecord("tx1", "Rent", "1200.00", "2024-02-03T09:00:00Z"),
	}

	// Act
	result := DetectDuplicate(candidate, existing, 24)

	// Assert - excluded from the candidate pool
	assert.False(t, result.IsDuplicate)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Nil(t, result.SimilarTransaction)
	assert.Empty(t, result.Reasons)

	// But the all-pairs scan ignores the window
	potential := FindPotentialDuplicates(append([]Record{candidate}, existing...))
	require.Len(t, potential, 1)
	assert.Equal(t, 1.0, potential[0].Confidence)
	assert.Equal(t, "tx1", potential[0].Duplicates[0].ID)
}

func TestDetectDuplicate_WindowBoundaryInclusive(t *testing.T) {
	candidate := makeRecord("", "Rent", "1200.00", "2024-02-01T09:00:00Z")
	existing := []Record{
		makeRecord("tx1", "Rent", "1200.00", "2024-01-31T09:00:00Z"),
	}

	result := DetectDuplicate(candidate, existing, 24)

	assert.True(t, result.IsDuplicate)
	assert.Equal(t, "Time difference: 1 day(s)", result.Reasons[2])
}

func TestDetectDuplicate_NonPositiveWindowUsesDefault(t *testing.T) {
	candidate := makeRecord("", "Rent", "1200.00", "2024-02-01T09:00:00Z")
	existing := []Record{
		makeRecord("tx1", "Rent", "1200.00", "2024-02-01T20:00:00Z"),
	}

	result := DetectDuplicate(candidate, existing, 0)

	assert.True(t, result.IsDuplicate)
}

func TestDetectDuplicate_HugeWindowStillMatches(t *testing.T) {
	candidate := makeRecord("", "Rent", "1200.00", "2024-02-01T09:00:00Z")
	existing := []Record{
		makeRecord("tx1", "Rent", "1200.00", "2024-02-01T10:00:00Z"),
	}

	for _, window := range []float64{1e6, 3e6, 1e9, math.MaxFloat64, math.Inf(1)} {
		result := DetectDuplicate(candidate, existing, window)

		assert.True(t, result.IsDuplicate, "window %g", window)
		assert.Equal(t, 1.0, result.Confidence, "window %g", window)
	}
}

func TestWindowDuration(t *testing.T) {
	assert.Equal(t, 24*time.Hour, WindowDuration(0))
	assert.Equal(t, 24*time.Hour, WindowDuration(-3))
	assert.Equal(t, 90*time.Minute, WindowDuration(1.5))
	assert.Equal(t, time.Duration(math.MaxInt64), WindowDuration(3e6))
	assert.Equal(t, time.Duration(math.MaxInt64), WindowDuration(math.Inf(1)))
}

func TestDetectDuplicate_ThresholdIsStrict(t *testing.T) {
	t.Run("all fields, account differs", func(t *testing.T) {
		// amount 0.4 + name 0.3 + type 0.1 = 0.8 exactly
		candidate := makeRecord("", "Netflix", "15.99", "2024-01-15T10:00:00Z")
		other := makeRecord("tx1", "Netflix", "15.99", "2024-01-15T10:00:00Z")
		other.AccountID = ptr("acc2")

		result := DetectDuplicate(candidate, []Record{other}, 24)

		assert.False(t, result.IsDuplicate)
		assert.InDelta(t, 0.8, result.Confidence, 1e-12)
		assert.Empty(t, result.Reasons)
		require.NotNil(t, result.SimilarTransaction)
	})

	t.Run("amount only", func(t *testing.T) {
		// 1 - |5-4| / 5 = 0.8 exactly
		candidate := Record{Amount: amount("5"), Date: at("2024-01-15T10:00:00Z")}
		other := Record{ID: "tx1", Amount: amount("4"), Date: at("2024-01-15T10:00:00Z")}

		result := DetectDuplicate(candidate, []Record{other}, 24)

		assert.False(t, result.IsDuplicate)
		assert.InDelta(t, 0.8, result.Confidence, 1e-12)
	})

	t.Run("just above", func(t *testing.T) {
		candidate := Record{Amount: amount("5"), Date: at("2024-01-15T10:00:00Z")}
		other := Record{ID: "tx1", Amount: amount("4.01"), Date: at("2024-01-15T10:00:00Z")}

		result := DetectDuplicate(candidate, []Record{other}, 24)

		assert.True(t, result.IsDuplicate)
		assert.Greater(t, result.Confidence, 0.8)
		assert.Equal(t, "Similar transaction found: ", result.Reasons[0])
		assert.Equal(t, "Amount difference: $0.99", result.Reasons[1])
	})
}

func TestDetectDuplicate_MissingDates(t *testing.T) {
	t.Run("candidate without date compares nothing", func(t *testing.T) {
		candidate := makeRecord("", "Rent", "1200.00", "2024-02-01T09:00:00Z")
		candidate.Date = nil

		result := DetectDuplicate(candidate, []Record{
			makeRecord("tx1", "Rent", "1200.00", "2024-02-01T09:00:00Z"),
		}, 24)

		assert.False(t, result.IsDuplicate)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Nil(t, result.SimilarTransaction)
	})

	t.Run("existing without date is skipped", func(t *testing.T) {
		candidate := makeRecord("", "Rent", "1200.00", "2024-02-01T09:00:00Z")
		undated := makeRecord("tx1", "Rent", "1200.00", "2024-02-01T09:00:00Z")
		undated.Date = nil
		dated := makeRecord("tx2", "Rent", "1150.00", "2024-02-01T10:00:00Z")

		result := DetectDuplicate(candidate, []Record{undated, dated}, 24)

		require.NotNil(t, result.SimilarTransaction)
		assert.Equal(t, "tx2", result.SimilarTransaction.ID)
	})
}

func TestDetectDuplicate_PicksBestMatch(t *testing.T) {
	candidate := makeRecord("", "Whole Foods Market", "87.20", "2024-05-10T18:00:00Z")
	existing := []Record{
		makeRecord("weak", "Shell Gas", "40.00", "2024-05-10T17:00:00Z"),
		makeRecord("strong", "Whole Foods Mkt", "87.20", "2024-05-10T18:30:00Z"),
		makeRecord("medium", "Whole Foods Market", "60.00", "2024-05-10T12:00:00Z"),
	}

	result := DetectDuplicate(candidate, existing, 24)

	assert.True(t, result.IsDuplicate)
	require.NotNil(t, result.SimilarTransaction)
	assert.Equal(t, "strong", result.SimilarTransaction.ID)
	assert.Equal(t, "Time difference: 30 minute(s)", result.Reasons[2])
}

func TestDetectDuplicate_MissingAmountReason(t *testing.T) {
	candidate := Record{Name: ptr("Uber"), Date: at("2024-01-15T10:00:00Z"), AccountID: ptr("acc1")}
	other := makeRecord("tx1", "Uber", "12.00", "2024-01-15T11:00:00Z")

	result := DetectDuplicate(candidate, []Record{other}, 24)

	assert.True(t, result.IsDuplicate)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, "Amount difference: unknown", result.Reasons[1])
	assert.Equal(t, "Time difference: 1 hour(s)", result.Reasons[2])
}

func TestDetectDuplicate_DoesNotMutateInputs(t *testing.T) {
	candidate := makeRecord("", "Rent", "1200.00", "2024-02-01T09:00:00Z")
	existing := []Record{makeRecord("tx1", "Rent", "1200.00", "2024-02-01T09:00:00Z")}

	result := DetectDuplicate(candidate, existing, 24)
	result.SimilarTransaction.ID = "changed"

	assert.Equal(t, "tx1", existing[0].ID)
}

func TestFindPotentialDuplicates_Empty(t *testing.T) {
	assert.Empty(t, FindPotentialDuplicates(nil))
	assert.NotNil(t, FindPotentialDuplicates(nil))
	assert.Empty(t, FindPotentialDuplicates([]Record{}))
}

func TestFindPotentialDuplicates_GroupsLaterPartners(t *testing.T) {
	// Arrange
	txs := []Record{
		makeRecord("a", "Spotify", "9.99", "2024-01-01T00:00:00Z"),
		makeRecord("b", "Spotify", "9.99", "2024-02-01T00:00:00Z"),
		makeRecord("c", "Spotify AB", "9.99", "2024-03-01T00:00:00Z"),
		makeRecord("d", "Landlord", "1500.00", "2024-03-01T00:00:00Z"),
	}

	// Act
	results := FindPotentialDuplicates(txs)

	// Assert - a pairs with b and c, b pairs with c, c has no later partner
	require.Len(t, results, 2)

	assert.Equal(t, "a", results[0].Transaction.ID)
	require.Len(t, results[0].Duplicates, 2)
	assert.Equal(t, "b", results[0].Duplicates[0].ID)
	assert.Equal(t, "c", results[0].Duplicates[1].ID)
	assert.Equal(t, 1.0, results[0].Confidence)

	assert.Equal(t, "b", results[1].Transaction.ID)
	require.Len(t, results[1].Duplicates, 1)
	assert.Equal(t, "c", results[1].Duplicates[0].ID)
	assert.Less(t, results[1].Confidence, 1.0)
}

func TestFindPotentialDuplicates_ThresholdIsStrict(t *testing.T) {
	// 1 - |10-7| / 10 = 0.7 exactly
	txs := []Record{
		{ID: "a", Amount: amount("10")},
		{ID: "b", Amount: amount("7")},
	}

	assert.Empty(t, FindPotentialDuplicates(txs))

	txs[1].Amount = amount("7.01")
	assert.Len(t, FindPotentialDuplicates(txs), 1)
}

func TestFindPotentialDuplicates_LooserThanDetection(t *testing.T) {
	// 0.75: surfaced for review, not flagged as a duplicate
	a := Record{ID: "a", Name: ptr("Coffee"), Type: ptr(ledger.TypeExpense), Date: at("2024-01-01T00:00:00Z")}
	b := Record{ID: "b", Name: ptr("Coffee"), Type: ptr(ledger.TypeIncome), Date: at("2024-01-01T00:00:00Z")}

	assert.Len(t, FindPotentialDuplicates([]Record{a, b}), 1)
	assert.False(t, DetectDuplicate(a, []Record{b}, 24).IsDuplicate)
}

func TestDetector_CustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DuplicateThreshold = 0.5
	d := NewDetector(cfg)

	candidate := Record{Amount: amount("10"), Date: at("2024-01-15T10:00:00Z")}
	other := Record{ID: "tx1", Amount: amount("6"), Date: at("2024-01-15T10:00:00Z")}

	assert.True(t, d.DetectDuplicate(candidate, []Record{other}, 24).IsDuplicate)
	assert.False(t, DetectDuplicate(candidate, []Record{other}, 24).IsDuplicate)
	assert.Equal(t, 0.5, d.Config().DuplicateThreshold)
}

func TestDetector_ConcurrentUse(t *testing.T) {
	d := NewDetector(DefaultConfig())
	candidate := makeRecord("", "Starbucks Coffee", "5.50", "2024-01-15T10:00:00Z")
	existing := []Record{makeRecord("tx1", "Starbucks Coffee", "5.50", "2024-01-15T10:05:00Z")}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := d.DetectDuplicate(candidate, existing, 24)
			assert.True(t, result.IsDuplicate)
		}()
	}
	wg.Wait()
}

func TestFromTransaction(t *testing.T) {
	tx := ledger.Transaction{
		ID:        "tx1",
		Type:      ledger.TypeIncome,
		Amount:    decimal.RequireFromString("100"),
		Name:      "Salary",
		Date:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		AccountID: "acc1",
	}

	r := FromTransaction(tx)
	assert.Equal(t, "tx1", r.ID)
	require.NotNil(t, r.Type)
	assert.Equal(t, ledger.TypeIncome, *r.Type)
	require.NotNil(t, r.Amount)
	assert.True(t, r.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Salary", r.DisplayName())
	assert.Nil(t, r.CategoryID)

	empty := FromTransaction(ledger.Transaction{ID: "tx2"})
	assert.Nil(t, empty.Type)
	assert.Nil(t, empty.Amount)
	assert.Nil(t, empty.Name)
	assert.Nil(t, empty.Date)
	assert.Nil(t, empty.AccountID)
	assert.Equal(t, "", empty.DisplayName())

	assert.Len(t, FromTransactions([]ledger.Transaction{tx, tx}), 2)
}

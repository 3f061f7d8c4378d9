package duplicate

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	one  = decimal.NewFromInt(1)
	zero = decimal.Zero
)

// factor is one compared field: its sub-score and the weight it carries.
// Absent fields produce no factor, so their weight never enters the denominator.
type factor struct {
	score  decimal.Decimal
	weight decimal.Decimal
}

// score computes the weighted similarity of two records in [0,1]
func (c Config) score(a, b Record) decimal.Decimal {
	factors := make([]factor, 0, 4)

	if a.Amount != nil && b.Amount != nil {
		factors = append(factors, factor{
			score:  amountSimilarity(*a.Amount, *b.Amount),
			weight: decimal.NewFromFloat(c.Weights.Amount),
		})
	}

	if a.Name != nil && b.Name != nil {
		factors = append(factors, factor{
			score:  stringSimilarity(strings.ToLower(*a.Name), strings.ToLower(*b.Name)),
			weight: decimal.NewFromFloat(c.Weights.Name),
		})
	}

	if a.AccountID != nil && b.AccountID != nil {
		factors = append(factors, factor{
			score:  boolScore(*a.AccountID == *b.AccountID),
			weight: decimal.NewFromFloat(c.Weights.Account),
		})
	}

	if a.Type != nil && b.Type != nil {
		factors = append(factors, factor{
			score:  boolScore(*a.Type == *b.Type),
			weight: decimal.NewFromFloat(c.Weights.Type),
		})
	}

	total := zero
	weighted := zero
	for _, f := range factors {
		total = total.Add(f.weight)
		weighted = weighted.Add(f.score.Mul(f.weight))
	}

	if !total.IsPositive() {
		return zero
	}
	return weighted.Div(total)
}

// amountSimilarity compares magnitudes: 1 - |a-b| / max(|a|,|b|), floored at 0
func amountSimilarity(a, b decimal.Decimal) decimal.Decimal {
	a, b = a.Abs(), b.Abs()
	larger := decimal.Max(a, b)
	if larger.IsZero() {
		return one
	}

	sim := one.Sub(a.Sub(b).Abs().Div(larger))
	if sim.IsNegative() {
		return zero
	}
	return sim
}

// stringSimilarity is the normalized edit distance of two strings.
// Two empty strings are identical.
func stringSimilarity(s1, s2 string) decimal.Decimal {
	longer := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > longer {
		longer = n
	}
	if longer == 0 {
		return one
	}

	distance := LevenshteinDistance(s1, s2)
	return decimal.NewFromInt(int64(longer - distance)).Div(decimal.NewFromInt(int64(longer)))
}

func boolScore(equal bool) decimal.Decimal {
	if equal {
		return one
	}
	return zero
}

// StringSimilarity returns the case-insensitive normalized edit-distance
// similarity of two strings in [0,1]
func StringSimilarity(s1, s2 string) float64 {
	return stringSimilarity(strings.ToLower(s1), strings.ToLower(s2)).InexactFloat64()
}

// LevenshteinDistance counts the single-rune insertions, deletions and
// substitutions needed to turn s1 into s2. Memory is O(len(s2)).
func LevenshteinDistance(s1, s2 string) int {
	a := []rune(s1)
	b := []rune(s2)

	// prev[j] is the distance between a[:i-1] and b[:j]; curr is row i
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

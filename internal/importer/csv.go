// Package importer reads transactions from bank and spreadsheet exports.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
)

// Options controls how rows are parsed
type Options struct {
	DateLayout string // Go time layout; empty tries DefaultDateLayouts in order
	Source     string // Stored on every transaction (default "import")
}

// DefaultDateLayouts are tried in order when no layout is given
var DefaultDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// RowError describes a row that could not be parsed. Line is 1-based and
// counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

var requiredColumns = []string{"date", "name", "amount"}

// ReadCSV parses a CSV export with a header row. Recognised columns are
// date, name, amount, type, account_id, category_id and id, in any order.
// Rows that fail to parse are reported and skipped; the rest are returned.
func ReadCSV(r io.Reader, opts Options) ([]ledger.Transaction, []RowError) {
	if opts.Source == "" {
		opts.Source = ledger.SourceImport
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("missing header row")
		}
		return nil, []RowError{{Line: 1, Err: err}}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, []RowError{{Line: 1, Err: fmt.Errorf("missing required column %q", name)}}
		}
	}

	var (
		txs  []ledger.Transaction
		errs []RowError
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			line := 0
			if errors.As(err, &perr) {
				line = perr.StartLine
			}
			errs = append(errs, RowError{Line: line, Err: err})
			continue
		}
		lineNo, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		tx, err := parseRow(field, opts)
		if err != nil {
			errs = append(errs, RowError{Line: lineNo, Err: err})
			continue
		}
		txs = append(txs, tx)
	}

	return txs, errs
}

func parseRow(field func(string) string, opts Options) (ledger.Transaction, error) {
	date, err := parseDate(field("date"), opts.DateLayout)
	if err != nil {
		return ledger.Transaction{}, err
	}

	amount, err := parseAmount(field("amount"))
	if err != nil {
		return ledger.Transaction{}, err
	}

	var txType ledger.TransactionType
	if raw := field("type"); raw != "" {
		txType, err = ledger.ParseTransactionType(raw)
		if err != nil {
			return ledger.Transaction{}, err
		}
	} else if amount.IsNegative() {
		txType = ledger.TypeExpense
	} else {
		txType = ledger.TypeIncome
	}

	return ledger.Transaction{
		ID:         field("id"),
		Type:       txType,
		Amount:     amount.Abs(),
		Name:       field("name"),
		Date:       date,
		AccountID:  field("account_id"),
		CategoryID: field("category_id"),
		Source:     opts.Source,
	}, nil
}

func parseDate(raw, layout string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("date is required")
	}

	layouts := DefaultDateLayouts
	if layout != "" {
		layouts = []string{layout}
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// parseAmount accepts plain decimals plus "$1,234.56" and "(12.00)" styles
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, errors.New("amount is required")
	}

	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
		negative = true
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

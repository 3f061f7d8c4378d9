package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/ledger-dedupe/internal/application/service"
	"github.com/eshaffer321/ledger-dedupe/internal/domain/duplicate"
	"github.com/eshaffer321/ledger-dedupe/internal/importer"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// PrintHeader prints the command header
func PrintHeader(w io.Writer, command string, dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "ledger-dedupe: %s (%s mode)\n", command, mode)
}

// PrintRowErrors lists CSV rows that could not be parsed
func PrintRowErrors(w io.Writer, errs []importer.RowError) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSkipped %d unreadable row(s):\n", len(errs))
	for _, err := range errs {
		fmt.Fprintf(w, "  - %v\n", err)
	}
}

// PrintImportSummary prints the import result summary
func PrintImportSummary(w io.Writer, result *service.ImportResult, dryRun bool) {
	fmt.Fprintln(w, strings.Repeat("-", 60))

	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	fmt.Fprintf(w, "Summary: Total=%d %s=%d Duplicates=%d Invalid=%d\n",
		result.Total, verb, result.Imported, result.Duplicates, result.Invalid)

	if len(result.Flagged) > 0 {
		fmt.Fprintln(w, "\nLikely duplicates:")
		for _, flagged := range result.Flagged {
			status := "skipped"
			if flagged.Recorded {
				status = "forced"
			}
			tx := flagged.Transaction
			fmt.Fprintf(w, "  - %s %s $%s (%s, confidence %.2f)\n",
				tx.Date.Format("2006-01-02"), tx.Name, tx.Amount.StringFixed(2), status, flagged.Check.Result.Confidence)
			for _, reason := range flagged.Check.Result.Reasons {
				fmt.Fprintf(w, "      %s\n", reason)
			}
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, err := range result.Errors {
			fmt.Fprintf(w, "  - %v\n", err)
		}
	}

	if !dryRun && result.Imported > 0 {
		fmt.Fprintln(w, "\nImport completed successfully.")
	}
}

// PrintPotentialDuplicates prints scan groups at or above minConfidence and
// returns how many were shown
func PrintPotentialDuplicates(w io.Writer, groups []duplicate.PotentialDuplicate, minConfidence float64) int {
	shown := 0
	for _, group := range groups {
		if group.Confidence < minConfidence {
			continue
		}
		shown++

		fmt.Fprintf(w, "\n[%.2f] %s\n", group.Confidence, describeRecord(group.Transaction))
		for _, dup := range group.Duplicates {
			fmt.Fprintf(w, "   ~ %s (%s apart)\n", describeRecord(dup), duplicate.TimeDifference(group.Transaction.Date, dup.Date))
		}
	}

	if shown == 0 {
		fmt.Fprintln(w, "No potential duplicates found.")
	}
	return shown
}

// PrintStats prints all-time statistics
func PrintStats(w io.Writer, stats *storage.Stats) {
	if stats == nil {
		return
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "All-Time Stats: Transactions=%d Checks=%d Flagged=%d Rejected=%d Forced=%d\n",
		stats.TotalTransactions,
		stats.TotalChecks,
		stats.DuplicatesFlagged,
		stats.RejectedCount,
		stats.ForcedCount)
}

func describeRecord(r duplicate.Record) string {
	parts := make([]string, 0, 4)
	if r.Date != nil {
		parts = append(parts, r.Date.Format("2006-01-02 15:04"))
	}
	if r.Name != nil {
		parts = append(parts, *r.Name)
	}
	if r.Amount != nil {
		parts = append(parts, "$"+r.Amount.StringFixed(2))
	}
	if r.AccountID != nil {
		parts = append(parts, "["+*r.AccountID+"]")
	}
	if r.ID != "" {
		parts = append(parts, "id="+r.ID)
	}
	return strings.Join(parts, " ")
}

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/eshaffer321/ledger-dedupe/internal/domain/duplicate"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// RunScan runs the all-pairs potential duplicate scan and prints the groups.
func RunScan(ctx context.Context, env *Environment, flags *ScanFlags, w io.Writer) ([]duplicate.PotentialDuplicate, error) {
	filters := storage.TransactionFilters{AccountID: flags.AccountID}
	if flags.Days > 0 {
		filters.From = time.Now().UTC().AddDate(0, 0, -flags.Days)
	}

	PrintHeader(w, "scan", true)
	fmt.Fprintf(w, "Account: %s | Lookback: %s\n", orAll(flags.AccountID), lookback(flags.Days))

	groups, err := env.Service.ScanPotentialDuplicates(ctx, filters)
	if err != nil {
		return nil, err
	}

	shown := PrintPotentialDuplicates(w, groups, flags.MinConfidence)
	if hidden := len(groups) - shown; hidden > 0 {
		fmt.Fprintf(w, "\n%d group(s) below confidence %.2f hidden\n", hidden, flags.MinConfidence)
	}

	stats, err := env.Store.GetStats(ctx)
	if err != nil {
		env.Logger.Warn("failed to load stats", "error", err)
	} else {
		PrintStats(w, stats)
	}

	return groups, nil
}

func orAll(account string) string {
	if account == "" {
		return "all"
	}
	return account
}

func lookback(days int) string {
	if days <= 0 {
		return "all time"
	}
	return fmt.Sprintf("%d days", days)
}

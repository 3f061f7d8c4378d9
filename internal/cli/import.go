package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/eshaffer321/ledger-dedupe/internal/application/service"
	"github.com/eshaffer321/ledger-dedupe/internal/importer"
)

// RunImport reads flags.File and records its transactions, skipping likely
// duplicates unless flags.Force is set. The summary is written to w.
func RunImport(ctx context.Context, env *Environment, flags *ImportFlags, w io.Writer) (*service.ImportResult, error) {
	f, err := os.Open(flags.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", flags.File, err)
	}
	defer func() { _ = f.Close() }()

	PrintHeader(w, "import-csv", flags.DryRun)

	txs, rowErrs := importer.ReadCSV(f, importer.Options{
		DateLayout: flags.DateLayout,
		Source:     flags.Source,
	})
	fmt.Fprintf(w, "File: %s | Rows: %d", flags.File, len(txs))
	if flags.Force {
		fmt.Fprint(w, " | Force: true")
	}
	fmt.Fprint(w, "\n")
	PrintRowErrors(w, rowErrs)

	if len(txs) == 0 && len(rowErrs) > 0 {
		return nil, fmt.Errorf("no readable rows in %s", flags.File)
	}

	result, err := env.Service.ImportTransactions(ctx, txs, service.ImportOptions{
		DryRun:          flags.DryRun,
		Force:           flags.Force,
		TimeWindowHours: flags.Window,
	})
	if err != nil {
		return result, err
	}

	PrintImportSummary(w, result, flags.DryRun)
	return result, nil
}

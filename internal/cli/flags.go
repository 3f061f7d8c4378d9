package cli

import (
	"errors"
	"flag"
	"io"
)

// CommonFlags are shared by every command
type CommonFlags struct {
	ConfigPath string
	Verbose    bool
}

func (c *CommonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigPath, "config", "config.yaml", "Configuration file path (falls back to environment variables)")
	fs.BoolVar(&c.Verbose, "verbose", false, "Verbose output")
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	CommonFlags
	Port int // 0 = use config
}

// ImportFlags holds the CLI flags for the CSV import command.
type ImportFlags struct {
	CommonFlags
	File       string
	DryRun     bool
	Force      bool
	Window     float64 // Hours; 0 = use config
	Source     string
	DateLayout string
}

// ScanFlags holds the CLI flags for the potential duplicate scan.
type ScanFlags struct {
	CommonFlags
	AccountID     string
	Days          int     // Only scan transactions from the last N days (0 = all)
	MinConfidence float64 // Hide groups below this confidence
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags(args []string, output io.Writer) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs := newFlagSet("api", output)
	flags.register(fs)
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (default from config, 8080)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// ParseImportFlags parses command line flags for the import command.
func ParseImportFlags(args []string, output io.Writer) (*ImportFlags, error) {
	flags := &ImportFlags{}
	fs := newFlagSet("import-csv", output)
	flags.register(fs)
	fs.StringVar(&flags.File, "file", "", "CSV file to import (required)")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Check for duplicates without recording anything")
	fs.BoolVar(&flags.Force, "force", false, "Record likely duplicates too")
	fs.Float64Var(&flags.Window, "window", 0, "Duplicate time window in hours (default from config, 24)")
	fs.StringVar(&flags.Source, "source", "import", "Source label stored on imported transactions")
	fs.StringVar(&flags.DateLayout, "date-layout", "", "Go time layout for the date column (default: auto-detect)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if flags.File == "" {
		fs.Usage()
		return nil, errors.New("-file is required")
	}
	if flags.Window < 0 {
		return nil, errors.New("-window must not be negative")
	}
	return flags, nil
}

// ParseScanFlags parses command line flags for the scan command.
func ParseScanFlags(args []string, output io.Writer) (*ScanFlags, error) {
	flags := &ScanFlags{}
	fs := newFlagSet("scan", output)
	flags.register(fs)
	fs.StringVar(&flags.AccountID, "account", "", "Only scan this account")
	fs.IntVar(&flags.Days, "days", 90, "Number of days to look back (0 = all)")
	fs.Float64Var(&flags.MinConfidence, "min-confidence", 0, "Only show groups at or above this confidence")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if flags.MinConfidence < 0 || flags.MinConfidence > 1 {
		return nil, errors.New("-min-confidence must be between 0 and 1")
	}
	return flags, nil
}

func newFlagSet(name string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	return fs
}

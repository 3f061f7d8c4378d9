package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eshaffer321/ledger-dedupe/internal/cli"
)

func main() {
	flags, err := cli.ParseScanFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	env, err := cli.Setup(flags.CommonFlags, "scan")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer env.Close()

	if _, err := cli.RunScan(context.Background(), env, flags, os.Stdout); err != nil {
		env.Logger.Error("scan failed", "error", err)
		env.Close()
		os.Exit(1)
	}
}

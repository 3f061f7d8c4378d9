package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eshaffer321/ledger-dedupe/internal/cli"
)

func main() {
	flags, err := cli.ParseImportFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	env, err := cli.Setup(flags.CommonFlags, "import")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := cli.RunImport(ctx, env, flags, os.Stdout); err != nil {
		env.Logger.Error("import failed", "error", err)
		env.Close()
		os.Exit(1)
	}
}

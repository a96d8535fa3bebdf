package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rigmatch/rigmatch/internal/backup"
)

func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	input := fs.String("input", "", "backup archive to restore (required)")
	dbPath := fs.String("db", "rigmatch.db", "target path for the restored database")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "error: -input is required")
		fs.Usage()
		os.Exit(1)
	}

	if err := backup.Restore(context.Background(), *input, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Restore complete: %s\n", *dbPath)
}

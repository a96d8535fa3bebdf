package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rigmatch/rigmatch/internal/backup"
)

func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dbPath := fs.String("db", "rigmatch.db", "path to the catalog database")
	configFile := fs.String("config", "", "path to config file to include in backup")
	dir := fs.String("dir", "backups", "directory for backup archives")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	archive, err := backup.Create(context.Background(), *dbPath, *configFile, *dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Backup created: %s\n", archive)
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dir := fs.String("dir", "backups", "directory for backup archives")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	entries, err := backup.List(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("No backups found.")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s\t%d bytes\t%s\n", e.Path, e.SizeBytes, e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func runPrune(args []string) {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	dir := fs.String("dir", "backups", "directory for backup archives")
	keep := fs.Int("keep", backup.DefaultKeep, "number of newest archives to keep")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	removed, err := backup.Prune(*dir, *keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prune failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d archive(s).\n", removed)
}

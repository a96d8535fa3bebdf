// Command rigmatchctl is the operator CLI: catalog backups, restores,
// archive pruning, and API token issuing.
package main

import (
	"fmt"
	"os"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: rigmatchctl <command> [flags]

commands:
  backup    create a catalog backup archive
  restore   restore the catalog from an archive
  list      list stored backup archives
  prune     delete old backup archives
  token     issue an API bearer token`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backup":
		runBackup(os.Args[2:])
	case "restore":
		runRestore(os.Args[2:])
	case "list":
		runList(os.Args[2:])
	case "prune":
		runPrune(os.Args[2:])
	case "token":
		runToken(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

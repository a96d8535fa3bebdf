package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rigmatch/rigmatch/internal/server"
)

func runToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	secret := fs.String("secret", os.Getenv("RIGMATCH_AUTH_JWT_SECRET"), "JWT signing secret (defaults to RIGMATCH_AUTH_JWT_SECRET)")
	subject := fs.String("subject", "rigmatchctl", "token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "error: -secret or RIGMATCH_AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	token, err := server.NewAuthenticator(*secret, *ttl).IssueToken(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token issue failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/roksva123/taskbridge/internal/cli"
)

// Set by ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// LOAD ENV
	_ = godotenv.Load()

	cli.SetVersionInfo(version, commit, date)
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

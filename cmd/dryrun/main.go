package main

import (
	"github.com/dryrun-go/dryrun/internal/cli"
)

// main is the entry point for dryrun.
// It delegates to the CLI package which handles argument parsing and execution.
func main() {
	cli.Execute()
}

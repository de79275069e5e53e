// Package main provides the fedsql command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/fedsql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main provides the leapxmla command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapxmla/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

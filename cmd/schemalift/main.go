// Package main provides the schemalift CLI.
package main

import (
	"os"

	"github.com/schemalift-labs/schemalift/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main provides the entry point for the filesweep CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/filesweep/cmd/filesweep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

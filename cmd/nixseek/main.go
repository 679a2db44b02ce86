// Package main provides the entry point for the nixseek CLI.
package main

import (
	"fmt"
	"os"

	"github.com/nixseek/nixseek/cmd/nixseek/cmd"
	seekerr "github.com/nixseek/nixseek/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, seekerr.FormatForCLI(err))
		os.Exit(1)
	}
}

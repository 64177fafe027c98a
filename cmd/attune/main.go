// Package main is the attune command-line entry point.
//
// Usage:
//
//	attune profile set ada --name Ada --birth-date 1990-06-15
//	attune reading ada --format json
//	attune serve --config attune.yaml
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/attune/internal/cli"
)

func main() {
	if err := run(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || !exitErr.Reported {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

func run() error {
	return cli.NewRootCommand().Execute()
}

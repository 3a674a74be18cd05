// Package main is the entry point for the webstash CLI.
package main

import (
	"fmt"
	"os"

	"github.com/thoreinstein/webstash/cmd/webstash/commands"
	"github.com/thoreinstein/webstash/internal/errors"
)

func main() {
	err := commands.Execute()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) && exitErr.Suggestion != "" && exitErr.Err != nil {
		fmt.Fprintf(os.Stderr, "  %s\n", exitErr.Suggestion)
	}
	os.Exit(errors.ExitCode(err))
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/delfour-co/repolens/cmd/cli"
	"github.com/delfour-co/repolens/internal/audit"
)

const errorOutputTemplateConstant = "%v\n"

// main executes the repolens command-line application and translates the
// outcome into the documented process exit codes.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		os.Exit(audit.ExitCodeSuccess)
	}

	fmt.Fprintf(os.Stderr, errorOutputTemplateConstant, executionError)

	exitError := &audit.ExitError{}
	if errors.As(executionError, &exitError) {
		os.Exit(exitError.Code)
	}

	os.Exit(audit.ExitCodeExecutionFailure)
}

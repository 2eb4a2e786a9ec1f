package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"nostro-reconciliation-service/pkg/errors"
)

// HandleError prints a user-facing message for a failed command and returns
// the process exit code.
func HandleError(err error) int {
	if err == nil {
		return 0
	}

	var re *errors.ReconError
	if ok := stderrors.As(err, &re); ok {
		fmt.Fprintf(os.Stderr, "Error: %s\n", re.Message)
		if len(re.Context) > 0 {
			fmt.Fprintf(os.Stderr, "Context:\n")
			for key, value := range re.Context {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
			}
		}
		if verbose && re.Cause != nil {
			fmt.Fprintf(os.Stderr, "Underlying error: %v\n", re.Cause)
		}
		return re.GetExitCode()
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/kotoba-bench/prefeval/internal/session"
)

// Exit codes for different failure modes
const (
	ExitSuccess      = 0 // Session completed and submitted
	ExitSubmitFailed = 1 // Judgments captured but submission did not persist
	ExitError        = 2 // Configuration or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		if errors.Is(err, session.ErrPersistenceFailure) {
			os.Exit(ExitSubmitFailed)
		}
		os.Exit(ExitError)
	}
}

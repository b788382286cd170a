package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sqlscheduler/sqlscheduler/internal/cliapp"
)

func main() {
	err := cliapp.Execute()
	if err == nil {
		os.Exit(0)
	}

	var exitErr *cliapp.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, exitErr.Err)
		}
		os.Exit(exitErr.Code)
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

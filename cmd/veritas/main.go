package main

import (
	"errors"
	"os"

	"github.com/veritas-grc/veritas/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own diagnostics; Execute surfaces flag errors.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			cmd.PrintErrln("Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

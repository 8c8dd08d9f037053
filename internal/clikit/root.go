// Package clikit implements the kitscan diagnostic CLI: a thin cobra
// shell over the pkg/kitscan facade, useful for inspecting what the
// engine discovers on a given host without wiring up a full build driver.
package clikit

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/kitscan/internal/output"
)

var out = output.New()

// Execute runs the root cobra command and returns a process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kitscan",
		Short: "Toolchain discovery and environment synthesis diagnostics",
	}

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newEnvCmd())

	return cmd
}

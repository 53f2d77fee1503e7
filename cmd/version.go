package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "adjutant %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "build time: %s\n", BuildTime)
			fmt.Fprintf(cmd.OutOrStdout(), "git commit: %s\n", GitCommit)
		},
	}
}

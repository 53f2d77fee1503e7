// Package cmd defines the adjutant command-line interface.
package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "adjutant",
	Short: "Adjutant - a chat backend over OpenRouter and Gemini",
	Long: `Adjutant is a small chat web backend. It relays prompts to
OpenRouter (or the Gemini API for gemini models), keeps per-session
conversation history in memory, and lets the model search the web
through a single tool round trip.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newChunkCmd())
	rootCmd.AddCommand(newVersionCmd())
}

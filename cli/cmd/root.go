package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nasagent",
	Short: "nasagent is a file-sorting agent",
	Long: `nasagent watches filesystem roots, matches changed paths against
declared pipelines, and runs each pipeline's processors to classify, move,
hash, or otherwise act on the file.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(takeoffCmd)
	rootCmd.AddCommand(listProcessorsCmd)
}

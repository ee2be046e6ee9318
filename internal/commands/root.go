// Package commands defines the CLI subcommands.
package commands

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tomin",
		Short:   "Bank statement parsing and recurring-charge detection",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newDetectCommand())
	rootCmd.AddCommand(newIdentifyCommand())
	rootCmd.AddCommand(newSeedCommand())

	return rootCmd
}

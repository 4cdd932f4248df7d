package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the posterctl command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "posterctl",
		Short:         "Generate marketing posters from free-form text",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newGenerateCommand(),
		newStylesCommand(),
	)

	return rootCmd
}

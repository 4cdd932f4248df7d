package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"postergen/internal/domain"
)

func newStylesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Args:  cobra.NoArgs,
		Short: "List the poster styles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, s := range domain.AllStyles() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

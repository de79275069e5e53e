package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/fedsql/pkg/adapter"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the fedsql version and the registered source adapters.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "fedsql v%s\n", version)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Adapters:")
			for _, r := range adapter.Registered() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %s\n", r.Name, r.Summary)
			}
		},
	}
}

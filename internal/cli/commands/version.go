package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Herculano1234/MuseuCom/internal/cli/update"
)

// NewVersionCmd creates the version command
func NewVersionCmd(version string) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "museucom version %s\n", version)
			if !check {
				return nil
			}

			newer, release, err := update.NewChecker().Check(cmd.Context(), version)
			if err != nil {
				return fmt.Errorf("failed to check for updates: %w", err)
			}
			if newer {
				fmt.Fprintf(out, "New version available: %s\n%s\n", release.TagName, release.HTMLURL)
			} else {
				fmt.Fprintln(out, "You are up to date.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")

	return cmd
}

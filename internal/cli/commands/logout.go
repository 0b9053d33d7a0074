package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(g, commandOptions(cmd)...)
		},
	}
}

func runLogout(g *GlobalOptions, opts ...Option) error {
	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	if r.session.Snapshot().Empty() {
		fmt.Fprintln(r.out, "Not logged in.")
		return nil
	}

	if err := r.auth.Logout(r.ctx); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "✓ Logged out of %s\n", r.server.Alias)
	return nil
}

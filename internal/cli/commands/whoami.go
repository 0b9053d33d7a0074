package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(g, commandOptions(cmd)...)
		},
	}
}

func runWhoami(g *GlobalOptions, opts ...Option) error {
	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	user, err := r.auth.Bootstrap(r.ctx)
	if err != nil {
		return explain(err)
	}
	if user == nil {
		fmt.Fprintln(r.out, "Not logged in. Run 'museucom login' to authenticate.")
		return nil
	}

	fmt.Fprintf(r.out, "Server: %s (%s)\n", r.server.Alias, r.server.URL)
	fmt.Fprintf(r.out, "User:   %s (%s)\n", user.Name, user.Email)
	fmt.Fprintf(r.out, "Role:   %s\n", r.session.Role())
	return nil
}

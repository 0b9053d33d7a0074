package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Herculano1234/MuseuCom/internal/cli/client"
)

// NewUsersCmd creates the users command group
func NewUsersCmd(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}

	cmd.AddCommand(newUsersListCmd(g), newUsersSignupCmd(g))

	return cmd
}

func newUsersListCmd(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List accounts (administrador only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(g, commandOptions(cmd)...)
		},
	}
}

func runUsersList(g *GlobalOptions, opts ...Option) error {
	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	if err := r.auth.RequireSession(r.ctx); err != nil {
		return explain(err)
	}

	users, err := r.api.ListUsers(r.ctx)
	if err != nil {
		return explain(err)
	}

	if len(users) == 0 {
		fmt.Fprintln(r.out, "No users found.")
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tROLE")
	fmt.Fprintln(w, "──\t────\t─────\t─────\t────")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, orDash(u.Phone), orDash(u.Role))
	}
	return w.Flush()
}

type signupOptions struct {
	name     string
	email    string
	phone    string
	password string
}

func newUsersSignupCmd(g *GlobalOptions) *cobra.Command {
	opts := &signupOptions{}

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log into it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersSignup(g, opts, commandOptions(cmd)...)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Full name")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (or set MUSEUCOM_PASSWORD, will prompt if not provided)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runUsersSignup(g *GlobalOptions, signup *signupOptions, opts ...Option) error {
	if strings.TrimSpace(signup.name) == "" || strings.TrimSpace(signup.email) == "" {
		return fmt.Errorf("--name and --email are required")
	}

	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	password := signup.password
	if password == "" {
		password = os.Getenv("MUSEUCOM_PASSWORD")
	}
	if password == "" {
		password, err = readPassword(r.out, "Choose a password: ")
		if err != nil {
			return err
		}
	}

	result, err := r.auth.Signup(r.ctx, client.SignupRequest{
		Name:     signup.name,
		Email:    signup.email,
		Password: password,
		Phone:    signup.phone,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "✓ Account created for %s\n", signup.email)
	if result.LoginErr != nil {
		fmt.Fprintf(r.out, "⚠ Automatic login failed: %v\n", result.LoginErr)
		fmt.Fprintln(r.out, "Run 'museucom login' to authenticate.")
		return nil
	}

	fmt.Fprintf(r.out, "✓ Logged in as %s\n", signup.email)
	return nil
}

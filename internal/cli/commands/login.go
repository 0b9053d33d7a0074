package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Herculano1234/MuseuCom/internal/cli/client"
	"github.com/Herculano1234/MuseuCom/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd(g *GlobalOptions) *cobra.Command {
	var email, password, store string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a MuseuCom server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("store") {
				if err := userconfig.SetCredentialStore(store); err != nil {
					return err
				}
			}
			return runLogin(g, email, password, commandOptions(cmd)...)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set MUSEUCOM_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set MUSEUCOM_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&store, "store", "", "Where to keep credentials from now on: keyring or bolt")

	return cmd
}

func runLogin(g *GlobalOptions, email, password string, opts ...Option) error {
	// Environment variables are useful for CI/CD
	if email == "" {
		email = os.Getenv("MUSEUCOM_EMAIL")
	}
	if password == "" {
		password = os.Getenv("MUSEUCOM_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or MUSEUCOM_EMAIL env var)")
	}

	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	if password == "" {
		password, err = readPassword(r.out, "Password: ")
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(r.out, "Logging in to %s (%s)...\n", r.server.Alias, r.server.URL)

	user, err := r.auth.Login(r.ctx, email, password)
	if err != nil {
		if errors.Is(err, client.ErrInvalidCredentials) {
			return client.ErrInvalidCredentials
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(r.out, "✓ Login successful!")
	fmt.Fprintf(r.out, "  User: %s (%s)\n", user.Name, user.Email)
	fmt.Fprintf(r.out, "  Role: %s\n", r.session.Role())

	return nil
}

// readPassword prompts on the terminal without echo.
func readPassword(out io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or MUSEUCOM_PASSWORD env var)")
	}

	fmt.Fprint(out, prompt)
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Herculano1234/MuseuCom/internal/cli/config"
)

type initOptions struct {
	alias string
	out   io.Writer
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <api-url>",
		Short: "Register a MuseuCom API server in ./museucom.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.out = cmd.OutOrStdout()
			return runInitWithOptions(args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.alias, "alias", "", "Alias for the server (defaults to server-N)")

	return cmd
}

func runInitWithOptions(args []string, opts *initOptions) error {
	out := opts.out
	if out == nil {
		out = os.Stdout
	}

	apiURL := config.NormalizeURL(args[0])
	if err := config.ValidateURL(apiURL); err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintln(out, "Found existing museucom.json")
	} else {
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	if _, err := cfg.GetServerByURL(apiURL); err == nil {
		fmt.Fprintf(out, "Server %s already exists in museucom.json\n", apiURL)
		return nil
	}

	alias := opts.alias
	if alias == "" {
		alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
	}
	if _, err := cfg.GetServerByAlias(alias); err == nil {
		return fmt.Errorf("alias '%s' is already used in museucom.json", alias)
	}

	cfg.Servers = append(cfg.Servers, config.Server{
		URL:   apiURL,
		Alias: alias,
	})

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./museucom.json with server %s (%s)\n", apiURL, alias)
	} else {
		fmt.Fprintf(out, "✓ Added server %s (%s) to ./museucom.json\n", apiURL, alias)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run 'museucom login' to authenticate")
	fmt.Fprintln(out, "  2. Run 'museucom materials ls' to browse the catalog")

	return nil
}

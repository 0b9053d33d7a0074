package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Herculano1234/MuseuCom/internal/cli/commands"
	"github.com/Herculano1234/MuseuCom/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the museucom command tree.
func NewRootCmd() *cobra.Command {
	g := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "museucom",
		Short: "MuseuCom - museum catalog from the command line",
		Long: `MuseuCom CLI - browse and manage the MuseuCom museum catalog.

Sessions are kept in the OS keyring (or a local bbolt file) per API server
and renewed transparently when the access token expires.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := os.Getenv("MUSEUCOM_LOG_LEVEL")
			if level == "" {
				level = "warn"
			}
			if g.Verbose {
				level = "debug"
			}
			logger.InitWithWriter(os.Stderr, level, "console")
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.ServerAlias, "server", "", "Server URL or alias from museucom.json")
	rootCmd.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(commands.NewVersionCmd(version))
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd(g))
	rootCmd.AddCommand(commands.NewLogoutCmd(g))
	rootCmd.AddCommand(commands.NewWhoamiCmd(g))
	rootCmd.AddCommand(commands.NewMaterialsCmd(g))
	rootCmd.AddCommand(commands.NewUsersCmd(g))
	rootCmd.AddCommand(commands.NewStatsCmd(g))
	rootCmd.AddCommand(commands.NewDashCmd(g))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	// Values already set in the environment win over the files
	for _, file := range []string{".env.local", ".env"} {
		_ = godotenv.Load(file)
	}

	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

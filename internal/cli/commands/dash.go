package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

// NewDashCmd creates the dash command
func NewDashCmd(g *GlobalOptions) *cobra.Command {
	var webURL string

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the web dashboard in browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(g, webURL)
		},
	}

	cmd.Flags().StringVar(&webURL, "url", "", "Web app URL (defaults to the API server URL)")

	return cmd
}

func runDash(g *GlobalOptions, webURL string) error {
	if webURL == "" {
		server, err := getSelectedServer(g)
		if err != nil {
			return err
		}
		webURL = server.URL
	}

	dashboardURL := webURL + "/dashboard"

	fmt.Printf("Opening dashboard at %s...\n", dashboardURL)

	if err := openBrowser(dashboardURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, dashboardURL)
	}

	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

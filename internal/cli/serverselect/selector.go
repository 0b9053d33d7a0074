package serverselect

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"

	"github.com/Herculano1234/MuseuCom/internal/cli/config"
	"github.com/Herculano1234/MuseuCom/internal/cli/userconfig"
)

// EnvAPIURL overrides the configured servers.
const EnvAPIURL = "MUSEUCOM_API_URL"

// Prompt asks the user to pick a server. Tests replace it.
var Prompt = PromptServerSelection

// ResolveServer determines which server to use based on the following priority:
// 1. If serverAlias flag is provided, use that server
// 2. If MUSEUCOM_API_URL is set, use it
// 3. If user has a selected server in their local config, use that
// 4. If only one server in project config, use that
// 5. Otherwise, prompt user to select a server interactively
//
// projectConfig may be nil when no museucom.json exists.
func ResolveServer(projectConfig *config.Config, serverAlias string) (*config.Server, error) {
	if projectConfig == nil {
		projectConfig = &config.Config{}
	}

	// Priority 1: Use server alias if provided
	if serverAlias != "" {
		return projectConfig.GetServerByURLOrAlias(serverAlias)
	}

	// Priority 2: Environment
	if envURL := os.Getenv(EnvAPIURL); envURL != "" {
		server := &config.Server{URL: config.NormalizeURL(envURL), Alias: "env"}
		if err := config.ValidateURL(server.URL); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvAPIURL, err)
		}
		return server, nil
	}

	if len(projectConfig.Servers) == 0 {
		return nil, errors.New("no servers configured. Run 'museucom init <api-url>' or set " + EnvAPIURL)
	}

	// Priority 3: Use selected server from user config
	selectedURL, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		server, err := projectConfig.GetServerByURL(selectedURL)
		if err == nil {
			return server, nil
		}
		// Selected server no longer exists in project config, clear it and continue
		_ = userconfig.SetSelectedServer("")
	}

	// Priority 4: If only one server, use it automatically
	if len(projectConfig.Servers) == 1 {
		server := &projectConfig.Servers[0]
		if err := userconfig.SetSelectedServer(server.URL); err != nil {
			log.Warn().Err(err).Msg("Failed to save selected server")
		}
		return server, nil
	}

	// Priority 5: Prompt user to select a server
	server, err := Prompt(projectConfig)
	if err != nil {
		return nil, err
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		log.Warn().Err(err).Msg("Failed to save selected server")
	}

	return server, nil
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in museucom.json")
	}

	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(projectConfig.Servers))
	for i := range projectConfig.Servers {
		server := &projectConfig.Servers[i]
		label := server.URL
		if server.Alias != "" {
			label = fmt.Sprintf("%s (%s)", server.Alias, server.URL)
		}
		options[i] = serverOption{
			Label:  label,
			Server: server,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}

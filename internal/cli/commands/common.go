package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Herculano1234/MuseuCom/internal/cli/auth"
	"github.com/Herculano1234/MuseuCom/internal/cli/client"
	"github.com/Herculano1234/MuseuCom/internal/cli/config"
	"github.com/Herculano1234/MuseuCom/internal/cli/credstore"
	"github.com/Herculano1234/MuseuCom/internal/cli/gateway"
	"github.com/Herculano1234/MuseuCom/internal/cli/serverselect"
	"github.com/Herculano1234/MuseuCom/internal/cli/session"
	"github.com/Herculano1234/MuseuCom/internal/cli/userconfig"
)

const EnvCredentialStore = "MUSEUCOM_CREDENTIAL_STORE"

// GlobalOptions holds the persistent root flags.
type GlobalOptions struct {
	ServerAlias string
	Verbose     bool
}

// app wires the session, gateway and API client for one command.
type app struct {
	ctx    context.Context
	out    io.Writer
	logger zerolog.Logger

	server  *config.Server
	store   credstore.Store
	session *session.Manager
	authAPI *client.AuthAPI
	api     *client.Client
	auth    *auth.Service
}

// Option configures an app. Tests use them to inject a server and store.
type Option func(*app)

// WithServer skips server resolution.
func WithServer(server *config.Server) Option {
	return func(r *app) {
		r.server = server
	}
}

// WithStore skips credential store selection.
func WithStore(store credstore.Store) Option {
	return func(r *app) {
		r.store = store
	}
}

// WithContext sets the context of API calls.
func WithContext(ctx context.Context) Option {
	return func(r *app) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

// WithOutput redirects command output.
func WithOutput(out io.Writer) Option {
	return func(r *app) {
		r.out = out
	}
}

// commandOptions binds an app to the cobra command's context and output.
func commandOptions(cmd *cobra.Command) []Option {
	return []Option{WithContext(cmd.Context()), WithOutput(cmd.OutOrStdout())}
}

// newApp resolves the server, opens the credential store and loads the
// persisted session. Call close when done.
func newApp(g *GlobalOptions, opts ...Option) (*app, error) {
	r := &app{
		ctx:    context.Background(),
		out:    os.Stdout,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.server == nil {
		server, err := getSelectedServer(g)
		if err != nil {
			return nil, err
		}
		r.server = server
	}

	if r.store == nil {
		store, err := openStore(r.server)
		if err != nil {
			return nil, err
		}
		r.store = store
	}

	r.session = session.NewManager(r.store, r.logger)
	if err := r.session.Load(); err != nil {
		r.close()
		return nil, err
	}

	r.authAPI = client.NewAuthAPI(r.server.URL, nil)
	gw := gateway.New(r.session, r.authAPI, gateway.WithLogger(r.logger))
	r.api = client.New(r.server.URL, gw.Client(client.APITimeout))
	r.auth = auth.NewService(r.session, r.authAPI, r.api, r.logger)

	return r, nil
}

func (r *app) close() {
	if closer, ok := r.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close credential store")
		}
	}
}

// getSelectedServer loads the project config (if any) and resolves which
// server to talk to.
func getSelectedServer(g *GlobalOptions) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil && !errors.Is(err, config.ErrNotFound) {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	alias := ""
	if g != nil {
		alias = g.ServerAlias
	}

	return serverselect.ResolveServer(cfg, alias)
}

// openStore picks the credential backend: MUSEUCOM_CREDENTIAL_STORE, then
// the user config, then the OS keyring.
func openStore(server *config.Server) (credstore.Store, error) {
	backend := os.Getenv(EnvCredentialStore)
	if backend == "" {
		userCfg, err := userconfig.Load()
		if err != nil {
			return nil, err
		}
		backend = userCfg.CredentialStore
	}

	boltPath, err := userconfig.GetCredentialsPath()
	if err != nil {
		return nil, err
	}

	return credstore.Open(backend, server.Namespace(), boltPath)
}

// explain turns API failures into actionable messages.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrRefreshFailed), errors.Is(err, client.ErrUnauthorized):
		return fmt.Errorf("session expired, run 'museucom login': %w", err)
	case errors.Is(err, client.ErrForbidden):
		return fmt.Errorf("permission denied, this requires the %s role: %w", session.AdminRole, err)
	default:
		return err
	}
}

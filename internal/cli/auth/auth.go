// Package auth drives the session lifecycle: startup validation, login,
// logout and signup.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Herculano1234/MuseuCom/internal/cli/client"
	"github.com/Herculano1234/MuseuCom/internal/cli/session"
)

// ErrNotAuthenticated is returned when a command needs a session and none is held.
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'museucom login' first")

// Service owns session transitions that are not driven by the gateway.
type Service struct {
	session *session.Manager
	authn   Authenticator
	api     API
	logger  zerolog.Logger
}

func NewService(sess *session.Manager, authn Authenticator, api API, logger zerolog.Logger) *Service {
	return &Service{
		session: sess,
		authn:   authn,
		api:     api,
		logger:  logger,
	}
}

// Bootstrap restores the persisted session and confirms it with GET /me.
// Without a stored access token it returns (nil, nil) and makes no request.
// If the API rejects the session every key is cleared and the error returned.
func (s *Service) Bootstrap(ctx context.Context) (*client.User, error) {
	if err := s.session.Load(); err != nil {
		return nil, err
	}

	if s.session.AccessToken() == "" {
		return nil, nil
	}

	identity, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Stored session rejected, clearing")
		if clearErr := s.session.Clear(); clearErr != nil {
			s.logger.Warn().Err(clearErr).Msg("Failed to clear session")
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	if err := s.session.SetIdentity(identity); err != nil {
		return nil, err
	}

	return client.DecodeUser(identity)
}

// Login authenticates with email and password and persists the new
// session. On failure the current session is left as it was.
func (s *Service) Login(ctx context.Context, email, password string) (*client.User, error) {
	result, err := s.authn.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := s.session.Establish(result.AccessToken, result.RefreshToken, result.User); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("role", s.session.Role()).Msg("Logged in")

	return client.DecodeUser(result.User)
}

// Logout revokes the refresh token on a best-effort basis, then always
// clears the session.
func (s *Service) Logout(ctx context.Context) error {
	if refreshToken := s.session.RefreshToken(); refreshToken != "" {
		if err := s.api.Logout(ctx, refreshToken); err != nil {
			s.logger.Warn().Err(err).Msg("Server-side logout failed")
		}
	}

	return s.session.Clear()
}

// SignupResult reports a signup and the automatic login that follows it.
type SignupResult struct {
	User     *client.User
	LoginErr error // non-nil when the account exists but the automatic login failed
}

// Signup creates an account and logs into it.
func (s *Service) Signup(ctx context.Context, req client.SignupRequest) (*SignupResult, error) {
	user, err := s.api.CreateUser(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	result := &SignupResult{User: user}
	if _, err := s.Login(ctx, req.Email, req.Password); err != nil {
		s.logger.Warn().Err(err).Msg("Automatic login after signup failed")
		result.LoginErr = err
	}
	return result, nil
}

// RequireSession confirms the stored session with the API before a command
// that needs one. It returns ErrNotAuthenticated when no access token is held
// and the bootstrap error when the API rejects the session.
func (s *Service) RequireSession(ctx context.Context) error {
	user, err := s.Bootstrap(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotAuthenticated
	}
	return nil
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Herculano1234/MuseuCom/internal/cli/gateway"
)

// AuthAPI talks to the authentication endpoints over a plain http.Client.
// It must never be given a gateway transport: refresh is what the gateway
// calls to recover from a 401.
type AuthAPI struct {
	requester
}

var _ gateway.Refresher = (*AuthAPI)(nil)

// NewAuthAPI creates the bare auth channel. A nil httpClient gets a default
// client with AuthTimeout.
func NewAuthAPI(baseURL string, httpClient *http.Client) *AuthAPI {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: AuthTimeout}
	}
	return &AuthAPI{requester: newRequester(baseURL, httpClient)}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the login response split into tokens and identity.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         json.RawMessage // every field of the response except the tokens
}

// Login authenticates with email and password.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var fields map[string]json.RawMessage
	err := a.doJSON(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, &fields)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, err
	}

	result := &LoginResult{}
	if err := takeString(fields, "token", &result.AccessToken); err != nil {
		return nil, err
	}
	if err := takeString(fields, "refreshToken", &result.RefreshToken); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no token")
	}

	// Some deployments nest the identity under "user".
	if nested, ok := fields["user"]; ok && len(fields) == 1 {
		result.User = nested
	} else {
		user, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to encode identity: %w", err)
		}
		result.User = user
	}

	return result, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a refresh token for a new access token.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (*gateway.TokenPair, error) {
	var resp refreshResponse
	if err := a.doJSON(ctx, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	return &gateway.TokenPair{AccessToken: resp.Token, RefreshToken: resp.RefreshToken}, nil
}

// Logout revokes the refresh token on the server.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", refreshRequest{RefreshToken: refreshToken}, nil)
}

// Me returns the raw identity record of the authenticated user.
func (c *Client) Me(ctx context.Context) (json.RawMessage, error) {
	var identity json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/me", nil, &identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// takeString removes key from fields and decodes it into dst.
func takeString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	delete(fields, key)
	if string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

package auth

import (
	"context"
	"encoding/json"

	"github.com/Herculano1234/MuseuCom/internal/cli/client"
)

// Authenticator performs the password login. It must not go through the
// gateway: a login attempt never triggers a refresh.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.LoginResult, error)
}

// API is the part of the resource client the auth service calls. It is
// expected to go through the gateway.
type API interface {
	Me(ctx context.Context) (json.RawMessage, error)
	Logout(ctx context.Context, refreshToken string) error
	CreateUser(ctx context.Context, req client.SignupRequest) (*client.User, error)
}

var (
	_ Authenticator = (*client.AuthAPI)(nil)
	_ API           = (*client.Client)(nil)
)

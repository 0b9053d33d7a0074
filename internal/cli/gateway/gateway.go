// Package gateway attaches session credentials to outbound API requests and
// recovers from expired access tokens.
//
// A Gateway is an http.RoundTripper. When a request comes back 401 it runs at
// most one refresh at a time: the first request to fail owns the refresh,
// every other request that fails meanwhile waits in a FIFO queue, and all of
// them are replayed once with the new access token. A replayed request is
// never intercepted again.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrRefreshFailed wraps every error caused by a failed refresh. The
	// session has already been cleared when it is returned.
	ErrRefreshFailed = errors.New("session refresh failed")

	errNoRefreshToken = errors.New("no refresh token")
	errEmptyRefresh   = errors.New("refresh response carried no access token")
)

const bearerPrefix = "Bearer "

// Credentials is the part of the session the gateway reads and mutates.
type Credentials interface {
	AccessToken() string
	RefreshToken() string
	UpdateTokens(accessToken, refreshToken string) error
	Clear() error
}

// TokenPair is the result of a refresh. RefreshToken is empty when the
// server did not rotate it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Refresher exchanges a refresh token for a new access token. It must use a
// channel that does not pass through a Gateway.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type refreshResult struct {
	token string
	err   error
}

// Gateway is an http.RoundTripper that authenticates requests.
type Gateway struct {
	next      http.RoundTripper
	creds     Credentials
	refresher Refresher
	logger    zerolog.Logger

	mu         sync.Mutex
	refreshing bool
	pending    []chan refreshResult
}

var _ http.RoundTripper = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway)

// WithTransport sets the underlying transport (http.DefaultTransport by default).
func WithTransport(rt http.RoundTripper) Option {
	return func(g *Gateway) {
		g.next = rt
	}
}

// WithLogger sets the logger used for refresh episodes.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New creates a Gateway.
func New(creds Credentials, refresher Refresher, opts ...Option) *Gateway {
	g := &Gateway{
		next:      http.DefaultTransport,
		creds:     creds,
		refresher: refresher,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Client returns an http.Client that sends every request through g with the
// given per-request timeout.
func (g *Gateway) Client(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: g,
		Timeout:   timeout,
	}
}

// RoundTrip sends req with the current access token and transparently
// recovers from a 401 when the session can be refreshed.
func (g *Gateway) RoundTrip(req *http.Request) (*http.Response, error) {
	token := g.creds.AccessToken()

	resp, err := g.next.RoundTrip(withBearer(req, token))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		g.logger.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Msg("Request body cannot be replayed, returning 401")
		return resp, nil
	}

	newToken, err := g.awaitToken(req.Context(), token)
	if err != nil {
		if errors.Is(err, errNoRefreshToken) {
			return resp, nil
		}
		discard(resp)
		return nil, err
	}
	discard(resp)

	return g.replay(req, newToken)
}

// awaitToken returns the access token a failed request should be replayed
// with. sentWith is the token the request carried.
func (g *Gateway) awaitToken(ctx context.Context, sentWith string) (string, error) {
	g.mu.Lock()

	// A refresh finished between send and 401: the request only needs the
	// current token.
	if current := g.creds.AccessToken(); current != "" && current != sentWith {
		g.mu.Unlock()
		return current, nil
	}

	refreshToken := g.creds.RefreshToken()
	if refreshToken == "" {
		g.mu.Unlock()
		g.logger.Debug().Msg("Access token rejected and no refresh token available, clearing session")
		if err := g.creds.Clear(); err != nil {
			g.logger.Warn().Err(err).Msg("Failed to clear session")
		}
		return "", errNoRefreshToken
	}

	if g.refreshing {
		wait := make(chan refreshResult, 1)
		g.pending = append(g.pending, wait)
		g.mu.Unlock()

		result := <-wait
		return result.token, result.err
	}

	g.refreshing = true
	g.mu.Unlock()

	token, err := g.refresh(ctx, refreshToken)

	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.refreshing = false
	g.mu.Unlock()

	for _, wait := range pending {
		wait <- refreshResult{token: token, err: err}
	}

	return token, err
}

// refresh performs the single refresh call of an episode and records the
// outcome in the session before any waiter is released.
func (g *Gateway) refresh(ctx context.Context, refreshToken string) (string, error) {
	g.logger.Debug().Msg("Access token rejected, refreshing session")

	// One caller giving up must not fail everyone queued behind it.
	pair, err := g.refresher.Refresh(context.WithoutCancel(ctx), refreshToken)
	if err == nil && (pair == nil || pair.AccessToken == "") {
		err = errEmptyRefresh
	}
	if err == nil {
		err = g.creds.UpdateTokens(pair.AccessToken, pair.RefreshToken)
	}

	if err != nil {
		if clearErr := g.creds.Clear(); clearErr != nil {
			g.logger.Warn().Err(clearErr).Msg("Failed to clear session")
		}
		g.logger.Warn().Err(err).Msg("Session refresh failed, credentials cleared")
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	g.logger.Debug().Bool("rotated", pair.RefreshToken != "").Msg("Session refreshed")
	return pair.AccessToken, nil
}

// replay resubmits req once with token. The response is returned as is, even
// when it is another 401.
func (g *Gateway) replay(req *http.Request, token string) (*http.Response, error) {
	out := withBearer(req, token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		out.Body = body
	}
	return g.next.RoundTrip(out)
}

// withBearer clones req and sets its bearer token, overwriting any existing
// Authorization header. Without a token the request is sent as is.
func withBearer(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	if token != "" {
		out.Header.Set("Authorization", bearerPrefix+token)
	}
	return out
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

// Package session holds the CLI's authentication state and keeps it in step
// with the credential store.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Herculano1234/MuseuCom/internal/cli/credstore"
)

// Persisted keys. They are always written and cleared as a group.
const (
	KeyAccessToken   = "museucom-token"
	KeyRefreshToken  = "museucom-refresh"
	KeyUser          = "museucom-user"
	KeyAuthenticated = "museucom-auth"
	KeyRole          = "museucom-perfil"
)

// Keys lists every persisted key.
var Keys = []string{KeyAccessToken, KeyRefreshToken, KeyUser, KeyAuthenticated, KeyRole}

const (
	DefaultRole = "user"
	AdminRole   = "administrador"
)

// Session is a snapshot of the authentication state.
type Session struct {
	AccessToken   string
	RefreshToken  string
	User          json.RawMessage // opaque identity record as returned by the API
	Role          string
	Authenticated bool
}

// Empty reports whether no credential is held.
func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && len(s.User) == 0 && s.Role == "" && !s.Authenticated
}

// RoleFromUser extracts the role tag of an identity record.
func RoleFromUser(user json.RawMessage) string {
	var identity struct {
		Role string `json:"role"`
	}
	if len(user) > 0 && json.Unmarshal(user, &identity) == nil && identity.Role != "" {
		return identity.Role
	}
	return DefaultRole
}

// Manager owns the process-wide Session. Only the gateway and the auth
// service mutate it; everything else reads snapshots.
type Manager struct {
	mu      sync.RWMutex
	current Session
	store   credstore.Store
	logger  zerolog.Logger
}

func NewManager(store credstore.Store, logger zerolog.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Load hydrates the Session from the store. A stored state without an access
// token is treated as corrupt and cleared.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := make(map[string]string, len(Keys))
	for _, key := range Keys {
		value, err := m.store.Get(key)
		if err != nil {
			if errors.Is(err, credstore.ErrNotFound) {
				continue
			}
			return fmt.Errorf("failed to load session: %w", err)
		}
		values[key] = value
	}

	if values[KeyAccessToken] == "" {
		m.current = Session{}
		if len(values) > 0 {
			m.logger.Debug().Int("keys", len(values)).Msg("Discarding partial stored session")
			return m.store.DeleteAll(Keys...)
		}
		return nil
	}

	s := Session{
		AccessToken:   values[KeyAccessToken],
		RefreshToken:  values[KeyRefreshToken],
		Role:          values[KeyRole],
		Authenticated: values[KeyAuthenticated] == "true",
	}
	if raw := values[KeyUser]; raw != "" && json.Valid([]byte(raw)) {
		s.User = json.RawMessage(raw)
	}
	m.current = s
	return nil
}

// Snapshot returns a copy of the current Session.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.current
	if s.User != nil {
		s.User = append(json.RawMessage(nil), s.User...)
	}
	return s
}

func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.AccessToken
}

func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.RefreshToken
}

func (m *Manager) Role() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Role
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Authenticated && m.current.AccessToken != ""
}

// Establish replaces the Session after a successful login.
func (m *Manager) Establish(accessToken, refreshToken string, user json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.replaceLocked(Session{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		User:          user,
		Role:          RoleFromUser(user),
		Authenticated: true,
	})
}

// SetIdentity records the identity confirmed by the API at startup.
func (m *Manager) SetIdentity(user json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.current
	next.User = user
	next.Role = RoleFromUser(user)
	next.Authenticated = true
	return m.replaceLocked(next)
}

// UpdateTokens stores a freshly minted access token. An empty refreshToken
// keeps the current one (the API does not always rotate it).
func (m *Manager) UpdateTokens(accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.current
	next.AccessToken = accessToken
	if refreshToken != "" {
		next.RefreshToken = refreshToken
	}
	return m.replaceLocked(next)
}

// Clear drops every credential, in memory and in the store.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = Session{}
	if err := m.store.DeleteAll(Keys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// replaceLocked persists next as a whole. If the write fails nothing is kept,
// neither in memory nor in the store.
func (m *Manager) replaceLocked(next Session) error {
	authenticated := "false"
	if next.Authenticated {
		authenticated = "true"
	}

	values := map[string]string{
		KeyAccessToken:   next.AccessToken,
		KeyRefreshToken:  next.RefreshToken,
		KeyUser:          string(next.User),
		KeyAuthenticated: authenticated,
		KeyRole:          next.Role,
	}

	if err := m.store.SetAll(values); err != nil {
		m.current = Session{}
		_ = m.store.DeleteAll(Keys...)
		return fmt.Errorf("failed to save session: %w", err)
	}

	m.current = next
	return nil
}

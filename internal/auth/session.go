package auth

import "github.com/Herculano1234/MuseuCom/internal/models"

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the session holds the administrador role
func (s *SessionData) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// User is an account as the API returns it.
type User struct {
	ID        ID     `json:"id"`
	Name      string `json:"nome"`
	Email     string `json:"email"`
	Phone     string `json:"telefone,omitempty"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// DecodeUser decodes a raw identity record.
func DecodeUser(raw json.RawMessage) (*User, error) {
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// SignupRequest is the body of POST /usuarios.
type SignupRequest struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
	Phone    string `json:"telefone,omitempty"`
}

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.doJSON(ctx, http.MethodGet, "/usuarios", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, req SignupRequest) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/usuarios", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Dashboard holds the catalog totals.
type Dashboard struct {
	TotalUsers     int `json:"total_usuarios"`
	TotalMaterials int `json:"total_materiais"`
}

// UnmarshalJSON accepts the older total_estagiarios counter.
func (d *Dashboard) UnmarshalJSON(data []byte) error {
	var aux struct {
		TotalUsers     *int `json:"total_usuarios"`
		TotalInterns   *int `json:"total_estagiarios"`
		TotalMaterials *int `json:"total_materiais"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = Dashboard{}
	switch {
	case aux.TotalUsers != nil:
		d.TotalUsers = *aux.TotalUsers
	case aux.TotalInterns != nil:
		d.TotalUsers = *aux.TotalInterns
	}
	if aux.TotalMaterials != nil {
		d.TotalMaterials = *aux.TotalMaterials
	}
	return nil
}

// Dashboard returns the catalog totals.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var dash Dashboard
	if err := c.doJSON(ctx, http.MethodGet, "/dashboard", nil, &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}

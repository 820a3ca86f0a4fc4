package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/model"
)

// Auth wraps the login, logout and current-user endpoints.
type Auth struct {
	api *client.Client
}

// NewAuth returns the auth endpoints.
func NewAuth(api *client.Client) *Auth {
	return &Auth{api: api}
}

// Login exchanges credentials for a user and bearer token.
func (a *Auth) Login(ctx context.Context, email, password string) (model.User, string, error) {
	req := map[string]string{"email": email, "password": password}
	var resp struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	if err := a.api.Do(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		return model.User{}, "", fmt.Errorf("logging in: %w", err)
	}
	if resp.Token == "" {
		return model.User{}, "", fmt.Errorf("logging in: %w: missing token", ErrUnexpectedShape)
	}
	return resp.User, resp.Token, nil
}

// Logout invalidates the current token on the server.
func (a *Auth) Logout(ctx context.Context) error {
	if err := a.api.Do(ctx, http.MethodPost, "/logout", map[string]string{}, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// Me returns the user the current token belongs to. The user may be
// returned bare or under "user".
func (a *Auth) Me(ctx context.Context) (model.User, error) {
	var raw json.RawMessage
	if err := a.api.Get(ctx, "/me", &raw); err != nil {
		return model.User{}, fmt.Errorf("fetching current user: %w", err)
	}

	var wrapped struct {
		User *model.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return *wrapped.User, nil
	}

	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return model.User{}, fmt.Errorf("fetching current user: %w: %v", ErrUnexpectedShape, err)
	}
	return u, nil
}

package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// AdminUser is one row of the user listing. Passwords never travel back.
type AdminUser struct {
	Username     string   `json:"username"`
	Role         string   `json:"role"`
	AllowedSites []string `json:"allowed_sites"`
}

// CreateUserInput creates a new account.
type CreateUserInput struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Role         string   `json:"role"`
	AllowedSites []string `json:"allowed_sites"`
}

// UpdateUserInput patches an account. Nil fields are left untouched.
type UpdateUserInput struct {
	Password     *string   `json:"password,omitempty"`
	Role         *string   `json:"role,omitempty"`
	AllowedSites *[]string `json:"allowed_sites,omitempty"`
}

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]AdminUser, error) {
	var users []AdminUser
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser adds an account. Admin only.
func (c *Client) CreateUser(ctx context.Context, input CreateUserInput) error {
	if input.Role == "" {
		input.Role = "user"
	}
	if input.AllowedSites == nil {
		input.AllowedSites = []string{}
	}
	return c.do(ctx, http.MethodPost, "/api/admin/users", input, nil)
}

// UpdateUser patches an account. Admin only.
func (c *Client) UpdateUser(ctx context.Context, username string, input UpdateUserInput) error {
	return c.do(ctx, http.MethodPut, "/api/admin/users/"+url.PathEscape(username), input, nil)
}

// DeleteUser removes an account. The backend rejects deleting the
// account behind the current session; the detail comes back as an
// APIError for the caller to surface.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(username), nil, nil)
}

// SaveSettings replaces the metrics-visibility settings. Admin only.
func (c *Client) SaveSettings(ctx context.Context, enabledMetrics []string) error {
	body := map[string]any{"enabled_metrics": enabledMetrics}
	return c.do(ctx, http.MethodPost, "/api/admin/settings", body, nil)
}

// ClearSyncCache drops the server's sync cache so the next load re-pulls
// everything from cloud storage. Destructive; the CLI confirms first.
func (c *Client) ClearSyncCache(ctx context.Context) (string, error) {
	return c.adminAction(ctx, "/api/admin/clear-sync-cache")
}

// ClearTestData removes injected test data. Destructive.
func (c *Client) ClearTestData(ctx context.Context) (string, error) {
	return c.adminAction(ctx, "/api/admin/clear-test-data")
}

// InjectTestData seeds the backend with synthetic telemetry.
func (c *Client) InjectTestData(ctx context.Context) (string, error) {
	return c.adminAction(ctx, "/api/admin/inject-test-data")
}

func (c *Client) adminAction(ctx context.Context, path string) (string, error) {
	var resp ackResponse
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

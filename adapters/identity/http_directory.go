// Package identity provides clients for the upstream account directory.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/ports"
)

// HTTPDirectory talks to the hosted account service's admin API. It is built
// once at startup with its HTTP client and credentials; nothing here is
// created lazily.
type HTTPDirectory struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// NewHTTPDirectory creates a directory client for the given admin API.
func NewHTTPDirectory(baseURL, serviceKey string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

var _ ports.IdentityDirectory = (*HTTPDirectory)(nil)

type createUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	DisplayName  string `json:"display_name"`
	EmailConfirm bool   `json:"email_confirm"`
}

type createUserResponse struct {
	ID string `json:"id"`
}

// CreateUser provisions a placeholder account and returns its stable id.
func (d *HTTPDirectory) CreateUser(ctx context.Context, params core.NewUserParams) (string, error) {
	body, err := json.Marshal(createUserRequest{
		Email:       params.Email,
		Password:    params.Password,
		DisplayName: params.DisplayName,
		// Nobody will ever click a confirmation mail for a synthetic address.
		EmailConfirm: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal create user request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/admin/users", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build create user request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.serviceKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create user: %w", core.ErrStoreFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create user: directory returned %d: %w", resp.StatusCode, core.ErrStoreFailure)
	}

	var out createUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode create user response: %w", core.ErrStoreFailure)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create user: directory returned empty id: %w", core.ErrStoreFailure)
	}
	return out.ID, nil
}

// DeleteUser removes an account, used to clean up after a lost creation race.
func (d *HTTPDirectory) DeleteUser(ctx context.Context, userID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, d.baseURL+"/admin/users/"+userID, nil)
	if err != nil {
		return fmt.Errorf("build delete user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.serviceKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete user: %w", core.ErrStoreFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete user: directory returned %d: %w", resp.StatusCode, core.ErrStoreFailure)
	}
	return nil
}

package supabase

import (
	"context"
	"errors"
	"fmt"
)

type createUserRequest struct {
	Email        string         `json:"email"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type user struct {
	ID string `json:"id"`
}

// CreateAccount creates a confirmed user through the auth admin API.
func (c *Client) CreateAccount(ctx context.Context, email, displayName string) (string, error) {
	var created user
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createUserRequest{
			Email:        email,
			EmailConfirm: true,
			UserMetadata: map[string]any{"username": displayName},
		}).
		SetResult(&created).
		Post("/auth/v1/admin/users")
	if err != nil {
		return "", fmt.Errorf("create user %s: %w", email, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("create user %s: %w", email, apiError(resp))
	}
	if created.ID == "" {
		return "", errors.New("supabase: created user has no id")
	}
	return created.ID, nil
}

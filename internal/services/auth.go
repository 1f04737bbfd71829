package services

import (
	"context"

	"github.com/desertthunder/linkguard/internal/models"
)

// Login exchanges credentials for a bearer token and the user profile.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.postCredentials(ctx, "/auth/login", creds, "Login failed", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup creates an account and returns its bearer token and profile.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.postCredentials(ctx, "/auth/signup", req, "Signup failed", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword asks the backend to mail a password reset link to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.postCredentials(ctx, "/auth/forgot-password", map[string]string{"email": email}, "Failed to send reset link", nil)
}

// Me fetches the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.get(ctx, "/auth/me", "Failed to load profile", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile sends a partial profile update and returns the server's copy of the user, which may be empty.
func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	var out models.User
	if err := c.put(ctx, "/auth/profile", update, "Failed to update profile", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package client

import (
	"context"
	"net/http"

	"github.com/mrlokans/mylibrary/internal/entities"
)

// AuthResult is the answer of register and login.
type AuthResult struct {
	Token string               `json:"token"`
	User  entities.UserProfile `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	return c.authenticate(ctx, "/register", body)
}

// Login accepts a username or an email and stores the returned token.
func (c *Client) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	body := map[string]string{"username": login, "password": password}
	return c.authenticate(ctx, "/login", body)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, path, body, &result, false); err != nil {
		return nil, err
	}
	if err := c.tokens.SaveToken(result.Token); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout revokes the token on the server and forgets it locally. The local
// token is dropped even when the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout", nil, nil, true)
	if clearErr := c.tokens.ClearToken(); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func (c *Client) Profile(ctx context.Context) (*entities.UserProfile, error) {
	var profile entities.UserProfile
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &profile, true); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile changes the non-nil fields.
func (c *Client) UpdateProfile(ctx context.Context, username, email *string) (*entities.UserProfile, error) {
	body := map[string]*string{}
	if username != nil {
		body["username"] = username
	}
	if email != nil {
		body["email"] = email
	}
	var resp struct {
		Message string               `json:"message"`
		User    entities.UserProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/profile", body, &resp, true); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) (string, error) {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	var resp messageResponse
	if err := c.do(ctx, http.MethodPut, "/profile/password", body, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// DeleteAccount removes the account and everything attached to it, then
// forgets the token.
func (c *Client) DeleteAccount(ctx context.Context, password string) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodDelete, "/profile", map[string]string{"password": password}, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, c.tokens.ClearToken()
}

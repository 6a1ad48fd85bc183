// Package api implements the HTTP client for the authgate server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable signals that the server could not be reached at all, as
// opposed to an error response it deliberately returned.
var ErrUnavailable = errors.New("server unavailable")

// APIError is an error response returned by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// User mirrors the user object returned by the server.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Client talks to the authgate HTTP API and keeps the token pair of the
// current session in memory. It is not safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	accessToken  string
	refreshToken string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// LoggedIn reports whether the client holds a session token pair.
func (c *Client) LoggedIn() bool {
	return c.accessToken != ""
}

func (c *Client) post(ctx context.Context, path string, reqBody, out any, withAuth bool) error {
	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if withAuth {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		return &APIError{
			Status:  resp.StatusCode,
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
		}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	var res struct {
		User User `json:"user"`
	}
	err := c.post(ctx, "/api/v1/auth/register",
		map[string]string{"name": name, "email": email, "password": password}, &res, false)
	if err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Login authenticates and stores the returned token pair for subsequent
// Refresh and Logout calls.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var res struct {
		User         User   `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	err := c.post(ctx, "/api/v1/auth/login",
		map[string]string{"email": email, "password": password}, &res, false)
	if err != nil {
		return nil, err
	}

	c.accessToken = res.AccessToken
	c.refreshToken = res.RefreshToken
	return &res.User, nil
}

// Refresh exchanges the stored refresh token for a new access token. When
// the server rotates the session the stored refresh token is replaced too.
func (c *Client) Refresh(ctx context.Context) error {
	if c.refreshToken == "" {
		return errors.New("not logged in")
	}

	var res struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	err := c.post(ctx, "/api/v1/auth/refresh",
		map[string]string{"refreshToken": c.refreshToken}, &res, false)
	if err != nil {
		return err
	}

	c.accessToken = res.AccessToken
	if res.RefreshToken != "" {
		c.refreshToken = res.RefreshToken
	}
	return nil
}

// Logout revokes the current session on the server and drops the stored
// tokens regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	err := c.post(ctx, "/api/v1/auth/logout", nil, nil, true)
	c.accessToken = ""
	c.refreshToken = ""
	return err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.post(ctx, "/api/v1/auth/password/forgot",
		map[string]string{"email": email}, nil, false)
}

// VerifyResetCode checks a reset code without consuming it. When the code
// is not valid the server's explanation is returned as the second value.
func (c *Client) VerifyResetCode(ctx context.Context, email, code string) (bool, string, error) {
	var res struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	err := c.post(ctx, "/api/v1/auth/password/verify-reset-code",
		map[string]string{"email": email, "code": code}, &res, false)
	if err != nil {
		return false, "", err
	}
	return res.Valid, res.Message, nil
}

func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return c.post(ctx, "/api/v1/auth/password/reset-with-code",
		map[string]string{"email": email, "code": code, "newPassword": newPassword}, nil, false)
}

func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	return c.post(ctx, "/api/v1/auth/verify-email",
		map[string]string{"email": email, "code": code}, nil, false)
}

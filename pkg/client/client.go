// Package client is a small typed Go client for the ThinkPlus auth API.
//
// It covers the public authentication surface: signing up, logging in with a
// password or a provider-asserted OAuth identity, and fetching the account
// bound to a session token:
//
//	c := client.New("http://localhost:8080")
//	if err := c.Signup(ctx, "Alice", "alice@example.com", "longpw1", ""); err != nil {
//	    log.Fatal(err)
//	}
//	login, err := c.Login(ctx, "alice@example.com", "longpw1")
//	// login.Token is the bearer token for authenticated calls
//	me, err := c.Me(ctx, login.Token)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Account is the account summary returned by the auth API.
type Account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
}

// LoginResult holds a session token and the account it is bound to.
type LoginResult struct {
	Token string  `json:"token"`
	User  Account `json:"user"`
}

// APIError is a non-2xx response from the API, carrying the server's message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a ThinkPlus API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given API base URL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetHTTPClient overrides the underlying http.Client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Signup registers a new account. A successful signup issues no token; call
// Login afterwards.
func (c *Client) Signup(ctx context.Context, name, email, password, profileImage string) error {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}
	if profileImage != "" {
		body["profileImage"] = profileImage
	}
	return c.post(ctx, "/api/auth/signup", body, nil)
}

// Login authenticates with email/password and returns a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.post(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GoogleLogin matches or creates an account for a Google-asserted identity.
func (c *Client) GoogleLogin(ctx context.Context, email, name, profileImage string) (*LoginResult, error) {
	return c.oauthLogin(ctx, "/api/auth/google-login", email, name, profileImage)
}

// AppleLogin matches or creates an account for an Apple-asserted identity.
// name may be empty; Apple does not always release it.
func (c *Client) AppleLogin(ctx context.Context, email, name, profileImage string) (*LoginResult, error) {
	return c.oauthLogin(ctx, "/api/auth/apple-login", email, name, profileImage)
}

func (c *Client) oauthLogin(ctx context.Context, path, email, name, profileImage string) (*LoginResult, error) {
	var out LoginResult
	err := c.post(ctx, path, map[string]string{
		"email":        email,
		"name":         name,
		"profileImage": profileImage,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account bound to the given session token.
func (c *Client) Me(ctx context.Context, token string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	var out struct {
		User Account `json:"user"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// post sends a JSON POST and decodes a JSON response into out (when non-nil).
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

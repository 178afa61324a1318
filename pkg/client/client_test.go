package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/thinkplus-app/thinkplus-api/pkg/client"
)

// ── Stub server ─────────────────────────────────────────────────────────

func stubAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["email"] == "taken@x.com" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "Email already in use"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"message": "User registered successfully"})
	})

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "longpw1" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid email or password"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-abc",
			"user": map[string]string{
				"id":    "550e8400-e29b-41d4-a716-446655440000",
				"name":  "Alice",
				"email": req["email"],
			},
		})
	})

	mux.HandleFunc("/api/auth/apple-login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-apple",
			"user":  map[string]string{"id": "1", "name": "Apple User", "email": "apple@x.com"},
		})
	})

	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid or expired token"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]string{"id": "1", "name": "Alice", "email": "alice@example.com"},
		})
	})

	return httptest.NewServer(mux)
}

// ── Tests ───────────────────────────────────────────────────────────────

func TestSignupLoginMe(t *testing.T) {
	srv := stubAPIServer(t)
	defer srv.Close()

	c := client.New(srv.URL)
	ctx := context.Background()

	if err := c.Signup(ctx, "Alice", "alice@example.com", "longpw1", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}

	login, err := c.Login(ctx, "alice@example.com", "longpw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Token != "tok-abc" {
		t.Errorf("token = %q, want tok-abc", login.Token)
	}
	if login.User.Email != "alice@example.com" {
		t.Errorf("user.email = %q", login.User.Email)
	}

	me, err := c.Me(ctx, login.Token)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Email != "alice@example.com" {
		t.Errorf("me.email = %q", me.Email)
	}
}

func TestSignup_apiError(t *testing.T) {
	srv := stubAPIServer(t)
	defer srv.Close()

	c := client.New(srv.URL)

	err := c.Signup(context.Background(), "B", "taken@x.com", "longpw1", "")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Message != "Email already in use" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestLogin_invalidCredentials(t *testing.T) {
	srv := stubAPIServer(t)
	defer srv.Close()

	c := client.New(srv.URL)

	_, err := c.Login(context.Background(), "alice@example.com", "wrong")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Message != "Invalid email or password" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAppleLogin(t *testing.T) {
	srv := stubAPIServer(t)
	defer srv.Close()

	c := client.New(srv.URL)

	result, err := c.AppleLogin(context.Background(), "apple@x.com", "", "")
	if err != nil {
		t.Fatalf("apple login: %v", err)
	}
	if result.User.Name != "Apple User" {
		t.Errorf("user.name = %q", result.User.Name)
	}
}

func TestMe_badToken(t *testing.T) {
	srv := stubAPIServer(t)
	defer srv.Close()

	c := client.New(srv.URL)

	_, err := c.Me(context.Background(), "bogus")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.StatusCode)
	}
}

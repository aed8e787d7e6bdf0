package userservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginAndValidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode login body: %v", err)
			}
			if body["email"] != "a@b.c" || body["password"] != "pw" {
				t.Fatalf("unexpected credentials: %v", body)
			}
			w.Write([]byte(`{"accessToken":"tok"}`))
		case "/auth/validate":
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Fatalf("unexpected auth header: %q", got)
			}
			w.Write([]byte(`{"userId":"u1","email":"a@b.c","role":"USER"}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New(srv.URL)
	ctx := context.Background()

	token, err := client.Login(ctx, "a@b.c", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "tok" {
		t.Fatalf("unexpected token: %q", token)
	}

	id, err := client.Validate(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id.UserID != "u1" || id.Role != "USER" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestLoginRejectsMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	if _, err := client.Login(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatalf("expected error for missing access token")
	}
}

func TestLoginNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := New(srv.URL)
	if _, err := client.Login(context.Background(), "a@b.c", "wrong"); err == nil {
		t.Fatalf("expected error on 401")
	}
}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/epicea-im/epicea/lib/ref"
	"github.com/epicea-im/epicea/lib/secret"
)

// testBuffer creates a secret.Buffer from a string for testing. The
// buffer is automatically closed when the test completes.
func testBuffer(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromString(value)
	if err != nil {
		t.Fatalf("creating test buffer: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "https://matrix.agent.gouv.fr"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{}); err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{HomeserverURL: "://invalid"}); err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/_matrix/client/v3/login" {
				t.Errorf("unexpected path: %s", request.URL.Path)
				writer.WriteHeader(http.StatusNotFound)
				return
			}
			var body LoginRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode login request: %v", err)
			}
			if body.Type != "m.login.password" {
				t.Errorf("unexpected login type: %s", body.Type)
			}
			if body.User != "alice" || body.Password != "password123" {
				t.Errorf("unexpected credentials: %s / %s", body.User, body.Password)
			}
			writer.Header().Set("Content-Type", "application/json")
			json.NewEncoder(writer).Encode(AuthResponse{
				UserID:      ref.MustParseUserID("@alice:matrix.agent.gouv.fr"),
				AccessToken: "syt_alice_token",
				DeviceID:    "DEVICE1",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		session, err := client.Login(context.Background(), "alice", testBuffer(t, "password123"))
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		defer session.Close()

		if session.UserID().String() != "@alice:matrix.agent.gouv.fr" {
			t.Errorf("unexpected user ID: %s", session.UserID())
		}
		if session.AccessToken() != "syt_alice_token" {
			t.Errorf("unexpected access token: %s", session.AccessToken())
		}
		if session.DeviceID() != "DEVICE1" {
			t.Errorf("unexpected device ID: %s", session.DeviceID())
		}
	})

	t.Run("invalid credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusForbidden)
			json.NewEncoder(writer).Encode(MatrixError{
				Code:    ErrCodeForbidden,
				Message: "Invalid password",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = client.Login(context.Background(), "alice", testBuffer(t, "wrong"))
		if err == nil {
			t.Fatal("Login succeeded with bad credentials")
		}
		if !IsMatrixError(err, ErrCodeForbidden) {
			t.Errorf("expected M_FORBIDDEN, got: %v", err)
		}
	})

	t.Run("missing username", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:1"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if _, err := client.Login(context.Background(), "", testBuffer(t, "x")); err == nil {
			t.Fatal("Login succeeded without username")
		}
	})
}

func TestSessionFromToken(t *testing.T) {
	client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	session, err := client.SessionFromToken(ref.MustParseUserID("@alice:matrix.agent.gouv.fr"), "syt_stored")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	defer session.Close()

	if session.AccessToken() != "syt_stored" {
		t.Errorf("unexpected token: %s", session.AccessToken())
	}

	if _, err := client.SessionFromToken(ref.UserID{}, "tok"); err == nil {
		t.Error("SessionFromToken accepted a zero user ID")
	}
}

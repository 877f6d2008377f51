// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/epicea-im/epicea/lib/secret"
)

// SavedSession holds the authentication state persisted by
// "epicea login". Loaded automatically by commands that talk to the
// homeserver. Authenticate once, then access is seamless.
type SavedSession struct {
	// UserID is the full Matrix user ID
	// (e.g., "@jean.dupont-modernisation.fr:matrix.agent.gouv.fr").
	UserID string `json:"user_id"`

	// AccessToken is the Matrix access token proving the user's
	// identity.
	AccessToken string `json:"access_token"`

	// DeviceID identifies the logged-in device.
	DeviceID string `json:"device_id,omitempty"`

	// Homeserver is the base URL of the Matrix homeserver. Stored so
	// commands use the same deployment the session was issued by.
	Homeserver string `json:"homeserver"`

	// IdentityServer is the base URL of the identity server, when it
	// differs from the homeserver.
	IdentityServer string `json:"identity_server,omitempty"`
}

// LoadSession reads a saved session. Returns a clear error directing
// the user to "epicea login" if none exists.
func LoadSession(path string) (*SavedSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no session found at %s (run \"epicea login\" first)", path)
		}
		return nil, fmt.Errorf("reading session file %s: %w", path, err)
	}

	var session SavedSession
	if err := json.Unmarshal(data, &session); err != nil {
		secret.Zero(data)
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	secret.Zero(data)

	if session.UserID == "" {
		return nil, fmt.Errorf("session file %s has no user_id", path)
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("session file %s has no access_token", path)
	}
	if session.Homeserver == "" {
		return nil, fmt.Errorf("session file %s has no homeserver", path)
	}
	return &session, nil
}

// SaveSession writes the session to path with mode 0600, creating the
// parent directory with mode 0700 if needed. The file carries an
// access token, hence the tight permissions.
func SaveSession(session *SavedSession, path string) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		secret.Zero(data)
		return fmt.Errorf("creating session directory %s: %w", directory, err)
	}

	writeErr := os.WriteFile(path, data, 0600)
	secret.Zero(data)
	if writeErr != nil {
		return fmt.Errorf("writing session file %s: %w", path, writeErr)
	}
	return nil
}

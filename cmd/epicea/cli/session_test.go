// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	saved := &SavedSession{
		UserID:      "@jean.dupont-modernisation.fr:matrix.agent.gouv.fr",
		AccessToken: "syt_secret",
		DeviceID:    "EPICEACLI",
		Homeserver:  "https://matrix.agent.gouv.fr",
	}
	if err := SaveSession(saved, path); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("session file mode = %o, want 0600", mode)
	}

	loaded, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if *loaded != *saved {
		t.Errorf("loaded = %+v, want %+v", loaded, saved)
	}
}

func TestLoadSessionMissing(t *testing.T) {
	_, err := LoadSession(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil || !strings.Contains(err.Error(), "epicea login") {
		t.Fatalf("err = %v, want pointer to login", err)
	}
}

func TestLoadSessionIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"user_id": "@a:b"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSession(path); err == nil {
		t.Fatal("expected error for session without access token")
	}
}

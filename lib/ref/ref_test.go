// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:  "valid simple",
			input: "@alice:matrix.agent.gouv.fr",
		},
		{
			name:  "valid email-derived localpart",
			input: "@jean.dupont-modernisation.fr:agent.externe.gouv.fr",
		},
		{
			name:  "valid with port in server",
			input: "@bob:localhost:8448",
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: "empty user ID",
		},
		{
			name:    "missing at sigil",
			input:   "alice:matrix.agent.gouv.fr",
			wantErr: "must start with '@'",
		},
		{
			name:    "missing server",
			input:   "@alice",
			wantErr: "missing ':server' suffix",
		},
		{
			name:    "empty localpart",
			input:   "@:matrix.agent.gouv.fr",
			wantErr: "empty localpart",
		},
		{
			name:    "empty server name",
			input:   "@alice:",
			wantErr: "server name is empty",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			userID, err := ParseUserID(test.input)
			if test.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseUserID(%q) succeeded, want error containing %q", test.input, test.wantErr)
				}
				if !strings.Contains(err.Error(), test.wantErr) {
					t.Fatalf("ParseUserID(%q) error = %q, want error containing %q", test.input, err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUserID(%q) unexpected error: %v", test.input, err)
			}
			if userID.String() != test.input {
				t.Errorf("String() = %q, want %q", userID.String(), test.input)
			}
		})
	}
}

func TestUserIDParts(t *testing.T) {
	userID := MustParseUserID("@jean.dupont-modernisation.fr:agent.externe.gouv.fr")
	if got := userID.Localpart(); got != "jean.dupont-modernisation.fr" {
		t.Errorf("Localpart() = %q", got)
	}
	if got := userID.Server(); got != "agent.externe.gouv.fr" {
		t.Errorf("Server() = %q", got)
	}
}

func TestUserIDJSONRoundTrip(t *testing.T) {
	original := MustParseUserID("@alice:matrix.agent.gouv.fr")
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded UserID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip changed value: %v != %v", decoded, original)
	}

	var invalid UserID
	if err := json.Unmarshal([]byte(`"not-a-user-id"`), &invalid); err == nil {
		t.Error("unmarshal of invalid user ID succeeded")
	}
}

func TestParseEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{
			name:  "valid",
			input: "jean.dupont@modernisation.fr",
			want:  "jean.dupont@modernisation.fr",
		},
		{
			name:  "lowercased",
			input: "Jean.Dupont@Modernisation.FR",
			want:  "jean.dupont@modernisation.fr",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  alice@example.org ",
			want:  "alice@example.org",
		},
		{
			name:    "empty",
			input:   "",
			wantErr: "empty email",
		},
		{
			name:    "missing at",
			input:   "alice.example.org",
			wantErr: "missing local part or '@'",
		},
		{
			name:    "missing local part",
			input:   "@example.org",
			wantErr: "missing local part",
		},
		{
			name:    "double at",
			input:   "alice@bob@example.org",
			wantErr: "multiple '@'",
		},
		{
			name:    "dotless domain",
			input:   "alice@localhost",
			wantErr: "invalid domain",
		},
		{
			name:    "embedded space",
			input:   "alice smith@example.org",
			wantErr: "whitespace",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			email, err := ParseEmail(test.input)
			if test.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseEmail(%q) succeeded, want error containing %q", test.input, test.wantErr)
				}
				if !strings.Contains(err.Error(), test.wantErr) {
					t.Fatalf("ParseEmail(%q) error = %q, want error containing %q", test.input, err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEmail(%q) unexpected error: %v", test.input, err)
			}
			if email.String() != test.want {
				t.Errorf("String() = %q, want %q", email.String(), test.want)
			}
		})
	}
}

func TestEmailDomain(t *testing.T) {
	if got := MustParseEmail("alice@modernisation.gouv.fr").Domain(); got != "modernisation.gouv.fr" {
		t.Errorf("Domain() = %q", got)
	}
}

func TestParseEventID(t *testing.T) {
	if _, err := ParseEventID("$abc123"); err != nil {
		t.Errorf("ParseEventID($abc123) failed: %v", err)
	}
	for _, input := range []string{"", "$", "abc123"} {
		if _, err := ParseEventID(input); err == nil {
			t.Errorf("ParseEventID(%q) succeeded, want error", input)
		}
	}
}

func TestZeroValues(t *testing.T) {
	var userID UserID
	var roomID RoomID
	var server ServerName
	var email Email
	if !userID.IsZero() || !roomID.IsZero() || !server.IsZero() || !email.IsZero() {
		t.Error("zero values: IsZero() = false, want true")
	}
}

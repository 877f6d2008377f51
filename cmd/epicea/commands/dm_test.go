// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"testing"

	"github.com/epicea-im/epicea/resolve"
)

func TestParseContact(t *testing.T) {
	t.Run("user ID", func(t *testing.T) {
		selection, err := parseContact("@jean.dupont-modernisation.fr:matrix.agent.gouv.fr")
		if err != nil {
			t.Fatalf("parseContact failed: %v", err)
		}
		account, ok := selection.(resolve.SelectAccount)
		if !ok {
			t.Fatalf("selection = %T", selection)
		}
		if account.UserID.Server() != "matrix.agent.gouv.fr" {
			t.Errorf("server = %q", account.UserID.Server())
		}
	})

	t.Run("email", func(t *testing.T) {
		selection, err := parseContact("Carole@Example.ORG")
		if err != nil {
			t.Fatalf("parseContact failed: %v", err)
		}
		email, ok := selection.(resolve.SelectEmail)
		if !ok {
			t.Fatalf("selection = %T", selection)
		}
		if email.Email.String() != "carole@example.org" {
			t.Errorf("email = %q", email.Email)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := parseContact("not-a-contact"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("malformed user ID", func(t *testing.T) {
		if _, err := parseContact("@no-server"); err == nil {
			t.Fatal("expected error")
		}
	})
}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/epicea-im/epicea/lib/ref"
	"github.com/epicea-im/epicea/messaging"
)

// accountDataSession is a messaging.Session stub serving only the
// account data fetch the index bootstrap needs.
type accountDataSession struct {
	messaging.Session
	raw json.RawMessage
	err error
}

func (s *accountDataSession) AccountData(context.Context, ref.EventType) (json.RawMessage, error) {
	return s.raw, s.err
}

func TestBootstrap(t *testing.T) {
	t.Run("seeds from m.direct", func(t *testing.T) {
		index := New(nil)
		session := &accountDataSession{
			raw: json.RawMessage(`{
				"@bob:matrix.agent.gouv.fr": ["!dm1:matrix.agent.gouv.fr"],
				"carole@example.org": ["!dm2:matrix.agent.gouv.fr"]
			}`),
		}
		if err := index.Bootstrap(context.Background(), session); err != nil {
			t.Fatalf("Bootstrap failed: %v", err)
		}

		roomID, found := index.FindExisting("@bob:matrix.agent.gouv.fr")
		if !found || roomID.String() != "!dm1:matrix.agent.gouv.fr" {
			t.Errorf("FindExisting(bob) = %v, %v", roomID, found)
		}
		// Email keys match case-insensitively.
		if _, found := index.FindExisting("Carole@Example.ORG"); !found {
			t.Error("email lookup is case-sensitive")
		}
	})

	t.Run("no m.direct entry means empty index", func(t *testing.T) {
		index := New(nil)
		session := &accountDataSession{
			err: &messaging.MatrixError{Code: messaging.ErrCodeNotFound, StatusCode: 404},
		}
		if err := index.Bootstrap(context.Background(), session); err != nil {
			t.Fatalf("Bootstrap failed: %v", err)
		}
		if index.Contacts() != 0 {
			t.Errorf("Contacts() = %d, want 0", index.Contacts())
		}
	})

	t.Run("transport failure propagates", func(t *testing.T) {
		index := New(nil)
		session := &accountDataSession{
			err: &messaging.MatrixError{Code: messaging.ErrCodeUnknown, StatusCode: 500},
		}
		if err := index.Bootstrap(context.Background(), session); err == nil {
			t.Error("Bootstrap swallowed a server failure")
		}
	})
}

func TestFindExistingUnknownContact(t *testing.T) {
	index := New(nil)
	if _, found := index.FindExisting("nobody@example.org"); found {
		t.Error("FindExisting reported a conversation in an empty index")
	}
}

func TestApplySync(t *testing.T) {
	index := New(nil)

	response := &messaging.SyncResponse{
		NextBatch: "batch42",
		AccountData: messaging.AccountDataSection{
			Events: []messaging.AccountDataEvent{
				{
					Type: messaging.AccountDataDirect,
					Content: map[string]any{
						"bob@example.org": []any{"!dm1:matrix.agent.gouv.fr", "!dm2:matrix.agent.gouv.fr"},
						"malformed":       []any{42},
					},
				},
			},
		},
	}
	index.ApplySync(response)

	// Most recently recorded room wins.
	roomID, found := index.FindExisting("bob@example.org")
	if !found || roomID.String() != "!dm2:matrix.agent.gouv.fr" {
		t.Errorf("FindExisting = %v, %v", roomID, found)
	}
	if _, found := index.FindExisting("malformed"); found {
		t.Error("malformed entry was indexed")
	}
	if index.Since() != "batch42" {
		t.Errorf("Since() = %q", index.Since())
	}

	// Leaving a room drops it from the contact; a contact with no
	// rooms left disappears.
	index.ApplySync(&messaging.SyncResponse{
		NextBatch: "batch43",
		Rooms: messaging.RoomsSection{
			Leave: map[ref.RoomID]messaging.LeftRoom{
				ref.MustParseRoomID("!dm2:matrix.agent.gouv.fr"): {},
			},
		},
	})
	roomID, found = index.FindExisting("bob@example.org")
	if !found || roomID.String() != "!dm1:matrix.agent.gouv.fr" {
		t.Errorf("after leave: FindExisting = %v, %v", roomID, found)
	}

	index.ApplySync(&messaging.SyncResponse{
		Rooms: messaging.RoomsSection{
			Leave: map[ref.RoomID]messaging.LeftRoom{
				ref.MustParseRoomID("!dm1:matrix.agent.gouv.fr"): {},
			},
		},
	})
	if _, found := index.FindExisting("bob@example.org"); found {
		t.Error("contact survived with no rooms")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	index := New(nil)
	index.ApplySync(&messaging.SyncResponse{
		NextBatch: "batch7",
		AccountData: messaging.AccountDataSection{
			Events: []messaging.AccountDataEvent{
				{
					Type: messaging.AccountDataDirect,
					Content: map[string]any{
						"@bob:matrix.agent.gouv.fr": []any{"!dm1:matrix.agent.gouv.fr"},
					},
				},
			},
		},
	})

	path := filepath.Join(t.TempDir(), "directory.cbor")
	if err := index.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := New(nil)
	if err := restored.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if restored.Since() != "batch7" {
		t.Errorf("restored Since() = %q", restored.Since())
	}
	roomID, found := restored.FindExisting("@bob:matrix.agent.gouv.fr")
	if !found || roomID.String() != "!dm1:matrix.agent.gouv.fr" {
		t.Errorf("restored FindExisting = %v, %v", roomID, found)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	index := New(nil)
	if err := index.Load(filepath.Join(t.TempDir(), "absent.cbor")); err != nil {
		t.Errorf("Load of missing snapshot failed: %v", err)
	}
	if index.Contacts() != 0 {
		t.Errorf("Contacts() = %d after missing snapshot", index.Contacts())
	}
}

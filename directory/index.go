// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory maintains the local index of direct conversations:
// which contact (a user ID, or an invited email address while the
// partner has no account yet) maps to which room.
//
// The index is fed from the homeserver's m.direct account data — at
// bootstrap via a direct fetch, then incrementally from /sync account
// data events and leave transitions. Queries are synchronous local map
// lookups: no network I/O, no failure mode. The resolution core treats
// the index as read-only; only the sync feed mutates it.
//
// A CBOR snapshot (Save/Load) lets a restarting client answer
// existence queries before its first sync completes. The snapshot is
// advisory — the sync stream is authoritative and overwrites it.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/epicea-im/epicea/lib/ref"
	"github.com/epicea-im/epicea/messaging"
)

// Index answers "is there already a direct conversation with this
// contact?". Safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	rooms  map[string][]ref.RoomID // canonical contact key → direct rooms
	since  string                  // last applied /sync batch token
	logger *slog.Logger
}

// New creates an empty index. logger may be nil (slog.Default is used).
func New(logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		rooms:  make(map[string][]ref.RoomID),
		logger: logger,
	}
}

// canonicalKey normalizes a contact key for matching. Email keys are
// matched case-insensitively; user IDs are case-sensitive per the
// Matrix spec but the deployment lowercases localparts at registration,
// so a uniform lowercase fold is safe and matches server behavior.
func canonicalKey(contactKey string) string {
	return strings.ToLower(strings.TrimSpace(contactKey))
}

// FindExisting returns the direct conversation already associated with
// the contact key (a user ID or an email address), if any. Purely
// local: never blocks on the network and never fails. When several
// rooms are mapped, the most recently recorded one is returned.
func (x *Index) FindExisting(contactKey string) (ref.RoomID, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	rooms := x.rooms[canonicalKey(contactKey)]
	if len(rooms) == 0 {
		return ref.RoomID{}, false
	}
	return rooms[len(rooms)-1], true
}

// Contacts returns the number of contacts with at least one direct
// conversation.
func (x *Index) Contacts() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.rooms)
}

// Since returns the last applied /sync batch token, for resuming an
// incremental sync after restart.
func (x *Index) Since() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.since
}

// Bootstrap seeds the index from the m.direct account data on the
// homeserver. An account that has never had a direct conversation has
// no m.direct entry at all — that is an empty index, not an error.
func (x *Index) Bootstrap(ctx context.Context, session messaging.Session) error {
	raw, err := session.AccountData(ctx, messaging.AccountDataDirect)
	if err != nil {
		if messaging.IsNotFound(err) {
			x.logger.Debug("no m.direct account data, starting empty")
			return nil
		}
		return fmt.Errorf("directory: fetching m.direct: %w", err)
	}

	var direct messaging.DirectMap
	if err := json.Unmarshal(raw, &direct); err != nil {
		return fmt.Errorf("directory: parsing m.direct: %w", err)
	}

	x.replaceAll(direct)
	x.logger.Info("directory bootstrapped", "contacts", x.Contacts())
	return nil
}

// ApplySync folds one /sync response into the index: m.direct account
// data replaces the mapping wholesale (it is delivered complete, not
// as a diff), and rooms the user left are dropped from every contact.
func (x *Index) ApplySync(response *messaging.SyncResponse) {
	for _, event := range response.AccountData.Events {
		if event.Type != messaging.AccountDataDirect {
			continue
		}
		direct := make(messaging.DirectMap, len(event.Content))
		for key, value := range event.Content {
			rooms, err := decodeRoomList(value)
			if err != nil {
				x.logger.Warn("skipping malformed m.direct entry", "key", key, "error", err)
				continue
			}
			direct[key] = rooms
		}
		x.replaceAll(direct)
	}

	if len(response.Rooms.Leave) > 0 {
		x.mu.Lock()
		for roomID := range response.Rooms.Leave {
			x.dropRoomLocked(roomID)
		}
		x.mu.Unlock()
	}

	if response.NextBatch != "" {
		x.mu.Lock()
		x.since = response.NextBatch
		x.mu.Unlock()
	}
}

func (x *Index) replaceAll(direct messaging.DirectMap) {
	rooms := make(map[string][]ref.RoomID, len(direct))
	for key, list := range direct {
		if len(list) == 0 {
			continue
		}
		rooms[canonicalKey(key)] = list
	}

	x.mu.Lock()
	x.rooms = rooms
	x.mu.Unlock()
}

// dropRoomLocked removes roomID from every contact entry. Contacts
// left with no rooms are removed entirely. Caller holds x.mu.
func (x *Index) dropRoomLocked(roomID ref.RoomID) {
	for key, list := range x.rooms {
		kept := list[:0]
		for _, id := range list {
			if id != roomID {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(x.rooms, key)
		} else {
			x.rooms[key] = kept
		}
	}
}

// decodeRoomList converts a JSON-decoded m.direct value ([]any of
// strings) into validated room IDs.
func decodeRoomList(value any) ([]ref.RoomID, error) {
	raw, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", value)
	}
	rooms := make([]ref.RoomID, 0, len(raw))
	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("expected string room ID, got %T", entry)
		}
		roomID, err := ref.ParseRoomID(s)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, roomID)
	}
	return rooms, nil
}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"

	"github.com/epicea-im/epicea/lib/ref"
)

// Session is the authenticated operation surface the resolution core
// consumes. *DirectSession is the production implementation; tests
// substitute fakes.
type Session interface {
	// UserID returns the fully-qualified Matrix user ID of the local
	// account (e.g., "@alice:matrix.agent.gouv.fr").
	UserID() ref.UserID

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// WhoAmI validates the session and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// CreateRoom creates a new Matrix room.
	CreateRoom(ctx context.Context, request CreateRoomRequest) (*CreateRoomResponse, error)

	// LeaveRoom leaves a room by ID.
	LeaveRoom(ctx context.Context, roomID ref.RoomID) error

	// GetRoomState fetches all current state events from a room.
	GetRoomState(ctx context.Context, roomID ref.RoomID) ([]Event, error)

	// GetStateEvent fetches the content of a single state event. An
	// event that does not exist is reported via M_NOT_FOUND.
	GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error)

	// SendStateEvent sends a state event to a room. Returns the event ID.
	SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error)

	// Profile fetches a user's profile. A user with no profile data is
	// reported via M_NOT_FOUND.
	Profile(ctx context.Context, userID ref.UserID) (*ProfileResponse, error)

	// AccountData fetches a global account data entry for the local
	// user. Returns the raw JSON content; an entry never set is
	// reported via M_NOT_FOUND.
	AccountData(ctx context.Context, dataType ref.EventType) (json.RawMessage, error)

	// SetAccountData replaces a global account data entry for the
	// local user.
	SetAccountData(ctx context.Context, dataType ref.EventType, content any) error

	// Sync performs an incremental sync with the homeserver.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)

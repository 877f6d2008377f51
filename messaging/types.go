// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/epicea-im/epicea/lib/ref"
)

// Standard event and account-data types the client reads and writes.
const (
	// EventTypeThirdPartyInvite is the room state event holding a
	// pending email invitation. Its state key is the invite token;
	// sending empty content at the same key revokes the invite.
	EventTypeThirdPartyInvite ref.EventType = "m.room.third_party_invite"

	// EventTypeMember is the room membership state event.
	EventTypeMember ref.EventType = "m.room.member"

	// AccountDataDirect is the per-user account data mapping direct
	// conversation partners (user IDs, or invited email addresses
	// before the partner has an account) to room IDs.
	AccountDataDirect ref.EventType = "m.direct"
)

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	DeviceID                 string `json:"device_id,omitempty"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// Invite3PID names a third-party identifier to invite during room
// creation. The identity server validates the address and issues the
// invite token stored in the room's m.room.third_party_invite state.
type Invite3PID struct {
	IDServer string `json:"id_server"`
	Medium   string `json:"medium"`
	Address  string `json:"address"`
}

// CreateRoomRequest holds parameters for creating a Matrix room.
type CreateRoomRequest struct {
	Name        string       `json:"name,omitempty"`
	Topic       string       `json:"topic,omitempty"`
	Visibility  string       `json:"visibility,omitempty"` // "public" or "private"
	Preset      string       `json:"preset,omitempty"`     // e.g. "trusted_private_chat"
	Invite      []ref.UserID `json:"invite,omitempty"`
	Invite3PIDs []Invite3PID `json:"invite_3pid,omitempty"`
	IsDirect    bool         `json:"is_direct,omitempty"`
	InitialState []StateEvent `json:"initial_state,omitempty"`
}

// CreateRoomResponse is returned by CreateRoom.
type CreateRoomResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// StateEvent represents a state event supplied at room creation.
type StateEvent struct {
	Type     ref.EventType `json:"type"`
	StateKey string        `json:"state_key"`
	Content  any           `json:"content"`
}

// Event represents a Matrix event from the server.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	RoomID         ref.RoomID     `json:"room_id,omitempty"`
	StateKey       *string        `json:"state_key,omitempty"`
}

// SendEventResponse is returned by SendStateEvent.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// ProfileResponse is returned by the /profile/{userId} endpoint.
type ProfileResponse struct {
	DisplayName string `json:"displayname,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Account is a resolved user identity: the identifier plus whatever
// profile information the deployment has for it. DisplayName may be
// synthesized from the identifier when the profile service has no
// value (see federation.DisplayNameFromUserID).
type Account struct {
	UserID      ref.UserID `json:"user_id"`
	DisplayName string     `json:"display_name,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
}

// DirectMap is the content of m.direct account data: direct
// conversation partner key (user ID, or invited email address before
// the partner has an account) to the rooms shared with them.
type DirectMap map[string][]ref.RoomID

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since   string // next_batch token from previous sync; empty for initial sync
	Timeout int    // long-poll timeout in milliseconds; 0 for immediate return
	Filter  string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync, trimmed to the
// sections the conversation directory consumes.
type SyncResponse struct {
	NextBatch   string             `json:"next_batch"`
	AccountData AccountDataSection `json:"account_data"`
	Rooms       RoomsSection       `json:"rooms"`
}

// AccountDataSection carries global account data events from /sync.
type AccountDataSection struct {
	Events []AccountDataEvent `json:"events"`
}

// AccountDataEvent is one account data entry (e.g., m.direct).
type AccountDataEvent struct {
	Type    ref.EventType  `json:"type"`
	Content map[string]any `json:"content"`
}

// RoomsSection contains per-room sync data grouped by membership
// state. Map keys are room IDs; encoding/json uses ref.RoomID's
// TextUnmarshaler for validation at deserialization.
type RoomsSection struct {
	Join  map[ref.RoomID]JoinedRoom `json:"join,omitempty"`
	Leave map[ref.RoomID]LeftRoom   `json:"leave,omitempty"`
}

// JoinedRoom contains sync data for a room the user has joined.
type JoinedRoom struct {
	State    StateSection    `json:"state"`
	Timeline TimelineSection `json:"timeline"`
}

// LeftRoom contains sync data for a room the user has left.
type LeftRoom struct {
	State    StateSection    `json:"state"`
	Timeline TimelineSection `json:"timeline"`
}

// StateSection contains state events from a sync response.
type StateSection struct {
	Events []Event `json:"events"`
}

// TimelineSection contains timeline events from a sync response.
// State events may also ride in the timeline; directory consumers
// process both.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// PlatformInfo describes the homeserver serving an email's domain,
// as reported by platform discovery.
type PlatformInfo struct {
	Homeserver ref.ServerName `json:"hs"`
}

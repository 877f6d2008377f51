// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/epicea-im/epicea/lib/ref"
	"github.com/epicea-im/epicea/lib/secret"
)

// DirectSession is an authenticated Matrix session. It wraps a Client
// with an access token for authenticated API calls. DirectSessions are
// lightweight and safe to create in large numbers.
//
// The access token is stored in a secret.Buffer (mmap-backed, locked
// against swap, excluded from core dumps). The caller must call Close
// when the session is no longer needed.
type DirectSession struct {
	client      *Client
	accessToken *secret.Buffer
	userID      ref.UserID
	deviceID    string
}

// UserID returns the fully-qualified Matrix user ID of the local account.
func (s *DirectSession) UserID() ref.UserID {
	return s.userID
}

// AccessToken returns the access token as a heap string. This creates
// a brief copy from the mmap-backed buffer — use only at API
// boundaries that require a string (e.g., writing the session file).
func (s *DirectSession) AccessToken() string {
	return s.accessToken.String()
}

// DeviceID returns the device ID for this session.
func (s *DirectSession) DeviceID() string {
	return s.deviceID
}

// Close releases the access token memory (zeros, unlocks, unmaps).
// Idempotent — safe to call multiple times.
func (s *DirectSession) Close() error {
	if s.accessToken != nil {
		return s.accessToken.Close()
	}
	return nil
}

// WhoAmI validates the access token and returns the user ID. Useful
// for checking whether a stored token is still valid.
func (s *DirectSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil)
	if err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: whoami failed: %w", err)
	}

	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: failed to parse whoami response: %w", err)
	}
	return response.UserID, nil
}

// CreateRoom creates a new Matrix room.
func (s *DirectSession) CreateRoom(ctx context.Context, request CreateRoomRequest) (*CreateRoomResponse, error) {
	body, err := s.client.doRequest(ctx, http.MethodPost, "/_matrix/client/v3/createRoom", s.accessToken, request)
	if err != nil {
		return nil, fmt.Errorf("messaging: create room failed: %w", err)
	}

	var response CreateRoomResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse createRoom response: %w", err)
	}

	s.client.logger.Info("created room",
		"room_id", response.RoomID,
		"direct", request.IsDirect,
		"invites", len(request.Invite),
		"email_invites", len(request.Invite3PIDs),
	)
	return &response, nil
}

// LeaveRoom leaves a room by ID.
func (s *DirectSession) LeaveRoom(ctx context.Context, roomID ref.RoomID) error {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/leave", url.PathEscape(roomID.String()))
	_, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{})
	if err != nil {
		return fmt.Errorf("messaging: leave room %q failed: %w", roomID, err)
	}
	return nil
}

// GetRoomState fetches all current state events from a room. Returns
// the full event objects including type, state_key, and sender.
func (s *DirectSession) GetRoomState(ctx context.Context, roomID ref.RoomID) ([]Event, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/state", url.PathEscape(roomID.String()))

	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get room state for %q failed: %w", roomID, err)
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse room state response: %w", err)
	}
	return events, nil
}

// GetStateEvent fetches the content of a single state event. The
// server returns the bare content object; an event that does not exist
// is reported via M_NOT_FOUND.
func (s *DirectSession) GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/state/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(eventType.String()),
		url.PathEscape(stateKey),
	)

	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get state event %s in %q failed: %w", eventType, roomID, err)
	}
	return json.RawMessage(body), nil
}

// SendStateEvent sends a state event to a room. State events use PUT
// with the event type and state key in the path. Returns the event ID.
func (s *DirectSession) SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/state/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(eventType.String()),
		url.PathEscape(stateKey),
	)

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send state event to %q failed: %w", roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: failed to parse send state response: %w", err)
	}
	return response.EventID, nil
}

// Profile fetches a user's profile (display name, avatar). A user
// with no profile data is reported via M_NOT_FOUND.
func (s *DirectSession) Profile(ctx context.Context, userID ref.UserID) (*ProfileResponse, error) {
	path := "/_matrix/client/v3/profile/" + url.PathEscape(userID.String())
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get profile for %q failed: %w", userID, err)
	}

	var response ProfileResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse profile response: %w", err)
	}
	return &response, nil
}

// AccountData fetches a global account data entry for the local user.
// Returns the raw JSON content for the caller to unmarshal. An entry
// that was never set is reported via a *MatrixError with M_NOT_FOUND.
func (s *DirectSession) AccountData(ctx context.Context, dataType ref.EventType) (json.RawMessage, error) {
	path := fmt.Sprintf("/_matrix/client/v3/user/%s/account_data/%s",
		url.PathEscape(s.userID.String()),
		url.PathEscape(dataType.String()),
	)

	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get account data %s failed: %w", dataType, err)
	}
	return json.RawMessage(body), nil
}

// SetAccountData replaces a global account data entry for the local user.
func (s *DirectSession) SetAccountData(ctx context.Context, dataType ref.EventType, content any) error {
	path := fmt.Sprintf("/_matrix/client/v3/user/%s/account_data/%s",
		url.PathEscape(s.userID.String()),
		url.PathEscape(dataType.String()),
	)

	_, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return fmt.Errorf("messaging: set account data %s failed: %w", dataType, err)
	}
	return nil
}

// Sync performs an incremental sync with the homeserver. For initial
// sync, leave options.Since empty. For long-polling, set
// options.Timeout to the desired wait in milliseconds.
func (s *DirectSession) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.Timeout > 0 {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: sync failed: %w", err)
	}

	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse sync response: %w", err)
	}
	return &response, nil
}

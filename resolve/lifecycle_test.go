// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/epicea-im/epicea/lib/ref"
	"github.com/epicea-im/epicea/messaging"
)

// mapIndex is a fixed ExistenceIndex backed by a map.
type mapIndex map[string]ref.RoomID

func (m mapIndex) FindExisting(contactKey string) (ref.RoomID, bool) {
	roomID, ok := m[contactKey]
	return roomID, ok
}

// lifecycleSession is a messaging.Session stub recording the calls the
// lifecycle makes. Unset hooks fall through to sensible defaults.
type lifecycleSession struct {
	messaging.Session

	createRequests []messaging.CreateRoomRequest
	createErr      error
	createdRoom    ref.RoomID

	stateEvents []messaging.Event
	stateErr    error

	sentType     ref.EventType
	sentStateKey string
	sentContent  any
	sendErr      error

	leftRooms []ref.RoomID
	leaveErr  error

	accountData    json.RawMessage
	accountDataErr error
	setData        any
	setDataErr     error
}

func (s *lifecycleSession) CreateRoom(_ context.Context, request messaging.CreateRoomRequest) (*messaging.CreateRoomResponse, error) {
	s.createRequests = append(s.createRequests, request)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &messaging.CreateRoomResponse{RoomID: s.createdRoom}, nil
}

func (s *lifecycleSession) GetRoomState(context.Context, ref.RoomID) ([]messaging.Event, error) {
	return s.stateEvents, s.stateErr
}

func (s *lifecycleSession) SendStateEvent(_ context.Context, _ ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error) {
	s.sentType = eventType
	s.sentStateKey = stateKey
	s.sentContent = content
	if s.sendErr != nil {
		return ref.EventID{}, s.sendErr
	}
	return ref.MustParseEventID("$revoked:matrix.agent.gouv.fr"), nil
}

func (s *lifecycleSession) LeaveRoom(_ context.Context, roomID ref.RoomID) error {
	s.leftRooms = append(s.leftRooms, roomID)
	return s.leaveErr
}

func (s *lifecycleSession) AccountData(context.Context, ref.EventType) (json.RawMessage, error) {
	if s.accountDataErr != nil {
		return nil, s.accountDataErr
	}
	if s.accountData == nil {
		return nil, &messaging.MatrixError{Code: messaging.ErrCodeNotFound, StatusCode: 404}
	}
	return s.accountData, nil
}

func (s *lifecycleSession) SetAccountData(_ context.Context, _ ref.EventType, content any) error {
	s.setData = content
	return s.setDataErr
}

func testLifecycle(t *testing.T, session *lifecycleSession, index ExistenceIndex) *Lifecycle {
	t.Helper()
	if index == nil {
		index = mapIndex{}
	}
	lifecycle, err := NewLifecycle(LifecycleConfig{
		Session:        session,
		Index:          index,
		IdentityServer: "matrix.agent.gouv.fr",
	})
	if err != nil {
		t.Fatalf("NewLifecycle failed: %v", err)
	}
	return lifecycle
}

func TestEnsureDirectWithAccount(t *testing.T) {
	bob := ref.MustParseUserID("@bob:matrix.agent.gouv.fr")

	t.Run("returns existing conversation without creating", func(t *testing.T) {
		existing := ref.MustParseRoomID("!dm:matrix.agent.gouv.fr")
		session := &lifecycleSession{}
		lifecycle := testLifecycle(t, session, mapIndex{bob.String(): existing})

		roomID, err := lifecycle.EnsureDirectWithAccount(context.Background(), bob)
		if err != nil {
			t.Fatalf("EnsureDirectWithAccount failed: %v", err)
		}
		if roomID != existing {
			t.Errorf("room = %v, want %v", roomID, existing)
		}
		if len(session.createRequests) != 0 {
			t.Errorf("created %d rooms, want 0", len(session.createRequests))
		}
	})

	t.Run("creates a direct conversation", func(t *testing.T) {
		created := ref.MustParseRoomID("!new:matrix.agent.gouv.fr")
		session := &lifecycleSession{createdRoom: created}
		lifecycle := testLifecycle(t, session, nil)

		roomID, err := lifecycle.EnsureDirectWithAccount(context.Background(), bob)
		if err != nil {
			t.Fatalf("EnsureDirectWithAccount failed: %v", err)
		}
		if roomID != created {
			t.Errorf("room = %v, want %v", roomID, created)
		}

		if len(session.createRequests) != 1 {
			t.Fatalf("created %d rooms, want 1", len(session.createRequests))
		}
		request := session.createRequests[0]
		if !request.IsDirect {
			t.Error("is_direct not set")
		}
		if request.Preset != "trusted_private_chat" {
			t.Errorf("preset = %q", request.Preset)
		}
		if len(request.Invite) != 1 || request.Invite[0] != bob {
			t.Errorf("invite = %v, want [%v]", request.Invite, bob)
		}
		if len(request.Invite3PIDs) != 0 {
			t.Errorf("unexpected invite_3pid: %v", request.Invite3PIDs)
		}

		direct, ok := session.setData.(messaging.DirectMap)
		if !ok {
			t.Fatalf("account data write = %T, want DirectMap", session.setData)
		}
		if rooms := direct[bob.String()]; len(rooms) != 1 || rooms[0] != created {
			t.Errorf("m.direct[%s] = %v", bob, rooms)
		}
	})

	t.Run("creation failure surfaces", func(t *testing.T) {
		session := &lifecycleSession{createErr: fmt.Errorf("boom")}
		lifecycle := testLifecycle(t, session, nil)

		if _, err := lifecycle.EnsureDirectWithAccount(context.Background(), bob); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("appends to existing m.direct mapping", func(t *testing.T) {
		created := ref.MustParseRoomID("!new:matrix.agent.gouv.fr")
		session := &lifecycleSession{
			createdRoom: created,
			accountData: json.RawMessage(`{"carole@example.org": ["!old:matrix.agent.gouv.fr"]}`),
		}
		lifecycle := testLifecycle(t, session, nil)

		if _, err := lifecycle.EnsureDirectWithAccount(context.Background(), bob); err != nil {
			t.Fatalf("EnsureDirectWithAccount failed: %v", err)
		}
		direct := session.setData.(messaging.DirectMap)
		if len(direct) != 2 {
			t.Errorf("m.direct has %d contacts, want 2: %v", len(direct), direct)
		}
	})
}

func TestInviteByEmail(t *testing.T) {
	carole := ref.MustParseEmail("carole@example.org")

	t.Run("creates a conversation carrying the invitation", func(t *testing.T) {
		created := ref.MustParseRoomID("!invite:matrix.agent.gouv.fr")
		session := &lifecycleSession{createdRoom: created}
		lifecycle := testLifecycle(t, session, nil)

		roomID, err := lifecycle.InviteByEmail(context.Background(), carole)
		if err != nil {
			t.Fatalf("InviteByEmail failed: %v", err)
		}
		if roomID != created {
			t.Errorf("room = %v, want %v", roomID, created)
		}

		request := session.createRequests[0]
		if !request.IsDirect {
			t.Error("is_direct not set")
		}
		if len(request.Invite3PIDs) != 1 {
			t.Fatalf("invite_3pid = %v, want one entry", request.Invite3PIDs)
		}
		invite := request.Invite3PIDs[0]
		if invite.Medium != "email" || invite.Address != "carole@example.org" {
			t.Errorf("invite = %+v", invite)
		}
		if invite.IDServer != "matrix.agent.gouv.fr" {
			t.Errorf("id_server = %q", invite.IDServer)
		}
	})

	t.Run("m.direct write failure does not fail the invitation", func(t *testing.T) {
		session := &lifecycleSession{
			createdRoom: ref.MustParseRoomID("!invite:matrix.agent.gouv.fr"),
			setDataErr:  fmt.Errorf("account data unavailable"),
		}
		lifecycle := testLifecycle(t, session, nil)

		if _, err := lifecycle.InviteByEmail(context.Background(), carole); err != nil {
			t.Fatalf("InviteByEmail failed: %v", err)
		}
	})
}

func TestRevokePendingInvite(t *testing.T) {
	room := ref.MustParseRoomID("!pending:matrix.agent.gouv.fr")
	token := "ThirdPartyInviteToken"

	stateKey := func(key string) *string { return &key }

	t.Run("clears the pending invitation", func(t *testing.T) {
		session := &lifecycleSession{
			stateEvents: []messaging.Event{
				{
					Type:     messaging.EventTypeMember,
					StateKey: stateKey("@alice:matrix.agent.gouv.fr"),
					Content:  map[string]any{"membership": "join"},
				},
				{
					Type:     messaging.EventTypeThirdPartyInvite,
					StateKey: stateKey(token),
					Content:  map[string]any{"display_name": "carole@example.org"},
				},
			},
		}
		lifecycle := testLifecycle(t, session, nil)

		if err := lifecycle.RevokePendingInvite(context.Background(), room); err != nil {
			t.Fatalf("RevokePendingInvite failed: %v", err)
		}
		if session.sentType != messaging.EventTypeThirdPartyInvite {
			t.Errorf("sent type = %q", session.sentType)
		}
		if session.sentStateKey != token {
			t.Errorf("state key = %q, want %q", session.sentStateKey, token)
		}
		content, ok := session.sentContent.(map[string]any)
		if !ok || len(content) != 0 {
			t.Errorf("revocation content = %v, want empty object", session.sentContent)
		}
	})

	t.Run("already-cleared invitation is a no-op", func(t *testing.T) {
		session := &lifecycleSession{
			stateEvents: []messaging.Event{
				{
					Type:     messaging.EventTypeThirdPartyInvite,
					StateKey: stateKey(token),
					Content:  map[string]any{},
				},
			},
		}
		lifecycle := testLifecycle(t, session, nil)

		if err := lifecycle.RevokePendingInvite(context.Background(), room); err != nil {
			t.Fatalf("RevokePendingInvite failed: %v", err)
		}
		if session.sentStateKey != "" {
			t.Errorf("sent revocation at %q, want none", session.sentStateKey)
		}
	})

	t.Run("no invitation at all is a no-op", func(t *testing.T) {
		session := &lifecycleSession{}
		lifecycle := testLifecycle(t, session, nil)

		if err := lifecycle.RevokePendingInvite(context.Background(), room); err != nil {
			t.Fatalf("RevokePendingInvite failed: %v", err)
		}
		if session.sentStateKey != "" {
			t.Errorf("sent revocation at %q, want none", session.sentStateKey)
		}
	})

	t.Run("state fetch failure surfaces", func(t *testing.T) {
		session := &lifecycleSession{stateErr: fmt.Errorf("boom")}
		lifecycle := testLifecycle(t, session, nil)

		if err := lifecycle.RevokePendingInvite(context.Background(), room); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("revocation send failure surfaces", func(t *testing.T) {
		session := &lifecycleSession{
			stateEvents: []messaging.Event{
				{
					Type:     messaging.EventTypeThirdPartyInvite,
					StateKey: stateKey(token),
					Content:  map[string]any{"display_name": "carole@example.org"},
				},
			},
			sendErr: fmt.Errorf("boom"),
		}
		lifecycle := testLifecycle(t, session, nil)

		if err := lifecycle.RevokePendingInvite(context.Background(), room); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestLeaveConversation(t *testing.T) {
	room := ref.MustParseRoomID("!pending:matrix.agent.gouv.fr")

	session := &lifecycleSession{}
	lifecycle := testLifecycle(t, session, nil)
	if err := lifecycle.LeaveConversation(context.Background(), room); err != nil {
		t.Fatalf("LeaveConversation failed: %v", err)
	}
	if len(session.leftRooms) != 1 || session.leftRooms[0] != room {
		t.Errorf("left rooms = %v", session.leftRooms)
	}

	session = &lifecycleSession{leaveErr: fmt.Errorf("boom")}
	lifecycle = testLifecycle(t, session, nil)
	if err := lifecycle.LeaveConversation(context.Background(), room); err == nil {
		t.Fatal("expected error")
	}
}

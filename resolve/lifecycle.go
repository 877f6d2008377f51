// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/epicea-im/epicea/lib/ref"
	"github.com/epicea-im/epicea/messaging"
)

// presetTrustedPrivateChat grants the invited partner the same power
// level as the creator, the expected shape for a direct conversation.
const presetTrustedPrivateChat = "trusted_private_chat"

// ExistenceIndex answers local, non-blocking queries about which
// direct conversation a contact already maps to. *directory.Index is
// the production implementation.
type ExistenceIndex interface {
	FindExisting(contactKey string) (ref.RoomID, bool)
}

// LifecycleManager creates direct conversations and manages pending
// email invitations. *Lifecycle is the production implementation;
// tests substitute fakes.
type LifecycleManager interface {
	// EnsureDirectWithAccount returns the existing direct conversation
	// with the account if one exists, creating one otherwise.
	EnsureDirectWithAccount(ctx context.Context, userID ref.UserID) (ref.RoomID, error)

	// InviteByEmail creates a fresh conversation carrying an email
	// invitation for the address. It never reuses an existing
	// conversation.
	InviteByEmail(ctx context.Context, email ref.Email) (ref.RoomID, error)

	// RevokePendingInvite clears the pending email invitation in the
	// conversation, if any. A conversation holding no pending
	// invitation is a no-op, not an error.
	RevokePendingInvite(ctx context.Context, roomID ref.RoomID) error

	// LeaveConversation leaves the conversation.
	LeaveConversation(ctx context.Context, roomID ref.RoomID) error
}

// Lifecycle implements LifecycleManager against a Matrix session.
type Lifecycle struct {
	session        messaging.Session
	index          ExistenceIndex
	identityServer string
	logger         *slog.Logger
}

// LifecycleConfig holds the collaborators for NewLifecycle.
type LifecycleConfig struct {
	// Session is the authenticated homeserver session. Required.
	Session messaging.Session

	// Index is consulted by EnsureDirectWithAccount before creating a
	// conversation. Required.
	Index ExistenceIndex

	// IdentityServer is the identity server host name placed in email
	// invitations (see messaging.IdentityClient.Host). Required.
	IdentityServer string

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle(config LifecycleConfig) (*Lifecycle, error) {
	if config.Session == nil {
		return nil, fmt.Errorf("resolve: Session is required")
	}
	if config.Index == nil {
		return nil, fmt.Errorf("resolve: Index is required")
	}
	if config.IdentityServer == "" {
		return nil, fmt.Errorf("resolve: IdentityServer is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		session:        config.Session,
		index:          config.Index,
		identityServer: config.IdentityServer,
		logger:         logger,
	}, nil
}

// EnsureDirectWithAccount returns the direct conversation with the
// account, creating one when the directory has none. The directory
// update after creation is best-effort: the conversation exists on the
// homeserver regardless, and the next sync repairs the local view.
func (l *Lifecycle) EnsureDirectWithAccount(ctx context.Context, userID ref.UserID) (ref.RoomID, error) {
	if roomID, ok := l.index.FindExisting(userID.String()); ok {
		l.logger.Debug("direct conversation already exists",
			"user_id", userID,
			"room_id", roomID)
		return roomID, nil
	}

	response, err := l.session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Visibility: "private",
		Preset:     presetTrustedPrivateChat,
		Invite:     []ref.UserID{userID},
		IsDirect:   true,
	})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("resolve: creating direct conversation with %s: %w", userID, err)
	}
	l.logger.Info("created direct conversation",
		"user_id", userID,
		"room_id", response.RoomID)
	l.markDirect(ctx, userID.String(), response.RoomID)
	return response.RoomID, nil
}

// InviteByEmail creates a new conversation carrying an email
// invitation. Reuse of an existing conversation is deliberately not
// attempted here: the decision whether a pending invitation may be
// reused belongs to the orchestrator, which depends on the target
// homeserver's federation classification.
func (l *Lifecycle) InviteByEmail(ctx context.Context, email ref.Email) (ref.RoomID, error) {
	response, err := l.session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Visibility: "private",
		Preset:     presetTrustedPrivateChat,
		IsDirect:   true,
		Invite3PIDs: []messaging.Invite3PID{{
			IDServer: l.identityServer,
			Medium:   "email",
			Address:  email.String(),
		}},
	})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("resolve: inviting %s: %w", email, err)
	}
	l.logger.Info("sent email invitation",
		"email", email,
		"room_id", response.RoomID)
	l.markDirect(ctx, email.String(), response.RoomID)
	return response.RoomID, nil
}

// RevokePendingInvite finds the conversation's pending third-party
// invitation and clears it by writing empty content at the invite
// token's state key. A conversation with no pending invitation (the
// partner may have accepted just now) is left untouched.
func (l *Lifecycle) RevokePendingInvite(ctx context.Context, roomID ref.RoomID) error {
	events, err := l.session.GetRoomState(ctx, roomID)
	if err != nil {
		return fmt.Errorf("resolve: reading state of %s: %w", roomID, err)
	}

	token := pendingInviteToken(events)
	if token == "" {
		l.logger.Debug("no pending invitation to revoke", "room_id", roomID)
		return nil
	}

	if _, err := l.session.SendStateEvent(ctx, roomID, messaging.EventTypeThirdPartyInvite, token, map[string]any{}); err != nil {
		return fmt.Errorf("resolve: revoking invitation in %s: %w", roomID, err)
	}
	l.logger.Info("revoked pending invitation", "room_id", roomID)
	return nil
}

// LeaveConversation leaves the conversation.
func (l *Lifecycle) LeaveConversation(ctx context.Context, roomID ref.RoomID) error {
	if err := l.session.LeaveRoom(ctx, roomID); err != nil {
		return fmt.Errorf("resolve: leaving %s: %w", roomID, err)
	}
	return nil
}

// pendingInviteToken returns the state key of the first live
// third-party invite in the event list, or "" if none is pending. An
// invite whose content was already cleared is not live.
func pendingInviteToken(events []messaging.Event) string {
	for _, event := range events {
		if event.Type != messaging.EventTypeThirdPartyInvite {
			continue
		}
		if event.StateKey == nil || *event.StateKey == "" {
			continue
		}
		if len(event.Content) == 0 {
			continue
		}
		return *event.StateKey
	}
	return ""
}

// markDirect records the contact-to-room mapping in the m.direct
// account data. Failure is logged and swallowed: the mapping is client
// bookkeeping, not part of the invitation contract.
func (l *Lifecycle) markDirect(ctx context.Context, contactKey string, roomID ref.RoomID) {
	raw, err := l.session.AccountData(ctx, messaging.AccountDataDirect)
	direct := messaging.DirectMap{}
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &direct); err != nil {
			l.logger.Warn("malformed direct conversation account data, rewriting",
				"error", err)
			direct = messaging.DirectMap{}
		}
	case messaging.IsNotFound(err):
		// First direct conversation for this account.
	default:
		l.logger.Warn("could not read direct conversation account data",
			"contact", contactKey,
			"error", err)
		return
	}

	for _, existing := range direct[contactKey] {
		if existing == roomID {
			return
		}
	}
	direct[contactKey] = append(direct[contactKey], roomID)

	if err := l.session.SetAccountData(ctx, messaging.AccountDataDirect, direct); err != nil {
		l.logger.Warn("could not record direct conversation mapping",
			"contact", contactKey,
			"room_id", roomID,
			"error", err)
	}
}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"

	"github.com/epicea-im/epicea/lib/ref"
	"github.com/epicea-im/epicea/messaging"
)

// Outcome is the single result of a Resolve call. Every variant is
// terminal from the orchestrator's point of view; UserDiscovered hands
// control back to the caller, which follows up with a SelectAccount
// resolution once the user confirms.
type Outcome interface {
	outcome()
	fmt.Stringer
}

// OpenConversation reports a direct conversation ready to use, either
// found or freshly created.
type OpenConversation struct {
	RoomID ref.RoomID
}

// SelfTargetRejected reports that the selected account is the local
// user. No conversation is created and no request leaves the client.
type SelfTargetRejected struct {
	UserID ref.UserID
}

// UserDiscovered reports that the selected email address maps to an
// existing account. The conversation is not created yet; the caller
// confirms the account and resolves again with SelectAccount.
type UserDiscovered struct {
	Account messaging.Account
}

// InviteSent reports that a fresh email invitation went out, carried
// by a newly created conversation.
type InviteSent struct {
	Email  ref.Email
	RoomID ref.RoomID
}

// InviteAlreadySent reports that a pending invitation for the address
// already exists and remains valid, so no new one was issued.
type InviteAlreadySent struct {
	Email ref.Email
}

// InviteUnauthorized reports that no homeserver serves the address's
// domain, so the deployment cannot invite it.
type InviteUnauthorized struct {
	Email ref.Email
}

// OperationFailed reports a remote operation failure. Cause carries
// the underlying error, including context cancellation.
type OperationFailed struct {
	Cause error
}

func (OpenConversation) outcome() {}
func (SelfTargetRejected) outcome() {}
func (UserDiscovered) outcome() {}
func (InviteSent) outcome() {}
func (InviteAlreadySent) outcome() {}
func (InviteUnauthorized) outcome() {}
func (OperationFailed) outcome() {}

func (o OpenConversation) String() string {
	return fmt.Sprintf("conversation ready: %s", o.RoomID)
}

func (o SelfTargetRejected) String() string {
	return fmt.Sprintf("cannot start a conversation with yourself (%s)", o.UserID)
}

func (o UserDiscovered) String() string {
	if o.Account.DisplayName != "" {
		return fmt.Sprintf("found account %s (%s)", o.Account.UserID, o.Account.DisplayName)
	}
	return fmt.Sprintf("found account %s", o.Account.UserID)
}

func (o InviteSent) String() string {
	return fmt.Sprintf("invitation sent to %s (room %s)", o.Email, o.RoomID)
}

func (o InviteAlreadySent) String() string {
	return fmt.Sprintf("an invitation for %s is already pending", o.Email)
}

func (o InviteUnauthorized) String() string {
	return fmt.Sprintf("no homeserver accepts invitations for %s", o.Email)
}

func (o OperationFailed) String() string {
	return fmt.Sprintf("operation failed: %v", o.Cause)
}

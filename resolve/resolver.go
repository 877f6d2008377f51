// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/epicea-im/epicea/federation"
	"github.com/epicea-im/epicea/lib/ref"
	"github.com/epicea-im/epicea/messaging"
)

// IdentityLookup covers the identity server operations the resolver
// needs. *messaging.IdentityClient is the production implementation.
type IdentityLookup interface {
	// LookupAccountByEmail maps an email address to an account. The
	// second return is false when the address maps to no account.
	LookupAccountByEmail(ctx context.Context, email ref.Email) (ref.UserID, bool, error)

	// DiscoverPlatform reports which homeserver serves the email's
	// domain. The second return is false when no homeserver does.
	DiscoverPlatform(ctx context.Context, email ref.Email) (messaging.PlatformInfo, bool, error)
}

// ProfileSource fetches profile data for discovered accounts.
// messaging.Session satisfies it.
type ProfileSource interface {
	UserID() ref.UserID
	Profile(ctx context.Context, userID ref.UserID) (*messaging.ProfileResponse, error)
}

// Resolver is the orchestrator: it drives a contact selection through
// identity resolution, platform discovery, and invitation lifecycle to
// a single Outcome. A Resolver is safe for concurrent use as long as
// its collaborators are; calls targeting the same contact race on the
// homeserver, not here.
type Resolver struct {
	session   ProfileSource
	identity  IdentityLookup
	index     ExistenceIndex
	lifecycle LifecycleManager
	policy    *federation.Policy
	logger    *slog.Logger
}

// ResolverConfig holds the collaborators for NewResolver.
type ResolverConfig struct {
	// Session identifies the local user and serves profile fetches.
	// Required.
	Session ProfileSource

	// Identity performs account lookup and platform discovery.
	// Required.
	Identity IdentityLookup

	// Index answers existing-conversation queries. Required.
	Index ExistenceIndex

	// Lifecycle creates conversations and manages invitations.
	// Required.
	Lifecycle LifecycleManager

	// Policy classifies homeservers. If nil,
	// federation.DefaultPolicy() is used.
	Policy *federation.Policy

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	if config.Session == nil {
		return nil, fmt.Errorf("resolve: Session is required")
	}
	if config.Identity == nil {
		return nil, fmt.Errorf("resolve: Identity is required")
	}
	if config.Index == nil {
		return nil, fmt.Errorf("resolve: Index is required")
	}
	if config.Lifecycle == nil {
		return nil, fmt.Errorf("resolve: Lifecycle is required")
	}
	policy := config.Policy
	if policy == nil {
		policy = federation.DefaultPolicy()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		session:   config.Session,
		identity:  config.Identity,
		index:     config.Index,
		lifecycle: config.Lifecycle,
		policy:    policy,
		logger:    logger,
	}, nil
}

// Resolve drives the selection to an Outcome. Cancelling ctx aborts
// the in-flight remote call and surfaces as OperationFailed; completed
// side effects (a created conversation, a cleared invitation) are not
// rolled back.
func (r *Resolver) Resolve(ctx context.Context, selection Selection) Outcome {
	switch s := selection.(type) {
	case SelectAccount:
		return r.resolveAccount(ctx, s.UserID)
	case SelectEmail:
		return r.resolveEmail(ctx, s.Email)
	default:
		return OperationFailed{Cause: fmt.Errorf("resolve: unknown selection type %T", selection)}
	}
}

func (r *Resolver) resolveAccount(ctx context.Context, userID ref.UserID) Outcome {
	if strings.EqualFold(userID.String(), r.session.UserID().String()) {
		r.logger.Debug("rejected self-targeted conversation", "user_id", userID)
		return SelfTargetRejected{UserID: userID}
	}

	roomID, err := r.lifecycle.EnsureDirectWithAccount(ctx, userID)
	if err != nil {
		return OperationFailed{Cause: err}
	}
	return OpenConversation{RoomID: roomID}
}

func (r *Resolver) resolveEmail(ctx context.Context, email ref.Email) Outcome {
	existingRoom, hasExisting := r.index.FindExisting(email.String())

	userID, found, err := r.identity.LookupAccountByEmail(ctx, email)
	if err != nil {
		return OperationFailed{Cause: err}
	}
	if found {
		return UserDiscovered{Account: r.describeAccount(ctx, userID)}
	}

	info, served, err := r.identity.DiscoverPlatform(ctx, email)
	if err != nil {
		return OperationFailed{Cause: err}
	}
	if !served {
		if hasExisting {
			// The invite went out while the domain was still served;
			// it stays valid until the partner acts on it.
			return InviteAlreadySent{Email: email}
		}
		return InviteUnauthorized{Email: email}
	}

	external := r.policy.IsExternalServer(info.Homeserver.String())
	if hasExisting {
		if !external {
			return InviteAlreadySent{Email: email}
		}
		// External invite emails carry a link bound to the inviting
		// conversation, so a stale invite cannot be reused: clear it
		// and abandon the old conversation before issuing a new one.
		if err := r.lifecycle.RevokePendingInvite(ctx, existingRoom); err != nil {
			return OperationFailed{Cause: err}
		}
		if err := r.lifecycle.LeaveConversation(ctx, existingRoom); err != nil {
			r.logger.Warn("could not leave conversation after revoking invitation",
				"room_id", existingRoom,
				"error", err)
		}
	}

	roomID, err := r.lifecycle.InviteByEmail(ctx, email)
	if err != nil {
		return OperationFailed{Cause: err}
	}
	return InviteSent{Email: email, RoomID: roomID}
}

// describeAccount builds the Account for a discovered user, falling
// back to a display name synthesized from the user ID when the profile
// service has nothing.
func (r *Resolver) describeAccount(ctx context.Context, userID ref.UserID) messaging.Account {
	account := messaging.Account{UserID: userID}
	profile, err := r.session.Profile(ctx, userID)
	switch {
	case err == nil:
		account.DisplayName = profile.DisplayName
		account.AvatarURL = profile.AvatarURL
	case messaging.IsNotFound(err):
		// No profile set; synthesize below.
	default:
		r.logger.Warn("profile fetch failed, synthesizing display name",
			"user_id", userID,
			"error", err)
	}
	if account.DisplayName == "" {
		account.DisplayName = federation.DisplayNameFromUserID(r.policy, userID)
	}
	return account
}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import "github.com/epicea-im/epicea/lib/ref"

// Selection is a contact chosen by the user: either an existing
// account or a bare email address. Exactly one variant is passed per
// Resolve call; the closed set keeps the orchestrator's dispatch
// exhaustive.
type Selection interface {
	selection()
}

// SelectAccount targets a known account by its user ID.
type SelectAccount struct {
	UserID ref.UserID
}

// SelectEmail targets a contact by email address. The address may or
// may not belong to an existing account; resolving that is the
// orchestrator's job.
type SelectEmail struct {
	Email ref.Email
}

func (SelectAccount) selection() {}
func (SelectEmail) selection() {}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolve turns a contact selection into a direct
// conversation.
//
// A selection names the partner either by account identifier or by
// email address. The account path is short: reject self-targeting,
// then ensure a direct conversation exists. The email path is where
// the work is: consult the local conversation directory, ask the
// identity server whether the address maps to an account, and if not,
// discover which homeserver serves the address and decide between
// reusing a pending invite, refusing one, or issuing a fresh one. For
// addresses served by an external homeserver a stale pending invite
// is revoked before the new one goes out, because external invite
// emails carry a link bound to the inviting room.
//
// Resolve returns exactly one Outcome per call and never panics on
// remote failure: every transport error surfaces as OperationFailed
// with the cause attached.
package resolve

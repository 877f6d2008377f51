// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server and identity APIs
// for the Épicéa client core.
//
// [Client] is an unauthenticated homeserver client handling password
// login and token restoration, returning authenticated [DirectSession]
// values. Client holds the homeserver URL and HTTP transport, shared
// across Sessions.
//
// [DirectSession] implements [Session], the operation surface the
// resolution core consumes: room creation (direct rooms with user or
// third-party email invites), leaving rooms, state events (read full
// room state, send individual events — how pending email invites are
// revoked), per-user account data (m.direct), profile lookup, and
// incremental /sync for the conversation directory. The access token
// lives in mmap-backed secret.Buffer memory (locked against swap,
// excluded from core dumps); callers must Close sessions.
//
// [IdentityClient] talks to the deployment's identity server: mapping
// an email to an existing account (lookup) and discovering which
// homeserver serves an email's domain (platform info). Both calls
// distinguish "no match" (an absent result, not an error) from
// transport failure, and neither retries — retry policy belongs to
// callers.
//
// All API errors are returned as [*MatrixError] with the standard
// error code (M_FORBIDDEN, M_NOT_FOUND, ...) and HTTP status.
// [IsMatrixError] tests for a specific code. Request URLs are built by
// string concatenation rather than url.URL to avoid double-encoding of
// path segments.
package messaging

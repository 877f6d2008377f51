// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references
// for the Épicéa client: Matrix user IDs, room IDs, event IDs, server
// names, and email addresses.
//
// All constructors validate their inputs and return errors for invalid
// values. Once constructed, a ref is immutable — a ref value held by
// the resolution core is guaranteed to be structurally well formed, so
// downstream code never re-validates. Malformed identifiers are
// rejected at the boundary (JSON decoding, CLI input, configuration)
// and never reach the orchestrator.
//
// JSON and CBOR marshaling use the canonical string form via
// encoding.TextMarshaler; unmarshaling validates via
// encoding.TextUnmarshaler, so identifiers arriving in server
// responses are checked at deserialization.
package ref

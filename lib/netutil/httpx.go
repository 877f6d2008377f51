// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O utilities for the Épicéa client.
//
// The response helpers bound all body reads at MaxResponseSize to
// prevent unbounded memory allocation from a misbehaving server. They
// are for JSON API responses (Matrix client-server API, identity API)
// — not for streaming responses or large binary downloads.
package netutil

import (
	"io"
)

// MaxResponseSize is the bound on JSON API response body reads: 64 MB.
// Legitimate API responses in this client are orders of magnitude
// smaller; the limit exists solely to stop a pathological response
// from exhausting memory.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize
// bytes. Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

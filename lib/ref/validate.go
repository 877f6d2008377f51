// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// parseMatrixID splits a sigil-prefixed Matrix identifier
// ("@localpart:server", "!opaque:server") into its localpart and
// server name. The first ':' after the sigil is the separator —
// localparts themselves never contain a colon, but server names may
// (port suffixes like "matrix.example.com:8448").
func parseMatrixID(raw string) (localpart, server string, err error) {
	if raw == "" {
		return "", "", fmt.Errorf("empty identifier")
	}
	if len(raw) < 2 {
		return "", "", fmt.Errorf("identifier %q has no content after sigil", raw)
	}

	colonIndex := strings.IndexByte(raw[1:], ':')
	if colonIndex < 0 {
		return "", "", fmt.Errorf("identifier %q missing ':server' suffix", raw)
	}
	if colonIndex == 0 {
		return "", "", fmt.Errorf("identifier %q has empty localpart", raw)
	}

	localpart = raw[1 : 1+colonIndex]
	server = raw[1+colonIndex+1:]
	if err := validateServer(server); err != nil {
		return "", "", fmt.Errorf("identifier %q: %w", raw, err)
	}
	return localpart, server, nil
}

// validateServer checks that a Matrix server name is minimally valid:
// non-empty, no control characters or spaces, no Matrix sigils. Full
// grammar validation (DNS name, IP literal, port) is left to the
// homeserver — the client only needs to reject values that would
// corrupt a request path or an identifier.
func validateServer(server string) error {
	if server == "" {
		return fmt.Errorf("server name is empty")
	}
	for i := 0; i < len(server); i++ {
		c := server[i]
		if c <= ' ' || c == 0x7f {
			return fmt.Errorf("server name %q contains control character or space at position %d", server, i)
		}
		switch c {
		case '@', '!', '#', '$':
			return fmt.Errorf("server name %q contains Matrix sigil %q", server, c)
		}
	}
	return nil
}

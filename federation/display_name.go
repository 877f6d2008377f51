// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"strings"
	"unicode"

	"github.com/epicea-im/epicea/lib/ref"
)

// DisplayNameFromUserID synthesizes a display name from a user
// identifier, for accounts whose profile carries no display name yet.
//
// Internal localparts follow the "local-part-domain" convention:
// "@jean-philippe.martin-modernisation.fr:matrix.agent.gouv.fr"
// becomes "Jean-Philippe Martin" — the trailing domain segment is
// dropped, dots become spaces, and each word is capitalized. The
// domain is intentionally not rendered, to avoid displaying
// unexpected information.
//
// External localparts encode the invited email address with its '@'
// replaced by a hyphen; when exactly one hyphen is present the email
// is reconstructed, otherwise the localpart is shown as-is (the
// original '@' position is ambiguous).
//
// Returns "" when no name can be derived (internal localpart without
// a domain separator).
func DisplayNameFromUserID(policy *Policy, userID ref.UserID) string {
	identifier := userID.Localpart()

	if policy.IsExternalUser(userID.String()) {
		if strings.Count(identifier, "-") == 1 {
			return strings.Replace(identifier, "-", "@", 1)
		}
		return identifier
	}

	hyphenPos := strings.LastIndexByte(identifier, '-')
	if hyphenPos <= 0 {
		return ""
	}

	var name []rune
	capitalizeNext := true
	for _, c := range identifier[:hyphenPos] {
		switch {
		case c == '-' || c == '.':
			// Collapse separator runs; a dot renders as a space, a
			// hyphen stays (compound first names).
			if !capitalizeNext {
				capitalizeNext = true
				if c == '.' {
					name = append(name, ' ')
				} else {
					name = append(name, c)
				}
			}
		case capitalizeNext:
			capitalizeNext = false
			name = append(name, unicode.ToTitle(c))
		default:
			name = append(name, c)
		}
	}
	return string(name)
}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// Email is a validated, lowercased email address used as a third-party
// invitation target ("3pid" in Matrix terms).
//
// Validation is deliberately structural: exactly one '@' with a
// non-empty local part and a domain containing at least one dot.
// Deliverability is the identity server's problem — the client only
// needs a value that can be safely embedded in lookup requests and
// compared against identity lookup responses. Addresses are lowercased
// at construction so that equality checks against server responses are
// case-insensitive.
//
// Email is an immutable value type. The zero value is not valid;
// use IsZero to check.
type Email struct {
	address string
}

// ParseEmail validates and wraps a raw email address string.
func ParseEmail(raw string) (Email, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Email{}, fmt.Errorf("empty email address")
	}

	atIndex := strings.IndexByte(trimmed, '@')
	if atIndex <= 0 {
		return Email{}, fmt.Errorf("email %q missing local part or '@'", raw)
	}
	if strings.IndexByte(trimmed[atIndex+1:], '@') >= 0 {
		return Email{}, fmt.Errorf("email %q contains multiple '@'", raw)
	}

	domain := trimmed[atIndex+1:]
	if domain == "" || !strings.Contains(domain, ".") {
		return Email{}, fmt.Errorf("email %q has invalid domain %q", raw, domain)
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] <= ' ' || trimmed[i] == 0x7f {
			return Email{}, fmt.Errorf("email %q contains whitespace or control character", raw)
		}
	}

	return Email{address: strings.ToLower(trimmed)}, nil
}

// MustParseEmail is like ParseEmail but panics on error. Use in tests
// and static initialization where the input is known-valid.
func MustParseEmail(raw string) Email {
	e, err := ParseEmail(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseEmail(%q): %v", raw, err))
	}
	return e
}

// String returns the lowercased address.
func (e Email) String() string { return e.address }

// IsZero reports whether the Email is the zero value (uninitialized).
func (e Email) IsZero() bool { return e.address == "" }

// Domain returns the part after the '@'. Panics if called on a
// zero-value Email.
func (e Email) Domain() string {
	if e.address == "" {
		panic("Email.Domain called on zero value")
	}
	return e.address[strings.IndexByte(e.address, '@')+1:]
}

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (e Email) MarshalText() ([]byte, error) {
	if e.address == "" {
		return []byte{}, nil
	}
	return []byte(e.address), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates and
// lowercases the address. An empty input produces the zero value.
func (e *Email) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*e = Email{}
		return nil
	}
	parsed, err := ParseEmail(string(data))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

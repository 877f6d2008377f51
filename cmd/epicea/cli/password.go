// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/epicea-im/epicea/lib/secret"
)

// ReadPassword obtains a password for login. With a file path it reads
// the file ("-" reads stdin). With an empty path it prompts on the
// terminal with echo disabled; a non-terminal stdin falls back to the
// stdin pipe so scripted logins keep working.
func ReadPassword(passwordFile string) (*secret.Buffer, error) {
	if passwordFile != "" {
		return secret.ReadFromPath(passwordFile)
	}

	stdinFD := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFD) {
		return secret.ReadFromPath("-")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(stdinFD)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if len(passwordBytes) == 0 {
		return nil, fmt.Errorf("password is empty")
	}

	buffer, err := secret.NewFromBytes(passwordBytes)
	if err != nil {
		secret.Zero(passwordBytes)
		return nil, err
	}
	return buffer, nil
}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands defines the epicea command tree.
package commands

import (
	"github.com/epicea-im/epicea/cmd/epicea/cli"
)

// Root returns the top-level epicea command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "epicea",
		Summary: "Client for the Épicéa federation",
		Description: `Epicea talks to an Épicéa deployment: a federation of Matrix
homeservers with an identity server for email lookup and platform
discovery.

Log in once with "epicea login"; subsequent commands use the saved
session transparently.`,
		Subcommands: []*cli.Command{
			loginCommand(),
			whoamiCommand(),
			dmCommand(),
			policyCommand(),
		},
	}
}

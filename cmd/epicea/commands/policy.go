// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/epicea-im/epicea/cmd/epicea/cli"
	"github.com/epicea-im/epicea/federation"
	"github.com/epicea-im/epicea/lib/ref"
)

func policyCommand() *cli.Command {
	return &cli.Command{
		Name:    "policy",
		Summary: "Inspect the federation policy",
		Subcommands: []*cli.Command{
			policyCheckCommand(),
			policyNameCommand(),
		},
	}
}

func policyCheckCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "check",
		Summary: "Classify a user ID or server name",
		Description: `Classify an identifier against the federation policy.

Prints "internal" or "external" and exits 0 for internal, 1 for
external. A server that cannot be determined classifies as external.`,
		Usage: "epicea policy check <user-id|server-name> [flags]",
		Examples: []cli.Example{
			{
				Description: "Classify a server",
				Command:     "epicea policy check agent.externe.gouv.fr",
			},
			{
				Description: "Classify a full user ID",
				Command:     "epicea policy check @carole-example.org:e.matrix.example.org",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the configuration file")
			return flags
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) < 1 || args[0] == "" {
				return fmt.Errorf("identifier is required\n\nUsage: epicea policy check <user-id|server-name>")
			}
			identifier := args[0]
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			policy, err := loadPolicy(cfg)
			if err != nil {
				return err
			}

			external := policy.IsExternalServer(identifier)
			if strings.ContainsAny(identifier[:1], "@!#$") {
				external = policy.IsExternalUser(identifier)
			}
			if external {
				fmt.Println("external")
				return &cli.ExitError{Code: 1}
			}
			fmt.Println("internal")
			return nil
		},
	}
}

func policyNameCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "name",
		Summary: "Show the display name synthesized from a user ID",
		Usage:   "epicea policy name <user-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("name", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the configuration file")
			return flags
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("user ID is required\n\nUsage: epicea policy name <user-id>")
			}
			userID, err := ref.ParseUserID(args[0])
			if err != nil {
				return err
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			policy, err := loadPolicy(cfg)
			if err != nil {
				return err
			}

			fmt.Println(federation.DisplayNameFromUserID(policy, userID))
			return nil
		},
	}
}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/epicea-im/epicea/cmd/epicea/cli"
)

func whoamiCommand() *cli.Command {
	var (
		configPath string
		verbose    bool
	)

	return &cli.Command{
		Name:    "whoami",
		Summary: "Show and verify the saved session",
		Usage:   "epicea whoami [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("whoami", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the configuration file")
			flags.BoolVar(&verbose, "verbose", false, "enable debug logging")
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			logger := newLogger(verbose)
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			session, saved, err := openSession(cfg, logger)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()

			userID, err := session.WhoAmI(ctx)
			if err != nil {
				return fmt.Errorf("session is not valid: %w", err)
			}

			fmt.Printf("%s\n", userID)
			if verbose {
				fmt.Printf("homeserver: %s\n", saved.Homeserver)
			}
			return nil
		},
	}
}

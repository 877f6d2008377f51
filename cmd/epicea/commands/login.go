// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/epicea-im/epicea/cmd/epicea/cli"
	"github.com/epicea-im/epicea/lib/config"
	"github.com/epicea-im/epicea/messaging"
)

func loginCommand() *cli.Command {
	var (
		configPath    string
		homeserverURL string
		identityURL   string
		passwordFile  string
		verbose       bool
	)

	return &cli.Command{
		Name:    "login",
		Summary: "Authenticate and save the session",
		Description: `Log in to an Épicéa homeserver and save the session locally.

The session file is written with mode 0600 (owner-only) since it
contains an access token. Its location is the config file's
session_file, or $EPICEA_SESSION_FILE, or
$XDG_CONFIG_HOME/epicea/session.json.

The password is prompted interactively, or read with --password-file
(use - for stdin).`,
		Usage: "epicea login <username> [flags]",
		Examples: []cli.Example{
			{
				Description: "Log in interactively (prompts for password)",
				Command:     "epicea login jean.dupont-modernisation.fr --homeserver https://matrix.agent.gouv.fr",
			},
			{
				Description: "Log in with password from a file",
				Command:     "epicea login jean.dupont-modernisation.fr --config epicea.yaml --password-file /run/secrets/password",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the configuration file")
			flags.StringVar(&homeserverURL, "homeserver", "", "Matrix homeserver URL (overrides the config file)")
			flags.StringVar(&identityURL, "identity-server", "", "identity server URL (defaults to the homeserver)")
			flags.StringVar(&passwordFile, "password-file", "", "path to file containing the password, or - for stdin (default: prompt)")
			flags.BoolVar(&verbose, "verbose", false, "enable debug logging")
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("username is required\n\nUsage: epicea login <username> [flags]")
			}
			username := args[0]
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}

			logger := newLogger(verbose)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			switch {
			case homeserverURL != "":
				if cfg == nil {
					cfg, err = config.New(homeserverURL)
					if err != nil {
						return err
					}
				} else {
					cfg.HomeserverURL = homeserverURL
				}
			case cfg == nil:
				return fmt.Errorf("no homeserver: pass --homeserver or a config file")
			}
			if identityURL != "" {
				cfg.IdentityServerURL = identityURL
			}

			password, err := cli.ReadPassword(passwordFile)
			if err != nil {
				return err
			}
			defer password.Close()

			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			client, err := messaging.NewClient(messaging.ClientConfig{
				HomeserverURL: cfg.HomeserverURL,
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			session, err := client.Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			defer session.Close()

			// Verify the session works before saving.
			userID, err := session.WhoAmI(ctx)
			if err != nil {
				return fmt.Errorf("session verification failed: %w", err)
			}

			saved := &cli.SavedSession{
				UserID:      userID.String(),
				AccessToken: session.AccessToken(),
				DeviceID:    session.DeviceID(),
				Homeserver:  cfg.HomeserverURL,
			}
			if cfg.IdentityServerURL != cfg.HomeserverURL {
				saved.IdentityServer = cfg.IdentityServerURL
			}

			path := sessionPath(cfg)
			if err := cli.SaveSession(saved, path); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Logged in as %s\n", userID)
			fmt.Fprintf(os.Stderr, "Session saved to %s\n", path)
			return nil
		},
	}
}

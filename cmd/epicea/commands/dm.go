// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/epicea-im/epicea/cmd/epicea/cli"
	"github.com/epicea-im/epicea/directory"
	"github.com/epicea-im/epicea/lib/config"
	"github.com/epicea-im/epicea/lib/ref"
	"github.com/epicea-im/epicea/messaging"
	"github.com/epicea-im/epicea/resolve"
)

func dmCommand() *cli.Command {
	var (
		configPath string
		verbose    bool
	)

	return &cli.Command{
		Name:    "dm",
		Summary: "Start a direct conversation",
		Description: `Start (or find) a direct conversation with a contact.

The contact is either a Matrix user ID ("@jean.dupont-modernisation.fr:
matrix.agent.gouv.fr") or an email address. An email that maps to an
existing account resolves to that account; otherwise an invitation is
issued when a homeserver serves the address's domain. A pending
invitation to an externally-hosted address is revoked and reissued,
since its invite link is bound to the conversation that sent it.`,
		Usage: "epicea dm <contact> [flags]",
		Examples: []cli.Example{
			{
				Description: "Open a conversation with a colleague",
				Command:     "epicea dm @paul.durand-interieur.gouv.fr:matrix.agent.gouv.fr",
			},
			{
				Description: "Invite someone by email",
				Command:     "epicea dm carole@example.org",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("dm", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the configuration file")
			flags.BoolVar(&verbose, "verbose", false, "enable debug logging")
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("contact is required\n\nUsage: epicea dm <contact> [flags]")
			}
			contact := args[0]
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}

			selection, err := parseContact(contact)
			if err != nil {
				return err
			}

			logger := newLogger(verbose)
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			policy, err := loadPolicy(cfg)
			if err != nil {
				return err
			}

			session, saved, err := openSession(cfg, logger)
			if err != nil {
				return err
			}
			defer session.Close()

			identity, err := identityClient(cfg, saved, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
			defer cancel()

			index, err := refreshDirectory(ctx, cfg, session, logger)
			if err != nil {
				return err
			}

			lifecycle, err := resolve.NewLifecycle(resolve.LifecycleConfig{
				Session:        session,
				Index:          index,
				IdentityServer: identity.Host(),
				Logger:         logger,
			})
			if err != nil {
				return err
			}
			resolver, err := resolve.NewResolver(resolve.ResolverConfig{
				Session:   session,
				Identity:  identity,
				Index:     index,
				Lifecycle: lifecycle,
				Policy:    policy,
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			outcome := resolver.Resolve(ctx, selection)
			fmt.Println(outcome)

			if err := index.Save(snapshotPath(cfg)); err != nil {
				logger.Warn("could not save directory snapshot", "error", err)
			}

			switch o := outcome.(type) {
			case resolve.OperationFailed:
				return o.Cause
			case resolve.SelfTargetRejected, resolve.InviteUnauthorized:
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// parseContact classifies the contact argument: a leading "@" means a
// Matrix user ID, anything else must be an email address.
func parseContact(contact string) (resolve.Selection, error) {
	if strings.HasPrefix(contact, "@") {
		userID, err := ref.ParseUserID(contact)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q: %w", contact, err)
		}
		return resolve.SelectAccount{UserID: userID}, nil
	}
	email, err := ref.ParseEmail(contact)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a user ID nor an email address: %w", contact, err)
	}
	return resolve.SelectEmail{Email: email}, nil
}

// refreshDirectory brings the conversation directory up to date: load
// the cached snapshot, then either catch up with an incremental sync
// or bootstrap from account data. Sync failures degrade to a fresh
// bootstrap rather than failing the command.
func refreshDirectory(ctx context.Context, cfg *config.Config, session messaging.Session, logger *slog.Logger) (*directory.Index, error) {
	index := directory.New(logger)

	path := snapshotPath(cfg)
	if err := index.Load(path); err != nil {
		logger.Warn("could not load directory snapshot", "path", path, "error", err)
	}

	if since := index.Since(); since != "" {
		response, err := session.Sync(ctx, messaging.SyncOptions{Since: since})
		if err == nil {
			index.ApplySync(response)
			return index, nil
		}
		logger.Warn("incremental sync failed, bootstrapping", "error", err)
	}

	if err := index.Bootstrap(ctx, session); err != nil {
		return nil, fmt.Errorf("loading conversation directory: %w", err)
	}
	return index, nil
}

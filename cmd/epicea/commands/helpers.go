// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/epicea-im/epicea/cmd/epicea/cli"
	"github.com/epicea-im/epicea/federation"
	"github.com/epicea-im/epicea/lib/config"
	"github.com/epicea-im/epicea/lib/ref"
	"github.com/epicea-im/epicea/messaging"
)

// newLogger builds the logger shared by all commands. Diagnostics go
// to stderr so command output stays pipeable.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads the configuration file if one is named by --config
// or EPICEA_CONFIG. Commands that work without a config file get nil.
func loadConfig(flagPath string) (*config.Config, error) {
	if flagPath == "" && os.Getenv(config.EnvVar) == "" {
		return nil, nil
	}
	return config.Load(flagPath)
}

// sessionPath resolves the session file location: the config file's
// value if one is loaded, the well-known default otherwise.
func sessionPath(cfg *config.Config) string {
	if cfg != nil && cfg.SessionFile != "" {
		return cfg.SessionFile
	}
	return config.DefaultSessionFile()
}

// snapshotPath resolves the directory snapshot location.
func snapshotPath(cfg *config.Config) string {
	if cfg != nil && cfg.DirectorySnapshotFile != "" {
		return cfg.DirectorySnapshotFile
	}
	return config.DefaultSnapshotFile()
}

// loadPolicy loads the federation policy from the config file's
// policy path, falling back to the compiled-in defaults.
func loadPolicy(cfg *config.Config) (*federation.Policy, error) {
	if cfg == nil || cfg.FederationPolicyFile == "" {
		return federation.DefaultPolicy(), nil
	}
	return federation.LoadPolicy(cfg.FederationPolicyFile)
}

// openSession restores the saved session and dials the homeserver it
// was issued by.
func openSession(cfg *config.Config, logger *slog.Logger) (*messaging.DirectSession, *cli.SavedSession, error) {
	saved, err := cli.LoadSession(sessionPath(cfg))
	if err != nil {
		return nil, nil, err
	}

	userID, err := ref.ParseUserID(saved.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("session file holds invalid user ID: %w", err)
	}

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: saved.Homeserver,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, err
	}
	session, err := client.SessionFromToken(userID, saved.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return session, saved, nil
}

// identityClient builds the identity server client for a restored
// session, preferring an explicit identity server from the config
// file over the one recorded at login.
func identityClient(cfg *config.Config, saved *cli.SavedSession, logger *slog.Logger) (*messaging.IdentityClient, error) {
	identityURL := saved.IdentityServer
	if cfg != nil && cfg.IdentityServerURL != "" {
		identityURL = cfg.IdentityServerURL
	}
	if identityURL == "" {
		identityURL = saved.Homeserver
	}
	return messaging.NewIdentityClient(messaging.IdentityClientConfig{
		IdentityServerURL: identityURL,
		Logger:            logger,
	})
}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the Épicéa client.
//
// Configuration is loaded from a single YAML file specified by:
//   - the EPICEA_CONFIG environment variable, or
//   - the --config flag passed to the command.
//
// There are no fallbacks or automatic discovery. This keeps
// configuration deterministic and auditable with no hidden overrides.
package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvVar is the environment variable naming the config file.
const EnvVar = "EPICEA_CONFIG"

// Config is the client configuration.
type Config struct {
	// HomeserverURL is the base URL of the Matrix homeserver
	// (e.g., "https://matrix.agent.gouv.fr").
	HomeserverURL string `yaml:"homeserver_url"`

	// IdentityServerURL is the base URL of the identity server used
	// for email lookup and platform discovery. Defaults to
	// HomeserverURL when empty (deployments that front both services
	// behind one host).
	IdentityServerURL string `yaml:"identity_server_url,omitempty"`

	// SessionFile is where the access token and user ID are stored
	// after login (mode 0600). Defaults to
	// $XDG_CONFIG_HOME/epicea/session.json.
	SessionFile string `yaml:"session_file,omitempty"`

	// FederationPolicyFile is the JSONC file holding the federation
	// policy (external homeserver prefixes). When empty, the
	// compiled-in defaults apply.
	FederationPolicyFile string `yaml:"federation_policy_file,omitempty"`

	// DirectorySnapshotFile is where the conversation directory
	// snapshot is cached between runs (mode 0600). Defaults to
	// $XDG_STATE_HOME/epicea/directory.cbor.
	DirectorySnapshotFile string `yaml:"directory_snapshot_file,omitempty"`
}

// New builds a Config from an explicit homeserver URL, applying the
// same validation and defaulting as Load. Used by commands invoked
// without a config file.
func New(homeserverURL string) (*Config, error) {
	cfg := &Config{HomeserverURL: homeserverURL}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Load reads the configuration file. flagPath (from --config) takes
// precedence over the EPICEA_CONFIG environment variable. Returns an
// error if neither is set.
func Load(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return nil, fmt.Errorf("config: no config file (set %s or pass --config)", EnvVar)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Validate checks that required fields are present and well formed.
func (c *Config) Validate() error {
	if c.HomeserverURL == "" {
		return fmt.Errorf("homeserver_url is required")
	}
	if _, err := url.Parse(c.HomeserverURL); err != nil {
		return fmt.Errorf("invalid homeserver_url %q: %w", c.HomeserverURL, err)
	}
	if c.IdentityServerURL != "" {
		if _, err := url.Parse(c.IdentityServerURL); err != nil {
			return fmt.Errorf("invalid identity_server_url %q: %w", c.IdentityServerURL, err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.IdentityServerURL == "" {
		c.IdentityServerURL = c.HomeserverURL
	}
	if c.SessionFile == "" {
		c.SessionFile = DefaultSessionFile()
	}
	if c.DirectorySnapshotFile == "" {
		c.DirectorySnapshotFile = DefaultSnapshotFile()
	}
}

// DefaultSessionFile resolves the session file location:
// $EPICEA_SESSION_FILE, then $XDG_CONFIG_HOME/epicea/session.json,
// then ~/.config/epicea/session.json.
func DefaultSessionFile() string {
	if path := os.Getenv("EPICEA_SESSION_FILE"); path != "" {
		return path
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return configHome + "/epicea/session.json"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "epicea-session.json"
	}
	return home + "/.config/epicea/session.json"
}

// DefaultSnapshotFile resolves the directory snapshot location:
// $XDG_STATE_HOME/epicea/directory.cbor, then
// ~/.local/state/epicea/directory.cbor.
func DefaultSnapshotFile() string {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return stateHome + "/epicea/directory.cbor"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "epicea-directory.cbor"
	}
	return home + "/.local/state/epicea/directory.cbor"
}

// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

// Package federation classifies homeservers and accounts as internal
// or external to the Épicéa federation.
//
// The federation is the set of homeservers trusted as internal to the
// deployment. External ("guest") homeservers are recognized by a small
// set of server-name prefixes. The prefix list encodes deployment
// policy, so it is loaded from a JSONC policy file rather than
// compiled in; DefaultPolicy covers deployments without one.
//
// Classification is fail-safe: an identifier whose homeserver cannot
// be determined is classified external. Unknown means untrusted.
//
// All functions here are pure and total over any string input — they
// never perform I/O and never fail. The orchestrator leans on that:
// classification happens between remote calls without adding failure
// branches.
package federation

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// externalServerPrefix marks guest homeservers
// (e.g., "e.agent.gouv.fr").
const externalServerPrefix = "e."

// externalAgencyPrefix is the reserved agency-level alias of
// externalServerPrefix (e.g., "agent.externe.gouv.fr"). Both classify
// as external.
const externalAgencyPrefix = "agent.externe."

// Policy holds the federation classification rules.
type Policy struct {
	// ExternalPrefixes lists server-name prefixes that mark a
	// homeserver as external to the federation.
	ExternalPrefixes []string `json:"external_prefixes"`
}

// DefaultPolicy returns the compiled-in classification rules.
func DefaultPolicy() *Policy {
	return &Policy{
		ExternalPrefixes: []string{externalServerPrefix, externalAgencyPrefix},
	}
}

// LoadPolicy reads a JSONC policy file (JSON extended with comments
// and trailing commas — deployment policy files carry rationale as
// comments). An empty prefix list is rejected: a policy that classifies
// nothing as external almost certainly means a mangled file, and the
// fail-safe default is the safer fallback.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("federation: reading policy %s: %w", path, err)
	}

	var policy Policy
	if err := json.Unmarshal(jsonc.ToJSON(data), &policy); err != nil {
		return nil, fmt.Errorf("federation: parsing policy %s: %w", path, err)
	}
	if len(policy.ExternalPrefixes) == 0 {
		return nil, fmt.Errorf("federation: policy %s lists no external prefixes", path)
	}
	for _, prefix := range policy.ExternalPrefixes {
		if prefix == "" {
			return nil, fmt.Errorf("federation: policy %s contains an empty prefix", path)
		}
	}
	return &policy, nil
}

// HomeserverOf extracts the homeserver name from a Matrix identifier
// of any kind (user ID, room ID, ...): the substring after the first
// ':'. Returns "" when the identifier has no server part.
//
// For "@jean.dupont-modernisation.fr:agent.externe.gouv.fr" this
// returns "agent.externe.gouv.fr".
func HomeserverOf(identifier string) string {
	_, server, found := strings.Cut(identifier, ":")
	if !found {
		return ""
	}
	return server
}

// IsExternalServer reports whether a homeserver name belongs to an
// external homeserver. The empty name is external (fail-safe).
func (p *Policy) IsExternalServer(homeserverName string) bool {
	if homeserverName == "" {
		return true
	}
	for _, prefix := range p.ExternalPrefixes {
		if strings.HasPrefix(homeserverName, prefix) {
			return true
		}
	}
	return false
}

// IsExternalUser reports whether a user identifier belongs to an
// external account. An identifier whose homeserver cannot be
// determined is classified external — this is a deliberate safety
// bias, not best-effort parsing.
func (p *Policy) IsExternalUser(identifier string) bool {
	return p.IsExternalServer(HomeserverOf(identifier))
}

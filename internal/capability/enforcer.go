// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package capability grants administrative capabilities to player identities.
//
// Grants are gobwas/glob patterns with '.' as the segment separator:
//   - '*' matches a single segment: "blacklist.exempt.*" matches "blacklist.exempt.place"
//   - '**' matches any number of segments: "**" grants everything
package capability

import (
	"sort"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Capabilities checked by the policy engine.
const (
	// RegionBypass lets a player ignore every region build restriction.
	RegionBypass = "region.bypass"

	// BlacklistExemptPrefix prefixes the per-action blacklist exemption,
	// e.g. "blacklist.exempt.break".
	BlacklistExemptPrefix = "blacklist.exempt."
)

// Checker answers whether a player holds a capability.
type Checker interface {
	Check(playerID, capability string) bool
}

type compiledGrant struct {
	pattern string
	glob    glob.Glob
}

// Enforcer holds capability grants per player. It is safe for concurrent use
// and the zero value is ready to use.
type Enforcer struct {
	mu     sync.RWMutex
	grants map[string][]compiledGrant
}

// Compile-time check that Enforcer implements Checker.
var _ Checker = (*Enforcer)(nil)

// NewEnforcer creates an enforcer with no grants.
func NewEnforcer() *Enforcer {
	return &Enforcer{grants: make(map[string][]compiledGrant)}
}

// NewEnforcerFromMap creates an enforcer from a player → patterns map,
// as found in configuration.
func NewEnforcerFromMap(grants map[string][]string) (*Enforcer, error) {
	e := NewEnforcer()
	for player, patterns := range grants {
		if err := e.Grant(player, patterns...); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Grant replaces the grants held by player. Either every pattern compiles
// and the grants are installed, or nothing changes.
func (e *Enforcer) Grant(playerID string, patterns ...string) error {
	if playerID == "" {
		return oops.In("capability").Code("INVALID_PLAYER").New("player id cannot be empty")
	}

	compiled := make([]compiledGrant, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			return oops.In("capability").Code("INVALID_GRANT").With("player", playerID).New("empty capability pattern")
		}
		g, err := glob.Compile(p, '.')
		if err != nil {
			return oops.In("capability").Code("INVALID_GRANT").
				With("player", playerID).
				With("pattern", p).
				Wrap(err)
		}
		compiled = append(compiled, compiledGrant{pattern: p, glob: g})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grants == nil {
		e.grants = make(map[string][]compiledGrant)
	}
	e.grants[playerID] = compiled
	return nil
}

// Revoke removes every grant held by player.
func (e *Enforcer) Revoke(playerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.grants, playerID)
}

// Grants returns a copy of the patterns held by player, or nil.
func (e *Enforcer) Grants(playerID string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	held, ok := e.grants[playerID]
	if !ok {
		return nil
	}
	out := make([]string, len(held))
	for i, g := range held {
		out[i] = g.pattern
	}
	return out
}

// Players returns the ids of every player holding grants, sorted.
func (e *Enforcer) Players() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.grants))
	for id := range e.grants {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Check implements Checker. Unknown players and empty capabilities are denied.
func (e *Enforcer) Check(playerID, capability string) bool {
	if e == nil || capability == "" {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, g := range e.grants[playerID] {
		if g.glob.Match(capability) {
			return true
		}
	}
	return false
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package blacklist vetoes interactions with specific materials.
//
// Every rule matching an event's action and material is evaluated and any
// single denial vetoes the event. Notification and logging are side effects
// of a denial and never change the decision.
package blacklist

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holomush/blockguard/internal/capability"
	"github.com/holomush/blockguard/internal/world"
)

// DefaultSuppressWindow is how long repeated messages for the same player,
// action and material are dropped.
const DefaultSuppressWindow = 3 * time.Second

// Notifier delivers denial messages to players. It must not block.
type Notifier interface {
	Notify(ctx context.Context, playerID, text string)
}

// Event is a single interaction checked against the chain.
type Event struct {
	Action   Action
	Material world.Material
	Player   world.Player
	Point    world.Point
}

type ruleKey struct {
	action   Action
	material world.Material
}

// ruleSet indexes rules by action and material. It is immutable once built.
type ruleSet struct {
	rules []*Rule
	index map[ruleKey][]*Rule
}

func newRuleSet(rules []*Rule) *ruleSet {
	rs := &ruleSet{rules: rules, index: make(map[ruleKey][]*Rule)}
	for _, r := range rules {
		for _, a := range r.Actions {
			for m := range r.Materials {
				k := ruleKey{action: a, material: m}
				rs.index[k] = append(rs.index[k], r)
			}
		}
	}
	return rs
}

type suppressKey struct {
	playerID string
	action   Action
	material world.Material
}

// Chain evaluates blacklist rules. A nil Chain allows everything.
type Chain struct {
	rules    atomic.Pointer[ruleSet]
	caps     capability.Checker
	notifier Notifier
	logger   *slog.Logger
	window   time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[suppressKey]time.Time
}

// Option configures a Chain.
type Option func(*Chain)

// WithCapabilities lets "blacklist.exempt.<action>" grants exempt players.
func WithCapabilities(caps capability.Checker) Option {
	return func(c *Chain) { c.caps = caps }
}

// WithNotifier sets where denial messages go.
func WithNotifier(n Notifier) Option {
	return func(c *Chain) { c.notifier = n }
}

// WithLogger sets the logger for denial entries.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chain) { c.logger = l }
}

// WithSuppressWindow sets the default repeat-suppression window.
func WithSuppressWindow(d time.Duration) Option {
	return func(c *Chain) { c.window = d }
}

// WithClock replaces the time source used for repeat suppression.
func WithClock(now func() time.Time) Option {
	return func(c *Chain) { c.now = now }
}

// NewChain creates a chain over rules.
func NewChain(rules []*Rule, opts ...Option) *Chain {
	c := &Chain{
		logger:   slog.Default(),
		window:   DefaultSuppressWindow,
		now:      time.Now,
		lastSent: make(map[suppressKey]time.Time),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rules.Store(newRuleSet(rules))
	rulesLoaded.Set(float64(len(rules)))
	return c
}

// Reload atomically replaces the rule set. Suppression state is kept.
func (c *Chain) Reload(rules []*Rule) {
	c.rules.Store(newRuleSet(rules))
	rulesLoaded.Set(float64(len(rules)))
}

// Len returns the number of rules in the current set.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rules.Load().rules)
}

// Check reports whether ev may proceed. notify asks for a player message on
// denial (verbose rules only); silent suppresses the log entry.
func (c *Chain) Check(ctx context.Context, ev Event, notify, silent bool) bool {
	if c == nil {
		return true
	}
	matching := c.rules.Load().index[ruleKey{action: ev.Action, material: ev.Material}]
	if len(matching) == 0 {
		return true
	}

	capExempt := c.caps != nil && c.caps.Check(ev.Player.ID, capability.BlacklistExemptPrefix+string(ev.Action))

	allowed := true
	for _, r := range matching {
		if capExempt || r.Exempts(ev.Player.ID) {
			continue
		}
		allowed = false
		denials.WithLabelValues(string(ev.Action)).Inc()

		if !silent {
			c.logger.InfoContext(ctx, "blacklist denied action",
				"player", ev.Player.ID,
				"action", string(ev.Action),
				"material", ev.Material.String(),
				"point", ev.Point.String(),
				"comment", r.Comment)
		}
		if notify && r.Policy == Verbose && c.notifier != nil && c.admit(ev, r) {
			c.notifier.Notify(ctx, ev.Player.ID, r.text(ev.Action, ev.Material))
		}
	}
	return allowed
}

// admit records a message for the event's key and reports whether it falls
// outside the suppression window.
func (c *Chain) admit(ev Event, r *Rule) bool {
	window := c.window
	if r.SuppressWindow > 0 {
		window = r.SuppressWindow
	}
	key := suppressKey{playerID: ev.Player.ID, action: ev.Action, material: ev.Material}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.lastSent[key]; ok && now.Sub(last) < window {
		suppressed.Inc()
		return false
	}
	c.lastSent[key] = now
	c.prune(now)
	return true
}

// maxTracked bounds the suppression map before stale entries are pruned.
const maxTracked = 4096

// prune drops entries older than every possible window. Callers hold c.mu.
func (c *Chain) prune(now time.Time) {
	if len(c.lastSent) <= maxTracked {
		return
	}
	horizon := c.window
	for _, r := range c.rules.Load().rules {
		horizon = max(horizon, r.SuppressWindow)
	}
	for k, t := range c.lastSent {
		if now.Sub(t) >= horizon {
			delete(c.lastSent, k)
		}
	}
}

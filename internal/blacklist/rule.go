// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package blacklist

import (
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/blockguard/internal/world"
)

// Action is the kind of interaction a rule applies to.
type Action string

// Supported actions.
const (
	Break       Action = "break"
	Place       Action = "place"
	Interact    Action = "interact"
	DestroyWith Action = "destroy-with"
)

// Actions lists every action in a stable order.
var Actions = []Action{Break, Place, Interact, DestroyWith}

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Actions, a) {
		return a, nil
	}
	return "", oops.In("blacklist").Code("BLACKLIST_INVALID_RULE").With("action", s).New("unknown blacklist action")
}

// verb is the wording used in the default denial message.
func (a Action) verb() string {
	switch a {
	case DestroyWith:
		return "break blocks with"
	case Interact:
		return "use"
	default:
		return string(a)
	}
}

// Policy controls whether a denial is reported to the player.
type Policy string

// Notification policies.
const (
	Silent  Policy = "silent"
	Verbose Policy = "verbose"
)

// RuleSpec is the declarative form of a rule, as written in rule files.
type RuleSpec struct {
	Materials []string `yaml:"materials" json:"materials"`
	Actions   []string `yaml:"actions" json:"actions"`
	Policy    string   `yaml:"policy,omitempty" json:"policy,omitempty"`
	Message   string   `yaml:"message,omitempty" json:"message,omitempty"`
	Exempt    []string `yaml:"exempt,omitempty" json:"exempt,omitempty"`
	Comment   string   `yaml:"comment,omitempty" json:"comment,omitempty"`
	// SuppressWindow overrides the chain's repeat-suppression window, e.g. "10s".
	SuppressWindow string `yaml:"suppress_window,omitempty" json:"suppress_window,omitempty"`
}

// Rule is a compiled veto rule.
type Rule struct {
	Materials world.MaterialSet
	Actions   []Action
	Policy    Policy
	Message   string
	Comment   string
	// SuppressWindow is zero when the chain default applies.
	SuppressWindow time.Duration

	exempt []glob.Glob
}

// Compile validates spec and builds a Rule. Unknown material names are
// rejected; unnamed numeric ids are accepted.
func (spec RuleSpec) Compile() (*Rule, error) {
	if len(spec.Materials) == 0 {
		return nil, oops.In("blacklist").Code("BLACKLIST_INVALID_RULE").New("rule must name at least one material")
	}
	if len(spec.Actions) == 0 {
		return nil, oops.In("blacklist").Code("BLACKLIST_INVALID_RULE").New("rule must name at least one action")
	}

	materials, err := world.ParseMaterials(spec.Materials)
	if err != nil {
		// a wrapped oops error would keep its own code
		return nil, oops.In("blacklist").Code("BLACKLIST_UNKNOWN_MATERIAL").
			With("materials", spec.Materials).Errorf("%v", err)
	}

	r := &Rule{
		Materials: materials,
		Policy:    Verbose,
		Message:   spec.Message,
		Comment:   spec.Comment,
	}
	for _, name := range spec.Actions {
		a, err := ParseAction(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(r.Actions, a) {
			r.Actions = append(r.Actions, a)
		}
	}

	switch Policy(strings.ToLower(spec.Policy)) {
	case "", Verbose:
	case Silent:
		r.Policy = Silent
	default:
		return nil, oops.In("blacklist").Code("BLACKLIST_INVALID_RULE").With("policy", spec.Policy).New("unknown notification policy")
	}

	if spec.SuppressWindow != "" {
		d, err := time.ParseDuration(spec.SuppressWindow)
		if err != nil || d < 0 {
			return nil, oops.In("blacklist").Code("BLACKLIST_INVALID_RULE").
				With("suppress_window", spec.SuppressWindow).
				New("suppress window must be a non-negative duration")
		}
		r.SuppressWindow = d
	}

	for _, pattern := range spec.Exempt {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, oops.In("blacklist").Code("BLACKLIST_INVALID_RULE").With("exempt", pattern).Wrap(err)
		}
		r.exempt = append(r.exempt, g)
	}
	return r, nil
}

// MustCompile is Compile for rules known to be valid. It panics on error.
func MustCompile(spec RuleSpec) *Rule {
	r, err := spec.Compile()
	if err != nil {
		panic(err)
	}
	return r
}

// Exempts reports whether the rule's exempt patterns match playerID.
func (r *Rule) Exempts(playerID string) bool {
	for _, g := range r.exempt {
		if g.Match(playerID) {
			return true
		}
	}
	return false
}

// text returns the player-facing denial message.
func (r *Rule) text(a Action, m world.Material) string {
	if r.Message != "" {
		return r.Message
	}
	return "You are not allowed to " + a.verb() + " " + strings.ReplaceAll(m.String(), "_", " ") + "."
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package region stores protected regions and resolves build permission and
// flags for the regions covering a point.
//
// Regions are evaluated in priority order (highest first); regions with equal
// priority keep the order in which they were declared. Build permission is
// decided by the first region that restricts building, while flags inherit
// through each region's parent chain before falling through to the next
// region in the set.
package region

import (
	"slices"
	"strings"

	"github.com/samber/oops"
)

// FlagValue is the value of a region flag. Boolean flags use Allow and Deny;
// enumerated flags may hold any other string.
type FlagValue string

// Boolean flag values.
const (
	Allow FlagValue = "allow"
	Deny  FlagValue = "deny"
)

// Flag names understood by the engine.
const (
	// FlagBuild overrides the owner/member build restriction of a region.
	FlagBuild = "build"
	// FlagAllowLighter controls whether flint and steel may be used.
	FlagAllowLighter = "allow-lighter"
)

// Bool interprets v as a boolean flag. Values other than Allow and Deny
// yield def.
func (v FlagValue) Bool(def bool) bool {
	switch v {
	case Allow:
		return true
	case Deny:
		return false
	default:
		return def
	}
}

// booleanFlags are the flags whose values must be Allow or Deny.
var booleanFlags = []string{FlagBuild, FlagAllowLighter}

// ParseFlagValue normalises a flag value read from a document. true, yes and
// on become Allow; false, no and off become Deny. Other values are kept
// as written.
func ParseFlagValue(s string) FlagValue {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "allow", "true", "yes", "on":
		return Allow
	case "deny", "false", "no", "off":
		return Deny
	default:
		return FlagValue(strings.TrimSpace(s))
	}
}

// BoolFlag converts a bool to its flag value.
func BoolFlag(b bool) FlagValue {
	if b {
		return Allow
	}
	return Deny
}

// Region is a named, prioritised volume with an owner/member list and flags.
type Region struct {
	ID       string
	Shape    Shape
	Priority int
	Owners   []string
	Members  []string
	Flags    map[string]FlagValue
	// Parent names the region this one inherits flags from, if any.
	Parent string

	// seq is the declaration order assigned by the index.
	seq uint64
}

// IsOwner reports whether playerID owns the region.
func (r *Region) IsOwner(playerID string) bool {
	return slices.Contains(r.Owners, playerID)
}

// IsMember reports whether playerID is an owner or member of the region.
func (r *Region) IsMember(playerID string) bool {
	return r.IsOwner(playerID) || slices.Contains(r.Members, playerID)
}

// Flag returns the value the region itself defines for name.
func (r *Region) Flag(name string) (FlagValue, bool) {
	v, ok := r.Flags[name]
	return v, ok
}

// Validate checks the region's id, shape and parent reference.
func (r *Region) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return oops.In("region").Code("REGION_INVALID_ID").New("region id cannot be empty")
	}
	if r.Parent == r.ID {
		return oops.In("region").Code("REGION_PARENT_CYCLE").With("id", r.ID).New("region cannot be its own parent")
	}
	for _, name := range booleanFlags {
		if v, ok := r.Flags[name]; ok && v != Allow && v != Deny {
			return oops.In("region").Code("REGION_INVALID_FLAG").With("id", r.ID).With("flag", name).With("value", string(v)).
				Errorf("flag %s must be allow or deny, got %q", name, string(v))
		}
	}
	if err := r.Shape.Validate(); err != nil {
		return oops.In("region").With("id", r.ID).Wrap(err)
	}
	return nil
}

// clone returns a deep copy detached from the caller's slices and maps.
func (r *Region) clone() *Region {
	c := *r
	c.Shape = r.Shape.clone()
	c.Owners = slices.Clone(r.Owners)
	c.Members = slices.Clone(r.Members)
	if r.Flags != nil {
		c.Flags = make(map[string]FlagValue, len(r.Flags))
		for k, v := range r.Flags {
			c.Flags[k] = v
		}
	}
	return &c
}

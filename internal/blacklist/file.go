// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package blacklist

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// ruleFile is the layout of a blacklist rule file:
//
//	rules:
//	  - materials: [tnt]
//	    actions: [place]
//	    message: TNT is not allowed here.
//	  - materials: [lava, stationary_lava]
//	    actions: [place, interact]
//	    policy: silent
//	    exempt: ["mod-*"]
type ruleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// Parse decodes and compiles a rule document.
func Parse(data []byte) ([]*Rule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc ruleFile
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, oops.In("blacklist").Code("BLACKLIST_FILE_INVALID").Wrap(err)
	}

	rules := make([]*Rule, 0, len(doc.Rules))
	for i, spec := range doc.Rules {
		r, err := spec.Compile()
		if err != nil {
			return nil, oops.In("blacklist").With("rule", i).Wrap(err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// LoadFile reads and compiles the rule file at path.
func LoadFile(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.In("blacklist").Code("BLACKLIST_FILE_UNREADABLE").With("path", path).Wrap(err)
	}
	rules, err := Parse(data)
	if err != nil {
		return nil, oops.In("blacklist").With("path", path).Wrap(err)
	}
	return rules, nil
}

package imodvis

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// A Kind is a broad category of segmented structure.
type Kind string

const (
	KindVessels          Kind = "vessels"
	KindConnectiveTissue Kind = "connective_tissue"
	KindCell             Kind = "cell"
	KindOther            Kind = "other"
)

// Dir gets the output subdirectory for objects of this kind.
func (k Kind) Dir() string {
	if k == KindCell {
		return "cells"
	}
	return string(k)
}

// A Classification is the result of matching an object name
// against a set of Rules.
type Classification struct {
	Kind Kind

	// CellType is set for cells which matched a CellRule.
	CellType string

	// Label is a human-readable description, or empty if the
	// name was not recognized.
	Label string
}

// Recognized is true if the name matched a rule.
func (c Classification) Recognized() bool {
	return c.Label != ""
}

// A CellRule maps object names to a cell type.
//
// A name matches if it starts with any of Prefixes or
// contains any of Substrings.
type CellRule struct {
	Type       string   `yaml:"type"`
	Label      string   `yaml:"label"`
	Prefixes   []string `yaml:"prefixes"`
	Substrings []string `yaml:"substrings"`
}

func (c *CellRule) matches(name string) bool {
	for _, p := range c.Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, s := range c.Substrings {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// Rules define how object names are classified.
//
// Names are lowercased before matching. Cells are objects
// whose names end in CellSuffix (the plasma membrane), and
// their type is given by the first matching CellRule.
type Rules struct {
	Vessels          []string   `yaml:"vessels"`
	ConnectiveTissue []string   `yaml:"connective_tissue"`
	CellSuffix       string     `yaml:"cell_suffix"`
	Cells            []CellRule `yaml:"cells"`
}

// DefaultRules gets the naming convention used for islet
// annotations.
func DefaultRules() *Rules {
	cell := func(typ, label string, prefixes ...string) CellRule {
		return CellRule{Type: typ, Label: label, Prefixes: prefixes}
	}
	return &Rules{
		Vessels:          []string{"vessels"},
		ConnectiveTissue: []string{"connective tissue"},
		CellSuffix:       "pm",
		Cells: []CellRule{
			cell("alpha", "Alpha cell", "alpha"),
			cell("young_alpha", "Young Alpha cell", "young_alpha"),
			cell("old_alpha", "Old Alpha cell", "old_alpha"),
			cell("beta", "Beta cell", "beta"),
			cell("young_beta", "Young Beta cell", "young_beta"),
			cell("old_beta", "Old Beta cell", "old_beta"),
			cell("delta", "Delta cell", "delta"),
			cell("young_delta", "Young Delta cell", "young_delta"),
			cell("old_delta", "Old Delta cell", "old_delta"),
			cell("pericyte", "Pericyte", "perycyte", "pericyte"),
			cell("unknown", "Unknown cell", "unknown"),
			{Type: "fibroblast", Label: "Fibroblast", Substrings: []string{"fibroblast"}},
		},
	}
}

// ReadRules decodes a YAML rule set.
func ReadRules(r io.Reader) (*Rules, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var rules Rules
	if err := dec.Decode(&rules); err != nil {
		return nil, errors.Wrap(err, "read rules")
	}
	if err := rules.Validate(); err != nil {
		return nil, errors.Wrap(err, "read rules")
	}
	return &rules, nil
}

// Validate checks that the rules are usable.
func (r *Rules) Validate() error {
	seen := map[string]bool{}
	for i, c := range r.Cells {
		if c.Type == "" {
			return errors.Errorf("cell rule %d has no type", i+1)
		}
		if seen[c.Type] {
			return errors.Errorf("duplicate cell type %q", c.Type)
		}
		seen[c.Type] = true
		if len(c.Prefixes) == 0 && len(c.Substrings) == 0 {
			return errors.Errorf("cell rule %q matches nothing", c.Type)
		}
	}
	if len(r.Cells) > 0 && r.CellSuffix == "" {
		return errors.New("cell rules require a cell suffix")
	}
	return nil
}

// CellTypes lists the cell types in rule order.
func (r *Rules) CellTypes() []string {
	res := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		res[i] = c.Type
	}
	return res
}

// Classify determines what kind of structure an object name
// refers to.
func (r *Rules) Classify(name string) Classification {
	name = strings.ToLower(name)
	for _, v := range r.Vessels {
		if name == v {
			return Classification{Kind: KindVessels, Label: "Blood vessels"}
		}
	}
	for _, p := range r.ConnectiveTissue {
		if strings.HasPrefix(name, p) {
			return Classification{Kind: KindConnectiveTissue, Label: "Connective tissue"}
		}
	}
	if r.CellSuffix != "" && strings.HasSuffix(name, r.CellSuffix) {
		for i := range r.Cells {
			rule := &r.Cells[i]
			if rule.matches(name) {
				label := rule.Label
				if label == "" {
					label = rule.Type
				}
				return Classification{Kind: KindCell, CellType: rule.Type, Label: label}
			}
		}
		return Classification{Kind: KindCell}
	}
	return Classification{Kind: KindOther}
}

// NormalizeName turns an object name into a file-friendly
// name: lowercase, with runs of spaces and underscores
// collapsed into single underscores.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(strings.ToLower(name), "_", " ")
	return strings.Join(strings.Fields(name), "_")
}

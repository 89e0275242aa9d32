// Package rules holds the configured rule entries and the selection
// operations over them.
//
// A Catalog is loaded from "rules-excluded" entries of the form
// "<rule-id>[:<constraint>]". ResolveExclusions decides, for the versions
// known at run time, which of those rules are handed to the analyzer's skip
// list. A rule whose constraint cannot be decided (its version dimension is
// unknown) is left out of the skip list and therefore stays active.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dkoosis/pqs/pkg/constraint"
	"github.com/dkoosis/pqs/pkg/semver"
)

// ErrInvalidRule is returned for an entry with an empty identifier.
var ErrInvalidRule = errors.New("invalid rule entry")

// Spec is one configured rule: an identifier plus an optional constraint.
type Spec struct {
	ID         string
	Constraint *constraint.Expression
}

// ParseSpec parses "<rule-id>[:<constraint>]", splitting on the first colon.
// ok is false for empty or whitespace-only entries, which callers drop.
// An empty constraint after the colon is treated as no constraint.
func ParseSpec(entry string) (spec Spec, ok bool, err error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return Spec{}, false, nil
	}

	id, text, hasConstraint := strings.Cut(entry, ":")
	id = strings.TrimSpace(id)
	if id == "" {
		return Spec{}, false, fmt.Errorf("%w %q: missing identifier", ErrInvalidRule, entry)
	}
	spec.ID = id

	if hasConstraint && strings.TrimSpace(text) != "" {
		expr, err := constraint.Parse(text)
		if err != nil {
			return Spec{}, false, fmt.Errorf("rule %s: %w", id, err)
		}
		spec.Constraint = expr
	}
	return spec, true, nil
}

// String renders the spec in its configuration form.
func (s Spec) String() string {
	if s.Constraint == nil {
		return s.ID
	}
	return s.ID + ":" + s.Constraint.String()
}

// Applies reports whether the spec belongs in the exclusion list for the
// given versions. Unconstrained specs always apply.
func (s Spec) Applies(php, framework *semver.Version) bool {
	return s.Constraint == nil || s.Constraint.Evaluate(php, framework)
}

// Catalog is the ordered list of configured rule specs. The same identifier
// may appear more than once with different constraints; every result is
// deduplicated in first-seen order.
type Catalog struct {
	specs []Spec
}

// Load parses every entry. The first malformed entry aborts the load.
func Load(entries []string) (*Catalog, error) {
	c := &Catalog{specs: make([]Spec, 0, len(entries))}
	for _, entry := range entries {
		spec, ok, err := ParseSpec(entry)
		if err != nil {
			return nil, err
		}
		if ok {
			c.specs = append(c.specs, spec)
		}
	}
	return c, nil
}

// Specs returns a copy of the loaded specs in configuration order.
func (c *Catalog) Specs() []Spec {
	out := make([]Spec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Len returns the number of loaded specs, duplicates included.
func (c *Catalog) Len() int { return len(c.specs) }

// IDs returns every identifier once, in first-seen order.
func (c *Catalog) IDs() []string {
	var d dedup
	for _, s := range c.specs {
		d.add(s.ID)
	}
	return d.list()
}

// ResolveExclusions returns the identifiers to skip for the given versions.
// A nil version means that dimension is unknown.
func (c *Catalog) ResolveExclusions(php, framework *semver.Version) []string {
	var d dedup
	for _, s := range c.specs {
		if s.Applies(php, framework) {
			d.add(s.ID)
		}
	}
	return d.list()
}

// Only returns the catalog's identifiers that appear in keys, in catalog
// order.
func (c *Catalog) Only(keys ...string) []string {
	return selectIDs(c.IDs(), keys, true)
}

// Without returns the catalog's identifiers that do not appear in keys, in
// catalog order.
func (c *Catalog) Without(keys ...string) []string {
	return selectIDs(c.IDs(), keys, false)
}

func selectIDs(ids, keys []string, keep bool) []string {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, found := set[id]; found == keep {
			out = append(out, id)
		}
	}
	return out
}

type dedup struct {
	seen  map[string]struct{}
	order []string
}

func (d *dedup) add(id string) {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	if _, ok := d.seen[id]; ok {
		return
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
}

func (d *dedup) list() []string {
	if d.order == nil {
		return []string{}
	}
	return d.order
}

// Package paths holds the keyed source paths a run may analyze and the
// patterns that are skipped.
package paths

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry maps a selection key to a filesystem path, as declared under
// "paths-included".
type Entry struct {
	Key  string
	Path string
}

// Catalog is the ordered key to path mapping plus the excluded patterns.
type Catalog struct {
	entries  []Entry
	excluded []string
}

// New keeps entries in declaration order. A repeated key keeps its first
// position and takes the last path. Excluded patterns are validated as
// doublestar globs.
func New(entries []Entry, excluded []string) (*Catalog, error) {
	c := &Catalog{}
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Key]; ok {
			c.entries[i].Path = e.Path
			continue
		}
		index[e.Key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	for _, pattern := range excluded {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, fmt.Errorf("paths-excluded: invalid pattern %q", pattern)
		}
		c.excluded = append(c.excluded, pattern)
	}
	return c, nil
}

// Keys returns the selectable keys in declaration order.
func (c *Catalog) Keys() []string {
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Key)
	}
	return out
}

// All returns every included path.
func (c *Catalog) All() []string { return c.pick(nil, false) }

// Only returns the paths whose key is in keys, in declaration order.
func (c *Catalog) Only(keys ...string) []string { return c.pick(keys, true) }

// Without returns the paths whose key is not in keys, in declaration order.
func (c *Catalog) Without(keys ...string) []string { return c.pick(keys, false) }

// Filtered returns every path when keys is empty, otherwise Only(keys).
func (c *Catalog) Filtered(keys []string) []string {
	if len(keys) == 0 {
		return c.All()
	}
	return c.Only(keys...)
}

// Excluded returns the excluded patterns in declaration order.
func (c *Catalog) Excluded() []string {
	out := make([]string, len(c.excluded))
	copy(out, c.excluded)
	return out
}

// IsExcluded reports whether path matches an excluded pattern. A pattern
// also excludes everything below a matching directory.
func (c *Catalog) IsExcluded(path string) bool {
	p := strings.TrimSuffix(filepath.ToSlash(filepath.Clean(path)), "/")
	for _, pattern := range c.excluded {
		pat := strings.TrimSuffix(filepath.ToSlash(filepath.Clean(pattern)), "/")
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(pat+"/**", p); ok {
			return true
		}
	}
	return false
}

// Prune drops the paths that IsExcluded reports on.
func (c *Catalog) Prune(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !c.IsExcluded(p) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) pick(keys []string, keep bool) []string {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	seen := make(map[string]struct{}, len(c.entries))
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		if _, found := set[e.Key]; found != keep {
			continue
		}
		if _, dup := seen[e.Path]; dup {
			continue
		}
		seen[e.Path] = struct{}{}
		out = append(out, e.Path)
	}
	return out
}

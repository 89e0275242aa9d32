package rules

// Entry maps a short key to a rule identifier, as declared under
// "rules-included".
type Entry struct {
	Key  string
	Rule string
}

// Included is the keyed list of rules a user may select with --rules.
type Included struct {
	entries []Entry
}

// NewIncluded keeps entries in declaration order. A repeated key keeps its
// first position and takes the last rule, matching YAML map semantics.
func NewIncluded(entries []Entry) *Included {
	inc := &Included{}
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Key]; ok {
			inc.entries[i].Rule = e.Rule
			continue
		}
		index[e.Key] = len(inc.entries)
		inc.entries = append(inc.entries, e)
	}
	return inc
}

// Keys returns the selectable keys in declaration order.
func (inc *Included) Keys() []string {
	out := make([]string, 0, len(inc.entries))
	for _, e := range inc.entries {
		out = append(out, e.Key)
	}
	return out
}

// All returns every rule identifier.
func (inc *Included) All() []string {
	return inc.pick(nil, false)
}

// Only returns the rules whose key is in keys, in declaration order.
func (inc *Included) Only(keys ...string) []string {
	return inc.pick(keys, true)
}

// Without returns the rules whose key is not in keys, in declaration order.
func (inc *Included) Without(keys ...string) []string {
	return inc.pick(keys, false)
}

// Filtered returns the rules selected by keys, or nil when no key was given,
// meaning "no explicit rule selection".
func (inc *Included) Filtered(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	return inc.Only(keys...)
}

func (inc *Included) pick(keys []string, keep bool) []string {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	var d dedup
	for _, e := range inc.entries {
		if _, found := set[e.Key]; found == keep {
			d.add(e.Rule)
		}
	}
	return d.list()
}

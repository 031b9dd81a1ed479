package matcher

import "encoding/json"

type group struct {
	value   string
	matched bool
}

// Captures holds the groups extracted by a successful regex match. An
// exact-name match carries the zero value. Group 0 is the whole match;
// optional groups that did not participate are absent rather than empty.
type Captures struct {
	groups []group
	names  []string
}

// Len returns the number of groups, including group 0.
func (c Captures) Len() int { return len(c.groups) }

// IsEmpty reports whether there are no captured groups at all.
func (c Captures) IsEmpty() bool { return len(c.groups) == 0 }

// Get returns the group at index i. The second result is false when the
// index is out of range or the group did not participate in the match.
func (c Captures) Get(i int) (string, bool) {
	if i < 0 || i >= len(c.groups) {
		return "", false
	}
	g := c.groups[i]
	return g.value, g.matched
}

// Name returns the named group, if the pattern declared one and it matched.
func (c Captures) Name(name string) (string, bool) {
	for i, n := range c.names {
		if n == name && i < len(c.groups) {
			g := c.groups[i]
			return g.value, g.matched
		}
	}
	return "", false
}

// MarshalJSON emits groups keyed by index, with null for groups that did not
// participate, matching the shape consumed by downstream command handlers.
func (c Captures) MarshalJSON() ([]byte, error) {
	m := make(map[int]*string, len(c.groups))
	for i, g := range c.groups {
		if g.matched {
			v := g.value
			m[i] = &v
		} else {
			m[i] = nil
		}
	}
	return json.Marshal(m)
}

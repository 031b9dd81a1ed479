package matcher

// Matchable is the contract a command type must satisfy to live in the index.
// Clone returns an independent copy used for copy-on-write modification:
// holders of a previously returned handle keep observing the value they got.
type Matchable[T any] interface {
	MatcherKey() Key
	MatcherPattern() Pattern
	Clone() T
}

// Matcher indexes commands by key, partitioned by how each command matches:
// exact-name keys sit in a set, regex keys in a per-channel list kept in
// registration order. Regex ties are broken by that order: the earliest
// registered pattern that matches wins.
type Matcher[T Matchable[T]] struct {
	// all is the authoritative store.
	all map[Key]T
	// byName holds the keys whose pattern is exact-name.
	byName map[Key]struct{}
	// byChannelRegex holds regex keys per channel, in registration order.
	byChannelRegex map[string][]Key
}

// New creates an empty Matcher.
func New[T Matchable[T]]() *Matcher[T] {
	return &Matcher[T]{
		all:            make(map[Key]T),
		byName:         make(map[Key]struct{}),
		byChannelRegex: make(map[string][]Key),
	}
}

// Contains reports whether key is indexed.
func (m *Matcher[T]) Contains(key Key) bool {
	_, ok := m.all[key]
	return ok
}

// Get returns the command stored under key.
func (m *Matcher[T]) Get(key Key) (T, bool) {
	v, ok := m.all[key]
	return v, ok
}

// Len returns the number of indexed commands.
func (m *Matcher[T]) Len() int { return len(m.all) }

// Insert stores value under key and files the key in the secondary index
// matching the value's pattern. Inserting an existing key overwrites it.
func (m *Matcher[T]) Insert(key Key, value T) {
	if _, ok := m.all[key]; ok {
		m.unindex(key)
	}
	if value.MatcherPattern().IsName() {
		m.byName[key] = struct{}{}
	} else {
		m.byChannelRegex[key.Channel] = append(m.byChannelRegex[key.Channel], key)
	}
	m.all[key] = value
}

// Remove deletes key from the store and whichever secondary index holds it.
// Removing an absent key is not an error.
func (m *Matcher[T]) Remove(key Key) (T, bool) {
	value, ok := m.all[key]
	if !ok {
		var zero T
		return zero, false
	}
	delete(m.all, key)
	m.unindex(key)
	return value, true
}

// unindex drops key from the secondary index matching its stored pattern.
// Must be called while all[key] still holds the value.
func (m *Matcher[T]) unindex(key Key) {
	value := m.all[key]
	if value.MatcherPattern().IsName() {
		delete(m.byName, key)
		return
	}
	m.removeRegexKey(key)
}

func (m *Matcher[T]) removeRegexKey(key Key) {
	keys := m.byChannelRegex[key.Channel]
	for i, k := range keys {
		if k == key {
			m.byChannelRegex[key.Channel] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}

// ModifyWithPattern updates the command stored under key with a new pattern,
// relocating the key between the name and regex indices when the pattern kind
// changes. The stored value is cloned, mutate is applied to the clone together
// with the new pattern, and the clone replaces the stored handle. An absent
// key is a no-op, as is switching an exact-name command to exact-name.
func (m *Matcher[T]) ModifyWithPattern(key Key, pattern Pattern, mutate func(value T, pattern Pattern)) {
	existing, ok := m.all[key]
	if !ok {
		return
	}

	if !pattern.IsName() {
		if existing.MatcherPattern().IsName() {
			delete(m.byName, key)
			m.byChannelRegex[key.Channel] = append(m.byChannelRegex[key.Channel], key)
		}
	} else {
		if existing.MatcherPattern().IsName() {
			// Nothing to relocate and nothing to mutate.
			return
		}
		m.removeRegexKey(key)
		m.byName[key] = struct{}{}
	}

	next := existing.Clone()
	mutate(next, pattern)
	m.all[key] = next
}

// ModifyWithPatternSource is ModifyWithPattern taking the raw pattern source:
// nil means exact-name, anything else is compiled first. A compile failure is
// returned before the index is touched.
func (m *Matcher[T]) ModifyWithPatternSource(key Key, src *string, mutate func(value T, pattern Pattern)) error {
	pattern, err := PatternFromSource(src)
	if err != nil {
		return err
	}
	m.ModifyWithPattern(key, pattern, mutate)
	return nil
}

// Resolve finds the command matching a typed line in a channel. The first
// token, when present, is tried against the exact-name index; an exact match
// always wins. Otherwise the channel's regex commands are scanned in
// registration order against the full line and the first match wins.
func (m *Matcher[T]) Resolve(channel, first, full string) (T, Captures, bool) {
	if first != "" {
		key := NewKey(channel, first)
		if _, ok := m.byName[key]; ok {
			if command, ok := m.all[key]; ok {
				return command, Captures{}, true
			}
		}
	}

	for _, key := range m.byChannelRegex[channel] {
		command, ok := m.all[key]
		if !ok {
			continue
		}
		if captures, ok := command.MatcherPattern().Captures(full); ok {
			return command, captures, true
		}
	}

	var zero T
	return zero, Captures{}, false
}

// Iter returns a copy of all entries. No ordering is guaranteed.
func (m *Matcher[T]) Iter() map[Key]T {
	out := make(map[Key]T, len(m.all))
	for k, v := range m.all {
		out[k] = v
	}
	return out
}

// Values returns all stored commands. No ordering is guaranteed.
func (m *Matcher[T]) Values() []T {
	out := make([]T, 0, len(m.all))
	for _, v := range m.all {
		out = append(out, v)
	}
	return out
}

package matcher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCommand is a minimal Matchable for exercising the index.
type testCommand struct {
	key      Key
	pattern  Pattern
	response string
}

func (c *testCommand) MatcherKey() Key         { return c.key }
func (c *testCommand) MatcherPattern() Pattern { return c.pattern }

func (c *testCommand) Clone() *testCommand {
	cp := *c
	return &cp
}

func nameCommand(channel, name, response string) *testCommand {
	return &testCommand{
		key:      NewKey(channel, name),
		pattern:  NamePattern(),
		response: response,
	}
}

func regexCommand(t *testing.T, channel, name, src, response string) *testCommand {
	t.Helper()
	p, err := CompilePattern(src)
	require.NoError(t, err)
	return &testCommand{
		key:      NewKey(channel, name),
		pattern:  p,
		response: response,
	}
}

func TestResolve_ExactName(t *testing.T) {
	m := New[*testCommand]()
	cmd := nameCommand("c", "foo", "hi")
	m.Insert(cmd.key, cmd)

	got, caps, ok := m.Resolve("c", "foo", "foo bar")
	require.True(t, ok)
	assert.Same(t, cmd, got)
	assert.True(t, caps.IsEmpty())
}

func TestResolve_ExactName_CaseNormalized(t *testing.T) {
	m := New[*testCommand]()
	cmd := nameCommand("c", "Foo", "hi")
	m.Insert(cmd.key, cmd)

	_, _, ok := m.Resolve("c", "FOO", "FOO bar")
	assert.True(t, ok)
}

func TestResolve_Regex_Captures(t *testing.T) {
	m := New[*testCommand]()
	cmd := regexCommand(t, "c", "bar", `^bar (\d+)$`, "num")
	m.Insert(cmd.key, cmd)

	got, caps, ok := m.Resolve("c", "bar", "bar 42")
	require.True(t, ok)
	assert.Same(t, cmd, got)

	whole, ok := caps.Get(0)
	require.True(t, ok)
	assert.Equal(t, "bar 42", whole)

	num, ok := caps.Get(1)
	require.True(t, ok)
	assert.Equal(t, "42", num)
}

func TestResolve_NamedCaptures(t *testing.T) {
	m := New[*testCommand]()
	cmd := regexCommand(t, "c", "song", `^song (?P<id>\w+)(?: (?P<when>now))?$`, "")
	m.Insert(cmd.key, cmd)

	_, caps, ok := m.Resolve("c", "song", "song abc123")
	require.True(t, ok)

	id, ok := caps.Name("id")
	require.True(t, ok)
	assert.Equal(t, "abc123", id)

	// Optional group did not participate.
	_, ok = caps.Name("when")
	assert.False(t, ok)
	_, ok = caps.Get(2)
	assert.False(t, ok)
}

func TestResolve_ExactWinsOverRegex(t *testing.T) {
	m := New[*testCommand]()
	re := regexCommand(t, "c", "catchall", `^foo`, "regex")
	name := nameCommand("c", "foo", "name")
	m.Insert(re.key, re)
	m.Insert(name.key, name)

	got, _, ok := m.Resolve("c", "foo", "foo 1")
	require.True(t, ok)
	assert.Equal(t, "name", got.response)
}

func TestResolve_RegexTieBreak_RegistrationOrder(t *testing.T) {
	m := New[*testCommand]()
	first := regexCommand(t, "c", "a", `^hello`, "first")
	second := regexCommand(t, "c", "b", `^hello world`, "second")
	m.Insert(first.key, first)
	m.Insert(second.key, second)

	for range 32 {
		got, _, ok := m.Resolve("c", "", "hello world")
		require.True(t, ok)
		assert.Equal(t, "first", got.response)
	}
}

func TestResolve_ChannelScoped(t *testing.T) {
	m := New[*testCommand]()
	cmd := regexCommand(t, "c", "bar", `^bar`, "")
	m.Insert(cmd.key, cmd)

	_, _, ok := m.Resolve("other", "bar", "bar 1")
	assert.False(t, ok)
}

func TestResolve_NoMatch(t *testing.T) {
	m := New[*testCommand]()
	_, _, ok := m.Resolve("c", "nope", "nope")
	assert.False(t, ok)
}

func TestRemove_AbsentKey(t *testing.T) {
	m := New[*testCommand]()
	cmd := nameCommand("c", "foo", "")
	m.Insert(cmd.key, cmd)

	_, ok := m.Remove(NewKey("c", "missing"))
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Contains(cmd.key))
}

func TestRemove_UnfilesRegexIndex(t *testing.T) {
	m := New[*testCommand]()
	cmd := regexCommand(t, "c", "bar", `^bar`, "")
	m.Insert(cmd.key, cmd)

	removed, ok := m.Remove(cmd.key)
	require.True(t, ok)
	assert.Same(t, cmd, removed)

	_, _, ok = m.Resolve("c", "", "bar 1")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestInsert_OverwriteRelocates(t *testing.T) {
	m := New[*testCommand]()
	key := NewKey("c", "foo")
	m.Insert(key, nameCommand("c", "foo", "v1"))

	re := regexCommand(t, "c", "foo", `^foo (\d+)$`, "v2")
	m.Insert(key, re)
	assert.Equal(t, 1, m.Len())

	// Name path no longer resolves; regex path does.
	got, _, ok := m.Resolve("c", "", "foo 7")
	require.True(t, ok)
	assert.Equal(t, "v2", got.response)
}

func TestModifyWithPattern_RegexToName(t *testing.T) {
	m := New[*testCommand]()
	cmd := regexCommand(t, "c", "bar", `^bar (\d+)$`, "old")
	m.Insert(cmd.key, cmd)

	m.ModifyWithPattern(cmd.key, NamePattern(), func(v *testCommand, p Pattern) {
		v.pattern = p
		v.response = "new"
	})

	// Regex path is gone; exact-name path resolves the mutated copy.
	_, _, ok := m.Resolve("c", "", "bar 42")
	assert.False(t, ok)

	got, _, ok := m.Resolve("c", "bar", "bar 42")
	require.True(t, ok)
	assert.Equal(t, "new", got.response)

	// Copy-on-write: the previously held handle is untouched.
	assert.Equal(t, "old", cmd.response)
	assert.False(t, cmd.pattern.IsName())
}

func TestModifyWithPattern_NameToRegex(t *testing.T) {
	m := New[*testCommand]()
	cmd := nameCommand("c", "foo", "old")
	m.Insert(cmd.key, cmd)

	p, err := CompilePattern(`^foo!$`)
	require.NoError(t, err)
	m.ModifyWithPattern(cmd.key, p, func(v *testCommand, p Pattern) {
		v.pattern = p
	})

	_, _, ok := m.Resolve("c", "", "foo!")
	assert.True(t, ok)
	_, _, ok = m.Resolve("c", "foo", "foo bar")
	assert.False(t, ok)
}

func TestModifyWithPattern_NameToName_NoOp(t *testing.T) {
	m := New[*testCommand]()
	cmd := nameCommand("c", "foo", "old")
	m.Insert(cmd.key, cmd)

	called := false
	m.ModifyWithPattern(cmd.key, NamePattern(), func(*testCommand, Pattern) {
		called = true
	})
	assert.False(t, called)

	got, ok := m.Get(cmd.key)
	require.True(t, ok)
	assert.Same(t, cmd, got)
}

func TestModifyWithPattern_AbsentKey_NoOp(t *testing.T) {
	m := New[*testCommand]()
	called := false
	m.ModifyWithPattern(NewKey("c", "foo"), NamePattern(), func(*testCommand, Pattern) {
		called = true
	})
	assert.False(t, called)
}

func TestModifyWithPatternSource(t *testing.T) {
	m := New[*testCommand]()
	cmd := nameCommand("c", "foo", "")
	m.Insert(cmd.key, cmd)

	src := `^foo (\w+)$`
	err := m.ModifyWithPatternSource(cmd.key, &src, func(v *testCommand, p Pattern) {
		v.pattern = p
	})
	require.NoError(t, err)

	_, caps, ok := m.Resolve("c", "", "foo baz")
	require.True(t, ok)
	arg, ok := caps.Get(1)
	require.True(t, ok)
	assert.Equal(t, "baz", arg)
}

func TestModifyWithPatternSource_BadRegex(t *testing.T) {
	m := New[*testCommand]()
	cmd := nameCommand("c", "foo", "keep")
	m.Insert(cmd.key, cmd)

	src := `(`
	err := m.ModifyWithPatternSource(cmd.key, &src, func(*testCommand, Pattern) {
		t.Fatal("mutator must not run on compile failure")
	})
	require.Error(t, err)

	got, ok := m.Get(cmd.key)
	require.True(t, ok)
	assert.Equal(t, "keep", got.response)
}

func TestCompilePattern_Invalid(t *testing.T) {
	_, err := CompilePattern(`(`)
	assert.Error(t, err)
}

func TestPatternFromSource(t *testing.T) {
	p, err := PatternFromSource(nil)
	require.NoError(t, err)
	assert.True(t, p.IsName())

	src := `^x$`
	p, err = PatternFromSource(&src)
	require.NoError(t, err)
	assert.False(t, p.IsName())
}

func TestIterValues(t *testing.T) {
	m := New[*testCommand]()
	a := nameCommand("c", "a", "")
	b := regexCommand(t, "c", "b", `^b`, "")
	m.Insert(a.key, a)
	m.Insert(b.key, b)

	entries := m.Iter()
	assert.Len(t, entries, 2)
	assert.Len(t, m.Values(), 2)

	// Mutating the returned map must not affect the index.
	delete(entries, a.key)
	assert.True(t, m.Contains(a.key))
}

func TestCaptures_JSON(t *testing.T) {
	p, err := CompilePattern(`^song (\w+)(?: (now))?$`)
	require.NoError(t, err)

	caps, ok := p.Captures("song abc")
	require.True(t, ok)

	data, err := json.Marshal(caps)
	require.NoError(t, err)

	var decoded map[string]*string
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded["1"])
	assert.Equal(t, "abc", *decoded["1"])
	assert.Nil(t, decoded["2"])
}

func TestPattern_JSON(t *testing.T) {
	data, err := json.Marshal(NamePattern())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"name"}`, string(data))

	p, err := CompilePattern(`^bar$`)
	require.NoError(t, err)
	data, err = json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"regex","pattern":"^bar$"}`, string(data))
}

package matcher

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Pattern decides how a command is matched against user input. The zero value
// matches by exact name; a compiled pattern matches the full line against its
// regular expression.
type Pattern struct {
	re *regexp.Regexp
}

// NamePattern returns the exact-name pattern.
func NamePattern() Pattern {
	return Pattern{}
}

// CompilePattern compiles a regex source into a Pattern. A compile failure is
// surfaced synchronously so the registering collaborator can reject the
// command before it ever reaches the index.
func CompilePattern(src string) (Pattern, error) {
	re, err := regexp.Compile(src)
	if err != nil {
		return Pattern{}, fmt.Errorf("matcher: compile pattern %q: %w", src, err)
	}
	return Pattern{re: re}, nil
}

// PatternFromSource maps an optional regex source to a Pattern: nil means
// exact-name, anything else is compiled.
func PatternFromSource(src *string) (Pattern, error) {
	if src == nil {
		return NamePattern(), nil
	}
	return CompilePattern(*src)
}

// IsName reports whether the pattern matches by exact name.
func (p Pattern) IsName() bool { return p.re == nil }

// Captures matches the pattern against input and extracts its groups.
// An exact-name pattern never matches here; it is resolved through the
// name index instead.
func (p Pattern) Captures(input string) (Captures, bool) {
	if p.re == nil {
		return Captures{}, false
	}
	idx := p.re.FindStringSubmatchIndex(input)
	if idx == nil {
		return Captures{}, false
	}
	groups := make([]group, len(idx)/2)
	for i := range groups {
		start, end := idx[2*i], idx[2*i+1]
		if start < 0 {
			continue
		}
		groups[i] = group{value: input[start:end], matched: true}
	}
	return Captures{groups: groups, names: p.re.SubexpNames()}, true
}

func (p Pattern) String() string {
	if p.re == nil {
		return "*name*"
	}
	return p.re.String()
}

// MarshalJSON emits a tagged representation so patterns survive in command
// listings and diagnostics: {"type":"name"} or {"type":"regex","pattern":...}.
func (p Pattern) MarshalJSON() ([]byte, error) {
	if p.re == nil {
		return json.Marshal(struct {
			Type string `json:"type"`
		}{Type: "name"})
	}
	return json.Marshal(struct {
		Type    string `json:"type"`
		Pattern string `json:"pattern"`
	}{Type: "regex", Pattern: p.re.String()})
}

package marker

import (
	"sort"
	"strings"
)

// Definition describes one recognised marker token
type Definition struct {
	Token string `mapstructure:"token"`
	Label string `mapstructure:"label"`
	Color string `mapstructure:"color"`
}

// Registry is an ordered list of marker definitions. Order decides matching
// priority: the first token that prefixes a comment wins.
type Registry struct {
	defs []Definition
}

// Defaults returns the built-in marker definitions in priority order
func Defaults() []Definition {
	return []Definition{
		{Token: "!", Label: "Important", Color: "red"},
		{Token: "TODO", Label: "To Do", Color: "yellow"},
		{Token: "?", Label: "Question", Color: "blue"},
		{Token: "REVIEW", Label: "Needs Review", Color: "magenta"},
		{Token: "FIXME", Label: "Fix Required", Color: "red"},
		{Token: "NOTE", Label: "Note", Color: "green"},
	}
}

// NewRegistry creates a registry from defs. Definitions with an empty token
// are dropped, as are later duplicates of a token.
func NewRegistry(defs []Definition) *Registry {
	r := &Registry{defs: make([]Definition, 0, len(defs))}
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if d.Token == "" || seen[d.Token] {
			continue
		}
		seen[d.Token] = true
		if d.Label == "" {
			d.Label = d.Token
		}
		r.defs = append(r.defs, d)
	}
	return r
}

// DefaultRegistry returns a registry with the built-in markers
func DefaultRegistry() *Registry {
	return NewRegistry(Defaults())
}

// Definitions returns a copy of the registered definitions in order
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Tokens returns the registered tokens in order
func (r *Registry) Tokens() []string {
	tokens := make([]string, len(r.defs))
	for i, d := range r.defs {
		tokens[i] = d.Token
	}
	return tokens
}

// Lookup returns the definition for token
func (r *Registry) Lookup(token string) (Definition, bool) {
	for _, d := range r.defs {
		if d.Token == token {
			return d, true
		}
	}
	return Definition{}, false
}

// AnyIn reports whether any registered token occurs anywhere in content,
// skipped or not
func (r *Registry) AnyIn(content string) bool {
	for _, d := range r.defs {
		if strings.Contains(content, d.Token) {
			return true
		}
	}
	return false
}

// Match attributes text to at most one marker. Tokens are tried in registry
// order; a token matches when text starts with it and it is not in skip.
// The returned body is the remainder after the token, trimmed.
func (r *Registry) Match(text string, skip SkipSet) (Definition, string, bool) {
	text = strings.TrimSpace(text)
	for _, d := range r.defs {
		if !strings.HasPrefix(text, d.Token) || skip.Has(d.Token) {
			continue
		}
		return d, strings.TrimSpace(text[len(d.Token):]), true
	}
	return Definition{}, "", false
}

// SkipSet holds the marker tokens that never produce annotations
type SkipSet map[string]struct{}

// NewSkipSet builds a skip-set from tokens
func NewSkipSet(tokens ...string) SkipSet {
	s := make(SkipSet, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// Has reports whether token is skipped. A nil set skips nothing.
func (s SkipSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Sorted returns the skipped tokens in sorted order
func (s SkipSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

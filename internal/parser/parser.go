package parser

import (
	"strings"

	"github.com/gubarz/cmtscan/internal/grammar"
)

// Span is the raw text of one comment and the 0-based line it is attributed to
type Span struct {
	Text string
	Line int
}

// Tokenizer splits a file's lines into comment spans for a single grammar.
// It carries block comment state from one line to the next, so a fresh
// Tokenizer is needed for every file.
type Tokenizer struct {
	grammar   grammar.Grammar
	inBlock   bool
	fragments []string
}

// NewTokenizer creates a tokenizer for g
func NewTokenizer(g grammar.Grammar) *Tokenizer {
	return &Tokenizer{grammar: g}
}

// Tokenize runs a fresh tokenizer over lines and returns every span in order.
// A block comment still open at the end is dropped.
func Tokenize(g grammar.Grammar, lines []string) []Span {
	t := NewTokenizer(g)
	var spans []Span
	for i, line := range lines {
		if span, ok := t.Feed(line, i); ok {
			spans = append(spans, span)
		}
	}
	return spans
}

// Open reports whether a block comment is currently open
func (t *Tokenizer) Open() bool {
	return t.inBlock
}

// Reset clears block state
func (t *Tokenizer) Reset() {
	t.inBlock = false
	t.fragments = nil
}

// Feed consumes one line and returns the comment it completes, if any.
// Block comments are reported on the line where they close.
func (t *Tokenizer) Feed(line string, idx int) (Span, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Span{}, false
	}

	if !t.inBlock && !t.mayContainComment(line) {
		return Span{}, false
	}

	if t.grammar.HasBlock() {
		if span, consumed, ok := t.feedBlock(line, idx); consumed {
			return span, ok
		}
	}

	for _, prefix := range t.grammar.Single {
		if prefix == "" {
			continue
		}
		if pos := strings.Index(line, prefix); pos != -1 {
			return Span{Text: strings.TrimSpace(line[pos+len(prefix):]), Line: idx}, true
		}
	}
	return Span{}, false
}

// feedBlock handles block delimiters. consumed is false when the line should
// fall through to single-line prefix checks.
func (t *Tokenizer) feedBlock(line string, idx int) (span Span, consumed bool, ok bool) {
	start, end := t.grammar.Block.Start, t.grammar.Block.End

	if !t.inBlock {
		open := strings.Index(line, start)
		if open == -1 {
			return Span{}, false, false
		}
		rest := line[open+len(start):]

		// Same-line block: the end delimiter appears after the start
		if endAt := strings.Index(rest, end); endAt != -1 {
			return Span{Text: strings.TrimSpace(rest[:endAt]), Line: idx}, true, true
		}

		t.inBlock = true
		t.fragments = []string{strings.TrimSpace(rest)}
		return Span{}, true, false
	}

	if endAt := strings.Index(line, end); endAt != -1 {
		t.fragments = append(t.fragments, strings.TrimSpace(line[:endAt]))
		text := strings.TrimSpace(strings.Join(t.fragments, " "))
		t.Reset()
		return Span{Text: text, Line: idx}, true, true
	}

	t.fragments = append(t.fragments, line)
	return Span{}, true, false
}

// mayContainComment is a cheap pre-check: a line outside a block with no
// prefix and no delimiter cannot start a comment.
func (t *Tokenizer) mayContainComment(line string) bool {
	for _, prefix := range t.grammar.Single {
		if prefix != "" && strings.Contains(line, prefix) {
			return true
		}
	}
	if t.grammar.HasBlock() {
		return strings.Contains(line, t.grammar.Block.Start) || strings.Contains(line, t.grammar.Block.End)
	}
	return false
}

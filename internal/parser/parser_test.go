package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/cmtscan/internal/grammar"
)

var (
	cGrammar = grammar.Grammar{
		Single: []string{"//"},
		Block:  &grammar.Delimiters{Start: "/*", End: "*/"},
	}
	pyGrammar = grammar.Grammar{
		Single: []string{"#"},
		Block:  &grammar.Delimiters{Start: `"""`, End: `"""`},
	}
	rbGrammar = grammar.Grammar{
		Single: []string{"#"},
		Block:  &grammar.Delimiters{Start: "=begin", End: "=end"},
	}
	singleOnly = grammar.Grammar{Single: []string{"//"}}
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		grammar  grammar.Grammar
		source   string
		expected []Span
	}{
		{
			name:     "single line comment after code",
			grammar:  cGrammar,
			source:   "x := 1 // TODO tidy",
			expected: []Span{{Text: "TODO tidy", Line: 0}},
		},
		{
			name:     "first prefix occurrence wins",
			grammar:  cGrammar,
			source:   "a // one // two",
			expected: []Span{{Text: "one // two", Line: 0}},
		},
		{
			name:     "three line block joins fragments at closing line",
			grammar:  cGrammar,
			source:   "/* a\nb\nc */",
			expected: []Span{{Text: "a b c", Line: 2}},
		},
		{
			name:     "same line block",
			grammar:  cGrammar,
			source:   "/* ! fixme now */",
			expected: []Span{{Text: "! fixme now", Line: 0}},
		},
		{
			name:     "same line block ignores code around it",
			grammar:  cGrammar,
			source:   "int x = 1; /* TODO size */ int y = 2;",
			expected: []Span{{Text: "TODO size", Line: 0}},
		},
		{
			name:     "same line block ends at first close",
			grammar:  cGrammar,
			source:   "/* a */ code(); /* b */",
			expected: []Span{{Text: "a", Line: 0}},
		},
		{
			name:     "blank lines inside block neither close nor add content",
			grammar:  cGrammar,
			source:   "/* TODO first\n\n   \nsecond */",
			expected: []Span{{Text: "TODO first second", Line: 3}},
		},
		{
			name:     "interior lines without delimiters are kept",
			grammar:  cGrammar,
			source:   "/*\nTODO plain interior\n*/",
			expected: []Span{{Text: "TODO plain interior", Line: 2}},
		},
		{
			name:     "unterminated block is dropped",
			grammar:  cGrammar,
			source:   "// TODO kept\n/* TODO lost\nstill open",
			expected: []Span{{Text: "TODO kept", Line: 0}},
		},
		{
			name:     "block start takes precedence over single prefix",
			grammar:  cGrammar,
			source:   "// see /* TODO x\ny */",
			expected: []Span{{Text: "TODO x y", Line: 1}},
		},
		{
			name:     "single prefix inside open block is block content",
			grammar:  cGrammar,
			source:   "/* start\n// TODO nested\nend */",
			expected: []Span{{Text: "start // TODO nested end", Line: 2}},
		},
		{
			name:     "stray close delimiter falls through to single prefix",
			grammar:  cGrammar,
			source:   "*/ // FIXME odd",
			expected: []Span{{Text: "FIXME odd", Line: 0}},
		},
		{
			name:     "python docstring same line",
			grammar:  pyGrammar,
			source:   `"""TODO docstring"""`,
			expected: []Span{{Text: "TODO docstring", Line: 0}},
		},
		{
			name:     "python docstring across lines",
			grammar:  pyGrammar,
			source:   "def f():\n    \"\"\"\n    TODO explain\n    \"\"\"\n    # FIXME later\n",
			expected: []Span{{Text: "TODO explain", Line: 3}, {Text: "FIXME later", Line: 4}},
		},
		{
			name:     "ruby begin end",
			grammar:  rbGrammar,
			source:   "=begin\nNOTE about this\n=end\nputs 1 # ? why",
			expected: []Span{{Text: "NOTE about this", Line: 2}, {Text: "? why", Line: 3}},
		},
		{
			name:     "grammar without block ignores block syntax",
			grammar:  singleOnly,
			source:   "/* TODO not a comment here */\n// TODO yes",
			expected: []Span{{Text: "TODO yes", Line: 1}},
		},
		{
			name:     "code lines without comments emit nothing",
			grammar:  cGrammar,
			source:   "package main\n\nfunc main() {}\n",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := Tokenize(tt.grammar, strings.Split(tt.source, "\n"))
			assert.Equal(t, tt.expected, spans)
		})
	}
}

func TestTokenizerOpenState(t *testing.T) {
	tok := NewTokenizer(cGrammar)

	_, ok := tok.Feed("/* begins", 0)
	assert.False(t, ok)
	assert.True(t, tok.Open())

	_, ok = tok.Feed("", 1)
	assert.False(t, ok)
	assert.True(t, tok.Open(), "blank line must not close a block")

	span, ok := tok.Feed("ends */ trailing", 2)
	require.True(t, ok)
	assert.Equal(t, Span{Text: "begins ends", Line: 2}, span)
	assert.False(t, tok.Open())

	tok.Feed("/* again", 3)
	tok.Reset()
	assert.False(t, tok.Open())
	_, ok = tok.Feed("done */", 4)
	assert.False(t, ok, "reset discards the open block")
}

func TestTokenizeNeverLeaksCodeOutsideDelimiters(t *testing.T) {
	source := []string{
		"call(a, b) /* TODO one */ call(c)",
		"value := 3 // NOTE two",
		"/* three",
		"four */ trailingCode()",
	}
	spans := Tokenize(cGrammar, source)
	require.Len(t, spans, 3)
	for _, span := range spans {
		assert.NotContains(t, span.Text, "call(")
		assert.NotContains(t, span.Text, "value :=")
		assert.NotContains(t, span.Text, "trailingCode")
	}
}

func TestTokenizeIsIdempotent(t *testing.T) {
	source := strings.Split("/* TODO a\nb */\n// FIXME c\n", "\n")
	assert.Equal(t, Tokenize(cGrammar, source), Tokenize(cGrammar, source))
}

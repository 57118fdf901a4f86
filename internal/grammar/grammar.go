package grammar

import (
	"sort"
	"strings"
)

// Delimiters is a block comment start/end pair
type Delimiters struct {
	Start string
	End   string
}

// Grammar describes how comments are written in one language
type Grammar struct {
	Single []string    // Single-line prefixes, checked in order
	Block  *Delimiters // Optional block comment delimiters
}

// HasBlock reports whether the grammar defines block comments
func (g Grammar) HasBlock() bool {
	return g.Block != nil && g.Block.Start != "" && g.Block.End != ""
}

// Table maps lowercased file extensions (without the dot) to grammars
type Table struct {
	entries  map[string]Grammar
	fallback Grammar
}

func cStyle() Grammar {
	return Grammar{Single: []string{"//"}, Block: &Delimiters{Start: "/*", End: "*/"}}
}

func hashStyle() Grammar {
	return Grammar{Single: []string{"#"}}
}

func markupStyle() Grammar {
	return Grammar{Block: &Delimiters{Start: "<!--", End: "-->"}}
}

// Default returns the built-in grammar table
func Default() *Table {
	entries := map[string]Grammar{
		"py":  {Single: []string{"#"}, Block: &Delimiters{Start: `"""`, End: `"""`}},
		"rb":  {Single: []string{"#"}, Block: &Delimiters{Start: "=begin", End: "=end"}},
		"css": {Block: &Delimiters{Start: "/*", End: "*/"}},
		"sql": {Single: []string{"--"}, Block: &Delimiters{Start: "/*", End: "*/"}},
	}
	for _, ext := range []string{"js", "jsx", "ts", "tsx", "c", "h", "cpp", "hpp", "cs", "java", "php", "go", "rs", "scss", "less"} {
		entries[ext] = cStyle()
	}
	for _, ext := range []string{"yaml", "yml", "sh"} {
		entries[ext] = hashStyle()
	}
	for _, ext := range []string{"html", "xml"} {
		entries[ext] = markupStyle()
	}
	return &Table{
		entries:  entries,
		fallback: Grammar{Single: []string{"//"}},
	}
}

// New builds a table from explicit entries. A nil fallback uses "//".
func New(entries map[string]Grammar, fallback *Grammar) *Table {
	t := &Table{
		entries:  make(map[string]Grammar, len(entries)),
		fallback: Grammar{Single: []string{"//"}},
	}
	for ext, g := range entries {
		t.entries[normalizeExt(ext)] = g
	}
	if fallback != nil {
		t.fallback = *fallback
	}
	return t
}

// With returns a copy of the table with the given entries added or replaced
func (t *Table) With(overrides map[string]Grammar) *Table {
	merged := make(map[string]Grammar, len(t.entries)+len(overrides))
	for ext, g := range t.entries {
		merged[ext] = g
	}
	for ext, g := range overrides {
		merged[normalizeExt(ext)] = g
	}
	return &Table{entries: merged, fallback: t.fallback}
}

// Lookup returns the grammar registered for ext. Ext may carry a leading dot
// and any case.
func (t *Table) Lookup(ext string) (Grammar, bool) {
	g, ok := t.entries[normalizeExt(ext)]
	return g, ok
}

// Resolve is like Lookup but falls back to the default grammar
func (t *Table) Resolve(ext string) Grammar {
	if g, ok := t.Lookup(ext); ok {
		return g
	}
	return t.fallback
}

// Fallback returns the grammar used for unknown extensions
func (t *Table) Fallback() Grammar {
	return t.fallback
}

// Extensions returns the registered extensions in sorted order
func (t *Table) Extensions() []string {
	exts := make([]string, 0, len(t.entries))
	for ext := range t.entries {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

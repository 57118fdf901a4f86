package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/gubarz/cmtscan/internal/grammar"
	"github.com/gubarz/cmtscan/internal/logging"
	"github.com/gubarz/cmtscan/internal/marker"
	"github.com/gubarz/cmtscan/internal/parser"
)

// Options is the read-only configuration of a scan
type Options struct {
	Root         string           // Scan root; annotation paths are relative to it
	Grammars     *grammar.Table   // Extension to comment grammar
	Markers      *marker.Registry // Ordered marker definitions
	Skip         marker.SkipSet   // Tokens that never produce annotations
	ContextLines int              // Lines of context before and after
	ShowContext  bool             // Build context text for each annotation
	ScanUnknown  bool             // Use the fallback grammar for unknown extensions
	Workers      int              // Parallel file scans; <= 0 means one
}

// Annotation is one marker-prefixed comment found in a file
type Annotation struct {
	Marker  marker.Definition
	Body    string // Comment text after the marker
	File    string // Path relative to the scan root
	Line    int    // 1-based
	Context string // Surrounding lines, empty when context is disabled
}

// Status is the kind of result a file scan produced
type Status int

const (
	StatusScanned Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusScanned:
		return "scanned"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Reason explains a skipped file
type Reason string

const (
	ReasonUnsupported Reason = "unsupported extension"
	ReasonBinary      Reason = "not valid UTF-8"
	ReasonNoMarkers   Reason = "no marker tokens"
)

// Outcome is the result of scanning one file
type Outcome struct {
	Path        string
	Status      Status
	Reason      Reason       // Set when skipped
	Err         error        // Set when failed
	Annotations []Annotation // Set when scanned, in line order
}

// Scanner extracts annotations from files using fixed Options
type Scanner struct {
	opts Options
}

// NewScanner creates a scanner. Missing tables fall back to the built-in ones.
func NewScanner(opts Options) *Scanner {
	if opts.Grammars == nil {
		opts.Grammars = grammar.Default()
	}
	if opts.Markers == nil {
		opts.Markers = marker.DefaultRegistry()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Scanner{opts: opts}
}

// ScanFile scans a single file. It never panics on bad input: unsupported,
// binary and marker-free files are skipped and read errors are returned as a
// failed outcome.
func (s *Scanner) ScanFile(path string) Outcome {
	g, ok := s.grammarFor(path)
	if !ok {
		return Outcome{Path: path, Status: StatusSkipped, Reason: ReasonUnsupported}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Outcome{Path: path, Status: StatusFailed, Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return s.scanContent(path, g, content)
}

func (s *Scanner) grammarFor(path string) (grammar.Grammar, bool) {
	ext := filepath.Ext(path)
	if s.opts.ScanUnknown {
		return s.opts.Grammars.Resolve(ext), true
	}
	return s.opts.Grammars.Lookup(ext)
}

func (s *Scanner) scanContent(path string, g grammar.Grammar, content []byte) Outcome {
	if !utf8.Valid(content) {
		return Outcome{Path: path, Status: StatusSkipped, Reason: ReasonBinary}
	}
	if !s.opts.Markers.AnyIn(string(content)) {
		return Outcome{Path: path, Status: StatusSkipped, Reason: ReasonNoMarkers}
	}

	lines := splitLines(content)

	rel := s.relPath(path)
	tok := parser.NewTokenizer(g)
	annotations := make([]Annotation, 0)
	for i, line := range lines {
		span, ok := tok.Feed(line, i)
		if !ok {
			continue
		}
		if a, ok := s.extract(span, rel, lines); ok {
			annotations = append(annotations, a)
		}
	}
	if tok.Open() {
		logging.Debug("dropping unterminated block comment", zap.String("path", rel))
	}

	return Outcome{Path: path, Status: StatusScanned, Annotations: annotations}
}

func (s *Scanner) extract(span parser.Span, rel string, lines []string) (Annotation, bool) {
	def, body, ok := s.opts.Markers.Match(span.Text, s.opts.Skip)
	if !ok {
		return Annotation{}, false
	}
	a := Annotation{
		Marker: def,
		Body:   body,
		File:   rel,
		Line:   span.Line + 1,
	}
	if s.opts.ShowContext {
		a.Context = ContextWindow(lines, span.Line, s.opts.ContextLines)
	}
	return a, true
}

func (s *Scanner) relPath(path string) string {
	if s.opts.Root == "" {
		return path
	}
	rel, err := filepath.Rel(s.opts.Root, path)
	if err != nil {
		return path
	}
	return rel
}

// splitLines breaks content on "\n", "\r\n" and a lone "\r". A trailing
// terminator does not start another line. Lines have no length limit.
func splitLines(content []byte) []string {
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			lines = append(lines, string(content[start:i]))
			start = i + 1
		case '\r':
			lines = append(lines, string(content[start:i]))
			if i+1 < len(content) && content[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, string(content[start:]))
	}
	return lines
}

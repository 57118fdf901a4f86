package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"

	"github.com/gubarz/cmtscan/internal/logging"
)

// ErrNotDirectory is returned when the scan root is not a directory
var ErrNotDirectory = errors.New("workspace is not a directory")

// DefaultFilePatterns are the file name globs considered for scanning
var DefaultFilePatterns = []string{
	"*.ts", "*.tsx", "*.js", "*.jsx", "*.py", "*.rs", "*.go", "*.java",
	"*.c", "*.h", "*.cpp", "*.hpp", "*.cs", "*.vb", "*.sql", "*.md",
	"*.txt", "*.yaml", "*.yml", "*.xml", "*.html", "*.css", "*.scss",
	"*.sass", "*.less", "*.styl", "*.stylus", "*.rb", "*.php", "*.sh",
}

// DefaultExcludes are always ignored, in gitignore syntax
var DefaultExcludes = []string{"node_modules", "__pycache__", "build", "dist"}

// FilenameFilter narrows discovery to files whose base name matches Value
type FilenameFilter struct {
	Value         string
	CaseSensitive bool
	CompleteMatch bool
}

// Match reports whether name passes the filter. An empty filter passes all.
func (f FilenameFilter) Match(name string) bool {
	if f.Value == "" {
		return true
	}
	want := f.Value
	if !f.CaseSensitive {
		name = strings.ToLower(name)
		want = strings.ToLower(want)
	}
	if f.CompleteMatch {
		return name == want
	}
	return strings.Contains(name, want)
}

// Options configures file discovery
type Options struct {
	FilePatterns []string // Base name globs; empty uses DefaultFilePatterns
	Excludes     []string // Gitignore-style patterns applied before .gitignore
	UseGitignore bool     // Read <root>/.gitignore
	Filter       FilenameFilter
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery finds candidate source files under a root directory
type Discovery struct {
	root     string
	patterns []compiledPattern
	ignored  *ignore.GitIgnore
	filter   FilenameFilter
}

// New validates root and compiles the patterns in opts
func New(root string, opts Options) (*Discovery, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("workspace error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	d := &Discovery{root: root, filter: opts.Filter}

	patterns := opts.FilePatterns
	if len(patterns) == 0 {
		patterns = DefaultFilePatterns
	}
	seen := make(map[string]bool, len(patterns))
	for _, pattern := range patterns {
		if seen[pattern] {
			continue
		}
		seen[pattern] = true
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
		d.patterns = append(d.patterns, compiledPattern{pattern: pattern, glob: g})
	}

	lines := append([]string{}, opts.Excludes...)
	if opts.UseGitignore {
		gitLines, err := readGitignore(filepath.Join(root, ".gitignore"))
		if err != nil {
			return nil, err
		}
		lines = append(lines, gitLines...)
	}
	d.ignored = ignore.CompileIgnoreLines(lines...)

	return d, nil
}

// Root returns the directory being walked
func (d *Discovery) Root() string {
	return d.root
}

// Files walks the root and returns matching files in lexical order. Hidden
// paths and ignored directories are pruned, and unreadable entries below the
// root are logged and skipped.
func (d *Discovery) Files() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == d.root {
				return err
			}
			// Unreadable paths below the root are skipped, not fatal
			logging.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.shouldSkip(relPath) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}

		name := entry.Name()
		if !d.matchesAnyPattern(name) || !d.filter.Match(name) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", d.root, err)
	}
	return files, nil
}

// shouldSkip checks hidden components and ignore rules for a slash-separated
// relative path
func (d *Discovery) shouldSkip(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return d.ignored.MatchesPath(relPath)
}

func (d *Discovery) matchesAnyPattern(name string) bool {
	for _, cp := range d.patterns {
		if cp.glob.Match(name) {
			return true
		}
	}
	return false
}

// readGitignore returns the non-empty, non-comment lines of path. A missing
// file yields no lines.
func readGitignore(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading .gitignore: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines, nil
}

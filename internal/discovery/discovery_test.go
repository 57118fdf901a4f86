package discovery

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestFiles_DefaultsAndIgnores(t *testing.T) {
	root := setupTree(t, map[string]string{
		"main.go":                    "",
		"src/app.ts":                 "",
		"src/app.test.ts":            "",
		"src/data.json":              "",
		"node_modules/lib/index.js":  "",
		"build/out.js":               "",
		"pkg/build.go":               "",
		".hidden/secret.py":          "",
		"src/.env.py":                "",
		"generated/gen.go":           "",
		"logs/app.log":               "",
		".gitignore":                 "# comment line\n\ngenerated/\n*.log\n",
		"docs/readme.md":             "",
		"scripts/tool.rb":            "",
		"src/__pycache__/mod.py":     "",
		"deep/nested/dir/handler.rs": "",
	})

	d, err := New(root, Options{Excludes: DefaultExcludes, UseGitignore: true})
	require.NoError(t, err)

	files, err := d.Files()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"deep/nested/dir/handler.rs",
		"docs/readme.md",
		"main.go",
		"pkg/build.go",
		"scripts/tool.rb",
		"src/app.test.ts",
		"src/app.ts",
	}, relAll(t, root, files))
}

func TestFiles_WithoutGitignore(t *testing.T) {
	root := setupTree(t, map[string]string{
		"generated/gen.go": "",
		".gitignore":       "generated/\n",
	})

	d, err := New(root, Options{})
	require.NoError(t, err)
	files, err := d.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"generated/gen.go"}, relAll(t, root, files))
}

func TestFiles_CustomPatternsDeduplicated(t *testing.T) {
	root := setupTree(t, map[string]string{
		"a.go":      "",
		"b.py":      "",
		"c.lua":     "",
		"sub/d.lua": "",
	})

	d, err := New(root, Options{FilePatterns: []string{"*.lua", "*.lua", "*.go"}})
	require.NoError(t, err)
	files, err := d.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "c.lua", "sub/d.lua"}, relAll(t, root, files))
}

func TestFilenameFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter FilenameFilter
		file   string
		match  bool
	}{
		{name: "empty filter passes", filter: FilenameFilter{}, file: "x.go", match: true},
		{name: "substring case insensitive", filter: FilenameFilter{Value: "TEST"}, file: "my_test.py", match: true},
		{name: "substring case sensitive miss", filter: FilenameFilter{Value: "TEST", CaseSensitive: true}, file: "my_test.py", match: false},
		{name: "complete match", filter: FilenameFilter{Value: "test.py", CompleteMatch: true}, file: "Test.py", match: true},
		{name: "complete match rejects partial", filter: FilenameFilter{Value: "test.py", CompleteMatch: true}, file: "my_test.py", match: false},
		{name: "complete case sensitive", filter: FilenameFilter{Value: "Test.py", CompleteMatch: true, CaseSensitive: true}, file: "test.py", match: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, tt.filter.Match(tt.file))
		})
	}
}

func TestFiles_FilenameFilterApplied(t *testing.T) {
	root := setupTree(t, map[string]string{
		"test.py":        "",
		"src/my_test.py": "",
		"src/handler.py": "",
	})

	d, err := New(root, Options{Filter: FilenameFilter{Value: "test.py", CompleteMatch: true}})
	require.NoError(t, err)
	files, err := d.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"test.py"}, relAll(t, root, files))
}

func TestNew_Errors(t *testing.T) {
	root := setupTree(t, map[string]string{"file.go": ""})

	_, err := New(filepath.Join(root, "missing"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = New(filepath.Join(root, "file.go"), Options{})
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = New(root, Options{FilePatterns: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestFiles_HiddenRootIsAllowed(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, ".config", "project")
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), nil, 0644))

	d, err := New(root, Options{})
	require.NoError(t, err)
	files, err := d.Files()
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, root, d.Root())
}

func TestFiles_UnreadableSubdirectoryIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	root := setupTree(t, map[string]string{
		"a.go":           "",
		"locked/b.go":    "",
		"open/c.go":      "",
		"open/deep/d.go": "",
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	d, err := New(root, Options{})
	require.NoError(t, err)
	files, err := d.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "open/c.go", "open/deep/d.go"}, relAll(t, root, files))
}

func TestFiles_UnreadableRootIsFatal(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	root := setupTree(t, map[string]string{"a.go": ""})
	require.NoError(t, os.Chmod(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	d, err := New(root, Options{})
	require.NoError(t, err)
	_, err = d.Files()
	assert.ErrorIs(t, err, os.ErrPermission)
}

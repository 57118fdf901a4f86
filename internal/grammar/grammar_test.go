package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLookup(t *testing.T) {
	table := Default()

	tests := []struct {
		ext       string
		found     bool
		single    []string
		hasBlock  bool
		blockFrom string
		blockTo   string
	}{
		{ext: "py", found: true, single: []string{"#"}, hasBlock: true, blockFrom: `"""`, blockTo: `"""`},
		{ext: ".PY", found: true, single: []string{"#"}, hasBlock: true, blockFrom: `"""`, blockTo: `"""`},
		{ext: "ts", found: true, single: []string{"//"}, hasBlock: true, blockFrom: "/*", blockTo: "*/"},
		{ext: "rb", found: true, single: []string{"#"}, hasBlock: true, blockFrom: "=begin", blockTo: "=end"},
		{ext: "html", found: true, hasBlock: true, blockFrom: "<!--", blockTo: "-->"},
		{ext: "yml", found: true, single: []string{"#"}},
		{ext: "json", found: false},
		{ext: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			g, ok := table.Lookup(tt.ext)
			require.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.single, g.Single)
			require.Equal(t, tt.hasBlock, g.HasBlock())
			if tt.hasBlock {
				assert.Equal(t, tt.blockFrom, g.Block.Start)
				assert.Equal(t, tt.blockTo, g.Block.End)
			}
		})
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	table := Default()

	g := table.Resolve("json")
	assert.Equal(t, []string{"//"}, g.Single)
	assert.False(t, g.HasBlock())

	g = table.Resolve("py")
	assert.Equal(t, []string{"#"}, g.Single)
}

func TestWithOverridesWithoutMutatingOriginal(t *testing.T) {
	base := Default()
	custom := base.With(map[string]Grammar{
		".Lua": {Single: []string{"--"}, Block: &Delimiters{Start: "--[[", End: "]]"}},
		"py":   {Single: []string{"#"}},
	})

	g, ok := custom.Lookup("lua")
	require.True(t, ok)
	assert.Equal(t, "--[[", g.Block.Start)

	g, ok = custom.Lookup("py")
	require.True(t, ok)
	assert.False(t, g.HasBlock())

	_, ok = base.Lookup("lua")
	assert.False(t, ok)
	g, _ = base.Lookup("py")
	assert.True(t, g.HasBlock())
}

func TestNewWithFallback(t *testing.T) {
	fb := Grammar{Single: []string{"#"}}
	table := New(map[string]Grammar{"TOML": {Single: []string{"#"}}}, &fb)

	_, ok := table.Lookup("toml")
	assert.True(t, ok)
	assert.Equal(t, fb, table.Fallback())
	assert.Equal(t, []string{"toml"}, table.Extensions())
}

func TestHasBlockRequiresBothDelimiters(t *testing.T) {
	assert.False(t, Grammar{Block: &Delimiters{Start: "/*"}}.HasBlock())
	assert.False(t, Grammar{}.HasBlock())
	assert.True(t, Grammar{Block: &Delimiters{Start: "/*", End: "*/"}}.HasBlock())
}

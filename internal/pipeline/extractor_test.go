package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/aspiredoc/internal/config"
	"github.com/efebarandurmaz/aspiredoc/internal/plugins/source/aspire"
)

func TestPatternConfig_Defaults(t *testing.T) {
	pc, err := PatternConfig(config.PatternsConfig{})
	require.NoError(t, err)
	assert.Equal(t, aspire.DefaultPatternConfig(), pc)
}

func TestPatternConfig_FileThenOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lookahead_window: 10\ndependency_verbs: [WithReference, WaitFor]\n"), 0o644))

	pc, err := PatternConfig(config.PatternsConfig{File: path, LookaheadWindow: 50, EntryFile: "AppHost.cs"})
	require.NoError(t, err)
	assert.Equal(t, 50, pc.LookaheadWindow)
	assert.Equal(t, "AppHost.cs", pc.EntryFile)
	assert.Equal(t, []string{"WithReference", "WaitFor"}, pc.DependencyVerbs)
}

func TestPatternConfig_MissingFile(t *testing.T) {
	_, err := PatternConfig(config.PatternsConfig{File: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.ErrorContains(t, err, "opening pattern table")
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(config.PatternsConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultFramework}, r.Frameworks())

	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain_end: \"builder(\"\n"), 0o644))
	_, err = NewRegistry(config.PatternsConfig{File: path})
	assert.ErrorContains(t, err, "chain_end")
}

func TestPatternConfig_ShippedTableMatchesDefaults(t *testing.T) {
	pc, err := PatternConfig(config.PatternsConfig{File: filepath.Join("..", "..", "configs", "patterns.yaml")})
	require.NoError(t, err)
	assert.Equal(t, aspire.DefaultPatternConfig(), pc)
}

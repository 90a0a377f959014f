package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "src", cfg.Scan.ProjectDir)
	assert.Equal(t, DefaultExtensions, cfg.Scan.Extensions)
	assert.Equal(t, DefaultSkipDirs, cfg.Scan.SkipDirs)
	assert.Equal(t, "docs", cfg.Output.Dir)
	assert.Equal(t, 10*time.Second, cfg.Scrape.Timeout)
	assert.True(t, cfg.Scrape.RespectRobots)
	assert.Equal(t, DefaultUserAgent, cfg.Scrape.UserAgent)
	assert.Empty(t, cfg.Graph.URI)
	assert.Empty(t, cfg.Tracing.Endpoint)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aspiredoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan:
  project_dir: samples/shop
  extensions: [".cs"]
patterns:
  lookahead_window: 1024
output:
  dir: out
scrape:
  urls: ["https://learn.microsoft.com/dotnet/aspire"]
  timeout: 30s
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "samples/shop", cfg.Scan.ProjectDir)
	assert.Equal(t, []string{".cs"}, cfg.Scan.Extensions)
	assert.Equal(t, DefaultSkipDirs, cfg.Scan.SkipDirs, "unset keys keep defaults")
	assert.Equal(t, 1024, cfg.Patterns.LookaheadWindow)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, []string{"https://learn.microsoft.com/dotnet/aspire"}, cfg.Scrape.URLs)
	assert.Equal(t, 30*time.Second, cfg.Scrape.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "reading config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ASPIREDOC_OUTPUT_DIR", "env-docs")
	t.Setenv("ASPIREDOC_GRAPH_URI", "bolt://localhost:7687")
	t.Setenv("ASPIREDOC_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-docs", cfg.Output.Dir)
	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"empty project dir", func(c *Config) { c.Scan.ProjectDir = "" }, "project_dir"},
		{"no extensions", func(c *Config) { c.Scan.Extensions = nil }, "extensions is empty"},
		{"extension without dot", func(c *Config) { c.Scan.Extensions = []string{"cs"} }, "does not start with a dot"},
		{"negative window", func(c *Config) { c.Patterns.LookaheadWindow = -5 }, "lookahead_window"},
		{"zero timeout", func(c *Config) {
			c.Scrape.URLs = []string{"https://example.com"}
			c.Scrape.Timeout = 0
		}, "scrape.timeout"},
		{"non http url", func(c *Config) { c.Scrape.URLs = []string{"ftp://example.com"} }, "not http(s)"},
		{"graph without password", func(c *Config) { c.Graph.URI = "bolt://db:7687" }, "password is empty"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.True(t, hasWarning(cfg.Validate(), tt.want), "warnings: %v", cfg.Validate())
		})
	}
}

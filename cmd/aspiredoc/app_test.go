package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/aspiredoc/internal/config"
	"github.com/efebarandurmaz/aspiredoc/internal/graph"
)

func TestGlobalFlagsApply(t *testing.T) {
	cfg := config.Default()
	cfg.Scrape.URLs = []string{"https://a.example"}

	globalFlags{projectDir: "app", outputDir: "out", patterns: "p.yaml", logLevel: "debug"}.
		apply(cfg, []string{"https://b.example"})

	assert.Equal(t, "app", cfg.Scan.ProjectDir)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "p.yaml", cfg.Patterns.File)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Scrape.URLs)
}

func TestGlobalFlagsApply_EmptyKeepsConfig(t *testing.T) {
	cfg := config.Default()
	want := *cfg
	globalFlags{}.apply(cfg, nil)
	assert.Equal(t, want, *cfg)
}

// shopFlags writes a one-file Aspire solution and returns flags pointing at it.
func shopFlags(t *testing.T) globalFlags {
	t.Helper()
	dir := t.TempDir()
	host := filepath.Join(dir, "Shop.AppHost")
	require.NoError(t, os.MkdirAll(host, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(host, "Program.cs"), []byte(`var builder = DistributedApplication.CreateBuilder(args);
var cache = builder.AddRedis("cache");
builder.AddProject<Projects.Shop_Api>("api");
builder.AddProject<Projects.Shop_Web>("web").WithReference(cache);
`), 0o644))

	return globalFlags{
		configPath: filepath.Join(dir, "missing.yaml"),
		projectDir: dir,
		outputDir:  filepath.Join(dir, "docs"),
		logLevel:   "error",
	}
}

func TestRenderDiagram(t *testing.T) {
	flags := shopFlags(t)
	ctx := context.Background()

	tests := []struct {
		kind, format string
		want         string
		wantErr      bool
	}{
		{kind: "architecture", format: "mermaid", want: "web -->|uses| cache"},
		{kind: "events", format: "mermaid", want: "web->>+cache: health check"},
		{kind: "architecture", format: "dot", want: `"web" -> "cache" [style=solid label="uses"];`},
		{kind: "pipeline", format: "mermaid", want: "flowchart LR"},
		{kind: "events", format: "dot", wantErr: true},
		{kind: "architecture", format: "svg", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.format, func(t *testing.T) {
			out, err := renderDiagram(ctx, flags, tt.kind, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.Contains(out, tt.want), out)
		})
	}
}

func TestListDependents(t *testing.T) {
	ctx := context.Background()
	a, err := setup(ctx, shopFlags(t), nil, io.Discard)
	require.NoError(t, err)
	defer a.close(ctx)

	m, _, err := a.pipeline.Scan(ctx)
	require.NoError(t, err)
	require.Equal(t, "Shop.AppHost", m.Orchestrator)
	repo := graph.NewMemory()
	require.NoError(t, repo.StoreModel(ctx, m))

	tests := []struct {
		name         string
		orchestrator string
		target       string
		want         string
		wantErr      error
	}{
		{name: "key from scan", target: "cache", want: "web\n"},
		{name: "explicit key", orchestrator: "Shop.AppHost", target: "cache", want: "web\n"},
		{name: "no dependents", target: "api", want: ""},
		{name: "unknown key", orchestrator: "AppHost", target: "cache", wantErr: graph.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := listDependents(ctx, &out, repo, a.pipeline, tt.orchestrator, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorContains(t, err, `"AppHost"`)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

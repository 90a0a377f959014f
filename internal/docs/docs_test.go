package docs

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/aspiredoc/internal/diagram"
	"github.com/efebarandurmaz/aspiredoc/internal/model"
	"github.com/efebarandurmaz/aspiredoc/internal/webscrape"
)

var at = time.Date(2026, 3, 14, 9, 5, 7, 0, time.UTC)

func shop() *model.Model {
	m := model.New()
	m.Orchestrator = "Shop.AppHost"
	m.Services = []model.Service{{Class: "Shop_ApiService", Name: "apiservice"}, {Class: "Shop_Web", Name: "webfrontend"}}
	m.Resources = []model.Resource{
		{Kind: "AddRedis", Name: "cache"},
		{Kind: "AddSqlServer", Name: "sql"},
		{Kind: "AddDatabase", Name: "productsDb"},
	}
	m.Dependencies = []model.Dependency{
		{From: "apiservice", To: "productsDb"},
		{From: "webfrontend", To: "cache"},
		{From: "webfrontend", To: "apiservice"},
		{From: "webfrontend", To: "cache"},
		{From: "webfrontend", To: "legacy"},
	}
	m.Endpoints = []model.Endpoint{{Method: model.MethodGet, Path: "/products/{id}", File: "Shop.ApiService/Program.cs"}}
	return m
}

func compose(t *testing.T, in Input) string {
	t.Helper()
	out, err := Compose(in)
	require.NoError(t, err)
	return out
}

func TestCompose_Sections(t *testing.T) {
	m := shop()
	out := compose(t, Input{Model: m, RunID: "run-42", FileCount: 12, ScannedAt: at, GeneratedAt: at})

	for _, heading := range []string{
		"## Overview",
		"## Documentation Pipeline",
		"## Architecture",
		"## Event Flow (Startup Sequence)",
		"## Services",
		"## Resources",
		"## Dependencies",
		"## API Endpoints",
		"## Scraping Summary",
		"## Technology Stack",
	} {
		assert.Contains(t, out, "\n"+heading+"\n", heading)
	}
	assert.True(t, strings.HasPrefix(out, "# Solution Overview\n"))
	assert.NotContains(t, out, "## Scraped Sources")

	assert.Contains(t, out, diagram.Architecture(m))
	assert.Contains(t, out, diagram.EventFlow(m))
	assert.Contains(t, out, diagram.Pipeline())
	assert.Contains(t, out, "orchestrated by `Shop.AppHost`")
	assert.Contains(t, out, "*Generated automatically by `aspiredoc` on 20260314-090507*\n")
}

func TestCompose_Tables(t *testing.T) {
	out := compose(t, Input{Model: shop(), RunID: "run-42", FileCount: 12, ScannedAt: at, GeneratedAt: at})

	assert.Contains(t, out, "| `apiservice` | `Shop_ApiService` | .NET Aspire project |\n| `webfrontend` | `Shop_Web` | .NET Aspire project |\n\n## Resources")
	assert.Contains(t, out, "| `cache` | `Redis` | External container |")
	assert.Contains(t, out, "| `productsDb` | `Database` | External container |")
	assert.Contains(t, out, "| `webfrontend` | `apiservice` | yes |")
	assert.Contains(t, out, "| `webfrontend` | `legacy` | no |")
	assert.Equal(t, 1, strings.Count(out, "| `webfrontend` | `cache` |"))
	assert.Contains(t, out, "| `GET` | `/products/{id}` | `Shop.ApiService/Program.cs` |")

	assert.Contains(t, out, "| Run ID | `run-42` |")
	assert.Contains(t, out, "| Files scanned | 12 |")
	assert.Contains(t, out, "| Timestamp | 2026-03-14T09:05:07Z |")
	assert.Contains(t, out, "| Services detected | 2 |")
	assert.Contains(t, out, "| Resources detected | 3 |")
	assert.Contains(t, out, "| Dependencies detected | 4 |")
	assert.Contains(t, out, "| Endpoints detected | 1 |")
}

func TestCompose_UsesPrerenderedDiagrams(t *testing.T) {
	m := shop()
	d := Render(m)
	assert.Equal(t, diagram.Architecture(m), d.Architecture)
	assert.Equal(t, diagram.EventFlow(m), d.EventFlow)
	assert.Equal(t, diagram.Pipeline(), d.Pipeline)

	in := Input{Model: m, RunID: "run-42", ScannedAt: at, GeneratedAt: at}
	assert.Equal(t, compose(t, in), compose(t, Input{Model: m, RunID: "run-42", ScannedAt: at, GeneratedAt: at, Diagrams: d}))

	out := compose(t, Input{Model: m, ScannedAt: at, GeneratedAt: at, Diagrams: &Diagrams{Architecture: "ARCH", EventFlow: "EVENTS", Pipeline: "PIPE"}})
	assert.Contains(t, out, "ARCH")
	assert.Contains(t, out, "EVENTS")
	assert.NotContains(t, out, "graph TB")
}

func TestCompose_EmptyModelUsesPlaceholders(t *testing.T) {
	out := compose(t, Input{Model: model.New(), ScannedAt: at, GeneratedAt: at})

	assert.Equal(t, 4, strings.Count(out, "| — | — | — |\n"))
	assert.Contains(t, out, "orchestrated by `AppHost`")
	assert.Contains(t, out, "| Services detected | 0 |")
}

func TestCompose_NilModel(t *testing.T) {
	out := compose(t, Input{ScannedAt: at, GeneratedAt: at})
	assert.Contains(t, out, "## Services")
}

func TestCompose_ScrapedSources(t *testing.T) {
	out := compose(t, Input{
		Model:       shop(),
		ScannedAt:   at,
		GeneratedAt: at,
		Pages: []webscrape.Result{
			{URL: "https://example.com/docs", Title: "Docs | Example", Text: "hello"},
			{URL: "https://example.com/private", Error: "disallowed by robots.txt"},
		},
	})

	assert.Contains(t, out, "| URLs scraped | 2 |\n\n## Scraped Sources\n")
	assert.Contains(t, out, `| https://example.com/docs | Docs \| Example | ✅ 5 chars |`)
	assert.Contains(t, out, "| https://example.com/private | — | ❌ disallowed by robots.txt |")
	assert.Contains(t, out, "|\n\n## Technology Stack")
}

func TestTechStack(t *testing.T) {
	got := TechStack(shop())
	names := make([]string, 0, len(got))
	for _, tech := range got {
		names = append(names, tech.Name)
	}
	assert.Equal(t, []string{".NET Aspire", "Redis", "SQL Server", "ASP.NET Core Minimal API", "Mermaid"}, names)

	m := model.New()
	m.Resources = []model.Resource{{Kind: "AddAzureServiceBus", Name: "bus"}, {Kind: "AddAzureStorage", Name: "blobs"}}
	got = TechStack(m)
	require.Len(t, got, 3)
	assert.Equal(t, "Azure", got[1].Name)
}

func TestKindLabelAndCell(t *testing.T) {
	assert.Equal(t, "Redis", KindLabel("AddRedis"))
	assert.Equal(t, "Custom", KindLabel("Custom"))
	assert.Equal(t, `a \| b c`, cell("a | b\n c"))
}

package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
)

func sampleModel() *model.Model {
	m := model.New()
	m.Orchestrator = "Shop.AppHost"
	m.Services = []model.Service{{Class: "Api", Name: "api"}}
	m.Resources = []model.Resource{{Kind: "AddRedis", Name: "cache"}}
	m.Dependencies = []model.Dependency{{From: "api", To: "cache"}, {From: "api", To: "cache"}, {From: "api", To: "ghost"}}
	return m
}

func TestPipelineMetrics_Collect(t *testing.T) {
	m := New("run-1")
	m.CollectSource("src", 3, 2048)
	m.CollectModel("aspire", sampleModel())
	m.AddStage("load", 5*time.Millisecond, 0)
	m.AddStage("graph_store", time.Millisecond, 1)
	m.Warn("duplicate name cache")
	m.Finish(nil)

	assert.Equal(t, "Shop.AppHost", m.Model.Orchestrator)
	assert.Equal(t, 3, m.Model.Dependencies)
	assert.Equal(t, 2, m.Model.UniqueEdges)
	assert.Equal(t, 1, m.Model.Unresolved)
	assert.Len(t, m.Stages, 2)
	assert.False(t, m.FinishedAt.Before(m.StartedAt))
}

func TestPipelineMetrics_JSON(t *testing.T) {
	m := New("run-1")
	m.CollectModel("aspire", sampleModel())

	data, err := m.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])

	md := decoded["model"].(map[string]any)
	assert.Equal(t, "aspire", md["framework"])
	assert.Equal(t, float64(1), md["services"], "stats are flattened into the model block")
}

func TestPrintSummary(t *testing.T) {
	m := New("0f8fad5b-d9cb-469f-a165-70867728950e")
	m.CollectSource("src", 3, 2048)
	m.CollectModel("aspire", sampleModel())
	m.Scrape = ScrapeMetrics{URLs: 2, Failed: 1}
	m.Output = OutputMetrics{Dir: "docs", Document: "SolutionOverview-20260314-090507.md", DocumentBytes: 10}
	m.AddStage("graph_store", time.Millisecond, 1)
	m.Warn("graph store unavailable")
	m.Finish([]string{"boom"})

	var buf bytes.Buffer
	m.PrintSummary(&buf)
	out := buf.String()

	assert.Contains(t, out, "ASPIREDOC PIPELINE REPORT")
	assert.Contains(t, out, "Run:         0f8fad5b-d9cb-469f-a165║")
	assert.Contains(t, out, "Total Size:  2.0 KB")
	assert.Contains(t, out, "Dependencies: 3 (2 unique, 1 unresolved)")
	assert.Contains(t, out, "URLs:        2 (1 failed)")
	assert.Contains(t, out, "1 errors")
	assert.Contains(t, out, "• graph store unavailable")
	assert.Contains(t, out, "• boom")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
}

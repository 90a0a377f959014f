package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
)

// PipelineMetrics collects statistics for a full pipeline run.
type PipelineMetrics struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Duration   time.Duration  `json:"duration_ms,omitempty"`
	Source     SourceMetrics  `json:"source"`
	Model      ModelMetrics   `json:"model"`
	Scrape     ScrapeMetrics  `json:"scrape"`
	Output     OutputMetrics  `json:"output"`
	Stages     []StageMetrics `json:"stages"`
	Warnings   []string       `json:"warnings,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
}

type SourceMetrics struct {
	ProjectDir string `json:"project_dir"`
	FileCount  int    `json:"file_count"`
	TotalBytes int    `json:"total_bytes"`
}

type ModelMetrics struct {
	Framework    string `json:"framework"`
	Orchestrator string `json:"orchestrator"`
	model.Stats
}

type ScrapeMetrics struct {
	URLs   int `json:"urls"`
	Failed int `json:"failed"`
}

type OutputMetrics struct {
	Dir           string `json:"dir"`
	Document      string `json:"document"`
	DocumentBytes int    `json:"document_bytes"`
	ScrapeResults string `json:"scrape_results"`
	GraphStored   bool   `json:"graph_stored"`
}

type StageMetrics struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
	Errors   int           `json:"errors"`
}

// New starts tracking a pipeline run.
func New(runID string) *PipelineMetrics {
	return &PipelineMetrics{RunID: runID, StartedAt: time.Now()}
}

// CollectSource records corpus size.
func (m *PipelineMetrics) CollectSource(projectDir string, fileCount, totalBytes int) {
	m.Source.ProjectDir = projectDir
	m.Source.FileCount = fileCount
	m.Source.TotalBytes = totalBytes
}

// CollectModel records the extracted model's counts.
func (m *PipelineMetrics) CollectModel(framework string, md *model.Model) {
	m.Model.Framework = framework
	m.Model.Orchestrator = md.Orchestrator
	m.Model.Stats = md.Stats()
}

// AddStage records a single stage's timing and status.
func (m *PipelineMetrics) AddStage(name string, d time.Duration, errCount int) {
	m.Stages = append(m.Stages, StageMetrics{
		Name:     name,
		Duration: d,
		Errors:   errCount,
	})
}

// Warn records a non-fatal problem.
func (m *PipelineMetrics) Warn(msg string) {
	m.Warnings = append(m.Warnings, msg)
}

// Finish marks the pipeline as complete.
func (m *PipelineMetrics) Finish(errs []string) {
	m.FinishedAt = time.Now()
	m.Duration = m.FinishedAt.Sub(m.StartedAt)
	m.Errors = errs
}

// PrintSummary writes a human-readable summary.
func (m *PipelineMetrics) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║      ASPIREDOC PIPELINE REPORT       ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Run:         %-23s║\n", shorten(m.RunID, 23))
	fmt.Fprintf(w, "║ Duration:    %-23s║\n", m.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ SOURCE (%s)\n", m.Source.ProjectDir)
	fmt.Fprintf(w, "║   Files:       %d\n", m.Source.FileCount)
	fmt.Fprintf(w, "║   Total Size:  %s\n", formatBytes(m.Source.TotalBytes))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ MODEL (%s)\n", m.Model.Framework)
	fmt.Fprintf(w, "║   Orchestrator: %s\n", m.Model.Orchestrator)
	fmt.Fprintf(w, "║   Services:     %d\n", m.Model.Services)
	fmt.Fprintf(w, "║   Resources:    %d\n", m.Model.Resources)
	fmt.Fprintf(w, "║   Dependencies: %d (%d unique, %d unresolved)\n", m.Model.Dependencies, m.Model.UniqueEdges, m.Model.Unresolved)
	fmt.Fprintf(w, "║   Endpoints:    %d\n", m.Model.Endpoints)
	if m.Scrape.URLs > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ SCRAPE\n")
		fmt.Fprintf(w, "║   URLs:        %d (%d failed)\n", m.Scrape.URLs, m.Scrape.Failed)
	}
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ OUTPUT (%s)\n", m.Output.Dir)
	fmt.Fprintf(w, "║   Document:    %s (%s)\n", m.Output.Document, formatBytes(m.Output.DocumentBytes))
	fmt.Fprintf(w, "║   Raw record:  %s\n", m.Output.ScrapeResults)
	if m.Output.GraphStored {
		fmt.Fprintf(w, "║   Graph:       stored\n")
	}
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ STAGES\n")
	for _, s := range m.Stages {
		status := "OK"
		if s.Errors > 0 {
			status = fmt.Sprintf("%d errors", s.Errors)
		}
		fmt.Fprintf(w, "║   %-14s %8s  %s\n", s.Name, s.Duration.Round(time.Millisecond), status)
	}
	if len(m.Warnings) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ WARNINGS\n")
		for _, e := range m.Warnings {
			fmt.Fprintf(w, "║   • %s\n", e)
		}
	}
	if len(m.Errors) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ERRORS\n")
		for _, e := range m.Errors {
			fmt.Fprintf(w, "║   • %s\n", e)
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the metrics as formatted JSON.
func (m *PipelineMetrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatBytes(b int) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// Package output persists run artefacts under the output directory.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
	"github.com/efebarandurmaz/aspiredoc/internal/webscrape"
)

const (
	// ScrapeResultsFile is the name of the raw scrape record.
	ScrapeResultsFile = "scrape-results.json"
	// MetricsFile holds the JSON report of the latest run.
	MetricsFile = "metrics.json"
	// RecordProjectScan tags the project scan entry in the scrape record.
	RecordProjectScan = "project_scan"

	documentLayout = "20060102-150405"
)

// ProjectScan is the first entry of the scrape record.
type ProjectScan struct {
	Type      string       `json:"type"`
	RunID     string       `json:"run_id"`
	FileCount int          `json:"file_count"`
	Timestamp time.Time    `json:"timestamp"`
	Metadata  *model.Model `json:"metadata"`
}

// NewProjectScan builds the project scan entry.
func NewProjectScan(runID string, fileCount int, ts time.Time, m *model.Model) ProjectScan {
	return ProjectScan{
		Type:      RecordProjectScan,
		RunID:     runID,
		FileCount: fileCount,
		Timestamp: ts,
		Metadata:  m,
	}
}

// Store writes artefacts into a single directory, creating it on first use.
type Store struct {
	dir    string
	logger *zap.Logger
}

func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// SaveScrapeResults writes the project scan followed by one entry per page
// as an indented JSON array and returns the file path.
func (s *Store) SaveScrapeResults(scan ProjectScan, pages []webscrape.Result) (string, error) {
	records := make([]any, 0, 1+len(pages))
	records = append(records, scan)
	for _, p := range pages {
		records = append(records, p)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding scrape results: %w", err)
	}
	path, err := s.write(ScrapeResultsFile, append(data, '\n'))
	if err != nil {
		return "", err
	}
	s.logger.Info("saved scrape results", zap.String("path", path), zap.Int("records", len(records)))
	return path, nil
}

// WriteDocument writes the overview under its timestamped name.
func (s *Store) WriteDocument(ts time.Time, content string) (string, error) {
	path, err := s.write(DocumentName(ts), []byte(content))
	if err != nil {
		return "", err
	}
	s.logger.Info("saved documentation", zap.String("path", path))
	return path, nil
}

// WriteFile writes an arbitrary artefact, such as the metrics report.
func (s *Store) WriteFile(name string, data []byte) (string, error) {
	return s.write(name, data)
}

func (s *Store) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}

// DocumentName returns SolutionOverview-<YYYYMMDD-HHMMSS>.md for ts.
func DocumentName(ts time.Time) string {
	return "SolutionOverview-" + Stamp(ts) + ".md"
}

// Stamp formats ts as YYYYMMDD-HHMMSS.
func Stamp(ts time.Time) string {
	return ts.Format(documentLayout)
}

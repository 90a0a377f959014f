package pipeline

import (
	"fmt"
	"os"

	"github.com/efebarandurmaz/aspiredoc/internal/config"
	"github.com/efebarandurmaz/aspiredoc/internal/plugins"
	"github.com/efebarandurmaz/aspiredoc/internal/plugins/source/aspire"
)

// DefaultFramework is the extractor used when none is named.
const DefaultFramework = "aspire"

// PatternConfig resolves the pattern table: the YAML file when one is
// configured, then the scalar overrides from cfg.
func PatternConfig(cfg config.PatternsConfig) (*aspire.PatternConfig, error) {
	pc := aspire.DefaultPatternConfig()
	if cfg.File != "" {
		f, err := os.Open(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("opening pattern table: %w", err)
		}
		defer f.Close()
		if pc, err = aspire.LoadPatternConfig(f); err != nil {
			return nil, fmt.Errorf("loading pattern table %s: %w", cfg.File, err)
		}
	}
	if cfg.EntryFile != "" {
		pc.EntryFile = cfg.EntryFile
	}
	if cfg.OrchestratorMarker != "" {
		pc.OrchestratorMarker = cfg.OrchestratorMarker
	}
	if cfg.LookaheadWindow > 0 {
		pc.LookaheadWindow = cfg.LookaheadWindow
	}
	return pc, nil
}

// NewRegistry returns a registry holding every built-in extractor, configured
// from cfg.
func NewRegistry(cfg config.PatternsConfig) (*plugins.Registry, error) {
	pc, err := PatternConfig(cfg)
	if err != nil {
		return nil, err
	}
	pt, err := pc.Compile()
	if err != nil {
		return nil, err
	}

	registry := plugins.NewRegistry()
	registry.Register(aspire.NewWithPatterns(pt))
	return registry, nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Scan     ScanConfig     `mapstructure:"scan"`
	Patterns PatternsConfig `mapstructure:"patterns"`
	Output   OutputConfig   `mapstructure:"output"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Log      LogConfig      `mapstructure:"log"`
}

// ScanConfig controls which files of the project tree are loaded.
type ScanConfig struct {
	ProjectDir string   `mapstructure:"project_dir"`
	Extensions []string `mapstructure:"extensions"`
	SkipDirs   []string `mapstructure:"skip_dirs"`
}

// PatternsConfig points at an optional YAML pattern table. The scalar fields
// override the table when set.
type PatternsConfig struct {
	File               string `mapstructure:"file"`
	EntryFile          string `mapstructure:"entry_file"`
	OrchestratorMarker string `mapstructure:"orchestrator_marker"`
	LookaheadWindow    int    `mapstructure:"lookahead_window"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type ScrapeConfig struct {
	URLs            []string      `mapstructure:"urls"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RespectRobots   bool          `mapstructure:"respect_robots"`
	RobotsCacheSize int           `mapstructure:"robots_cache_size"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// GraphConfig enables persisting the model to Neo4j. Empty URI disables it.
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// TracingConfig enables OTLP span export. Empty endpoint disables it.
type TracingConfig struct {
	Endpoint   string  `mapstructure:"endpoint"`
	Insecure   bool    `mapstructure:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultExtensions are the file types read by the loader.
var DefaultExtensions = []string{".cs", ".py", ".json", ".md", ".yaml", ".yml", ".csproj", ".sln"}

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{"bin", "obj", "node_modules", ".git", ".vs", ".vscode", "__pycache__"}

// DefaultUserAgent identifies the scraper to remote hosts.
const DefaultUserAgent = "AspireDocBot/1.0 (+https://github.com/efebarandurmaz/aspiredoc)"

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.project_dir", "src")
	v.SetDefault("scan.extensions", DefaultExtensions)
	v.SetDefault("scan.skip_dirs", DefaultSkipDirs)
	v.SetDefault("patterns.file", "")
	v.SetDefault("patterns.entry_file", "")
	v.SetDefault("patterns.orchestrator_marker", "")
	v.SetDefault("patterns.lookahead_window", 0)
	v.SetDefault("output.dir", "docs")
	v.SetDefault("scrape.urls", []string{})
	v.SetDefault("scrape.user_agent", DefaultUserAgent)
	v.SetDefault("scrape.timeout", 10*time.Second)
	v.SetDefault("scrape.respect_robots", true)
	v.SetDefault("scrape.robots_cache_size", 64)
	v.SetDefault("scrape.max_body_bytes", int64(5<<20))
	v.SetDefault("graph.uri", "")
	v.SetDefault("graph.username", "neo4j")
	v.SetDefault("graph.password", "")
	v.SetDefault("graph.database", "")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, err := load(viper.New(), "")
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Scan.ProjectDir == "" {
		warnings = append(warnings, "scan.project_dir is empty, the current directory will be scanned")
	}
	if len(c.Scan.Extensions) == 0 {
		warnings = append(warnings, "scan.extensions is empty, no files will be loaded")
	}
	for _, ext := range c.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") {
			warnings = append(warnings, fmt.Sprintf("scan extension %q does not start with a dot and will never match", ext))
		}
	}

	if c.Patterns.LookaheadWindow < 0 {
		warnings = append(warnings, fmt.Sprintf("patterns.lookahead_window %d is negative", c.Patterns.LookaheadWindow))
	}

	if len(c.Scrape.URLs) > 0 && c.Scrape.Timeout <= 0 {
		warnings = append(warnings, "scrape.timeout must be positive when urls are configured")
	}
	for _, u := range c.Scrape.URLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			warnings = append(warnings, fmt.Sprintf("scrape url %q is not http(s)", u))
		}
	}

	if c.Graph.URI != "" && c.Graph.Password == "" {
		warnings = append(warnings, fmt.Sprintf("graph uri '%s' is configured but password is empty", c.Graph.URI))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	return warnings
}

// Load reads configuration from file and environment. A path that does not
// exist falls back to defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg, err := load(viper.New(), path)
	if err != nil {
		return nil, err
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}
	return cfg, nil
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("ASPIREDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

package aspire

import (
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLookaheadWindow is how many bytes after a `var x =` assignment are
// searched for a child-resource declaration. A declaration further away than
// this is not associated with the variable.
const DefaultLookaheadWindow = 300

// PatternConfig is the declarative pattern table. Regular expressions use
// named groups; the names each entry must define are listed next to it.
type PatternConfig struct {
	CommentPrefix      string `yaml:"comment_prefix"`
	OrchestratorMarker string `yaml:"orchestrator_marker"`
	EntryFile          string `yaml:"entry_file"`

	// Service declarations: groups class, name.
	ServiceDecl string `yaml:"service_decl"`
	// Closed enumeration of resource verbs, without the Add prefix.
	ResourceVerbs []string `yaml:"resource_verbs"`
	// Verbs declaring a resource nested under another one (databases on a
	// server). Only discovered through the lookahead window.
	ChildResourceVerbs []string `yaml:"child_resource_verbs"`

	// Variable assignment: group var. The lookahead window after it is
	// cut at the first top-level StatementTerminator; empty disables the cut.
	VarAssign           string `yaml:"var_assign"`
	LookaheadWindow     int    `yaml:"lookahead_window"`
	StatementTerminator string `yaml:"statement_terminator"`

	// Start of a service configuration chain: group name. The chain runs
	// until ChainEnd or end of text.
	ChainStart      string   `yaml:"chain_start"`
	ChainEnd        string   `yaml:"chain_end"`
	DependencyVerbs []string `yaml:"dependency_verbs"`

	RouteVerbs []string `yaml:"route_verbs"`
}

// DefaultPatternConfig returns the table for .NET Aspire AppHost projects.
func DefaultPatternConfig() *PatternConfig {
	return &PatternConfig{
		CommentPrefix:      "//",
		OrchestratorMarker: "AppHost",
		EntryFile:          "Program.cs",
		ServiceDecl:        `AddProject<Projects\.(?P<class>\w+)>\("(?P<name>\w+)"`,
		ResourceVerbs: []string{
			"Redis", "SqlServer", "RabbitMQ", "Postgres", "MongoDB",
			"Kafka", `Azure\w*`, "Nats", "MySql", "Oracle",
		},
		ChildResourceVerbs:  []string{"AddDatabase"},
		VarAssign:           `var\s+(?P<var>\w+)\s*=`,
		LookaheadWindow:     DefaultLookaheadWindow,
		StatementTerminator: ";",
		ChainStart:          `builder\.AddProject<Projects\.\w+>\("(?P<name>\w+)"`,
		ChainEnd:            `builder\.`,
		DependencyVerbs:     []string{"WithReference"},
		RouteVerbs:          []string{"MapGet", "MapPost", "MapPut", "MapDelete"},
	}
}

// LoadPatternConfig reads a YAML pattern table. Keys missing from the document
// keep their default values.
func LoadPatternConfig(r io.Reader) (*PatternConfig, error) {
	cfg := DefaultPatternConfig()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding pattern table: %w", err)
	}
	return cfg, nil
}

// YAML renders the table as a YAML document.
func (c *PatternConfig) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Patterns is a compiled pattern table.
type Patterns struct {
	commentPrefix string
	marker        string
	entryFile     string
	window        int
	terminator    string

	service         *regexp.Regexp
	resource        *regexp.Regexp
	serviceBinding  *regexp.Regexp
	resourceBinding *regexp.Regexp
	varAssign       *regexp.Regexp
	childResource   *regexp.Regexp
	chainStart      *regexp.Regexp
	chainEnd        *regexp.Regexp
	dependency      *regexp.Regexp
	route           *regexp.Regexp
}

type patternSpec struct {
	field  string
	dst    **regexp.Regexp
	src    string
	groups []string
}

// Compile validates the table and compiles every expression.
func (c *PatternConfig) Compile() (*Patterns, error) {
	if c.EntryFile == "" {
		return nil, fmt.Errorf("pattern table: entry_file is required")
	}
	if c.OrchestratorMarker == "" {
		return nil, fmt.Errorf("pattern table: orchestrator_marker is required")
	}
	if c.LookaheadWindow < 0 {
		return nil, fmt.Errorf("pattern table: lookahead_window %d is negative", c.LookaheadWindow)
	}
	if len(c.ResourceVerbs) == 0 {
		return nil, fmt.Errorf("pattern table: resource_verbs is empty")
	}

	p := &Patterns{
		commentPrefix: c.CommentPrefix,
		marker:        c.OrchestratorMarker,
		entryFile:     c.EntryFile,
		window:        c.LookaheadWindow,
		terminator:    c.StatementTerminator,
	}

	resourceDecl := `\.(?P<kind>Add(?:` + strings.Join(c.ResourceVerbs, "|") + `))\("(?P<name>\w+)"`

	specs := []patternSpec{
		{"service_decl", &p.service, c.ServiceDecl, []string{"class", "name"}},
		{"resource_verbs", &p.resource, resourceDecl, []string{"kind", "name"}},
		{"service binding", &p.serviceBinding, c.VarAssign + `.*?` + c.ServiceDecl, []string{"var", "name"}},
		{"resource binding", &p.resourceBinding, c.VarAssign + `.*?` + resourceDecl, []string{"var", "name"}},
		{"var_assign", &p.varAssign, c.VarAssign, []string{"var"}},
		{"chain_start", &p.chainStart, c.ChainStart, []string{"name"}},
		{"chain_end", &p.chainEnd, c.ChainEnd, nil},
	}
	if len(c.ChildResourceVerbs) > 0 {
		specs = append(specs, patternSpec{"child_resource_verbs", &p.childResource, `\.(?P<kind>` + strings.Join(c.ChildResourceVerbs, "|") + `)\("(?P<name>\w+)"`, []string{"kind", "name"}})
	}
	if len(c.DependencyVerbs) > 0 {
		specs = append(specs, patternSpec{"dependency_verbs", &p.dependency, `\.(?:` + strings.Join(c.DependencyVerbs, "|") + `)\((?P<var>\w+)\)`, []string{"var"}})
	}
	if len(c.RouteVerbs) > 0 {
		specs = append(specs, patternSpec{"route_verbs", &p.route, `\.(?P<verb>` + strings.Join(c.RouteVerbs, "|") + `)\("(?P<path>[^"]+)"`, []string{"verb", "path"}})
	}

	for _, s := range specs {
		if s.src == "" {
			return nil, fmt.Errorf("pattern table: %s is required", s.field)
		}
		re, err := regexp.Compile(s.src)
		if err != nil {
			return nil, fmt.Errorf("compiling %s pattern: %w", s.field, err)
		}
		for _, g := range s.groups {
			if re.SubexpIndex(g) < 0 {
				return nil, fmt.Errorf("pattern table: %s must define group %q", s.field, g)
			}
		}
		*s.dst = re
	}
	return p, nil
}

// DefaultPatterns compiles DefaultPatternConfig. The defaults are known to
// compile, so a failure here is a programming error.
func DefaultPatterns() *Patterns {
	p, err := DefaultPatternConfig().Compile()
	if err != nil {
		panic(err)
	}
	return p
}

// IsOrchestrator reports whether a corpus path is an orchestrator entry file.
func (p *Patterns) IsOrchestrator(file string) bool {
	file = slashPath(file)
	return path.Base(file) == p.entryFile && strings.Contains(file, p.marker)
}

// IsServiceEntry reports whether a corpus path is a service's own entry file.
func (p *Patterns) IsServiceEntry(file string) bool {
	file = slashPath(file)
	return path.Base(file) == p.entryFile && !strings.Contains(file, p.marker)
}

// activeText drops comment-only lines so commented-out declarations never match.
func (p *Patterns) activeText(content string) string {
	if p.commentPrefix == "" {
		return content
	}
	lines := strings.Split(content, "\n")
	active := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t\r"), p.commentPrefix) {
			continue
		}
		active = append(active, line)
	}
	return strings.Join(active, "\n")
}

// lookahead returns the bounded text window starting at offset, cut after
// the first statement terminator when one is configured. Terminators inside
// string literals or brackets do not end the statement.
func (p *Patterns) lookahead(text string, offset int) string {
	end := offset + p.window
	if end > len(text) {
		end = len(text)
	}
	snippet := text[offset:end]
	if p.terminator != "" {
		if i := statementEnd(snippet, p.terminator); i >= 0 {
			snippet = snippet[:i+len(p.terminator)]
		}
	}
	return snippet
}

// statementEnd returns the index of the first top-level terminator in s, or -1.
func statementEnd(s, terminator string) int {
	var quote byte
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
			continue
		case '(', '[', '{':
			depth++
			continue
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth == 0 && strings.HasPrefix(s[i:], terminator) {
			return i
		}
	}
	return -1
}

// slashPath normalises separators so Windows-style corpus paths match too.
func slashPath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func group(re *regexp.Regexp, match []string, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || i >= len(match) {
		return ""
	}
	return match[i]
}

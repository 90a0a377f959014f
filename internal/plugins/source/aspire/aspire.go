// Package aspire recovers the structural model of a .NET Aspire solution from
// its source text. It does not parse C#: a small table of regular expressions
// (see PatternConfig) is matched against the orchestrator entry file and the
// services' own entry files, and anything that does not match is ignored.
package aspire

import (
	"path"
	"regexp"
	"strings"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
	"github.com/efebarandurmaz/aspiredoc/internal/plugins"
)

// Plugin implements plugins.Extractor for .NET Aspire.
type Plugin struct {
	patterns *Patterns
}

// New returns a plugin using the default pattern table.
func New() *Plugin { return &Plugin{patterns: DefaultPatterns()} }

// NewWithPatterns returns a plugin using a custom compiled pattern table.
func NewWithPatterns(p *Patterns) *Plugin { return &Plugin{patterns: p} }

func (p *Plugin) Framework() string { return "aspire" }

func (p *Plugin) FileExtensions() []string { return []string{".cs"} }

// Extract builds the model from a corpus. Orchestrator entry files contribute
// services, resources and dependencies; every other entry file contributes
// endpoints. Files are processed in the order given, so callers sort the
// corpus for reproducible output.
func (p *Plugin) Extract(files []plugins.SourceFile) *model.Model {
	m := model.New()
	pass := newPass(p.patterns, m)
	for _, f := range files {
		switch {
		case p.patterns.IsOrchestrator(f.Path):
			if m.Orchestrator == "" {
				m.Orchestrator = orchestratorName(f.Path, p.patterns.marker)
			}
			pass.scanOrchestrator(string(f.Content))
		case p.patterns.IsServiceEntry(f.Path):
			m.Endpoints = append(m.Endpoints, p.Endpoints(f.Path, string(f.Content))...)
		}
	}
	return m
}

// Orchestrator extracts services, resources and dependencies from the text of
// one orchestrator entry file.
func (p *Plugin) Orchestrator(content string) *model.Model {
	m := model.New()
	newPass(p.patterns, m).scanOrchestrator(content)
	return m
}

// Endpoints extracts the HTTP routes registered in a service entry file. Every
// registration yields a record, including repeats of the same method and path.
func (p *Plugin) Endpoints(file, content string) []model.Endpoint {
	re := p.patterns.route
	if re == nil {
		return nil
	}
	var out []model.Endpoint
	for _, match := range re.FindAllStringSubmatch(p.patterns.activeText(content), -1) {
		out = append(out, model.Endpoint{
			Method: routeMethod(group(re, match, "verb")),
			Path:   group(re, match, "path"),
			File:   file,
		})
	}
	return out
}

// pass holds the state of one extraction call. Seen-name sets live here and
// nowhere else, so independent extractions never share state.
type pass struct {
	pt            *Patterns
	m             *model.Model
	seenServices  map[string]bool
	seenResources map[string]bool
}

func newPass(pt *Patterns, m *model.Model) *pass {
	return &pass{
		pt:            pt,
		m:             m,
		seenServices:  make(map[string]bool),
		seenResources: make(map[string]bool),
	}
}

func (ps *pass) scanOrchestrator(content string) {
	active := ps.pt.activeText(content)

	re := ps.pt.service
	for _, match := range re.FindAllStringSubmatch(active, -1) {
		ps.addService(group(re, match, "class"), group(re, match, "name"))
	}

	re = ps.pt.resource
	for _, match := range re.FindAllStringSubmatch(active, -1) {
		ps.addResource(group(re, match, "kind"), group(re, match, "name"))
	}

	symbols := ps.bindSymbols(active)
	ps.scanChains(active, symbols)
}

func (ps *pass) addService(class, name string) {
	if ps.seenServices[name] {
		return
	}
	ps.seenServices[name] = true
	ps.m.Services = append(ps.m.Services, model.Service{Class: class, Name: name})
}

func (ps *pass) addResource(kind, name string) {
	if ps.seenResources[name] {
		return
	}
	ps.seenResources[name] = true
	ps.m.Resources = append(ps.m.Resources, model.Resource{Kind: kind, Name: name})
}

// bindSymbols maps local variable names to registered names. Single-line
// bindings come first; lookahead bindings for child resources are applied
// last and override them.
func (ps *pass) bindSymbols(active string) map[string]string {
	symbols := make(map[string]string)

	for _, re := range []*regexp.Regexp{ps.pt.serviceBinding, ps.pt.resourceBinding} {
		for _, match := range re.FindAllStringSubmatch(active, -1) {
			symbols[group(re, match, "var")] = group(re, match, "name")
		}
	}

	child := ps.pt.childResource
	if child == nil {
		return symbols
	}
	varIdx := ps.pt.varAssign.SubexpIndex("var")
	for _, loc := range ps.pt.varAssign.FindAllStringSubmatchIndex(active, -1) {
		varName := active[loc[2*varIdx]:loc[2*varIdx+1]]
		match := child.FindStringSubmatch(ps.pt.lookahead(active, loc[0]))
		if match == nil {
			continue
		}
		name := group(child, match, "name")
		symbols[varName] = name
		ps.addResource(group(child, match, "kind"), name)
	}
	return symbols
}

// scanChains emits one dependency per reference found in each service's
// configuration chain, in source order and without deduplication.
func (ps *pass) scanChains(active string, symbols map[string]string) {
	dep := ps.pt.dependency
	if dep == nil {
		return
	}
	start := ps.pt.chainStart
	for _, loc := range start.FindAllStringSubmatchIndex(active, -1) {
		nameIdx := start.SubexpIndex("name")
		from := active[loc[2*nameIdx]:loc[2*nameIdx+1]]
		if !ps.seenServices[from] {
			continue
		}

		chain := active[loc[1]:]
		if end := ps.pt.chainEnd.FindStringIndex(chain); end != nil {
			chain = chain[:end[0]]
		}

		for _, match := range dep.FindAllStringSubmatch(chain, -1) {
			ref := group(dep, match, "var")
			to, ok := symbols[ref]
			if !ok {
				to = ref
			}
			ps.m.Dependencies = append(ps.m.Dependencies, model.Dependency{From: from, To: to})
		}
	}
}

// routeMethod maps a route registration verb to its HTTP method. Verbs added
// through the pattern table fall back to their upper-cased suffix.
func routeMethod(verb string) string {
	switch verb {
	case "MapGet":
		return model.MethodGet
	case "MapPost":
		return model.MethodPost
	case "MapPut":
		return model.MethodPut
	case "MapDelete":
		return model.MethodDelete
	}
	return strings.ToUpper(strings.TrimPrefix(verb, "Map"))
}

// orchestratorName is the directory holding the entry file, which for Aspire
// is the AppHost project name.
func orchestratorName(file, marker string) string {
	dir := path.Base(path.Dir(slashPath(file)))
	if dir == "." || dir == "/" {
		return marker
	}
	return dir
}

// Package model holds the structural model recovered from an orchestrated
// application: services, external resources, startup dependencies and the
// HTTP endpoints the services register.
package model

// Model is the aggregate produced by one extraction pass and consumed by the
// diagram renderers and the document composer. It is read-only once built.
type Model struct {
	Orchestrator string       `json:"orchestrator,omitempty"`
	Services     []Service    `json:"services"`
	Resources    []Resource   `json:"resources"`
	Dependencies []Dependency `json:"dependencies"`
	Endpoints    []Endpoint   `json:"endpoints"`
}

// Service is one orchestrated application project.
type Service struct {
	Class string `json:"class"` // source-level project type
	Name  string `json:"name"`  // registered name, unique among services
}

// Resource is an externally managed dependency (datastore, broker, cloud resource).
type Resource struct {
	Kind string `json:"type"` // declaring verb, e.g. AddRedis
	Name string `json:"name"`
}

// Dependency means From requires To at startup. To is a registered name, or
// the raw variable name when the reference could not be resolved.
type Dependency struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Endpoint is an HTTP route registered by a service entry file.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	File   string `json:"file"`
}

// HTTP methods recognised on endpoints.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)

// New returns an empty model whose slices are non-nil so it serialises as
// empty arrays rather than null.
func New() *Model {
	return &Model{
		Services:     []Service{},
		Resources:    []Resource{},
		Dependencies: []Dependency{},
		Endpoints:    []Endpoint{},
	}
}

// HasService reports whether a service is registered under name.
func (m *Model) HasService(name string) bool {
	for _, s := range m.Services {
		if s.Name == name {
			return true
		}
	}
	return false
}

// HasResource reports whether a resource is registered under name.
func (m *Model) HasResource(name string) bool {
	for _, r := range m.Resources {
		if r.Name == name {
			return true
		}
	}
	return false
}

// DependenciesFrom returns the raw dependency edges whose source is name, in
// source order and including duplicates.
func (m *Model) DependenciesFrom(name string) []Dependency {
	var out []Dependency
	for _, d := range m.Dependencies {
		if d.From == name {
			out = append(out, d)
		}
	}
	return out
}

// UniqueDependencies returns the dependency edges with exact duplicates
// removed. First occurrence wins.
func (m *Model) UniqueDependencies() []Dependency {
	seen := make(map[Dependency]bool, len(m.Dependencies))
	out := make([]Dependency, 0, len(m.Dependencies))
	for _, d := range m.Dependencies {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// Collisions returns names registered both as a service and as a resource,
// in service order. Extraction does not reject these; callers decide.
func (m *Model) Collisions() []string {
	var out []string
	for _, s := range m.Services {
		if m.HasResource(s.Name) {
			out = append(out, s.Name)
		}
	}
	return out
}

// Stats summarises the model.
type Stats struct {
	Services     int `json:"services"`
	Resources    int `json:"resources"`
	Dependencies int `json:"dependencies"`
	UniqueEdges  int `json:"unique_edges"`
	Endpoints    int `json:"endpoints"`
	Unresolved   int `json:"unresolved"` // edges whose target is neither a service nor a resource
}

// Stats computes summary counts.
func (m *Model) Stats() Stats {
	st := Stats{
		Services:     len(m.Services),
		Resources:    len(m.Resources),
		Dependencies: len(m.Dependencies),
		UniqueEdges:  len(m.UniqueDependencies()),
		Endpoints:    len(m.Endpoints),
	}
	for _, d := range m.Dependencies {
		if !m.HasService(d.To) && !m.HasResource(d.To) {
			st.Unresolved++
		}
	}
	return st
}

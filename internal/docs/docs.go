// Package docs composes the Markdown solution overview from the model and
// the rendered diagrams.
package docs

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/efebarandurmaz/aspiredoc/internal/diagram"
	"github.com/efebarandurmaz/aspiredoc/internal/model"
	"github.com/efebarandurmaz/aspiredoc/internal/webscrape"
)

//go:embed overview.md.tmpl
var overviewTemplate string

var overview = template.Must(template.New("overview").Funcs(template.FuncMap{
	"orchestrator": func(m *model.Model) string {
		if m.Orchestrator == "" {
			return diagram.RootID
		}
		return m.Orchestrator
	},
	"kind":     KindLabel,
	"cell":     cell,
	"resolved": func(m *model.Model, name string) bool { return m.HasService(name) || m.HasResource(name) },
}).Parse(overviewTemplate))

// Input is everything the overview needs besides the model itself.
type Input struct {
	Model       *model.Model
	RunID       string
	FileCount   int
	ScannedAt   time.Time
	GeneratedAt time.Time
	Pages       []webscrape.Result

	// Diagrams are rendered from Model when nil.
	Diagrams *Diagrams
}

// Diagrams holds the fenced diagram blocks embedded in the overview.
type Diagrams struct {
	Pipeline     string
	Architecture string
	EventFlow    string
}

// Render renders every diagram of the overview for m.
func Render(m *model.Model) *Diagrams {
	return &Diagrams{
		Pipeline:     diagram.Pipeline(),
		Architecture: diagram.Architecture(m),
		EventFlow:    diagram.EventFlow(m),
	}
}

// Tech is one technology stack entry.
type Tech struct {
	Name string
	Role string
}

type view struct {
	Input
	Stats               model.Stats
	Dependencies        []model.Dependency
	PipelineDiagram     string
	ArchitectureDiagram string
	EventFlowDiagram    string
	TechStack           []Tech
}

// Compose renders the overview document.
func Compose(in Input) (string, error) {
	if in.Model == nil {
		in.Model = model.New()
	}
	d := in.Diagrams
	if d == nil {
		d = Render(in.Model)
	}
	v := view{
		Input:               in,
		Stats:               in.Model.Stats(),
		Dependencies:        in.Model.UniqueDependencies(),
		PipelineDiagram:     d.Pipeline,
		ArchitectureDiagram: d.Architecture,
		EventFlowDiagram:    d.EventFlow,
		TechStack:           TechStack(in.Model),
	}

	var b strings.Builder
	if err := overview.Execute(&b, v); err != nil {
		return "", fmt.Errorf("rendering overview: %w", err)
	}
	return b.String(), nil
}

// KindLabel strips the registration verb prefix: AddRedis becomes Redis.
func KindLabel(kind string) string {
	return strings.TrimPrefix(kind, "Add")
}

var knownTech = []struct {
	prefix string
	tech   Tech
}{
	{"AddRedis", Tech{"Redis", "caching"}},
	{"AddSqlServer", Tech{"SQL Server", "relational storage"}},
	{"AddPostgres", Tech{"PostgreSQL", "relational storage"}},
	{"AddMySql", Tech{"MySQL", "relational storage"}},
	{"AddOracle", Tech{"Oracle", "relational storage"}},
	{"AddMongoDB", Tech{"MongoDB", "document storage"}},
	{"AddRabbitMQ", Tech{"RabbitMQ", "messaging"}},
	{"AddKafka", Tech{"Kafka", "event streaming"}},
	{"AddNats", Tech{"NATS", "messaging"}},
	{"AddAzure", Tech{"Azure", "managed cloud resources"}},
}

// TechStack lists the technologies the model evidences, in a stable order:
// the orchestrator first, then one entry per distinct resource technology in
// order of first appearance, then the documentation tooling.
func TechStack(m *model.Model) []Tech {
	stack := []Tech{{".NET Aspire", "distributed application orchestration"}}
	seen := make(map[string]bool)

	for _, r := range m.Resources {
		t, ok := techFor(r.Kind)
		if !ok || seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		stack = append(stack, t)
	}
	if len(m.Endpoints) > 0 {
		stack = append(stack, Tech{"ASP.NET Core Minimal API", "HTTP endpoints"})
	}
	stack = append(stack, Tech{"Mermaid", "architecture and event-flow visualisation"})
	return stack
}

func techFor(kind string) (Tech, bool) {
	for _, k := range knownTech {
		if strings.HasPrefix(kind, k.prefix) {
			return k.tech, true
		}
	}
	return Tech{}, false
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

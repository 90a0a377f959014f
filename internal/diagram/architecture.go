// Package diagram renders a structural model as Mermaid and Graphviz text.
// Every renderer is a pure function of the model: identical input yields
// identical output, and the model is never modified.
package diagram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
)

// RootID is the node id of the orchestrator in every diagram.
const RootID = "AppHost"

// Fence wraps a diagram body in a mermaid code fence.
func Fence(body string) string {
	return "```mermaid\n" + body + "\n```"
}

// Architecture renders the model as a fenced Mermaid `graph TB`.
func Architecture(m *model.Model) string {
	return Fence(ArchitectureBody(m))
}

// ArchitectureBody renders the Mermaid graph without the fence.
func ArchitectureBody(m *model.Model) string {
	lines := []string{"graph TB"}
	lines = append(lines, "    %% Orchestrator")
	lines = append(lines, fmt.Sprintf("    %s[%s<br/>🎯 Orchestrator]", RootID, rootLabel(m)))
	lines = append(lines, "")

	if len(m.Services) > 0 {
		lines = append(lines, "    %% Application services")
		for _, s := range m.Services {
			lines = append(lines, fmt.Sprintf("    %s[%s<br/>🔗 %s]", s.Name, s.Class, s.Name))
		}
		lines = append(lines, "")
	}

	if len(m.Resources) > 0 {
		lines = append(lines, "    %% External resources")
		for _, r := range m.Resources {
			lines = append(lines, fmt.Sprintf("    %s[(%s<br/>💾 %s)]", r.Name, r.Name, r.Kind))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "    %% Orchestration")
	for _, s := range m.Services {
		lines = append(lines, fmt.Sprintf("    %s -.->|orchestrates| %s", RootID, s.Name))
	}
	for _, r := range m.Resources {
		lines = append(lines, fmt.Sprintf("    %s -.->|manages| %s", RootID, r.Name))
	}
	lines = append(lines, "")

	if len(m.Dependencies) > 0 {
		lines = append(lines, "    %% Dependencies")
		for _, d := range m.UniqueDependencies() {
			lines = append(lines, fmt.Sprintf("    %s -->|uses| %s", d.From, d.To))
		}
	}

	lines = append(lines, "")
	lines = append(lines, "    %% Styling")
	lines = append(lines, "    classDef orchestrator fill:#e1f5fe,stroke:#01579b,stroke-width:2px")
	lines = append(lines, "    classDef service fill:#f3e5f5,stroke:#4a148c,stroke-width:2px")
	lines = append(lines, "    classDef resource fill:#e8f5e8,stroke:#1b5e20,stroke-width:2px")
	lines = append(lines, fmt.Sprintf("    class %s orchestrator", RootID))
	if len(m.Services) > 0 {
		lines = append(lines, fmt.Sprintf("    class %s service", strings.Join(serviceNames(m), ",")))
	}
	if len(m.Resources) > 0 {
		lines = append(lines, fmt.Sprintf("    class %s resource", strings.Join(resourceNames(m), ",")))
	}

	return strings.Join(lines, "\n")
}

// ArchitectureDOT renders the same graph in Graphviz DOT.
func ArchitectureDOT(m *model.Model) string {
	var b strings.Builder
	b.WriteString("digraph architecture {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	b.WriteString(fmt.Sprintf("  %s [label=%s shape=box3d style=filled fillcolor=\"#e1f5fe\"];\n",
		strconv.Quote(RootID), strconv.Quote(rootLabel(m)+"\nOrchestrator")))
	for _, s := range m.Services {
		b.WriteString(fmt.Sprintf("  %s [label=%s shape=box style=filled fillcolor=\"#f3e5f5\"];\n",
			strconv.Quote(s.Name), strconv.Quote(s.Class+"\n"+s.Name)))
	}
	for _, r := range m.Resources {
		b.WriteString(fmt.Sprintf("  %s [label=%s shape=cylinder style=filled fillcolor=\"#e8f5e8\"];\n",
			strconv.Quote(r.Name), strconv.Quote(r.Name+"\n"+r.Kind)))
	}
	b.WriteString("\n")

	for _, s := range m.Services {
		b.WriteString(fmt.Sprintf("  %s -> %s [style=dashed label=\"orchestrates\"];\n",
			strconv.Quote(RootID), strconv.Quote(s.Name)))
	}
	for _, r := range m.Resources {
		b.WriteString(fmt.Sprintf("  %s -> %s [style=dashed label=\"manages\"];\n",
			strconv.Quote(RootID), strconv.Quote(r.Name)))
	}
	for _, d := range m.UniqueDependencies() {
		b.WriteString(fmt.Sprintf("  %s -> %s [style=solid label=\"uses\"];\n",
			strconv.Quote(d.From), strconv.Quote(d.To)))
	}

	b.WriteString("}\n")
	return b.String()
}

func rootLabel(m *model.Model) string {
	if m.Orchestrator == "" {
		return RootID
	}
	return m.Orchestrator
}

func serviceNames(m *model.Model) []string {
	names := make([]string, 0, len(m.Services))
	for _, s := range m.Services {
		names = append(names, s.Name)
	}
	return names
}

func resourceNames(m *model.Model) []string {
	names := make([]string, 0, len(m.Resources))
	for _, r := range m.Resources {
		names = append(names, r.Name)
	}
	return names
}

package diagram

import (
	"fmt"
	"strings"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
)

// EventFlow renders the startup sequence as a fenced Mermaid sequenceDiagram.
func EventFlow(m *model.Model) string {
	return Fence(EventFlowBody(m))
}

// EventFlowBody renders one plausible startup order: every resource is started
// and reports ready before any service starts. A service health-checks each of
// its dependencies, once per raw edge, before reporting ready itself.
func EventFlowBody(m *model.Model) string {
	lines := []string{"sequenceDiagram"}
	lines = append(lines, "    autonumber")
	lines = append(lines, fmt.Sprintf("    participant %s as 🎯 %s", RootID, RootID))

	for _, r := range m.Resources {
		lines = append(lines, fmt.Sprintf("    participant %s as 💾 %s", r.Name, r.Name))
	}
	for _, s := range m.Services {
		lines = append(lines, fmt.Sprintf("    participant %s as 🔗 %s", s.Name, s.Name))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    Note over %s: Application startup", RootID))
	lines = append(lines, "")

	for _, r := range m.Resources {
		lines = append(lines, fmt.Sprintf("    %s->>+%s: start container", RootID, r.Name))
		lines = append(lines, fmt.Sprintf("    %s-->>-%s: ready ✅", r.Name, RootID))
	}

	lines = append(lines, "")

	for _, s := range m.Services {
		lines = append(lines, fmt.Sprintf("    %s->>+%s: start service", RootID, s.Name))
		for _, d := range m.DependenciesFrom(s.Name) {
			lines = append(lines, fmt.Sprintf("    %s->>+%s: health check", s.Name, d.To))
			lines = append(lines, fmt.Sprintf("    %s-->>-%s: healthy ✅", d.To, s.Name))
		}
		lines = append(lines, fmt.Sprintf("    %s-->>-%s: ready ✅", s.Name, RootID))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    Note over %s: All services healthy — pipeline complete", RootID))

	return strings.Join(lines, "\n")
}

package diagram

// Pipeline renders the documentation pipeline itself. It does not depend on
// the model.
func Pipeline() string {
	return Fence(`flowchart LR
    A([📂 corpus loader]) -->|project files + URLs| B([🔍 aspire extractor])
    B -->|structural model| C([📊 architecture diagram])
    B -->|structural model| D([📋 event flow diagram])
    C -->|Mermaid graph TB| E([📝 document composer])
    D -->|Mermaid sequenceDiagram| E
    E -->|SolutionOverview-*.md| F([📁 docs/])
    B -->|scrape-results.json| F

    style A fill:#fff9c4,stroke:#f9a825
    style F fill:#e8f5e9,stroke:#2e7d32`)
}

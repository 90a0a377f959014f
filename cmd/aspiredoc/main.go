package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/aspiredoc/internal/diagram"
	"github.com/efebarandurmaz/aspiredoc/internal/graph"
	"github.com/efebarandurmaz/aspiredoc/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	var (
		flags      globalFlags
		urls       []string
		jsonReport bool
		format     string
		orch       string
	)

	rootCmd := &cobra.Command{
		Use:          "aspiredoc",
		Short:        "Generate architecture documentation from .NET Aspire orchestrator sources",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "configs/aspiredoc.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&flags.projectDir, "project-dir", "", "Project source directory (overrides scan.project_dir)")
	rootCmd.PersistentFlags().StringVar(&flags.outputDir, "output-dir", "", "Output directory (overrides output.dir)")
	rootCmd.PersistentFlags().StringVar(&flags.patterns, "patterns", "", "YAML pattern table (overrides patterns.file)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides log.level)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the documentation pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), flags, urls, jsonReport)
		},
	}
	runCmd.Flags().StringArrayVar(&urls, "url", nil, "Remote URL to scrape (repeatable; respects robots.txt)")
	runCmd.Flags().BoolVar(&jsonReport, "json", false, "Output metrics as JSON")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Extract the model and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), flags, nil, io.Discard)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			m, _, err := a.pipeline.Scan(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		},
	}

	diagramCmd := &cobra.Command{
		Use:       "diagram [architecture|events|pipeline]",
		Short:     "Print a diagram of the project",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"architecture", "events", "pipeline"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "architecture"
			if len(args) == 1 {
				kind = args[0]
			}
			out, err := renderDiagram(cmd.Context(), flags, kind, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	diagramCmd.Flags().StringVar(&format, "format", "mermaid", "Output format: mermaid, dot")

	patternsCmd := &cobra.Command{
		Use:   "patterns",
		Short: "Print the effective pattern table as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			pc, err := pipeline.PatternConfig(cfg.Patterns)
			if err != nil {
				return err
			}
			if _, err := pc.Compile(); err != nil {
				return err
			}
			data, err := pc.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	dependentsCmd := &cobra.Command{
		Use:   "dependents <name>",
		Short: "List services that depend on a service or resource in the graph store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), flags, nil, io.Discard)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			if a.graph == nil {
				return fmt.Errorf("graph store is not configured (set graph.uri)")
			}
			return listDependents(cmd.Context(), cmd.OutOrStdout(), a.graph, a.pipeline, orch, args[0])
		},
	}
	dependentsCmd.Flags().StringVar(&orch, "orchestrator", "", "Orchestrator the model was stored under (default: scanned from --project-dir)")

	rootCmd.AddCommand(runCmd, scanCmd, diagramCmd, patternsCmd, dependentsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runPipeline(ctx context.Context, flags globalFlags, urls []string, jsonReport bool) error {
	narration := io.Writer(os.Stdout)
	if jsonReport {
		narration = os.Stderr
	}
	a, err := setup(ctx, flags, urls, narration)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	res, err := a.pipeline.Run(ctx)
	if res != nil && res.Metrics != nil {
		if jsonReport {
			data, _ := res.Metrics.JSON()
			fmt.Println(string(data))
		} else {
			res.Metrics.PrintSummary(os.Stdout)
		}
	}
	return err
}

// listDependents prints the services depending on name. An empty orchestrator
// is resolved by scanning the project, which yields the key run stored under.
func listDependents(ctx context.Context, w io.Writer, repo graph.Repository, p *pipeline.Pipeline, orchestrator, name string) error {
	if orchestrator == "" {
		m, _, err := p.Scan(ctx)
		if err != nil {
			return err
		}
		orchestrator = graph.Key(m)
	}
	names, err := repo.QueryDependents(ctx, orchestrator, name)
	if errors.Is(err, graph.ErrNotFound) {
		return fmt.Errorf("no model stored for orchestrator %q (run `aspiredoc run` first): %w", orchestrator, err)
	}
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}

func renderDiagram(ctx context.Context, flags globalFlags, kind, format string) (string, error) {
	if kind == "pipeline" {
		return diagram.Pipeline(), nil
	}
	a, err := setup(ctx, flags, nil, io.Discard)
	if err != nil {
		return "", err
	}
	defer a.close(ctx)

	m, _, err := a.pipeline.Scan(ctx)
	if err != nil {
		return "", err
	}
	switch {
	case format == "dot" && kind == "architecture":
		return diagram.ArchitectureDOT(m), nil
	case format == "dot":
		return "", fmt.Errorf("dot output is only available for the architecture diagram")
	case format != "mermaid":
		return "", fmt.Errorf("unknown format %q", format)
	case kind == "events":
		return diagram.EventFlow(m), nil
	default:
		return diagram.Architecture(m), nil
	}
}

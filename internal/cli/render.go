package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/laneflow/laneflow/pkg/pipeline"
	"github.com/laneflow/laneflow/pkg/process"
)

// renderCommand creates the render command for debug views.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "render [spec.json|spec.yaml]",
		Short: "Render a DOT or SVG debug view of the process graph",
		Long: `Render a DOT or SVG debug view of the process graph.

The render command draws the graph with Graphviz instead of the BPMN layout
engine: lanes become clusters and nodes are annotated with their computed
grid cells. This is a development aid for inspecting layout decisions, not a
BPMN diagram painter.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], output, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.dot or <input>.svg)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatDOT, "output format: dot (default), svg")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output, format string) error {
	if format != pipeline.FormatDOT && format != pipeline.FormatSVG {
		return fmt.Errorf("invalid format: %q (must be dot or svg)", format)
	}

	specData, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read spec %s: %w", input, err)
	}

	// Debug views are cheap to produce and change with the code, so they
	// bypass the artifact cache.
	runner, err := c.newRunner(true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Format:     format,
		SpecFormat: process.DetectFormat(input),
		Logger:     c.Logger,
	}

	spinner := newSpinner(ctx, "Rendering...")
	spinner.Start()

	result, err := runner.Execute(ctx, specData, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	out := outputPath(input, output, "."+format)
	if err := os.WriteFile(out, result.Artifact, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess("Render complete")
	printFile(out)

	return nil
}

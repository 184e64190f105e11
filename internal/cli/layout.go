package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/laneflow/laneflow/pkg/pipeline"
	"github.com/laneflow/laneflow/pkg/process"
)

// layoutCommand creates the layout command for inspecting computed geometry.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "layout [spec.json|spec.yaml]",
		Short: "Compute diagram geometry and emit it as JSON",
		Long: `Compute diagram geometry and emit it as JSON.

The layout command runs the same rank discovery and geometry stages as
'convert' but stops before BPMN serialization, writing the raw node bounds,
lane bands, and transition waypoints instead. Useful for debugging layout
decisions or feeding the geometry into other tools.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, noCache bool) error {
	specData, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read spec %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Format:     pipeline.FormatLayout,
		Pretty:     true,
		SpecFormat: process.DetectFormat(input),
		Logger:     c.Logger,
	}

	tracker := newProgress(c.Logger)
	result, err := runner.Execute(ctx, specData, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	tracker.done(fmt.Sprintf("Placed %d nodes", result.Stats.NodeCount))

	out := outputPath(input, output, ".layout.json")
	if err := os.WriteFile(out, result.Artifact, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess("Layout complete")
	printFile(out)
	printStats(result.Stats.NodeCount, result.Stats.LaneCount, result.CacheInfo.ArtifactHit)

	return nil
}

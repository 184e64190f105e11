package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/laneflow/laneflow/pkg/pipeline"
	"github.com/laneflow/laneflow/pkg/process"
)

// convertCommand creates the convert command for producing BPMN documents.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "convert [spec.json|spec.yaml]",
		Short: "Convert a process spec into a BPMN 2.0 document",
		Long: `Convert a process spec into a BPMN 2.0 document.

The convert command reads a spec file (JSON or YAML, detected by extension),
computes the diagram layout, and writes a .bpmn file containing the process
model plus full diagram interchange geometry.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd.Context(), args[0], output, noCache, refresh, compact)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.bpmn)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and reconvert")
	cmd.Flags().BoolVar(&compact, "compact", false, "emit compact XML without indentation")

	return cmd
}

func (c *CLI) runConvert(ctx context.Context, input, output string, noCache, refresh, compact bool) error {
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
		Format:     pipeline.FormatBPMN,
		Pretty:     c.Config.PrettyDefault() && !compact,
		SpecFormat: process.DetectFormat(input),
		Refresh:    refresh,
		Logger:     c.Logger,
	}

	spinner := newSpinner(ctx, "Converting...")
	spinner.Start()

	result, err := runner.Execute(ctx, specData, opts)
	if err != nil {
		spinner.StopWithError("Conversion failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	out := outputPath(input, output, ".bpmn")
	if err := os.WriteFile(out, result.Artifact, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess("Conversion complete")
	printFile(out)
	printStats(result.Stats.NodeCount, result.Stats.LaneCount, result.CacheInfo.ArtifactHit)
	printNewline()
	printNextStep("Inspect layout", "laneflow layout "+input)

	return nil
}

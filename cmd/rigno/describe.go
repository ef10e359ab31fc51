package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/rigno"
	"github.com/aretw0/rigno/internal/presentation/graph"
	"github.com/aretw0/rigno/internal/presentation/tui"
	"github.com/aretw0/rigno/pkg/domain"
)

// describeCmd represents the describe command
var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print a report of the configured operator",
	Long: `Summarizes the effective configuration as a markdown report. With --cloud
the report includes the graph set built for that point cloud, Mermaid
diagram included. On a terminal the markdown is rendered; on a pipe the
raw markdown is emitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		interactive := term.IsTerminal(int(os.Stdout.Fd()))
		if interactive {
			tui.PrintBanner(rigno.Version)
		}

		md := describeConfig(cfg)

		if cloudPath, _ := cmd.Flags().GetString("cloud"); cloudPath != "" {
			cloud, err := loadCloud(cloudPath)
			if err != nil {
				return err
			}
			op, err := rigno.New(cfg, rigno.WithLogger(logger))
			if err != nil {
				return err
			}
			gs, err := op.Graphs(cmd.Context(), cloud)
			if err != nil {
				return err
			}
			md += describeGraphs(cloud.Len(), gs)
		}

		if !interactive {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		render := tui.NewRenderer()
		out, err := render(md)
		if err != nil {
			// Fall back to raw markdown rather than failing the command.
			out = md
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().String("cloud", "", "Also describe the graph set built for this point cloud")
}

func describeConfig(cfg rigno.Config) string {
	var sb strings.Builder
	sb.WriteString("# Operator\n\n")
	sb.WriteString(fmt.Sprintf("- channels: %d (plus %d known parameters)\n", cfg.Model.Channels, cfg.Model.ParamDim))
	sb.WriteString(fmt.Sprintf("- latent size: %d, hidden size: %d\n", cfg.Stage.LatentSize, cfg.Stage.HiddenSize))
	sb.WriteString(fmt.Sprintf("- processor: %d repetitions over %d levels, %s aggregation\n",
		cfg.Stage.Repetitions, cfg.Graph.Levels, cfg.Stage.Aggregation))
	sb.WriteString(fmt.Sprintf("- output mode: %s\n", cfg.Stage.OutputMode))
	if cfg.Model.Checkpoint != "" {
		sb.WriteString(fmt.Sprintf("- checkpoint: `%s`\n", cfg.Model.Checkpoint))
	} else {
		sb.WriteString(fmt.Sprintf("- weights seeded with %d\n", cfg.Model.Seed))
	}

	sb.WriteString("\n## Meshes\n\n")
	if cfg.Mesh.RegionCount > 0 {
		sb.WriteString(fmt.Sprintf("- region nodes: %d (fixed)\n", cfg.Mesh.RegionCount))
	} else {
		sb.WriteString(fmt.Sprintf("- region nodes: 1 per %.1f physical nodes\n", cfg.Mesh.RegionFactor))
	}
	sb.WriteString(fmt.Sprintf("- encoder radius: %.3f, processor radius: %.3f\n",
		cfg.Graph.EncoderRadius, cfg.Graph.ProcessorRadius))

	sb.WriteString("\n## Rollout\n\n")
	sb.WriteString(fmt.Sprintf("- default schedule: %d steps of tau %.4f\n", cfg.Rollout.Steps, cfg.Rollout.Tau))
	sb.WriteString(fmt.Sprintf("- store backend: %s\n", cfg.Store.Backend))
	return sb.String()
}

func describeGraphs(points int, gs *domain.GraphSet) string {
	var sb strings.Builder
	sb.WriteString("\n## Graph set\n\n")
	sb.WriteString(fmt.Sprintf("- %d physical nodes, %d region nodes\n", points, gs.Regions.Len()))
	sb.WriteString(fmt.Sprintf("- encoder %d edges, decoder %d edges\n",
		gs.Encoder.NumEdges(), gs.Decoder.NumEdges()))
	for i := range gs.Processor {
		pg := &gs.Processor[i]
		sb.WriteString(fmt.Sprintf("- processor level %d: %d regions, %d edges\n",
			pg.Level, pg.NumDst, pg.NumEdges()))
	}
	sb.WriteString("\n```mermaid\n")
	sb.WriteString(graph.GenerateMermaid(gs))
	sb.WriteString("```\n")
	return sb.String()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/rigno"
	"github.com/aretw0/rigno/internal/presentation/graph"
	"github.com/aretw0/rigno/pkg/domain"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the graph set visualization",
	Long: `Builds the encoder, processor and decoder graphs for a point cloud and
outputs a Mermaid diagram of the pipeline, or a plain summary with --summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cloudPath, _ := cmd.Flags().GetString("cloud")
		if !cmd.Flags().Changed("cloud") && len(args) > 0 {
			cloudPath = args[0]
		}
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

		if summary, _ := cmd.Flags().GetBool("summary"); summary {
			printSummary(cmd, gs)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(gs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("cloud", "", "Path to the point cloud JSON file")
	graphCmd.Flags().Bool("summary", false, "Print edge counts instead of a Mermaid diagram")
}

func printSummary(cmd *cobra.Command, gs *domain.GraphSet) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "key:      %s\n", gs.Key)
	fmt.Fprintf(out, "regions:  %d\n", gs.Regions.Len())
	fmt.Fprintf(out, "encoder:  %d edges\n", gs.Encoder.NumEdges())
	for i := range gs.Processor {
		pg := &gs.Processor[i]
		fmt.Fprintf(out, "level %d:  %d regions, %d edges\n", pg.Level, pg.NumDst, pg.NumEdges())
	}
	fmt.Fprintf(out, "decoder:  %d edges\n", gs.Decoder.NumEdges())
}

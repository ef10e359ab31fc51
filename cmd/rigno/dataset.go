package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/rigno"
	"github.com/aretw0/rigno/internal/rollout"
	"github.com/aretw0/rigno/pkg/adapters/file"
	"github.com/aretw0/rigno/pkg/dataset"
	"github.com/aretw0/rigno/pkg/metrics"
)

// datasetCmd represents the dataset command
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect datasets in the configured directory",
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		loader := file.NewLoader(cfg.Dataset.Dir)
		names, err := loader.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var datasetStatsCmd = &cobra.Command{
	Use:   "stats <name>",
	Short: "Print per-channel statistics of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		residualSteps, _ := cmd.Flags().GetInt("residual-steps")

		opts := []file.Option{}
		if cfg.Dataset.TimeStride > 1 {
			opts = append(opts, file.WithTimeStride(cfg.Dataset.TimeStride))
		}
		if cfg.Dataset.TrajectoryLimit > 0 {
			opts = append(opts, file.WithTrajectoryLimit(cfg.Dataset.TrajectoryLimit))
		}
		loader := file.NewLoader(cfg.Dataset.Dir, opts...)
		ds, err := loader.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		st, err := dataset.ComputeStats(ds.Trajectories, residualSteps)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "dataset %s: %d points, %d trajectories\n", ds.Name, ds.Cloud.Len(), len(ds.Trajectories))
		printMoments := func(label string, vs dataset.VariableStats) {
			for ch := range vs.Mean {
				fmt.Fprintf(out, "%-12s ch %d: mean %+.6f std %.6f\n", label, ch, vs.Mean[ch], vs.Std[ch])
			}
		}
		printMoments("trajectory", st.Trajectory)
		if residualSteps > 0 {
			printMoments("residual", st.Residual)
			printMoments("derivative", st.Derivative)
		}
		return nil
	},
}

var datasetEvalCmd = &cobra.Command{
	Use:   "eval <name>",
	Short: "Roll out from each reference initial condition and score the result",
	Long: `Loads a dataset, replays the operator from every trajectory's initial
snapshot along the reference time stamps, and reports MSE and relative
L2 error against the stored trajectory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		loader := file.NewLoader(cfg.Dataset.Dir)
		ds, err := loader.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		op, err := rigno.New(cfg, rigno.WithLogger(logger))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, ref := range ds.Trajectories {
			taus := tausFromTimes(ref.Times)
			if len(taus) == 0 {
				logger.Warn("skipping single-snapshot trajectory", "id", ref.ID)
				continue
			}
			pred, err := op.Rollout(cmd.Context(), rigno.Run{
				ID:       ref.ID,
				Cloud:    ds.Cloud,
				Initial:  ref.Snapshots[0],
				Schedule: rollout.Sequence(taus...),
			})
			if err != nil {
				fmt.Fprintf(out, "%-20s failed: %v\n", ref.ID, err)
				continue
			}
			mse, err := metrics.MSE(pred, ref)
			if err != nil {
				return err
			}
			rel, err := metrics.RelL2(pred, ref)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-20s mse %.6e rel_l2 %v\n", ref.ID, mse, rel)
		}
		return nil
	},
}

// tausFromTimes turns accumulated time stamps back into per-step lead times.
func tausFromTimes(times []float64) []float64 {
	if len(times) < 2 {
		return nil
	}
	taus := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		taus = append(taus, times[i]-times[i-1])
	}
	return taus
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetListCmd)
	datasetCmd.AddCommand(datasetStatsCmd)
	datasetCmd.AddCommand(datasetEvalCmd)

	datasetStatsCmd.Flags().Int("residual-steps", 0, "Also compute residual moments over this many step offsets")
}

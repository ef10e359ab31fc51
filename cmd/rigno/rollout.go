package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/rigno"
	"github.com/aretw0/rigno/internal/rollout"
	"github.com/aretw0/rigno/pkg/domain"
)

// rolloutCmd represents the rollout command
var rolloutCmd = &cobra.Command{
	Use:   "rollout",
	Short: "Roll out an initial condition over time",
	Long: `Builds the region interaction graphs for the given point cloud and steps
the initial condition through the configured schedule. The resulting
trajectory is written as JSON to stdout or --output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cloudPath, _ := cmd.Flags().GetString("cloud")
		initialPath, _ := cmd.Flags().GetString("initial")
		cloud, err := loadCloud(cloudPath)
		if err != nil {
			return err
		}
		initial, err := loadField(initialPath)
		if err != nil {
			return err
		}

		schedule, err := scheduleFromFlags(cmd, cfg)
		if err != nil {
			return err
		}

		op, err := rigno.New(cfg, rigno.WithLogger(logger))
		if err != nil {
			return err
		}

		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			id = uuid.NewString()
		}

		traj, err := op.Rollout(cmd.Context(), rigno.Run{
			ID:       id,
			Cloud:    cloud,
			Initial:  *initial,
			Schedule: schedule,
		})
		if traj == nil {
			return err
		}
		if err != nil {
			// A partial trajectory is still worth persisting and printing.
			logger.Warn("rollout did not complete", "id", id, "error", err)
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			store, err := newStore(cfg)
			if err != nil {
				return err
			}
			if err := store.Save(cmd.Context(), traj); err != nil {
				return fmt.Errorf("failed to save trajectory: %w", err)
			}
			logger.Info("saved trajectory", "id", id, "backend", cfg.Store.Backend)
		}

		return writeTrajectory(cmd, traj)
	},
}

func init() {
	rootCmd.AddCommand(rolloutCmd)

	rolloutCmd.Flags().String("cloud", "", "Path to the point cloud JSON file")
	rolloutCmd.Flags().String("initial", "", "Path to the initial condition JSON file")
	rolloutCmd.Flags().String("id", "", "Trajectory ID (random UUID when empty)")
	rolloutCmd.Flags().Float64("tau", 0, "Fixed lead time per step (overrides config)")
	rolloutCmd.Flags().Int("steps", 0, "Number of steps (overrides config)")
	rolloutCmd.Flags().Float64Slice("taus", nil, "Explicit lead time sequence (overrides --tau/--steps)")
	rolloutCmd.Flags().StringP("output", "o", "", "Write the trajectory to a file instead of stdout")
	rolloutCmd.Flags().Bool("save", false, "Persist the trajectory in the configured store")

	_ = rolloutCmd.MarkFlagRequired("cloud")
	_ = rolloutCmd.MarkFlagRequired("initial")
}

// scheduleFromFlags assembles the tau schedule, flags first, config second.
func scheduleFromFlags(cmd *cobra.Command, cfg rigno.Config) (rollout.TauSchedule, error) {
	if taus, _ := cmd.Flags().GetFloat64Slice("taus"); len(taus) > 0 {
		s := rollout.Sequence(taus...)
		return s, s.Validate()
	}
	tau := cfg.Rollout.Tau
	steps := cfg.Rollout.Steps
	if v, _ := cmd.Flags().GetFloat64("tau"); v > 0 {
		tau = v
	}
	if v, _ := cmd.Flags().GetInt("steps"); v > 0 {
		steps = v
	}
	s := rollout.FixedTau(tau, steps)
	return s, s.Validate()
}

func loadCloud(path string) (*domain.PointCloud, error) {
	var cloud domain.PointCloud
	if err := readJSON(path, &cloud); err != nil {
		return nil, err
	}
	if err := cloud.Validate(); err != nil {
		return nil, fmt.Errorf("cloud %q: %w", path, err)
	}
	return &cloud, nil
}

func loadField(path string) (*domain.Field, error) {
	var field domain.Field
	if err := readJSON(path, &field); err != nil {
		return nil, err
	}
	return &field, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return nil
}

func writeTrajectory(cmd *cobra.Command, traj *domain.Trajectory) error {
	data, err := json.MarshalIndent(traj, "", "  ")
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

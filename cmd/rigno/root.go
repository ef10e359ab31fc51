package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/rigno"
	"github.com/aretw0/rigno/internal/logging"
	"github.com/aretw0/rigno/pkg/adapters/memory"
	"github.com/aretw0/rigno/pkg/adapters/redis"
	"github.com/aretw0/rigno/pkg/ports"
)

var rootCmd = &cobra.Command{
	Use:   "rigno",
	Short: "Rigno rolls out learned operators on arbitrary point clouds",
	Long: `Rigno builds region interaction graphs over arbitrary point clouds and
steps initial conditions through a learned message-passing operator,
autoregressively and independent of the discretization.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug|info|warn|error)")
}

// loadConfig resolves the effective config and logger for a command.
func loadConfig(cmd *cobra.Command) (rigno.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := rigno.LoadConfig(path)
	if err != nil {
		return rigno.Config{}, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, logging.New(logging.ParseLevel(cfg.LogLevel)), nil
}

// newStore picks the trajectory store backend the config names.
func newStore(cfg rigno.Config) (ports.TrajectoryStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		opts := []redis.Option{}
		if cfg.Store.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Store.Prefix))
		}
		if cfg.Store.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Store.TTL))
		}
		return redis.New(cfg.Store.Address, cfg.Store.Password, cfg.Store.DB, opts...), nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

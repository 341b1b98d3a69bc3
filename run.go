package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/rtm0/climprep/internal/config"
	"github.com/rtm0/climprep/internal/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type runEnv struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

type runFunc func(ctx context.Context, v *viper.Viper, env *runEnv) error

// newJobCmd builds a subcommand that loads its settings, runs fn and pushes
// the run's metrics. Errors are logged here since cobra is told to keep
// quiet about them.
func newJobCmd(root *cobra.Command, name, short string, fn runFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
	}
	config.Register(name, cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		v, err := config.New(root.PersistentFlags(), cmd.Flags())
		if err != nil {
			logger.Error("Could not load configuration", "err", err)
			return err
		}
		common, err := config.LoadCommon(v)
		if err != nil {
			logger.Error("Invalid configuration", "err", err)
			return err
		}
		logger = observability.NewLogger(os.Stdout, common.LogLevel, common.LogFormat)

		env := &runEnv{logger: logger, metrics: observability.NewMetrics()}
		runErr := fn(cmd.Context(), v, env)
		if runErr != nil {
			logger.Error("Job failed", "task", name, "err", runErr)
		}
		if common.Pushgateway != "" {
			if err := env.metrics.Push(common.Pushgateway, name); err != nil {
				logger.Warn("Could not push metrics", "url", common.Pushgateway, "err", err)
			} else {
				logger.Debug("pushed metrics", "url", common.Pushgateway, "task", name)
			}
		}
		return runErr
	}
	return cmd
}

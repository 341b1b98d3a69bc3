// Command climprep prepares climate inputs for downstream models: it stacks
// CHIRPS monthly precipitation, downloads MERRA-2 daily granules and adds
// top-of-atmosphere radiation to the MERRA-2 temperature fields.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rtm0/climprep/internal/config"
	"github.com/rtm0/climprep/internal/job"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "climprep",
		Short:         "Prepare CHIRPS and MERRA-2 inputs for climate modelling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.Register(config.Root, root.PersistentFlags())

	root.AddCommand(
		newJobCmd(root, config.CHIRPS, "Stack CHIRPS monthly GeoTIFFs into one netCDF file",
			func(_ context.Context, v *viper.Viper, env *runEnv) error {
				cfg, err := config.LoadCHIRPS(v)
				if err != nil {
					return err
				}
				return job.RunCHIRPS(cfg, env.logger, env.metrics)
			}),
		newJobCmd(root, config.TOA, "Add TOA radiation to a year of MERRA-2 daily temperatures",
			func(_ context.Context, v *viper.Viper, env *runEnv) error {
				cfg, err := config.LoadTOA(v)
				if err != nil {
					return err
				}
				return job.RunTOA(cfg, env.logger, env.metrics)
			}),
		newJobCmd(root, config.Download, "Download MERRA-2 daily granules from NASA Earthdata",
			func(ctx context.Context, v *viper.Viper, env *runEnv) error {
				cfg, err := config.LoadDownload(v)
				if err != nil {
					return err
				}
				return job.RunDownload(ctx, cfg, env.logger, env.metrics)
			}),
	)
	return root
}

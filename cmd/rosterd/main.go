package main

import (
	"context"
	"fmt"
	"io"
	"os"

	cmdutil "github.com/leg100/roster/cmd"
	"github.com/leg100/roster/internal"
	"github.com/leg100/roster/internal/daemon"
	"github.com/leg100/roster/internal/logr"
	"github.com/spf13/cobra"
)

func main() {
	// Configure ^C to terminate program
	ctx, cancel := context.WithCancel(context.Background())
	cmdutil.CatchCtrlC(cancel)

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		cmdutil.PrintError(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg := daemon.NewConfig()

	cmd := &cobra.Command{
		Use:           "rosterd",
		Short:         "roster daemon",
		Long:          "rosterd serves the roster student records API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       internal.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logr.New(&cfg.LogConfig)
			if err != nil {
				return err
			}

			d, err := daemon.New(cmd.Context(), logger, cfg)
			if err != nil {
				return err
			}
			// block until ^C received
			return d.Start(cmd.Context(), make(chan struct{}))
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.Flags().StringVar(&cfg.Address, "address", daemon.DefaultAddress, "Listening address")
	cmd.Flags().StringVar(&cfg.Store, "store", cfg.Store, "Store connection URL: redis://, postgres:// or memory://")
	cmd.Flags().DurationVar(&cfg.StoreConnectTimeout, "store-connect-timeout", cfg.StoreConnectTimeout, "Maximum time to wait for the store to become available on startup.")
	cmd.Flags().BoolVar(&cfg.SSL, "ssl", false, "Toggle SSL")
	cmd.Flags().StringVar(&cfg.CertFile, "cert-file", "", "Path to SSL certificate (required if enabling SSL)")
	cmd.Flags().StringVar(&cfg.KeyFile, "key-file", "", "Path to SSL key (required if enabling SSL)")
	cmd.Flags().BoolVar(&cfg.EnableRequestLogging, "log-http-requests", false, "Log HTTP requests")

	logr.LoadConfigFromFlags(cmd.Flags(), &cfg.LogConfig)

	if err := cmdutil.SetFlagsFromEnvVariables(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to populate config from environment vars: %w", err)
	}

	return cmd.ExecuteContext(ctx)
}

// Package cli provides the CLI client, i.e. the `roster` binary.
package cli

import (
	"context"
	"io"

	cmdutil "github.com/leg100/roster/cmd"
	"github.com/leg100/roster/internal/http"
	"github.com/leg100/roster/internal/logr"
	"github.com/leg100/roster/internal/student"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// CLI is the `roster` cli application
type CLI struct {
	httpClient *http.Client
}

func NewCLI() *CLI {
	return &CLI{
		httpClient: &http.Client{},
	}
}

func (a *CLI) Run(ctx context.Context, args []string, out io.Writer) error {
	var (
		cfg       http.ClientConfig
		loggerCfg logr.Config
	)

	cmd := &cobra.Command{
		Use:               "roster",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.newClient(&cfg, &loggerCfg),
	}

	cmd.PersistentFlags().StringVar(&cfg.Address, "address", http.DefaultAddress, "Address of roster server")
	cmd.PersistentFlags().BoolVar(&cfg.RetryRequests, "retry", false, "Retry requests upon encountering transient errors")
	logr.LoadConfigFromFlags(cmd.PersistentFlags(), &loggerCfg)

	cmd.SetArgs(args)
	cmd.SetOut(out)

	cmd.AddCommand(student.NewCommand(a.httpClient))

	if err := cmdutil.SetFlagsFromEnvVariables(cmd.PersistentFlags()); err != nil {
		return errors.Wrap(err, "failed to populate config from environment vars")
	}

	return cmd.ExecuteContext(ctx)
}

func (a *CLI) newClient(cfg *http.ClientConfig, loggerCfg *logr.Config) func(*cobra.Command, []string) error {
	return func(*cobra.Command, []string) error {
		logger, err := logr.New(loggerCfg)
		if err != nil {
			return err
		}
		cfg.Logger = logger

		client, err := http.NewClient(*cfg)
		if err != nil {
			return err
		}
		*a.httpClient = *client
		return nil
	}
}

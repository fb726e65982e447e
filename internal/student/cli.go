package student

import (
	"context"
	"encoding/json"
	"fmt"

	rosterhttp "github.com/leg100/roster/internal/http"
	"github.com/spf13/cobra"
)

type (
	CLI struct {
		cliService
	}

	// cliService provides the cli with access to students
	cliService interface {
		Create(ctx context.Context, id string, opts Options) error
		Get(ctx context.Context, id string) (*Student, error)
		Update(ctx context.Context, id string, opts Options) error
		Delete(ctx context.Context, id string) error
	}
)

// NewCommand returns the students command. The client is populated by the
// parent command before any subcommand runs.
func NewCommand(client *rosterhttp.Client) *cobra.Command {
	cli := &CLI{}
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Student management",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if parent := cmd.Parent(); parent != nil && parent.PersistentPreRunE != nil {
				if err := parent.PersistentPreRunE(parent, args); err != nil {
					return err
				}
			}
			cli.cliService = &Client{Client: client}
			return nil
		},
	}
	cmd.AddCommand(cli.createCommand())
	cmd.AddCommand(cli.getCommand())
	cmd.AddCommand(cli.updateCommand())
	cmd.AddCommand(cli.deleteCommand())

	return cmd
}

// addOptionsFlags binds flags for the fields of a student.
func addOptionsFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVar(&opts.Name, "name", "", "Name of student")
	cmd.Flags().IntVar(&opts.Age, "age", 0, "Age of student")
	cmd.Flags().StringSliceVar(&opts.Skills, "skills", nil, "Comma-separated list of skills")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("age")
}

func (a *CLI) createCommand() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:           "create [id]",
		Short:         "Create a student",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Create(cmd.Context(), args[0], withSkills(opts)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully created student %s\n", args[0])
			return nil
		},
	}
	addOptionsFlags(cmd, &opts)

	return cmd
}

func (a *CLI) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "get [id]",
		Short:         "Show a student",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			student, err := a.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(student, "", "    ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func (a *CLI) updateCommand() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:           "update [id]",
		Short:         "Replace the details of a student",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Update(cmd.Context(), args[0], withSkills(opts)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated student %s\n", args[0])
			return nil
		},
	}
	addOptionsFlags(cmd, &opts)

	return cmd
}

func (a *CLI) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "delete [id]",
		Short:         "Delete a student",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully deleted student %s\n", args[0])
			return nil
		},
	}
}

// withSkills ensures skills are sent as an empty list rather than null when
// the flag is omitted.
func withSkills(opts Options) Options {
	if opts.Skills == nil {
		opts.Skills = []string{}
	}
	return opts
}

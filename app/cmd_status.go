package app

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

func NewCmdStatus(out io.Writer, config *Config) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "status JOB",
		Short: "Print the status of a background job, e.g. /v1/background_job_results/1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doStatus(out, config, args[0], wait)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the background job to complete")
	return cmd
}

func doStatus(out io.Writer, config *Config, location string, wait bool) error {
	client, err := newClient(config, false)
	if err != nil {
		return userError(err)
	}
	return runWithInterrupt(func(ctx context.Context) error {
		if wait {
			return waitForJob(ctx, out, client, config, location)
		}
		status, err := client.JobStatus(ctx, location)
		if err != nil {
			return err
		}
		return reportJob(out, location, status)
	})
}

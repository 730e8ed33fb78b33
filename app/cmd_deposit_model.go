package app

import (
	"context"
	"fmt"
	"io"

	"github.com/sul-dlss/sdr-client/deposit"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func NewCmdDepositModel(out io.Writer, config *Config) *cobra.Command {
	var (
		requestFile string
		register    bool
		concurrency int
		wait        bool
	)
	cmd := &cobra.Command{
		Use:   "deposit-model --request FILE [flags] FILE...",
		Short: "Accession an object described by a complete request document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("concurrency") {
				concurrency = config.Deposit.Concurrency
			}
			if !cmd.Flags().Changed("wait") {
				wait = config.Job.Wait
			}
			logger := logrus.WithField("cmd", cmd.Name())
			return doDepositModel(logger, out, config, requestFile, args, !register, concurrency, wait)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&requestFile, "request", "r", "", "JSON request document (required)")
	flags.BoolVar(&register, "register", false, "Create the object without accessioning it")
	flags.IntVar(&concurrency, "concurrency", 0, "Number of files uploaded at the same time")
	flags.BoolVar(&wait, "wait", false, "Wait for the background job to complete")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func readWireDocument(fs afero.Fs, path string) (deposit.WireDocument, error) {
	f, err := fs.Open(path)
	if err != nil {
		return deposit.WireDocument{}, errors.Wrap(err, "cannot read request document")
	}
	defer f.Close()
	doc, err := deposit.DecodeWireDocument(f)
	if err != nil {
		return doc, errors.Wrap(err, path)
	}
	return doc, nil
}

func doDepositModel(logger logrus.FieldLogger, out io.Writer, config *Config, requestFile string, args []string, accession bool, concurrency int, wait bool) error {
	client, err := newClient(config, false)
	if err != nil {
		return userError(err)
	}
	doc, err := readWireDocument(appFs, requestFile)
	if err != nil {
		return userError(err)
	}

	reg := prometheus.NewRegistry()
	metrics := deposit.NewMetrics(reg)
	defer pushMetrics(logger, config, reg)

	err = runWithInterrupt(func(ctx context.Context) error {
		files, cleanup, err := stageFiles(ctx, logger, config, args)
		if err != nil {
			return err
		}
		defer cleanup()

		p, err := deposit.NewModelProcess(deposit.ModelProcessConfig{
			Logger:      logger,
			Transport:   client,
			Fs:          appFs,
			Document:    doc,
			Files:       files,
			Accession:   accession,
			Concurrency: concurrency,
			Metrics:     metrics,
		})
		if err != nil {
			return err
		}
		res, err := p.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s (background job %s)\n", res.RepositoryID, res.BackgroundJobLocation)

		if wait && res.BackgroundJobLocation != "" {
			return waitForJob(ctx, out, client, config, res.BackgroundJobLocation)
		}
		return nil
	})
	return userError(err)
}

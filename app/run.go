package app

import (
	"context"
	"fmt"
	"io"

	"github.com/sul-dlss/sdr-client/s3"
	"github.com/sul-dlss/sdr-client/sdrclient"

	"github.com/cenkalti/backoff/v3"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// runWithInterrupt runs fn until it returns or the process receives an
// interrupt signal, in which case the context given to fn is cancelled.
func runWithInterrupt(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	{
		g.Add(func() error {
			return fn(ctx)
		}, func(error) {
			cancel()
		})
	}
	{
		cancel := make(chan struct{})

		g.Add(func() error {
			return interrupt(cancel)
		}, func(error) {
			close(cancel)
		})
	}

	return g.Run()
}

// stageFiles downloads the files given as object URIs into a temporary
// directory. The returned paths follow the order of the arguments. The
// cleanup function removes the staged files.
func stageFiles(ctx context.Context, logger logrus.FieldLogger, config *Config, args []string) ([]string, func(), error) {
	noop := func() {}
	var remote int
	for _, arg := range args {
		if s3.IsURI(arg) {
			remote++
		}
	}
	if remote == 0 {
		return args, noop, nil
	}

	sess, err := awsSession(logger, config.AWS.S3Profile, config.AWS.S3Endpoint)
	if err != nil {
		return nil, noop, errors.Wrap(err, "cannot create AWS session")
	}
	storage := s3.New(sess)

	dir, err := afero.TempDir(appFs, "", "sdr-staging-")
	if err != nil {
		return nil, noop, errors.Wrap(err, "cannot create staging directory")
	}
	cleanup := func() {
		if err := appFs.RemoveAll(dir); err != nil {
			logger.WithError(err).Warn("Cannot remove the staging directory.")
		}
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		if !s3.IsURI(arg) {
			paths = append(paths, arg)
			continue
		}
		logger.WithField("uri", arg).Info("Downloading remote file.")
		path, err := s3.Stage(ctx, storage, appFs, dir, arg)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		paths = append(paths, path)
	}
	return paths, cleanup, nil
}

// waitForJob polls the background job until it completes and reports its
// outcome.
func waitForJob(ctx context.Context, out io.Writer, client *sdrclient.Client, config *Config, location string) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = config.Job.MaxWait
	status, err := client.WaitForJob(ctx, location, b)
	if err != nil {
		return err
	}
	return reportJob(out, location, status)
}

func reportJob(out io.Writer, location string, status *sdrclient.JobStatus) error {
	if status.Failed() {
		return &ExitError{Code: 1, Message: fmt.Sprintf("Job %s failed: %s", location, status.ErrorMessage())}
	}
	var err error
	if status.Complete() {
		_, err = fmt.Fprintf(out, "Job %s complete: %s\n", location, status.Output.Druid)
	} else {
		_, err = fmt.Fprintf(out, "Job %s is %s\n", location, status.Status)
	}
	return err
}

// pushMetrics sends the metrics gathered during the command to the
// Pushgateway, when one is configured.
func pushMetrics(logger logrus.FieldLogger, config *Config, reg *prometheus.Registry) {
	if config.Metrics.PushgatewayURL == "" {
		return
	}
	err := push.New(config.Metrics.PushgatewayURL, config.Metrics.Job).Gatherer(reg).Push()
	if err != nil {
		logger.WithError(err).Warn("Cannot push metrics.")
	}
}

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sul-dlss/sdr-client/deposit"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type depositOptions struct {
	label              string
	objectType         string
	adminPolicy        string
	collection         string
	sourceID           string
	catalogKey         string
	embargoReleaseDate string
	embargoAccess      string
	viewingDirection   string
	grouping           deposit.GroupingFlag
	filesMetadata      string
	concurrency        int
	wait               bool
}

// NewCmdDeposit returns the deposit command, or the register command when
// accession is false: the object is created but not accessioned.
func NewCmdDeposit(out io.Writer, config *Config, accession bool) *cobra.Command {
	opts := &depositOptions{}
	cmd := &cobra.Command{
		Use:   "deposit [flags] FILE...",
		Short: "Accession an object into the SDR",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.fromConfig(cmd, config); err != nil {
				return err
			}
			logger := logrus.WithField("cmd", cmd.Name())
			return doDeposit(logger, out, config, opts, args, accession)
		},
	}
	if !accession {
		cmd.Use = "register [flags] FILE..."
		cmd.Short = "Create a draft object in SDR and retrieve a Druid identifier"
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.label, "label", "", "Label of the object")
	flags.StringVar(&opts.objectType, "type", "", "Model of the object (default from the configuration)")
	flags.StringVar(&opts.adminPolicy, "apo", "", "Druid of the administrative policy (required)")
	flags.StringVar(&opts.collection, "collection", "", "Druid of the collection the object belongs to")
	flags.StringVar(&opts.sourceID, "source-id", "", "Source identifier, e.g. googlebooks:12345 (required)")
	flags.StringVar(&opts.catalogKey, "catkey", "", "Symphony catalog key")
	flags.StringVar(&opts.embargoReleaseDate, "embargo-release-date", "", "Release date of the embargo, e.g. 2045-01-01")
	flags.StringVar(&opts.embargoAccess, "embargo-access", "", "Access after the embargo is released (default \"world\")")
	flags.StringVar(&opts.viewingDirection, "viewing-direction", "", "Viewing direction: left-to-right or right-to-left")
	flags.Var(&opts.grouping, "grouping", "How files are arranged in file sets: single or matching")
	flags.StringVar(&opts.filesMetadata, "files-metadata", "", "YAML or JSON file with the metadata of individual files")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Number of files uploaded at the same time")
	flags.BoolVar(&opts.wait, "wait", false, "Wait for the background job to complete")

	_ = cmd.MarkFlagRequired("apo")
	_ = cmd.MarkFlagRequired("source-id")

	return cmd
}

// fromConfig sets the options not given in the command line from config.
func (o *depositOptions) fromConfig(cmd *cobra.Command, config *Config) error {
	flags := cmd.Flags()
	if !flags.Changed("type") {
		o.objectType = config.Deposit.Type
	}
	if !flags.Changed("grouping") {
		if err := o.grouping.Set(config.Deposit.Grouping); err != nil {
			return errors.Wrap(err, "deposit.grouping")
		}
	}
	if !flags.Changed("files-metadata") {
		o.filesMetadata = config.Deposit.FilesMetadata
	}
	if !flags.Changed("concurrency") {
		o.concurrency = config.Deposit.Concurrency
	}
	if !flags.Changed("wait") {
		o.wait = config.Job.Wait
	}
	return nil
}

func (o *depositOptions) request() (deposit.RequestDocument, error) {
	releaseDate, err := parseReleaseDate(o.embargoReleaseDate)
	if err != nil {
		return deposit.RequestDocument{}, err
	}
	switch o.viewingDirection {
	case "", "left-to-right", "right-to-left":
	default:
		return deposit.RequestDocument{}, errors.Errorf("invalid viewing direction %q", o.viewingDirection)
	}
	return deposit.NewRequestDocument(deposit.RequestOptions{
		Label:              o.label,
		Type:               o.objectType,
		AdminPolicy:        o.adminPolicy,
		Collection:         o.collection,
		SourceID:           o.sourceID,
		CatalogKey:         o.catalogKey,
		EmbargoReleaseDate: releaseDate,
		EmbargoAccess:      o.embargoAccess,
		ViewingDirection:   o.viewingDirection,
	})
}

// parseReleaseDate accepts a date or a RFC 3339 timestamp.
func parseReleaseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("invalid embargo release date %q, use YYYY-MM-DD", s)
}

func loadOverrides(path string) (map[string]deposit.FileOverrides, error) {
	if path == "" {
		return nil, nil
	}
	f, err := appFs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open files metadata")
	}
	defer f.Close()
	return deposit.LoadFileOverrides(f)
}

func doDeposit(logger logrus.FieldLogger, out io.Writer, config *Config, opts *depositOptions, args []string, accession bool) error {
	client, err := newClient(config, false)
	if err != nil {
		return userError(err)
	}
	request, err := opts.request()
	if err != nil {
		return err
	}
	overrides, err := loadOverrides(opts.filesMetadata)
	if err != nil {
		return err
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

		p, err := deposit.NewProcess(deposit.ProcessConfig{
			Logger:      logger,
			Transport:   client,
			Fs:          appFs,
			Request:     request,
			Files:       files,
			Overrides:   overrides,
			Grouping:    opts.grouping.Strategy,
			Accession:   accession,
			Concurrency: opts.concurrency,
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

		if opts.wait && res.BackgroundJobLocation != "" {
			return waitForJob(ctx, out, client, config, res.BackgroundJobLocation)
		}
		return nil
	})
	return userError(err)
}

package deposit

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Outcomes recorded in the deposits metric.
const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// ProcessConfig configures a deposit Process.
type ProcessConfig struct {
	Logger    logrus.FieldLogger
	Transport Transport

	// Fs is where the local files are read from. Defaults to the OS.
	Fs afero.Fs

	Request RequestDocument
	Files   []string

	// Overrides holds user provided file metadata keyed by basename.
	Overrides map[string]FileOverrides

	// Grouping defaults to SingleFileGrouping.
	Grouping GroupingStrategy

	// Accession requests the accessioning workflow to be started.
	Accession bool

	// Concurrency is the number of files uploaded at the same time.
	Concurrency int

	Metrics *Metrics
}

// Process deposits a new object: it uploads the files, attaches them to the
// request document and creates the object.
type Process struct {
	ProcessConfig
	logger logrus.FieldLogger
}

func NewProcess(config ProcessConfig) (*Process, error) {
	if config.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.Grouping == nil {
		config.Grouping = SingleFileGrouping{}
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	return &Process{
		ProcessConfig: config,
		logger:        config.Logger.WithField("run", uuid.New().String()),
	}, nil
}

// Run performs the deposit. Every step must succeed before the next one
// starts. When the service rejects the request document the error is a
// *ValidationRejectedError.
func (p *Process) Run(ctx context.Context) (res *Result, err error) {
	defer func() { p.Metrics.deposit(outcome(err)) }()

	descriptors, err := checkFiles(p.logger, p.Fs, p.Files)
	if err != nil {
		return nil, err
	}

	entries := BuildFileEntries(p.logger, descriptors, p.Overrides)
	grouped := p.Grouping.Group(orderedEntries(descriptors, entries))
	if err := validatePending(p.Request.WithFileSets(grouped).ToWireDocument()); err != nil {
		return nil, err
	}

	files := make([]UploadFile, 0, len(descriptors))
	for _, d := range descriptors {
		files = append(files, UploadFile{Descriptor: d, ContentType: entries[d.Path].ContentType})
	}
	uploads, err := NewUploader(p.logger, p.Transport, p.Fs, p.Concurrency, p.Metrics).Upload(ctx, files)
	if err != nil {
		return nil, err
	}

	sets, err := AttachUploads(grouped, uploads)
	if err != nil {
		return nil, err
	}
	request := p.Request.WithFileSets(sets)

	return submit(ctx, p.logger, p.Transport, request.ToWireDocument(), p.Accession)
}

// checkFiles confirms that the files exist and can be told apart by their
// basename before describing them. No network activity happens until this is
// done.
func checkFiles(logger logrus.FieldLogger, fs afero.Fs, paths []string) ([]*FileDescriptor, error) {
	logger.WithFields(logrus.Fields{
		"event": "validation.start",
		"files": len(paths),
	}).Info("Checking to see if files exist.")

	for _, path := range paths {
		if _, err := fs.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, &FileNotFoundError{Path: path}
			}
			return nil, errors.Wrapf(err, "cannot stat %s", path)
		}
	}

	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		if prev, ok := seen[name]; ok {
			return nil, &DuplicateFilenameError{Filename: name, Paths: []string{prev, path}}
		}
		seen[name] = path
	}

	descriptors := make([]*FileDescriptor, 0, len(paths))
	for _, path := range paths {
		d, err := ReadFileDescriptor(fs, path)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	if rejected := (*ValidationRejectedError)(nil); errors.As(err, &rejected) {
		return outcomeRejected
	}
	return outcomeFailed
}

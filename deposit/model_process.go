package deposit

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ModelProcessConfig configures a ModelProcess.
type ModelProcessConfig struct {
	Logger      logrus.FieldLogger
	Transport   Transport
	Fs          afero.Fs
	Document    WireDocument
	Files       []string
	Accession   bool
	Concurrency int
	Metrics     *Metrics
}

// ModelProcess deposits an object described by a complete request document,
// i.e. its file sets are already arranged by the user. The local files must
// match the files listed in the document one to one. Files are uploaded with
// the content type declared in the document.
type ModelProcess struct {
	ModelProcessConfig
	logger logrus.FieldLogger
}

func NewModelProcess(config ModelProcessConfig) (*ModelProcess, error) {
	if config.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	return &ModelProcess{
		ModelProcessConfig: config,
		logger:             config.Logger.WithField("run", uuid.New().String()),
	}, nil
}

func (p *ModelProcess) Run(ctx context.Context) (res *Result, err error) {
	defer func() { p.Metrics.deposit(outcome(err)) }()

	descriptors, err := checkFiles(p.logger, p.Fs, p.Files)
	if err != nil {
		return nil, err
	}
	if err := filesMatch(descriptors, p.Document.Filenames()); err != nil {
		return nil, err
	}
	if err := validatePending(p.Document); err != nil {
		return nil, err
	}

	types := p.Document.MimeTypes()
	files := make([]UploadFile, 0, len(descriptors))
	for _, d := range descriptors {
		files = append(files, UploadFile{Descriptor: d, ContentType: types[d.Basename]})
	}
	uploads, err := NewUploader(p.logger, p.Transport, p.Fs, p.Concurrency, p.Metrics).Upload(ctx, files)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]string, len(uploads))
	for filename, u := range uploads {
		ids[filename] = u.SignedID
	}
	doc, err := p.Document.WithExternalIdentifiers(ids)
	if err != nil {
		return nil, err
	}

	return submit(ctx, p.logger, p.Transport, doc, p.Accession)
}

// filesMatch reports local files without request files and request files
// without local files.
func filesMatch(descriptors []*FileDescriptor, requestFiles []string) error {
	requested := make(map[string]struct{}, len(requestFiles))
	for _, name := range requestFiles {
		requested[name] = struct{}{}
	}
	local := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		local[d.Basename] = struct{}{}
		if _, ok := requested[d.Basename]; !ok {
			return &FileMismatchError{Filename: d.Path, Local: true}
		}
	}
	sorted := append([]string(nil), requestFiles...)
	sort.Strings(sorted)
	for _, name := range sorted {
		if _, ok := local[name]; !ok {
			return &FileMismatchError{Filename: name}
		}
	}
	return nil
}

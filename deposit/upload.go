package deposit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/sul-dlss/sdr-client/sdrclient"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const directUploadsPath = "/v1/direct_uploads"

// Transport sends requests to the SDR API. It is configured with the base URL
// and the credentials of the user. *sdrclient.Client implements it.
type Transport interface {
	Post(ctx context.Context, path string, body io.Reader, header http.Header) (*sdrclient.Response, error)
	Put(ctx context.Context, url string, body io.Reader, header http.Header) (*sdrclient.Response, error)
}

var _ Transport = (*sdrclient.Client)(nil)

// UploadState is the progress of the upload of a single file.
type UploadState int

const (
	UploadPending UploadState = iota
	UploadDescriptorRequested
	UploadDescriptorReceived
	UploadBytesUploaded
	UploadFailed
)

func (s UploadState) String() string {
	switch s {
	case UploadPending:
		return "PENDING"
	case UploadDescriptorRequested:
		return "DESCRIPTOR_REQUESTED"
	case UploadDescriptorReceived:
		return "DESCRIPTOR_RECEIVED"
	case UploadBytesUploaded:
		return "BYTES_UPLOADED"
	case UploadFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// UploadDescriptor registers the intent to upload a file.
type UploadDescriptor struct {
	Filename    string `json:"filename"`
	ByteSize    int64  `json:"byte_size"`
	Checksum    string `json:"checksum"`
	ContentType string `json:"content_type"`
}

// MarshalJSON wraps the descriptor in the blob envelope used by the service.
func (d UploadDescriptor) MarshalJSON() ([]byte, error) {
	type alias UploadDescriptor
	return json.Marshal(struct {
		Blob alias `json:"blob"`
	}{alias(d)})
}

// UploadResult is the response to an UploadDescriptor.
type UploadResult struct {
	ID           int64        `json:"id"`
	Key          string       `json:"key"`
	Filename     string       `json:"filename"`
	ContentType  string       `json:"content_type"`
	ByteSize     int64        `json:"byte_size"`
	Checksum     string       `json:"checksum"`
	SignedID     string       `json:"signed_id"`
	DirectUpload DirectUpload `json:"direct_upload"`
}

// DirectUpload is where the bytes of the file must be sent.
type DirectUpload struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// UploadFile is a file to be uploaded, declared with the given content type.
type UploadFile struct {
	Descriptor  *FileDescriptor
	ContentType string
}

// Uploader runs the direct upload protocol.
//
// Every file is registered first (descriptor request). Only when all the
// files have been registered their contents are sent. Up to concurrency files
// are processed at the same time; the first error cancels the rest.
type Uploader struct {
	logger      logrus.FieldLogger
	transport   Transport
	fs          afero.Fs
	concurrency int
	metrics     *Metrics
}

func NewUploader(logger logrus.FieldLogger, transport Transport, fs afero.Fs, concurrency int, metrics *Metrics) *Uploader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Uploader{
		logger:      logger,
		transport:   transport,
		fs:          fs,
		concurrency: concurrency,
		metrics:     metrics,
	}
}

type uploadTask struct {
	file   UploadFile
	state  UploadState
	result UploadResult
	logger logrus.FieldLogger
}

func (t *uploadTask) transition(state UploadState) {
	t.state = state
	t.logger.WithField("state", state.String()).Debug("Upload state changed.")
}

// Upload uploads the files and returns the results keyed by basename.
func (u *Uploader) Upload(ctx context.Context, files []UploadFile) (map[string]UploadResult, error) {
	tasks := make([]*uploadTask, len(files))
	for i, f := range files {
		tasks[i] = &uploadTask{
			file:   f,
			state:  UploadPending,
			logger: u.logger.WithField("filename", f.Descriptor.Basename),
		}
	}

	if err := u.each(ctx, tasks, u.requestUpload); err != nil {
		return nil, err
	}
	if err := u.each(ctx, tasks, u.uploadBytes); err != nil {
		return nil, err
	}

	results := make(map[string]UploadResult, len(tasks))
	for _, t := range tasks {
		results[t.file.Descriptor.Basename] = t.result
	}
	return results, nil
}

// each runs fn for every task in the worker pool. Each task is only touched
// by one worker.
func (u *Uploader) each(ctx context.Context, tasks []*uploadTask, fn func(context.Context, *uploadTask) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for _, t := range tasks {
		if gctx.Err() != nil {
			break
		}
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(gctx, t); err != nil {
				t.transition(UploadFailed)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// The loop may have stopped early without any worker failing.
	return ctx.Err()
}

func (u *Uploader) requestUpload(ctx context.Context, t *uploadTask) error {
	d := t.file.Descriptor
	desc := UploadDescriptor{
		Filename:    d.Basename,
		ByteSize:    d.Size,
		Checksum:    d.MD5Base64(),
		ContentType: t.file.ContentType,
	}
	if desc.ContentType == "" {
		desc.ContentType = defaultContentType
	}
	t.logger.WithFields(logrus.Fields{
		"event":        "upload.start",
		"size":         desc.ByteSize,
		"content_type": desc.ContentType,
	}).Info("Starting an upload request.")

	blob, err := json.Marshal(desc)
	if err != nil {
		return errors.Wrap(err, "error encoding the upload descriptor")
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	t.transition(UploadDescriptorRequested)
	resp, err := u.transport.Post(ctx, directUploadsPath, bytes.NewReader(blob), header)
	if err != nil {
		return errors.Wrapf(err, "direct upload request for %s", d.Basename)
	}
	if resp.StatusCode != http.StatusOK {
		return &UnexpectedResponseError{
			Op:     "direct upload request for " + d.Basename,
			Status: resp.StatusCode,
			Body:   string(resp.Body),
		}
	}
	if err := json.Unmarshal(resp.Body, &t.result); err != nil {
		return errors.Wrapf(err, "error decoding the direct upload response for %s", d.Basename)
	}
	if t.result.DirectUpload.URL == "" {
		return errors.Errorf("direct upload response for %s has no upload URL", d.Basename)
	}
	t.transition(UploadDescriptorReceived)
	return nil
}

func (u *Uploader) uploadBytes(ctx context.Context, t *uploadTask) error {
	d := t.file.Descriptor
	f, err := u.fs.Open(d.Path)
	if err != nil {
		return errors.Wrapf(err, "cannot open %s", d.Path)
	}
	defer f.Close()

	// Values confirmed by the service win over the ones we sent.
	contentType := t.result.ContentType
	if contentType == "" {
		contentType = t.file.ContentType
	}
	header := http.Header{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.FormatInt(t.result.ByteSize, 10))

	t.logger.WithField("url", t.result.DirectUpload.URL).Debug("Uploading file contents.")
	resp, err := u.transport.Put(ctx, t.result.DirectUpload.URL, f, header)
	if err != nil {
		return errors.Wrapf(err, "upload of %s", d.Basename)
	}
	if resp.StatusCode != http.StatusNoContent {
		return &UnexpectedResponseError{
			Op:     "upload of " + d.Basename,
			Status: resp.StatusCode,
			Body:   string(resp.Body),
		}
	}
	t.transition(UploadBytesUploaded)
	u.metrics.fileUploaded(t.result.ByteSize)
	t.logger.WithFields(logrus.Fields{
		"event":     "upload.end",
		"signed_id": t.result.SignedID,
	}).Info("Upload complete.")
	return nil
}

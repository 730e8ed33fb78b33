// Package s3 stages files kept in S3-compatible object storage so they can be
// deposited like local files.
package s3

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const scheme = "s3"

// ObjectStorage is a S3-compatible storage interface.
type ObjectStorage interface {
	Download(ctx context.Context, w io.WriterAt, URI string) (int64, error)
}

// ObjectStorageImpl is our implementation of the ObjectStorage interface.
type ObjectStorageImpl struct {
	client     s3iface.S3API
	downloader *s3manager.Downloader
}

var _ ObjectStorage = (*ObjectStorageImpl)(nil)

// New returns a pointer to a new ObjectStorageImpl.
func New(sess *session.Session) *ObjectStorageImpl {
	client := s3.New(sess)
	return &ObjectStorageImpl{
		client:     client,
		downloader: s3manager.NewDownloaderWithClient(client),
	}
}

// Download writes the contents of a remote file into the given writer.
func (s *ObjectStorageImpl) Download(ctx context.Context, w io.WriterAt, URI string) (n int64, err error) {
	bucket, key, err := getBucketAndKey(URI)
	if err != nil {
		return -1, err
	}
	req := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	return s.downloader.DownloadWithContext(ctx, w, req)
}

// IsURI reports whether s references an object, e.g. s3://bucket/key.
func IsURI(s string) bool {
	return strings.HasPrefix(s, scheme+"://")
}

// Stage downloads the object into dir. The local file keeps the basename of
// the object key, which is the filename used in the deposit.
func Stage(ctx context.Context, storage ObjectStorage, fs afero.Fs, dir, URI string) (string, error) {
	_, key, err := getBucketAndKey(URI)
	if err != nil {
		return "", err
	}
	name := path.Base(key)
	if key == "" || name == "/" || name == "." {
		return "", errors.Errorf("object URI has no key: %s", URI)
	}
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return "", errors.Wrapf(err, "cannot create staging directory %s", dir)
	}

	dest := filepath.Join(dir, name)
	f, err := fs.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", errors.Wrapf(err, "cannot create %s", dest)
	}
	defer f.Close()

	if _, err := storage.Download(ctx, f, URI); err != nil {
		return "", errors.Wrapf(err, "cannot download %s", URI)
	}
	return dest, nil
}

func getBucketAndKey(URI string) (bucket string, key string, err error) {
	u, err := url.Parse(URI)
	if err != nil {
		return "", "", err
	}
	return u.Hostname(), strings.TrimPrefix(u.Path, "/"), nil
}

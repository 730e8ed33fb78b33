package deposit

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const defaultContentType = "application/octet-stream"

// sniffLen is how much of the head of the file is given to the detector.
const sniffLen = 3072

// FileDescriptor is what we know about a local file before uploading it.
type FileDescriptor struct {
	Path        string
	Basename    string
	Size        int64
	ContentType string
	MD5         []byte
	SHA1        []byte
}

// MD5Base64 is the checksum format expected by the direct upload service.
func (d FileDescriptor) MD5Base64() string {
	return base64.StdEncoding.EncodeToString(d.MD5)
}

func (d FileDescriptor) MD5Hex() string {
	return hex.EncodeToString(d.MD5)
}

func (d FileDescriptor) SHA1Hex() string {
	return hex.EncodeToString(d.SHA1)
}

// ReadFileDescriptor derives the basename, size, content type and checksums
// of the file at path. The file is read once.
func ReadFileDescriptor(fs afero.Fs, path string) (*FileDescriptor, error) {
	f, err := fs.Open(path)
	if os.IsNotExist(err) {
		return nil, &FileNotFoundError{Path: path}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", path)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot stat %s", path)
	}
	if fi.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}

	var (
		head  = &limitedBuffer{max: sniffLen}
		md5h  = md5.New()
		sha1h = sha1.New()
	)
	n, err := io.Copy(io.MultiWriter(md5h, sha1h, head), f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}

	return &FileDescriptor{
		Path:        path,
		Basename:    filepath.Base(path),
		Size:        n,
		ContentType: sniffContentType(head.Bytes()),
		MD5:         md5h.Sum(nil),
		SHA1:        sha1h.Sum(nil),
	}, nil
}

func sniffContentType(head []byte) string {
	if len(head) == 0 {
		return defaultContentType
	}
	// Parameters like charset are not wanted.
	ct, _, _ := strings.Cut(mimetype.Detect(head).String(), ";")
	return strings.TrimSpace(ct)
}

// limitedBuffer keeps the first max bytes written to it and discards the
// rest without failing the writer.
type limitedBuffer struct {
	bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.Len(); room > 0 {
		if len(p) > room {
			b.Buffer.Write(p[:room])
		} else {
			b.Buffer.Write(p)
		}
	}
	return len(p), nil
}

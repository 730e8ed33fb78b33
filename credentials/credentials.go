// Package credentials persists the bearer token obtained with the login
// command so later commands can authenticate against the SDR API.
package credentials

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	dirName  = ".sdr"
	fileName = "credentials"
)

// ErrNoCredentials is returned when the user has not logged in yet.
var ErrNoCredentials = errors.New("no credentials found")

// Store provides the bearer token.
type Store interface {
	Read() (string, error)
}

// FileStore is a Store backed by a single file holding the token.
type FileStore struct {
	fs   afero.Fs
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a FileStore using path. An empty path means the
// default location, i.e. ~/.sdr/credentials.
func NewFileStore(fs afero.Fs, path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "cannot determine the home directory")
		}
		path = filepath.Join(home, dirName, fileName)
	}
	return &FileStore{fs: fs, path: path}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

// Read returns the first line of the credentials file.
func (s *FileStore) Read() (string, error) {
	f, err := s.fs.Open(s.path)
	if os.IsNotExist(err) {
		return "", ErrNoCredentials
	}
	if err != nil {
		return "", errors.Wrap(err, "cannot open credentials")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", errors.Wrap(err, "cannot read credentials")
		}
		return "", ErrNoCredentials
	}
	token := strings.TrimSpace(scanner.Text())
	if token == "" {
		return "", ErrNoCredentials
	}
	return token, nil
}

// Write replaces the stored token. The directory is only accessible by the
// owner.
func (s *FileStore) Write(token string) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.Wrap(err, "cannot create credentials directory")
	}
	f, err := s.fs.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "cannot create credentials file")
	}
	if _, err := f.WriteString(token); err != nil {
		f.Close()
		return errors.Wrap(err, "cannot write credentials")
	}
	return f.Close()
}

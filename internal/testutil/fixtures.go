package testutil

import (
	"io/ioutil"
	"path"
	"runtime"
	"testing"

	"github.com/spf13/afero"
)

// Fixture loads a file from the testdata directory at the root of the
// repository.
func Fixture(t *testing.T, relPath string) []byte {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("error loading caller")
	}

	p := path.Join(path.Dir(filename), "../../", "testdata", relPath)

	bytes, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatalf("error loading fixture %s: %v", p, err)
	}

	return bytes
}

// WriteFile creates a file with the given contents in fs and returns its
// path.
func WriteFile(t *testing.T, fs afero.Fs, p, contents string) string {
	t.Helper()

	if err := fs.MkdirAll(path.Dir(p), 0755); err != nil {
		t.Fatalf("error creating directory for %s: %v", p, err)
	}
	if err := afero.WriteFile(fs, p, []byte(contents), 0644); err != nil {
		t.Fatalf("error writing %s: %v", p, err)
	}

	return p
}

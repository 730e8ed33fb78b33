package credentials

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewFileStore(fs, "/home/jane/.sdr/credentials")
	require.NoError(t, err)

	_, err = s.Read()
	assert.Equal(t, ErrNoCredentials, err)

	require.NoError(t, s.Write("zaq1"))
	token, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "zaq1", token)

	fi, err := fs.Stat("/home/jane/.sdr/credentials")
	require.NoError(t, err)
	assert.EqualValues(t, 0600, fi.Mode().Perm())

	// Overwrites.
	require.NoError(t, s.Write("xsw2"))
	token, err = s.Read()
	require.NoError(t, err)
	assert.Equal(t, "xsw2", token)
}

func TestFileStoreReadsFirstLine(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/creds", []byte("token-1\ntoken-2\n"), 0600))
	s, err := NewFileStore(fs, "/creds")
	require.NoError(t, err)

	token, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
}

func TestFileStoreEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/creds", []byte("\n"), 0600))
	s, err := NewFileStore(fs, "/creds")
	require.NoError(t, err)

	_, err = s.Read()
	assert.Equal(t, ErrNoCredentials, err)
}

package app

import (
	"github.com/sul-dlss/sdr-client/credentials"
	"github.com/sul-dlss/sdr-client/sdrclient"

	"github.com/spf13/afero"
)

var appFs = afero.NewOsFs()

func credentialStore(config *Config) (*credentials.FileStore, error) {
	return credentials.NewFileStore(appFs, config.Credentials.Path)
}

// newClient returns an API client. The token is read from the credential
// store unless anonymous is set.
func newClient(config *Config, anonymous bool) (*sdrclient.Client, error) {
	var token string
	if !anonymous {
		store, err := credentialStore(config)
		if err != nil {
			return nil, err
		}
		token, err = store.Read()
		if err != nil {
			return nil, err
		}
	}
	return sdrclient.New(nil, config.Service.URL, token,
		sdrclient.SetUserAgent(config.Service.UserAgent),
		sdrclient.SetTimeout(config.Service.Timeout),
	)
}

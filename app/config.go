package app

import (
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/sul-dlss/sdr-client/deposit"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const defaultConfig = `# SDR Client

################################## LOGGING ####################################

[logging]

#
# Logging verbosity level.
# Supported values: "DEBUG", "INFO", "WARN", "ERROR", "FATAL" or "PANIC".
#
level = "INFO"

#
# Logging format.
# Supported values: "text", "json" or "logfmt".
#
format = "text"

################################## SERVICE ####################################

[service]

#
# URL of the SDR API.
#
url = "https://sdr-api-prod.stanford.edu"

#
# Maximum duration of a single request, e.g. an upload. Zero means no limit.
#
timeout = "5m"

#
# User-Agent header sent with every request. Defaults to sdr-client/VERSION.
#
user_agent = ""

################################## DEPOSIT ####################################

[deposit]

#
# Model of the repository objects created by the deposit command.
#
type = "http://cocina.sul.stanford.edu/models/book.jsonld"

#
# How the files are arranged in file sets.
# Supported values: "single" (one file set per file) or "matching" (files
# sharing the same name without extension are kept together).
#
grouping = "single"

#
# Number of files uploaded at the same time.
#
concurrency = 1

#
# YAML or JSON document with the metadata of individual files, keyed by
# filename, e.g.:
#
#   page1.tif:
#     access: world
#     shelve: true
#
files_metadata = ""

################################ CREDENTIALS ##################################

[credentials]

#
# File where the login token is kept. Defaults to ~/.sdr/credentials.
#
path = ""

#################################### JOB ######################################

[job]

#
# Wait for the background job that completes the deposit.
#
wait = false

#
# Give up waiting after this long.
#
max_wait = "10m"

################################## AWS ########################################

[aws]

#
# Used to download files given as s3://bucket/key.
#
s3_profile = ""
s3_endpoint = ""

################################# METRICS #####################################

[metrics]

#
# Prometheus Pushgateway that receives the deposit metrics when set, e.g.
# "http://localhost:9091".
#
pushgateway_url = ""
job = "sdr_client"
`

type Config struct {
	v *viper.Viper

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`

	Service struct {
		URL       string        `mapstructure:"url"`
		Timeout   time.Duration `mapstructure:"timeout"`
		UserAgent string        `mapstructure:"user_agent"`
	} `mapstructure:"service"`

	Deposit struct {
		Type          string `mapstructure:"type"`
		Grouping      string `mapstructure:"grouping"`
		Concurrency   int    `mapstructure:"concurrency"`
		FilesMetadata string `mapstructure:"files_metadata"`
	} `mapstructure:"deposit"`

	Credentials struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"credentials"`

	Job struct {
		Wait    bool          `mapstructure:"wait"`
		MaxWait time.Duration `mapstructure:"max_wait"`
	} `mapstructure:"job"`

	AWS struct {
		S3Profile  string `mapstructure:"s3_profile"`
		S3Endpoint string `mapstructure:"s3_endpoint"`
	} `mapstructure:"aws"`

	Metrics struct {
		PushgatewayURL string `mapstructure:"pushgateway_url"`
		Job            string `mapstructure:"job"`
	} `mapstructure:"metrics"`
}

func (c Config) Validate() error {
	if c.Service.URL == "" {
		return errors.New("service.url is empty")
	}
	if c.Service.Timeout < 0 {
		return errors.Errorf("service.timeout is negative: %s", c.Service.Timeout)
	}
	if c.Deposit.Concurrency < 1 {
		return errors.Errorf("deposit.concurrency must be at least 1: %d", c.Deposit.Concurrency)
	}
	if _, err := deposit.GroupingStrategyFor(c.Deposit.Grouping); err != nil {
		return errors.Wrap(err, "deposit.grouping")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", formatText, formatJSON, formatLogfmt:
	default:
		return errors.Errorf("logging.format is not supported: %q", c.Logging.Format)
	}
	return nil
}

func (c Config) String() string {
	tmpfile, err := ioutil.TempFile("", "config.*.toml")
	if err != nil {
		return err.Error()
	}
	defer os.Remove(tmpfile.Name())
	defer tmpfile.Close()
	err = c.v.WriteConfigAs(tmpfile.Name())
	if err != nil {
		return err.Error()
	}
	blob, err := ioutil.ReadAll(tmpfile)
	if err != nil {
		return err.Error()
	}
	return string(blob)
}

func loadConfig(c *Config) error {
	v := viper.New()

	v.SetEnvPrefix("SDR_CLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("sdr-client")
	v.SetConfigType("toml")
	v.AddConfigPath("$HOME/.config/")
	v.AddConfigPath("/etc/sdr/")

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read our default configuration.
	if err := v.ReadConfig(strings.NewReader(defaultConfig)); err != nil {
		panic(err) // Not in the user path.
	}

	// Include configuration file provided by the user.
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return errors.Wrap(err, "configuration unmarshaling failed")
	}

	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "config did not pass validation")
	}

	c.v = v

	return nil
}

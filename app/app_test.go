package app

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sul-dlss/sdr-client/integration/sdrmock"
	"github.com/sul-dlss/sdr-client/internal/testutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	out    string
	stderr string
	err    error
}

// runCLI runs the command line with a clean environment: HOME and the
// credentials file live in a temporary directory.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	var out, stderr bytes.Buffer
	cmd := RootCommand(strings.NewReader(stdin), &out, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return cliResult{out: out.String(), stderr: stderr.String(), err: err}
}

// setUp prepares a logged in user and returns the path of a directory to
// put files in.
func setUp(t *testing.T, loggedIn bool) (dir, credentialsPath string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	credentialsPath = filepath.Join(home, ".sdr", "credentials")
	t.Setenv("SDR_CLIENT_CREDENTIALS_PATH", credentialsPath)
	serviceURL = ""
	verbosityLevel = ""
	if loggedIn {
		testutil.WriteFile(t, afero.NewOsFs(), credentialsPath, sdrmock.Token+"\n")
	}
	dir = filepath.Join(home, "files")
	require.NoError(t, os.MkdirAll(dir, 0755))
	return dir, credentialsPath
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	return testutil.WriteFile(t, afero.NewOsFs(), filepath.Join(dir, name), contents)
}

func TestMainHelp(t *testing.T) {
	res := runCLI(t, "", "help")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Available Commands")
	for _, name := range []string{"deposit", "register", "deposit-model", "login", "status"} {
		assert.Contains(t, res.out, name)
	}
	assert.Empty(t, res.stderr)
}

func TestMainUnknownCommand(t *testing.T) {
	cmd := RootCommand(strings.NewReader(""), ioutil.Discard, ioutil.Discard)
	cmd.SetArgs([]string{"unknown"})

	assert.Error(t, cmd.Execute())
}

func TestDeposit(t *testing.T) {
	srv := sdrmock.New(t)
	dir, _ := setUp(t, true)
	a := writeFile(t, dir, "page1.tif", "image")
	b := writeFile(t, dir, "page1.txt", "text")

	res := runCLI(t, "",
		"deposit", "--service-url", srv.URL,
		"--apo", "druid:bc123df4567", "--source-id", "googlebooks:12345",
		"--label", "My book", "--grouping", "matching", "--wait",
		a, b)

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Created druid:bc123df4567 (background job /v1/jobs/1)")
	assert.Contains(t, res.out, "Job /v1/jobs/1 complete: druid:bc123df4567")

	create := srv.CallsTo(http.MethodPost, "/v1/resources")
	require.Len(t, create, 1)
	assert.Equal(t, "accession=true", create[0].RawQuery)
	assert.Equal(t, "Bearer "+sdrmock.Token, create[0].Header.Get("Authorization"))
	assert.Contains(t, string(create[0].Body), `"label":"page1"`)
	assert.Contains(t, string(create[0].Body), `"type":"http://cocina.sul.stanford.edu/models/book.jsonld"`)
	assert.Len(t, srv.CallsTo(http.MethodGet, "/v1/jobs/1"), 1)
}

func TestDepositWithFilesMetadata(t *testing.T) {
	srv := sdrmock.New(t)
	dir, _ := setUp(t, true)
	a := writeFile(t, dir, "a.pdf", "%PDF-1.4")
	metadata := writeFile(t, dir, "files.yml", "a.pdf:\n  access: stanford\n  shelve: true\n")

	res := runCLI(t, "",
		"deposit", "--service-url", srv.URL,
		"--apo", "druid:bc123df4567", "--source-id", "googlebooks:12345",
		"--files-metadata", metadata, a)

	require.NoError(t, res.err)
	create := srv.CallsTo(http.MethodPost, "/v1/resources")
	require.Len(t, create, 1)
	assert.Contains(t, string(create[0].Body), `"access":{"access":"stanford"}`)
	assert.Contains(t, string(create[0].Body), `"shelve":true`)
}

func TestRegister(t *testing.T) {
	srv := sdrmock.New(t)
	dir, _ := setUp(t, true)
	a := writeFile(t, dir, "a.txt", "a")

	res := runCLI(t, "",
		"register", "--service-url", srv.URL,
		"--apo", "druid:bc123df4567", "--source-id", "googlebooks:12345", a)

	require.NoError(t, res.err)
	create := srv.CallsTo(http.MethodPost, "/v1/resources")
	require.Len(t, create, 1)
	assert.Empty(t, create[0].RawQuery)
}

func TestDepositErrors(t *testing.T) {
	tests := map[string]struct {
		loggedIn bool
		respond  func(*sdrmock.Server)
		args     func(t *testing.T, dir string) []string
		message  string
	}{
		"Not logged in": {
			loggedIn: false,
			args:     func(t *testing.T, dir string) []string { return []string{writeFile(t, dir, "a.txt", "a")} },
			message:  "Log in first",
		},
		"Rejected": {
			loggedIn: true,
			respond: func(srv *sdrmock.Server) {
				srv.Respond(http.MethodPost, "/v1/resources", http.StatusBadRequest, `{"errors":"bad data"}`)
			},
			args:    func(t *testing.T, dir string) []string { return []string{writeFile(t, dir, "a.txt", "a")} },
			message: `There was an error with your request: {"errors":"bad data"}`,
		},
		"Missing file": {
			loggedIn: true,
			args:     func(t *testing.T, dir string) []string { return []string{filepath.Join(dir, "missing.txt")} },
			message:  "file not found: ",
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			srv := sdrmock.New(t)
			if tc.respond != nil {
				tc.respond(srv)
			}
			dir, _ := setUp(t, tc.loggedIn)

			args := append([]string{
				"deposit", "--service-url", srv.URL,
				"--apo", "druid:bc123df4567", "--source-id", "googlebooks:12345",
			}, tc.args(t, dir)...)
			res := runCLI(t, "", args...)

			exitErr := &ExitError{}
			require.ErrorAs(t, res.err, &exitErr)
			assert.Equal(t, 1, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.message)
			assert.NotContains(t, res.out, "Created")
		})
	}
}

func TestDepositRequiredFlags(t *testing.T) {
	srv := sdrmock.New(t)
	setUp(t, true)

	res := runCLI(t, "", "deposit", "--service-url", srv.URL, "--apo", "druid:bc123df4567")
	assert.EqualError(t, res.err, `required flag(s) "source-id" not set`)

	res = runCLI(t, "", "deposit", "--service-url", srv.URL,
		"--apo", "druid:bc123df4567", "--source-id", "x", "--embargo-release-date", "next year")
	assert.EqualError(t, res.err, `invalid embargo release date "next year", use YYYY-MM-DD`)
	assert.Empty(t, srv.Calls())
}

func TestDepositModel(t *testing.T) {
	srv := sdrmock.New(t)
	dir, _ := setUp(t, true)
	request := writeFile(t, dir, "request.json", string(testutil.Fixture(t, "request/model.json")))
	a := writeFile(t, dir, "page1.tif", "image")
	b := writeFile(t, dir, "page1.txt", "text")

	res := runCLI(t, "", "deposit-model", "--service-url", srv.URL, "--request", request, a, b)

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Created druid:bc123df4567")
	create := srv.CallsTo(http.MethodPost, "/v1/resources")
	require.Len(t, create, 1)
	assert.Contains(t, string(create[0].Body), `"externalIdentifier":"signed-page1.tif"`)
}

func TestDepositModelUnknownMember(t *testing.T) {
	srv := sdrmock.New(t)
	dir, _ := setUp(t, true)
	model := strings.Replace(string(testutil.Fixture(t, "request/model.json")),
		`"filename": "page1.tif",`, `"filename": "page1.tif", "mimeType": "image/tiff",`, 1)
	request := writeFile(t, dir, "request.json", model)
	a := writeFile(t, dir, "page1.tif", "image")
	b := writeFile(t, dir, "page1.txt", "text")

	res := runCLI(t, "", "deposit-model", "--service-url", srv.URL, "--request", request, a, b)

	exitErr := &ExitError{}
	require.ErrorAs(t, res.err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, exitErr.Message, "The request document is invalid")
	assert.Contains(t, exitErr.Message, `unknown field "mimeType"`)
	assert.Empty(t, srv.Calls())
}

func TestDepositOptionsFromConfigGrouping(t *testing.T) {
	config := &Config{}
	config.Deposit.Grouping = "random"
	cmd := NewCmdDeposit(ioutil.Discard, config, true)
	opts := &depositOptions{}

	err := opts.fromConfig(cmd, config)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "deposit.grouping")

	config.Deposit.Grouping = "matching"
	require.NoError(t, opts.fromConfig(cmd, config))
	assert.Equal(t, "matching", opts.grouping.String())
}

func TestLogin(t *testing.T) {
	srv := sdrmock.New(t)
	_, credentialsPath := setUp(t, false)

	res := runCLI(t, "user@example.com\nsecret\n", "login", "--service-url", srv.URL)

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Signed in.")
	calls := srv.CallsTo(http.MethodPost, "/v1/auth/login")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"email":"user@example.com","password":"secret"}`, string(calls[0].Body))
	assert.Empty(t, calls[0].Header.Get("Authorization"))

	blob, err := ioutil.ReadFile(credentialsPath)
	require.NoError(t, err)
	assert.Equal(t, sdrmock.Token, strings.TrimSpace(string(blob)))
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := sdrmock.New(t)
	srv.Respond(http.MethodPost, "/v1/auth/login", http.StatusUnauthorized, "")
	_, credentialsPath := setUp(t, false)

	res := runCLI(t, "user@example.com\nwrong\n", "login", "--service-url", srv.URL)

	exitErr := &ExitError{}
	require.ErrorAs(t, res.err, &exitErr)
	assert.Equal(t, "Invalid username or password", exitErr.Message)
	_, err := os.Stat(credentialsPath)
	assert.True(t, os.IsNotExist(err))
}

func TestStatus(t *testing.T) {
	srv := sdrmock.New(t)
	setUp(t, true)

	res := runCLI(t, "", "status", "--service-url", srv.URL, sdrmock.JobLocation)
	require.NoError(t, res.err)
	assert.Equal(t, "Job /v1/jobs/1 complete: druid:bc123df4567\n", res.out)

	srv.Respond(http.MethodGet, "/v1/jobs/", http.StatusOK,
		`{"status":"complete","output":{"errors":[{"title":"Bad","message":"no good"}]}}`)
	res = runCLI(t, "", "status", "--service-url", srv.URL, sdrmock.JobLocation)
	exitErr := &ExitError{}
	require.ErrorAs(t, res.err, &exitErr)
	assert.Contains(t, exitErr.Message, "Job /v1/jobs/1 failed")
}

func TestValidate(t *testing.T) {
	dir, _ := setUp(t, false)
	valid := writeFile(t, dir, "full.json", string(testutil.Fixture(t, "request/full.json")))
	invalid := writeFile(t, dir, "model.json", string(testutil.Fixture(t, "request/model.json")))

	res := runCLI(t, "", "validate", "--file", valid)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "The request document is valid.")

	res = runCLI(t, "", "validate", "--file", invalid)
	exitErr := &ExitError{}
	require.ErrorAs(t, res.err, &exitErr)
	assert.Contains(t, res.out, "externalIdentifier")
}

func TestConfig(t *testing.T) {
	setUp(t, false)
	t.Setenv("SDR_CLIENT_DEPOSIT_GROUPING", "matching")

	res := runCLI(t, "", "config")
	require.NoError(t, res.err)
	assert.Regexp(t, `grouping = ['"]matching['"]`, res.out)

	t.Setenv("SDR_CLIENT_DEPOSIT_GROUPING", "random")
	res = runCLI(t, "", "config")
	assert.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "config did not pass validation")
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "sdr-client/dev\n", res.out)
}

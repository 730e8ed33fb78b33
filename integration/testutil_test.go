package integration

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/sul-dlss/sdr-client/integration/sdrmock"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/require"
)

func awsSession(endpoint string) *session.Session {
	config := aws.NewConfig()
	config = config.WithEndpoint(endpoint)
	config = config.WithRegion(awsRegion)
	if *flagDebug {
		config = config.WithLogLevel(aws.LogDebugWithHTTPBody)
	}
	config = config.WithCredentials(credentials.NewStaticCredentials(
		awsAccessKeyID, awsSecretAccessKey, awsTokenKey))
	config = config.WithS3ForcePathStyle(true)
	config.DisableSSL = aws.Bool(true)
	return session.Must(session.NewSession(config))
}

func s3Client(t *testing.T) *s3.S3 {
	t.Helper()
	if *flagS3Endpoint == "" {
		t.Skip("skipping test: -s3endpoint is undefined")
	}
	return s3.New(awsSession(*flagS3Endpoint))
}

// putObject stores an object in the test bucket and returns the MD5 checksum
// of its contents.
func putObject(t *testing.T, client *s3.S3, key string, contents []byte) string {
	t.Helper()
	_, err := client.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(awsBucket)})
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeBucketAlreadyExists, s3.ErrCodeBucketAlreadyOwnedByYou:
			err = nil
		}
	}
	require.NoError(t, err)

	_, err = client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(awsBucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(contents),
	})
	require.NoError(t, err)

	sum := md5.Sum(contents)
	return hex.EncodeToString(sum[:])
}

// environment returns the variables given to the binary: the service URL and
// an isolated home with the credentials of a logged in user, unless loggedIn
// is false.
func environment(t *testing.T, srv *sdrmock.Server, loggedIn bool) []string {
	t.Helper()
	home := t.TempDir()
	if loggedIn {
		path := filepath.Join(home, ".sdr", "credentials")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
		require.NoError(t, os.WriteFile(path, []byte(sdrmock.Token+"\n"), 0600))
	}
	env := []string{
		"HOME=" + home,
		"SDR_CLIENT_SERVICE_URL=" + srv.URL,
	}
	if *flagDebug {
		env = append(env, "SDR_CLIENT_LOGGING_LEVEL=debug")
	}
	if *flagS3Endpoint != "" {
		env = append(env,
			"SDR_CLIENT_AWS_S3_ENDPOINT="+*flagS3Endpoint,
			"AWS_S3_FORCE_PATH_STYLE=true",
			"AWS_REGION="+awsRegion,
			"AWS_ACCESS_KEY_ID="+awsAccessKeyID,
			"AWS_SECRET_ACCESS_KEY="+awsSecretAccessKey,
		)
	}
	return env
}

func writeFiles(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, contents := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
		paths = append(paths, path)
	}
	return paths
}

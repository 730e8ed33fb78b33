// Package integration runs the sdr binary installed in the PATH against a
// fake SDR API. `make install` or `go install .` followed by
// `go test ./integration/...` is the simplest way to run these tests.
//
// `go test` flags supported:
//
//   -debug
//
//    Enable debug mode.
//
//   -s3endpoint="http://localhost:4572"
//
//    Address of a S3-compatible store, e.g. localstack or MinIO. Tests
//    staging remote files are skipped when undefined.
//
// Example: go test -v ./integration/... -s3endpoint="http://localhost:4572"
//
package integration

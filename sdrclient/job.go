package sdrclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v3"
	"github.com/pkg/errors"
)

const jobStatusComplete = "complete"

var errJobPending = errors.New("background job has not completed yet")

// JobStatus is the state of a background job created after a deposit, e.g.
// the job referenced by the Location header of the resource creation.
type JobStatus struct {
	Status string    `json:"status"`
	Output JobOutput `json:"output"`
}

type JobOutput struct {
	Druid  string     `json:"druid,omitempty"`
	Errors []JobError `json:"errors,omitempty"`
}

type JobError struct {
	Title  string `json:"title"`
	Detail string `json:"message"`
}

func (e JobError) String() string {
	if e.Detail == "" {
		return e.Title
	}
	return e.Title + ": " + e.Detail
}

// Complete reports whether the job has finished, successfully or not.
func (s *JobStatus) Complete() bool {
	return s.Status == jobStatusComplete
}

// Failed reports whether the job finished with errors.
func (s *JobStatus) Failed() bool {
	return s.Complete() && len(s.Output.Errors) > 0
}

func (s *JobStatus) ErrorMessage() string {
	msgs := make([]string, 0, len(s.Output.Errors))
	for _, e := range s.Output.Errors {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}

// JobStatus retrieves the status of the background job at location.
func (c *Client) JobStatus(ctx context.Context, location string) (*JobStatus, error) {
	if location == "" {
		return nil, errors.New("job location is empty")
	}
	header := http.Header{}
	header.Set("Accept", "application/json")
	resp, err := c.Get(ctx, location, header)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ErrorResponse{Method: http.MethodGet, URL: location, Response: resp}
	}
	status := &JobStatus{}
	if err := json.Unmarshal(resp.Body, status); err != nil {
		return nil, errors.Wrap(err, "error decoding the job status")
	}
	return status, nil
}

// WaitForJob polls the background job at location until it completes. The
// polling interval is provided by b. It gives up when b stops or ctx is done.
func (c *Client) WaitForJob(ctx context.Context, location string, b backoff.BackOff) (*JobStatus, error) {
	if b == nil {
		b = backoff.NewExponentialBackOff()
	}
	var status *JobStatus
	op := func() error {
		var err error
		status, err = c.JobStatus(ctx, location)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !status.Complete() {
			return errJobPending
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return status, errors.Wrapf(err, "waiting for job %s", location)
	}
	return status, nil
}

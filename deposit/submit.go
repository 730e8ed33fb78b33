package deposit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const resourcesPath = "/v1/resources"

// Result of a successful deposit.
type Result struct {
	// RepositoryID is the identifier of the new object, e.g. druid:bc123df4567.
	RepositoryID string

	// BackgroundJobLocation references the job that completes the creation.
	BackgroundJobLocation string
}

// createOptions are sent in the query string of the resource creation.
type createOptions struct {
	Accession bool `schema:"accession,omitempty"`
}

var queryEncoder = schema.NewEncoder()

type createResponse struct {
	Druid string `json:"druid"`
}

func resourcesURL(opts createOptions) (string, error) {
	values := url.Values{}
	if err := queryEncoder.Encode(opts, values); err != nil {
		return "", errors.Wrap(err, "error encoding the query string")
	}
	if len(values) == 0 {
		return resourcesPath, nil
	}
	return resourcesPath + "?" + values.Encode(), nil
}

// submit sends the final request document to create the repository object.
func submit(ctx context.Context, logger logrus.FieldLogger, transport Transport, doc WireDocument, accession bool) (*Result, error) {
	if err := ValidateWireDocument(doc); err != nil {
		return nil, err
	}
	blob, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "error encoding the request document")
	}
	path, err := resourcesURL(createOptions{Accession: accession})
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	logger.WithFields(logrus.Fields{
		"event":     "submission.start",
		"accession": accession,
	}).Info("Submitting the request document.")
	logger.WithField("document", string(blob)).Debug("Request document.")

	resp, err := transport.Post(ctx, path, bytes.NewReader(blob), header)
	if err != nil {
		return nil, errors.Wrap(err, "resource creation")
	}

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusBadRequest:
		return nil, &ValidationRejectedError{Body: string(resp.Body)}
	default:
		return nil, &UnexpectedResponseError{
			Op:     "resource creation",
			Status: resp.StatusCode,
			Body:   string(resp.Body),
		}
	}

	payload := createResponse{}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, errors.Wrap(err, "error decoding the resource creation response")
	}
	if payload.Druid == "" {
		return nil, errors.Errorf("resource creation response has no druid: %s", resp.Body)
	}
	result := &Result{
		RepositoryID:          payload.Druid,
		BackgroundJobLocation: resp.Header.Get("Location"),
	}
	logger.WithFields(logrus.Fields{
		"event": "submission.end",
		"druid": result.RepositoryID,
		"job":   result.BackgroundJobLocation,
	}).Info("Request document accepted.")
	return result, nil
}

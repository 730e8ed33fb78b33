package app

import (
	"fmt"

	"github.com/sul-dlss/sdr-client/credentials"
	"github.com/sul-dlss/sdr-client/deposit"

	"github.com/pkg/errors"
)

// ExitError is an error the user can act upon. The message is printed as is
// and the process exits with Code, no stack of log records needed.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// userError turns the errors caused by the input of the user into an
// *ExitError. Other errors are returned untouched.
func userError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, credentials.ErrNoCredentials) {
		return &ExitError{Code: 1, Message: "Log in first", Err: err}
	}

	var (
		rejected *deposit.ValidationRejectedError
		notFound *deposit.FileNotFoundError
		dup      *deposit.DuplicateFilenameError
		mismatch *deposit.FileMismatchError
		invalid  *deposit.SchemaError
	)
	switch {
	case errors.As(err, &rejected):
		return &ExitError{Code: 1, Message: rejected.Error(), Err: err}
	case errors.As(err, &notFound):
		return &ExitError{Code: 1, Message: notFound.Error(), Err: err}
	case errors.As(err, &dup):
		return &ExitError{Code: 1, Message: dup.Error(), Err: err}
	case errors.As(err, &mismatch):
		return &ExitError{Code: 1, Message: mismatch.Error(), Err: err}
	case errors.As(err, &invalid):
		return &ExitError{Code: 1, Message: fmt.Sprintf("The request document is invalid: %v", invalid.Issues), Err: err}
	}
	return err
}

package deposit

import (
	"fmt"
	"strings"
)

// FileNotFoundError is returned when a requested local file does not exist.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// DuplicateFilenameError is returned when two requested files share the same
// basename. File metadata and upload results are keyed by basename so such a
// deposit cannot be described unambiguously.
type DuplicateFilenameError struct {
	Filename string
	Paths    []string
}

func (e *DuplicateFilenameError) Error() string {
	return fmt.Sprintf("duplicate filename %q: %s", e.Filename, strings.Join(e.Paths, ", "))
}

// UnexpectedResponseError is returned when the service replies with a status
// code other than the one expected by the operation.
type UnexpectedResponseError struct {
	Op     string
	Status int
	Body   string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response to %s: status %d: %s", e.Op, e.Status, e.Body)
}

// ValidationRejectedError is returned when the service rejects the request
// document. It is an user-correctable error: Body contains the explanation
// given by the service.
type ValidationRejectedError struct {
	Body string
}

func (e *ValidationRejectedError) Error() string {
	return fmt.Sprintf("There was an error with your request: %s", e.Body)
}

// MissingUploadError is returned when a file entry has no upload result to
// take its external identifier from.
type MissingUploadError struct {
	Filename string
}

func (e *MissingUploadError) Error() string {
	return fmt.Sprintf("no upload found for file %q", e.Filename)
}

// FileMismatchError is returned when the local files and the files described
// in a request document do not match.
type FileMismatchError struct {
	Filename string
	Local    bool // Local file without request file when true.
}

func (e *FileMismatchError) Error() string {
	if e.Local {
		return fmt.Sprintf("request file not provided for %s", e.Filename)
	}
	return fmt.Sprintf("file not provided for request file %s", e.Filename)
}

// SchemaError lists the issues found validating a wire document.
type SchemaError struct {
	Issues []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("request document is invalid: %s", strings.Join(e.Issues, "; "))
}

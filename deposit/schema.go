package deposit

import (
	_ "embed"
	"sync"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/request.json
var requestSchemaJSON string

var (
	requestSchema     *gojsonschema.Schema
	requestSchemaErr  error
	requestSchemaOnce sync.Once
)

func loadRequestSchema() (*gojsonschema.Schema, error) {
	requestSchemaOnce.Do(func() {
		requestSchema, requestSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchemaJSON))
	})
	return requestSchema, requestSchemaErr
}

// ValidateWireDocument checks the document before it is submitted, e.g. all
// its files must have an external identifier.
func ValidateWireDocument(doc WireDocument) error {
	return validate(gojsonschema.NewGoLoader(doc))
}

// pendingIdentifier stands in for the identifiers of files not uploaded yet.
const pendingIdentifier = "pending"

// validatePending checks a document whose files are not uploaded yet.
func validatePending(doc WireDocument) error {
	ids := map[string]string{}
	for _, name := range doc.Filenames() {
		ids[name] = pendingIdentifier
	}
	pending, err := doc.WithExternalIdentifiers(ids)
	if err != nil {
		return err
	}
	return ValidateWireDocument(pending)
}

// ValidateWireJSON checks an encoded request document.
func ValidateWireJSON(blob []byte) error {
	return validate(gojsonschema.NewBytesLoader(blob))
}

func validate(doc gojsonschema.JSONLoader) error {
	schema, err := loadRequestSchema()
	if err != nil {
		return errors.Wrap(err, "cannot load request schema")
	}
	result, err := schema.Validate(doc)
	if err != nil {
		return errors.Wrap(err, "cannot validate request document")
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}
	return &SchemaError{Issues: issues}
}

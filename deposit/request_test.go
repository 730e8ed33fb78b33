package deposit

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sul-dlss/sdr-client/internal/testutil"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRequest(t *testing.T) RequestDocument {
	t.Helper()
	r, err := NewRequestDocument(RequestOptions{
		Label:              "This is my object",
		Type:               BookType,
		AdminPolicy:        "druid:bc123df4567",
		Collection:         "druid:gh123df4567",
		SourceID:           "googlebooks:12345",
		CatalogKey:         "11991",
		ViewingDirection:   "right-to-left",
		EmbargoReleaseDate: time.Date(2045, 1, 1, 0, 0, 0, 0, time.UTC),
		EmbargoAccess:      "stanford",
	})
	require.NoError(t, err)
	return r
}

func testFileSets() []FileSet {
	file := func(name, id string) FileEntry {
		return FileEntry{Filename: name, Label: name, Access: "dark", ExternalIdentifier: id}
	}
	return []FileSet{
		{Label: "Object 1", Files: []FileEntry{file("file1.png", "foo-file1")}},
		{Label: "Object 2", Files: []FileEntry{file("file2.png", "bar-file2")}},
	}
}

func TestRequestDocumentWithAllOptions(t *testing.T) {
	r := fullRequest(t).WithFileSets(testFileSets())

	blob, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, string(testutil.Fixture(t, "request/full.json")), string(blob))
}

func TestRequestDocumentWithMinimalOptions(t *testing.T) {
	r, err := NewRequestDocument(RequestOptions{
		Label:       "This is my object",
		AdminPolicy: "druid:bc123df4567",
		SourceID:    "googlebooks:12345",
	})
	require.NoError(t, err)

	blob, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, string(testutil.Fixture(t, "request/minimal.json")), string(blob))
}

func TestRequestDocumentOmitsOptionalKeys(t *testing.T) {
	r, err := NewRequestDocument(RequestOptions{
		AdminPolicy: "druid:bc123df4567",
		SourceID:    "googlebooks:12345",
	})
	require.NoError(t, err)

	blob, err := json.Marshal(r.ToWireDocument())
	require.NoError(t, err)

	doc := map[string]map[string]interface{}{}
	top := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(blob, &top))
	for key, value := range top {
		assert.NotNil(t, value, key)
		if m, ok := value.(map[string]interface{}); ok {
			doc[key] = m
		}
	}

	assert.NotContains(t, top, "label")
	assert.NotContains(t, doc["access"], "embargo")
	assert.NotContains(t, doc["identification"], "catalogLinks")
	assert.NotContains(t, doc["structural"], "isMemberOf")
	assert.NotContains(t, doc["structural"], "hasMemberOrders")
	assert.NotContains(t, doc["structural"], "contains")
	assert.Equal(t, ObjectType, top["type"])
}

func TestRequestDocumentWithFileSetsIsPure(t *testing.T) {
	r := fullRequest(t)
	before, err := json.Marshal(r)
	require.NoError(t, err)

	sets := testFileSets()
	r2 := r.WithFileSets(sets)

	after, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Empty(t, r.FileSets())
	assert.Len(t, r2.FileSets(), 2)

	// Changing the caller's slice does not leak into the document.
	sets[0].Files[0].Label = "changed"
	assert.Equal(t, "file1.png", r2.FileSets()[0].Files[0].Label)
	assert.Equal(t, r.Options(), r2.Options())
}

func TestNewRequestDocumentRequirements(t *testing.T) {
	_, err := NewRequestDocument(RequestOptions{SourceID: "x"})
	assert.EqualError(t, err, "administrative policy is required")

	_, err = NewRequestDocument(RequestOptions{AdminPolicy: "druid:bc123df4567"})
	assert.EqualError(t, err, "source identifier is required")

	r, err := NewRequestDocument(RequestOptions{
		AdminPolicy:        "druid:bc123df4567",
		SourceID:           "x",
		EmbargoReleaseDate: time.Date(2030, 6, 1, 12, 0, 0, 0, time.FixedZone("", -7*3600)),
	})
	require.NoError(t, err)
	embargo := r.ToWireDocument().Access.Embargo
	require.NotNil(t, embargo)
	assert.Equal(t, "world", embargo.Access)
	assert.Equal(t, "2030-06-01T12:00:00-07:00", embargo.ReleaseDate)
}

func TestFileEntryDigests(t *testing.T) {
	wf := FileEntry{Filename: "a.txt", MD5: "abc", SHA1: "def"}.wire()
	assert.Equal(t, []WireMessageDigest{{Type: "md5", Digest: "abc"}, {Type: "sha1", Digest: "def"}}, wf.HasMessageDigests)

	wf = FileEntry{Filename: "a.txt"}.wire()
	assert.Nil(t, wf.HasMessageDigests)
}

func TestWireDocumentWithExternalIdentifiers(t *testing.T) {
	doc := WireDocument{}
	require.NoError(t, json.Unmarshal(testutil.Fixture(t, "request/model.json"), &doc))
	assert.Equal(t, []string{"page1.tif", "page1.txt"}, doc.Filenames())

	out, err := doc.WithExternalIdentifiers(map[string]string{
		"page1.tif": "id-1",
		"page1.txt": "id-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", out.Structural.Contains[0].Structural.Contains[0].ExternalIdentifier)
	assert.Equal(t, "id-2", out.Structural.Contains[0].Structural.Contains[1].ExternalIdentifier)

	// The original document is untouched.
	assert.Equal(t, "", doc.Structural.Contains[0].Structural.Contains[0].ExternalIdentifier)

	_, err = doc.WithExternalIdentifiers(map[string]string{"page1.tif": "id-1"})
	missing := &MissingUploadError{}
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "page1.txt", missing.Filename)
}

func TestDecodeWireDocument(t *testing.T) {
	blob := strings.Replace(string(testutil.Fixture(t, "request/model.json")),
		`"filename": "page1.tif",`, `"filename": "page1.tif", "hasMimeType": "image/tiff",`, 1)
	blob = strings.Replace(blob, `"access": {},`, `"access": { "access": "world" },`, 1)

	doc, err := DecodeWireDocument(strings.NewReader(blob))
	require.NoError(t, err)
	assert.Equal(t, "world", doc.Access.Access)
	assert.Equal(t, map[string]string{
		"page1.tif": "image/tiff",
		"page1.txt": "application/octet-stream",
	}, doc.MimeTypes())

	// Declared members survive the trip back to the service.
	encoded, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"hasMimeType":"image/tiff"`)
	assert.Contains(t, string(encoded), `"access":{"access":"world"}`)
}

func TestDecodeWireDocumentErrors(t *testing.T) {
	tests := map[string]struct {
		doc     string
		invalid bool
		err     string
	}{
		"Unknown member": {
			doc:     `{"type":"x","hasFormat":"tiff"}`,
			invalid: true,
			err:     `unknown field "hasFormat"`,
		},
		"Wrong type": {
			doc:     `{"type":1}`,
			invalid: true,
			err:     "cannot unmarshal number",
		},
		"Not JSON": {
			doc: `{"type":`,
			err: "cannot decode request document",
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			_, err := DecodeWireDocument(strings.NewReader(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
			invalid := &SchemaError{}
			assert.Equal(t, tc.invalid, errors.As(err, &invalid))
		})
	}
}

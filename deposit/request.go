package deposit

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
)

const (
	// ObjectType is the default model of the repository object.
	ObjectType = "http://cocina.sul.stanford.edu/models/object.jsonld"

	// BookType is the model used by the deposit command unless told otherwise.
	BookType = "http://cocina.sul.stanford.edu/models/book.jsonld"

	FileSetType = "http://cocina.sul.stanford.edu/models/fileset.jsonld"
	FileType    = "http://cocina.sul.stanford.edu/models/file.jsonld"

	// Embargoes are released to everybody unless said otherwise.
	defaultEmbargoAccess = "world"

	catalogSymphony = "symphony"

	// Time layout of the embargo release date, e.g. 2045-01-01T00:00:00+00:00.
	releaseDateLayout = "2006-01-02T15:04:05-07:00"
)

// RequestOptions describe the repository object to be created.
type RequestOptions struct {
	Label              string
	Type               string
	AdminPolicy        string
	Collection         string
	SourceID           string
	CatalogKey         string
	EmbargoReleaseDate time.Time
	EmbargoAccess      string
	ViewingDirection   string
}

// RequestDocument is the description of the repository object sent to the
// service on creation. It is a value: WithFileSets returns a new document and
// leaves the receiver untouched.
type RequestDocument struct {
	opts     RequestOptions
	fileSets []FileSet
}

// NewRequestDocument returns a request document without file sets.
func NewRequestDocument(opts RequestOptions) (RequestDocument, error) {
	if opts.AdminPolicy == "" {
		return RequestDocument{}, errors.New("administrative policy is required")
	}
	if opts.SourceID == "" {
		return RequestDocument{}, errors.New("source identifier is required")
	}
	if opts.Type == "" {
		opts.Type = ObjectType
	}
	if !opts.EmbargoReleaseDate.IsZero() && opts.EmbargoAccess == "" {
		opts.EmbargoAccess = defaultEmbargoAccess
	}
	return RequestDocument{opts: opts}, nil
}

func (r RequestDocument) Options() RequestOptions {
	return r.opts
}

// FileSets returns a copy of the file sets attached to the document.
func (r RequestDocument) FileSets() []FileSet {
	return copyFileSets(r.fileSets)
}

// WithFileSets returns a copy of the document with the given file sets.
func (r RequestDocument) WithFileSets(sets []FileSet) RequestDocument {
	return RequestDocument{opts: r.opts, fileSets: copyFileSets(sets)}
}

// ToWireDocument returns the document in the form expected by the service.
func (r RequestDocument) ToWireDocument() WireDocument {
	doc := WireDocument{
		Type:           r.opts.Type,
		Label:          r.opts.Label,
		Administrative: WireAdministrative{HasAdminPolicy: r.opts.AdminPolicy},
		Identification: WireIdentification{SourceID: r.opts.SourceID},
		Structural: WireStructural{
			IsMemberOf: r.opts.Collection,
		},
	}
	if !r.opts.EmbargoReleaseDate.IsZero() {
		doc.Access.Embargo = &WireEmbargo{
			ReleaseDate: r.opts.EmbargoReleaseDate.Format(releaseDateLayout),
			Access:      r.opts.EmbargoAccess,
		}
	}
	if r.opts.CatalogKey != "" {
		doc.Identification.CatalogLinks = []WireCatalogLink{
			{Catalog: catalogSymphony, CatalogRecordID: r.opts.CatalogKey},
		}
	}
	if r.opts.ViewingDirection != "" {
		doc.Structural.HasMemberOrders = []WireMemberOrder{
			{ViewingDirection: r.opts.ViewingDirection},
		}
	}
	for _, fs := range r.fileSets {
		doc.Structural.Contains = append(doc.Structural.Contains, fs.wire())
	}
	return doc
}

// MarshalJSON implements json.Marshaler.
func (r RequestDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToWireDocument())
}

// FileSet is a group of files presented together, e.g. a page image and its
// OCR text.
type FileSet struct {
	Label string
	Files []FileEntry
}

func (fs FileSet) wire() WireFileSet {
	ws := WireFileSet{
		Type:  FileSetType,
		Label: fs.Label,
		Structural: WireFileSetStructural{
			Contains: make([]WireFile, 0, len(fs.Files)),
		},
	}
	for _, f := range fs.Files {
		ws.Structural.Contains = append(ws.Structural.Contains, f.wire())
	}
	return ws
}

// FileEntry describes one file of a file set.
type FileEntry struct {
	Filename    string
	Label       string
	ContentType string
	Size        int64

	// Declared digests, hex-encoded. Empty when not declared.
	MD5  string
	SHA1 string

	Access   string
	Preserve bool
	Shelve   bool

	// Assigned by the service to the uploaded file. Empty until the upload
	// has completed.
	ExternalIdentifier string
}

// WithExternalIdentifier returns a copy of the entry with the given
// identifier.
func (f FileEntry) WithExternalIdentifier(id string) FileEntry {
	f.ExternalIdentifier = id
	return f
}

func (f FileEntry) wire() WireFile {
	wf := WireFile{
		Type:               FileType,
		Label:              f.Label,
		Filename:           f.Filename,
		Access:             WireFileAccess{Access: f.Access},
		Administrative:     WireFileAdministrative{SDRPreserve: f.Preserve, Shelve: f.Shelve},
		ExternalIdentifier: f.ExternalIdentifier,
	}
	if f.MD5 != "" {
		wf.HasMessageDigests = append(wf.HasMessageDigests, WireMessageDigest{Type: "md5", Digest: f.MD5})
	}
	if f.SHA1 != "" {
		wf.HasMessageDigests = append(wf.HasMessageDigests, WireMessageDigest{Type: "sha1", Digest: f.SHA1})
	}
	return wf
}

func copyFileSets(sets []FileSet) []FileSet {
	if sets == nil {
		return nil
	}
	out := make([]FileSet, len(sets))
	for i, fs := range sets {
		out[i] = FileSet{Label: fs.Label, Files: append([]FileEntry(nil), fs.Files...)}
	}
	return out
}

// WireDocument is the JSON document submitted on resource creation. Optional
// members are omitted when unset, the service does not accept null values.
type WireDocument struct {
	Type           string             `json:"type"`
	Label          string             `json:"label,omitempty"`
	Access         WireAccess         `json:"access"`
	Administrative WireAdministrative `json:"administrative"`
	Identification WireIdentification `json:"identification"`
	Structural     WireStructural     `json:"structural"`
}

type WireAccess struct {
	Access  string       `json:"access,omitempty"`
	Embargo *WireEmbargo `json:"embargo,omitempty"`
}

type WireEmbargo struct {
	ReleaseDate string `json:"releaseDate"`
	Access      string `json:"access"`
}

type WireAdministrative struct {
	HasAdminPolicy string `json:"hasAdminPolicy"`
}

type WireIdentification struct {
	SourceID     string            `json:"sourceId"`
	CatalogLinks []WireCatalogLink `json:"catalogLinks,omitempty"`
}

type WireCatalogLink struct {
	Catalog         string `json:"catalog"`
	CatalogRecordID string `json:"catalogRecordId"`
}

type WireStructural struct {
	IsMemberOf      string            `json:"isMemberOf,omitempty"`
	HasMemberOrders []WireMemberOrder `json:"hasMemberOrders,omitempty"`
	Contains        []WireFileSet     `json:"contains,omitempty"`
}

type WireMemberOrder struct {
	ViewingDirection string `json:"viewingDirection"`
}

type WireFileSet struct {
	Type       string                `json:"type"`
	Label      string                `json:"label"`
	Structural WireFileSetStructural `json:"structural"`
}

type WireFileSetStructural struct {
	Contains []WireFile `json:"contains"`
}

type WireFile struct {
	Type               string                 `json:"type"`
	Label              string                 `json:"label"`
	Filename           string                 `json:"filename"`
	HasMimeType        string                 `json:"hasMimeType,omitempty"`
	HasMessageDigests  []WireMessageDigest    `json:"hasMessageDigests,omitempty"`
	Access             WireFileAccess         `json:"access"`
	Administrative     WireFileAdministrative `json:"administrative"`
	ExternalIdentifier string                 `json:"externalIdentifier"`
}

type WireMessageDigest struct {
	Type   string `json:"type"`
	Digest string `json:"digest"`
}

type WireFileAccess struct {
	Access string `json:"access"`
}

type WireFileAdministrative struct {
	SDRPreserve bool `json:"sdrPreserve"`
	Shelve      bool `json:"shelve"`
}

// Filenames returns the filenames of every file in the document, in order.
func (d WireDocument) Filenames() []string {
	var names []string
	for _, fs := range d.Structural.Contains {
		for _, f := range fs.Structural.Contains {
			names = append(names, f.Filename)
		}
	}
	return names
}

// WithExternalIdentifiers returns a copy of the document where each file
// takes the identifier found in ids under its filename.
func (d WireDocument) WithExternalIdentifiers(ids map[string]string) (WireDocument, error) {
	out := d
	out.Identification.CatalogLinks = append([]WireCatalogLink(nil), d.Identification.CatalogLinks...)
	out.Structural.HasMemberOrders = append([]WireMemberOrder(nil), d.Structural.HasMemberOrders...)
	if d.Access.Embargo != nil {
		embargo := *d.Access.Embargo
		out.Access.Embargo = &embargo
	}
	if d.Structural.Contains == nil {
		return out, nil
	}
	out.Structural.Contains = make([]WireFileSet, len(d.Structural.Contains))
	for i, fs := range d.Structural.Contains {
		files := make([]WireFile, len(fs.Structural.Contains))
		for j, f := range fs.Structural.Contains {
			id, ok := ids[f.Filename]
			if !ok {
				return WireDocument{}, &MissingUploadError{Filename: f.Filename}
			}
			f.HasMessageDigests = append([]WireMessageDigest(nil), f.HasMessageDigests...)
			f.ExternalIdentifier = id
			files[j] = f
		}
		fs.Structural.Contains = files
		out.Structural.Contains[i] = fs
	}
	return out, nil
}

// MimeTypes maps the filename of every file in the document to its declared
// content type, application/octet-stream when there is none.
func (d WireDocument) MimeTypes() map[string]string {
	types := map[string]string{}
	for _, fs := range d.Structural.Contains {
		for _, f := range fs.Structural.Contains {
			if f.HasMimeType != "" {
				types[f.Filename] = f.HasMimeType
			} else {
				types[f.Filename] = defaultContentType
			}
		}
	}
	return types
}

// DecodeWireDocument reads a request document written by the user. Members
// that the client does not know are reported as a *SchemaError instead of
// being dropped.
func DecodeWireDocument(r io.Reader) (WireDocument, error) {
	doc := WireDocument{}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || err == io.EOF || err == io.ErrUnexpectedEOF {
			return WireDocument{}, errors.Wrap(err, "cannot decode request document")
		}
		return WireDocument{}, &SchemaError{Issues: []string{err.Error()}}
	}
	return doc, nil
}

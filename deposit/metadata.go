package deposit

import (
	"github.com/sirupsen/logrus"
)

// Defaults of file entries that have no overrides.
const (
	DefaultAccess   = "dark"
	DefaultPreserve = true
	DefaultShelve   = false
)

// BuildFileEntries merges what we know about each file into the entries of
// the request document. The precedence is: user overrides (keyed by basename),
// then values derived from the file, then defaults. The overrides are not
// modified.
//
// Overrides of files that are not part of the deposit are ignored and logged.
func BuildFileEntries(logger logrus.FieldLogger, descriptors []*FileDescriptor, overrides map[string]FileOverrides) map[string]FileEntry {
	entries := make(map[string]FileEntry, len(descriptors))
	known := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		known[d.Basename] = struct{}{}
		entries[d.Path] = buildFileEntry(d, overrides[d.Basename])
	}
	if logger != nil {
		for filename := range overrides {
			if _, ok := known[filename]; !ok {
				logger.WithField("filename", filename).Warn("Ignoring metadata of a file that is not being deposited.")
			}
		}
	}
	return entries
}

// orderedEntries returns the entries following the order of descriptors.
func orderedEntries(descriptors []*FileDescriptor, entries map[string]FileEntry) []FileEntry {
	out := make([]FileEntry, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, entries[d.Path])
	}
	return out
}

func buildFileEntry(d *FileDescriptor, o FileOverrides) FileEntry {
	e := FileEntry{
		Filename:    d.Basename,
		Label:       d.Basename,
		ContentType: d.ContentType,
		Size:        d.Size,
		Access:      DefaultAccess,
		Preserve:    DefaultPreserve,
		Shelve:      DefaultShelve,
	}
	if e.ContentType == "" {
		e.ContentType = defaultContentType
	}
	if o.Label != nil {
		e.Label = *o.Label
	}
	if o.MimeType != nil && *o.MimeType != "" {
		e.ContentType = *o.MimeType
	}
	if o.Access != nil {
		e.Access = *o.Access
	}
	if o.Preserve != nil {
		e.Preserve = *o.Preserve
	}
	if o.Shelve != nil {
		e.Shelve = *o.Shelve
	}
	if o.MD5 != nil {
		e.MD5 = *o.MD5
	}
	if o.SHA1 != nil {
		e.SHA1 = *o.SHA1
	}
	return e
}

package deposit

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// GroupingStrategy arranges the file entries of a deposit into file sets.
// Implementations only look at the entries, they do not perform I/O.
type GroupingStrategy interface {
	Group(entries []FileEntry) []FileSet
}

// Names of the available grouping strategies.
const (
	SingleFileGroupingName   = "single"
	MatchingFileGroupingName = "matching"
)

// GroupingStrategyFor returns the strategy registered under name.
func GroupingStrategyFor(name string) (GroupingStrategy, error) {
	switch name {
	case "", SingleFileGroupingName:
		return SingleFileGrouping{}, nil
	case MatchingFileGroupingName:
		return MatchingFileGrouping{}, nil
	}
	return nil, fmt.Errorf("unknown grouping strategy %q (valid values: %s, %s)", name, SingleFileGroupingName, MatchingFileGroupingName)
}

// SingleFileGrouping puts every file in its own file set.
type SingleFileGrouping struct{}

func (SingleFileGrouping) Group(entries []FileEntry) []FileSet {
	sets := make([]FileSet, 0, len(entries))
	for _, e := range entries {
		sets = append(sets, FileSet{Label: e.Filename, Files: []FileEntry{e}})
	}
	return sets
}

func (SingleFileGrouping) String() string { return SingleFileGroupingName }

// MatchingFileGrouping puts files sharing the same stem in the same file set,
// e.g. page1.tif and page1.txt. The stem is the basename without its last
// extension. File sets follow the order in which each stem is first seen and
// the files of a set are sorted by extension.
type MatchingFileGrouping struct{}

func (MatchingFileGrouping) Group(entries []FileEntry) []FileSet {
	var (
		stems  []string
		groups = map[string][]FileEntry{}
	)
	for _, e := range entries {
		stem := fileStem(e.Filename)
		if _, ok := groups[stem]; !ok {
			stems = append(stems, stem)
		}
		groups[stem] = append(groups[stem], e)
	}
	sets := make([]FileSet, 0, len(stems))
	for _, stem := range stems {
		files := groups[stem]
		sort.SliceStable(files, func(i, j int) bool {
			ei, ej := filepath.Ext(files[i].Filename), filepath.Ext(files[j].Filename)
			if ei != ej {
				return ei < ej
			}
			return files[i].Filename < files[j].Filename
		})
		sets = append(sets, FileSet{Label: stem, Files: files})
	}
	return sets
}

func (MatchingFileGrouping) String() string { return MatchingFileGroupingName }

func fileStem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// AttachUploads returns new file sets where every entry carries the signed
// identifier of its upload result, looked up by filename.
func AttachUploads(sets []FileSet, uploads map[string]UploadResult) ([]FileSet, error) {
	out := make([]FileSet, 0, len(sets))
	for _, fs := range sets {
		files := make([]FileEntry, 0, len(fs.Files))
		for _, e := range fs.Files {
			res, ok := uploads[e.Filename]
			if !ok || res.SignedID == "" {
				return nil, &MissingUploadError{Filename: e.Filename}
			}
			files = append(files, e.WithExternalIdentifier(res.SignedID))
		}
		out = append(out, FileSet{Label: fs.Label, Files: files})
	}
	return out, nil
}

// GroupingFlag is a pflag.Value selecting a grouping strategy by name.
type GroupingFlag struct {
	Strategy GroupingStrategy
}

func (f *GroupingFlag) String() string {
	if f.Strategy == nil {
		return SingleFileGroupingName
	}
	if s, ok := f.Strategy.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", f.Strategy)
}

func (f *GroupingFlag) Set(name string) error {
	s, err := GroupingStrategyFor(name)
	if err != nil {
		return err
	}
	f.Strategy = s
	return nil
}

func (f *GroupingFlag) Type() string {
	return "strategy"
}

package deposit

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// FileOverrides is the metadata given by the user for a single file. Nil
// members are not set and fall back to derived or default values.
type FileOverrides struct {
	Label    *string
	Access   *string
	MimeType *string
	Preserve *bool
	Shelve   *bool
	MD5      *string
	SHA1     *string
}

// LoadFileOverrides reads a mapping of basenames to file metadata, e.g.:
//
//	page1.tif:
//	  access: world
//	  shelve: true
//	page1.txt:
//	  mime_type: text/plain
//	  preserve: "no"
//
// The document can be YAML or JSON. Loosely typed values are accepted.
func LoadFileOverrides(r io.Reader) (map[string]FileOverrides, error) {
	blob, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read file metadata")
	}
	raw := map[string]map[string]interface{}{}
	if err := yaml.Unmarshal(blob, &raw); err != nil {
		return nil, errors.Wrap(err, "cannot decode file metadata")
	}
	out := make(map[string]FileOverrides, len(raw))
	for filename, attrs := range raw {
		o, err := parseFileOverrides(attrs)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid metadata for %s", filename)
		}
		out[filename] = o
	}
	return out, nil
}

func parseFileOverrides(attrs map[string]interface{}) (FileOverrides, error) {
	var o FileOverrides
	for key, value := range attrs {
		if value == nil {
			continue
		}
		switch key {
		case "label", "access", "mime_type", "md5", "sha1":
			s, err := cast.ToStringE(value)
			if err != nil {
				return o, errors.Wrap(err, key)
			}
			switch key {
			case "label":
				o.Label = &s
			case "access":
				o.Access = &s
			case "mime_type":
				o.MimeType = &s
			case "md5":
				o.MD5 = &s
			case "sha1":
				o.SHA1 = &s
			}
		case "preserve", "shelve":
			b, err := toBool(value)
			if err != nil {
				return o, errors.Wrap(err, key)
			}
			if key == "preserve" {
				o.Preserve = &b
			} else {
				o.Shelve = &b
			}
		default:
			return o, errors.Errorf("unknown attribute %q", key)
		}
	}
	return o, nil
}

func toBool(value interface{}) (bool, error) {
	if s, ok := value.(string); ok {
		switch s {
		case "yes", "y", "on":
			return true, nil
		case "no", "n", "off":
			return false, nil
		}
	}
	return cast.ToBoolE(value)
}

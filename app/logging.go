package app

import (
	"bytes"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-logfmt/logfmt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	formatText   = "text"
	formatJSON   = "json"
	formatLogfmt = "logfmt"
)

func setUpLogger(out io.Writer, level, format string) error {
	if level == "" {
		level = defaultLogLevel.String()
	}
	logrus.SetOutput(out)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "parsing log level")
	}
	logrus.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", formatText:
		logrus.SetFormatter(&logrus.TextFormatter{})
	case formatJSON:
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case formatLogfmt:
		logrus.SetFormatter(&logfmtFormatter{})
	default:
		return errors.Errorf("unknown log format %q", format)
	}
	return nil
}

// logfmtFormatter writes entries as logfmt records: time, level and msg first
// followed by the entry fields sorted by key.
type logfmtFormatter struct{}

func (f *logfmtFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := logfmt.NewEncoder(&buf)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := []interface{}{
		"time", entry.Time.Format(time.RFC3339),
		"level", entry.Level.String(),
		"msg", entry.Message,
	}
	for _, k := range keys {
		v := entry.Data[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		kvs = append(kvs, k, v)
	}
	if err := enc.EncodeKeyvals(kvs...); err != nil {
		return nil, errors.Wrap(err, "cannot encode log entry")
	}
	if err := enc.EndRecord(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

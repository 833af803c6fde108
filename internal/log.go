package internal

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gitlab.com/variadico/lctime"
)

// NewLogger creates a logger writing to w according to cfg.
func NewLogger(cfg LogConfig, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.WithStack(&ConfigError{Err: err})
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&StrftimeFormatter{Pattern: cfg.TimeFormat})
	return l, nil
}

// StrftimeFormatter is a logrus text formatter whose timestamps use strftime
// patterns.
type StrftimeFormatter struct {
	// Pattern is the strftime pattern. Empty omits timestamps.
	Pattern string
}

// Format formats a log entry as a timestamp followed by logfmt text.
func (f *StrftimeFormatter) Format(e *logrus.Entry) ([]byte, error) {
	text := logrus.TextFormatter{DisableTimestamp: true, DisableColors: true}
	b, err := text.Format(e)
	if err != nil || f.Pattern == "" {
		return b, err
	}
	var buf bytes.Buffer
	buf.WriteString(lctime.Strftime(f.Pattern, e.Time))
	buf.WriteByte(' ')
	buf.Write(b)
	return buf.Bytes(), nil
}

package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the logger used by the CLI. Diagnostics go to out, or
// stderr when out is nil.
func NewLogger(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	switch strings.ToLower(level) {
	case "trace":
		l.SetLevel(logrus.TraceLevel)
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "warn":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// DebugLevelName maps the original numeric debug mode onto a logrus level.
func DebugLevelName(debug int) string {
	switch {
	case debug <= 0:
		return "warn"
	case debug == 1:
		return "info"
	}
	return "debug"
}

package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. An unknown level falls back to info, debug
// mode always logs at trace.
func New(level string, debug bool) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: time.DateTime,
		FullTimestamp:   true,
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if debug {
		lvl = logrus.TraceLevel
	}
	l.SetLevel(lvl)
	return l
}

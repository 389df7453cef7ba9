package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is an alias so callers don't need to import logrus directly.
type Fields = logrus.Fields

var log = logrus.StandardLogger()

// Init configures the package logger. Unknown levels fall back to info and
// unknown formats fall back to text.
func Init(level, format string) error {
	l := logrus.New()

	switch level {
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "info":
		l.SetLevel(logrus.InfoLevel)
	case "warn":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	l.SetOutput(os.Stdout)
	log = l
	return nil
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Logger returns the underlying logrus logger.
func Logger() *logrus.Logger {
	return log
}

// WithFields starts a structured entry.
func WithFields(fields Fields) *logrus.Entry {
	return log.WithFields(fields)
}

func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func Info(args ...interface{}) {
	log.Info(args...)
}

func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}

package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
)

// Options select the level and, optionally, a rotating log file.
type Options struct {
	Level  string
	File   string
	JSON   bool
	Stderr bool
}

// Setup configures the standard Logrus logger. With a File set, output goes to
// a lumberjack rotator (and to stderr as well when Stderr is true).
func Setup(opts Options) (*logrus.Logger, error) {
	l := logrus.StandardLogger()
	level := logrus.InfoLevel
	if opts.Level != "" {
		lv, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = lv
	}
	l.SetLevel(level)

	var out io.Writer = os.Stderr
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		}
		out = rotator
		if opts.Stderr {
			out = io.MultiWriter(rotator, os.Stderr)
		}
	}
	l.SetOutput(out)

	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}
	return l, nil
}

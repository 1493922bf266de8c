package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
	file *os.File
}

// New builds a logger writing to out (stderr when nil) and, if logFile is set,
// to that file as well.
func New(out io.Writer, level, logFile string) (*Logger, error) {
	if out == nil {
		out = os.Stderr
	}
	writer := out
	var file *os.File

	// Setup file logging if specified
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		writer = io.MultiWriter(out, f)
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}

	log := logrus.New()
	log.SetOutput(writer)
	log.SetLevel(logLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		PadLevelText:    true,
		DisableColors:   file != nil,
	})

	return &Logger{
		Logger: log,
		file:   file,
	}, nil
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) LogFailure(kind, message string, status int) {
	l.WithFields(logrus.Fields{
		"kind":   kind,
		"status": status,
	}).Error(message)
}

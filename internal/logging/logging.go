// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Console selects stderr output explicitly.
const Console = "console"

var rotating *lumberjack.Logger

// Init parses and sets the log level and routes output to logPath, rotated
// by size. An empty logPath or "console" logs to stderr.
func Init(logLevel, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Errorf("failed parsing log-level %s: %s", logLevel, err)
		return err
	}

	if err := Close(); err != nil {
		log.Warnf("failed to close previous log file: %v", err)
	}

	var out io.Writer = os.Stderr
	if logPath != "" && logPath != Console {
		rotating = &lumberjack.Logger{
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    1, // MB
			MaxBackups: 3,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = rotating
	}

	log.SetOutput(out)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	log.SetLevel(level)
	return nil
}

// Close flushes and closes the log file opened by Init, if any.
func Close() error {
	if rotating == nil {
		return nil
	}
	err := rotating.Close()
	rotating = nil
	return err
}

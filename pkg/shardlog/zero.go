package shardlog

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var Zero = NewZeroLogger("", "info", false)

// NewZeroLogger builds the module logger. Output goes to stdout when
// filepath is empty. Pretty switches from JSON lines to the console writer.
func NewZeroLogger(filepath string, level string, pretty bool) *zerolog.Logger {
	_, writer := newWriter(filepath)
	var out io.Writer = writer
	if pretty {
		out = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).With().Timestamp().Logger().Level(parseLevel(level))

	return &logger
}

func UpdateZeroLogLevel(logLevel string) {
	zeroLogger := Zero.With().Logger().Level(parseLevel(logLevel))
	Zero = &zeroLogger
}

// ReloadLogger points Zero at a new file, keeping the current level.
func ReloadLogger(filepath string, pretty bool) {
	if filepath == "" {
		return
	}
	level := Zero.GetLevel().String()
	oldFile := logFile
	Zero = NewZeroLogger(filepath, level, pretty)
	if oldFile != nil {
		_ = oldFile.Close()
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warning", "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

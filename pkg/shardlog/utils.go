package shardlog

import (
	"io"
	"os"
)

var logFile *os.File

// newWriter opens filepath in append mode, creating it when missing.
// Empty filepath, or a file that cannot be opened, means os.Stdout.
func newWriter(filepath string) (*os.File, io.Writer) {
	if filepath == "" {
		return nil, os.Stdout
	}
	f, err := os.OpenFile(filepath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, os.Stdout
	}
	logFile = f
	return f, f
}

package unittest

import (
	"bytes"
	"flag"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var verbose = flag.Bool("vv", false, "print debugging logs")

// Logger returns a zerolog
// use -vv flag to print debugging logs for tests
func Logger() zerolog.Logger {
	writer := io.Discard

	if *verbose {
		writer = os.Stderr
	}
	return newLogger(writer)
}

// LogRecorder collects the JSON log lines written by a logger from CapturingLogger.
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// Contains returns true if any recorded line has the given level and contains msg.
func (r *LogRecorder) Contains(level zerolog.Level, msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range strings.Split(r.buf.String(), "\n") {
		if strings.Contains(line, `"level":"`+level.String()+`"`) && strings.Contains(line, msg) {
			return true
		}
	}
	return false
}

// CapturingLogger returns a logger whose output is recorded for assertions,
// and also printed with the -vv flag.
func CapturingLogger() (zerolog.Logger, *LogRecorder) {
	recorder := &LogRecorder{}
	var writer io.Writer = recorder
	if *verbose {
		writer = io.MultiWriter(recorder, os.Stderr)
	}
	return newLogger(writer), recorder
}

func newLogger(writer io.Writer) zerolog.Logger {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	return zerolog.New(writer).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// Package logger provides the shared zerolog logger for the copris packages.
//
// The default logger writes human-readable console output to stdout at info
// level; building with the debug tag lowers the threshold to debug level.
// Test binaries get a no-op logger unless the debug tag is set, so model
// construction in tests stays quiet.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sequencer/copris/debug"
)

var root = newRoot()

func newRoot() zerolog.Logger {
	if !debug.Debug && strings.HasSuffix(os.Args[0], ".test") {
		return zerolog.Nop()
	}
	level := zerolog.InfoLevel
	if debug.Debug {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	return root
}

// With returns a sublogger tagged with a component name.
func With(component string) zerolog.Logger {
	return root.With().Str("component", component).Logger()
}

// Set replaces the global logger.
func Set(l zerolog.Logger) {
	root = l
}

// SetOutput redirects the global logger to w.
func SetOutput(w io.Writer) {
	root = root.Output(w)
}

// Disable turns logging off.
func Disable() {
	root = zerolog.Nop()
}

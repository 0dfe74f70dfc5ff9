package lumen

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// logger is the package logger. Single-threaded like the rest of the
// package: replace it before starting the driving loop.
var logger = newDefaultLogger()

func newDefaultLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "lumen",
		Level:           log.WarnLevel,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

// SetLogger replaces the package logger. Pass nil to discard all output.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.NewWithOptions(io.Discard, log.Options{})
	}
	logger = l
}

// Logger returns the package logger.
func Logger() *log.Logger {
	return logger
}

// frameStats holds per-frame timing and draw metrics.
// Only logged when the renderer runs with Config.Debug.
type frameStats struct {
	frame          uint64
	commands       int
	lights         int
	directional    int
	occluderPixels int
	opaqueTime     time.Duration
	lightTime      time.Duration
	presentTime    time.Duration
}

// log writes the stats at debug level.
func (s frameStats) log() {
	logger.Debug("frame",
		"n", s.frame,
		"commands", s.commands,
		"lights", s.lights,
		"directional", s.directional,
		"occluders", s.occluderPixels,
		"opaque", s.opaqueTime,
		"lighting", s.lightTime,
		"present", s.presentTime,
		"total", s.opaqueTime+s.lightTime+s.presentTime,
	)
}

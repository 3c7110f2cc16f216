// Package logging builds the renderer's logger and the sink that receives
// driver diagnostics.
package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

const prefix = "renderer"

// New returns a logger writing to w at the named level.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}

	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    lvl == log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})
	l.SetLevel(lvl)
	return l, nil
}

type Severity int

const (
	SeverityVerbose Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityVerbose:
		return "verbose"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// Sink receives diagnostic messages reported by the graphics driver or its
// validation layers. Category is one of general, validation or performance,
// joined with "|" when a message has several.
type Sink interface {
	Emit(severity Severity, category, message string)
}

// LoggerSink forwards diagnostics to a logger.
type LoggerSink struct {
	Logger *log.Logger
}

func (s LoggerSink) Emit(severity Severity, category, message string) {
	switch severity {
	case SeverityError:
		s.Logger.Error(message, "category", category)
	case SeverityWarning:
		s.Logger.Warn(message, "category", category)
	case SeverityInfo:
		s.Logger.Info(message, "category", category)
	default:
		s.Logger.Debug(message, "category", category)
	}
}

// Discard drops every message.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Severity, string, string) {}

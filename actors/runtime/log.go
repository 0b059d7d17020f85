package runtime

import (
	"fmt"
	"strings"
	"sync"

	rtt "github.com/filecoin-project/go-state-types/rt"
	logging "github.com/ipfs/go-log/v2"
)

// Logger receives diagnostic messages from ledger operations.
// Messages are for diagnostics only and never form part of ledger state.
// The message and args should be suitable for passing to fmt.Sprintf(msg, args...).
type Logger interface {
	Log(level rtt.LogLevel, msg string, args ...interface{})
}

// NewLogger returns a Logger writing to the go-log subsystem `system`.
// Messages below `min` are dropped before reaching the subsystem.
func NewLogger(system string, min rtt.LogLevel) Logger {
	return &ipfsLogger{log: logging.Logger(system), min: min}
}

type ipfsLogger struct {
	log *logging.ZapEventLogger
	min rtt.LogLevel
}

func (l *ipfsLogger) Log(level rtt.LogLevel, msg string, args ...interface{}) {
	if level < l.min {
		return
	}
	switch level {
	case rtt.DEBUG:
		l.log.Debugf(msg, args...)
	case rtt.INFO:
		l.log.Infof(msg, args...)
	case rtt.WARN:
		l.log.Warnf(msg, args...)
	default:
		l.log.Errorf(msg, args...)
	}
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Log(rtt.LogLevel, string, ...interface{}) {}

// RecordingLogger keeps formatted messages in memory, for tests and scenario reports.
type RecordingLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

type LogEntry struct {
	Level rtt.LogLevel
	Msg   string
}

func (r *RecordingLogger) Log(level rtt.LogLevel, msg string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, LogEntry{Level: level, Msg: fmt.Sprintf(msg, args...)})
}

// Messages returns the formatted messages logged at or above `min`.
func (r *RecordingLogger) Messages(min rtt.LogLevel) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.Entries {
		if e.Level >= min {
			out = append(out, e.Msg)
		}
	}
	return out
}

// ParseLogLevel maps a level name (debug, info, warn, error) to a log level.
func ParseLogLevel(s string) (rtt.LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return rtt.DEBUG, nil
	case "info", "":
		return rtt.INFO, nil
	case "warn", "warning":
		return rtt.WARN, nil
	case "error":
		return rtt.ERROR, nil
	}
	return rtt.INFO, fmt.Errorf("unknown log level %q", s)
}

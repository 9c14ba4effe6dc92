// Package klog is the kernel's leveled logger: it formats a line, writes
// it straight to the serial port the way logger.rs's Logger::log does, and
// also pushes a truncated copy onto the log stream so a task can mirror
// recent lines to the terminal (§3 "Ambient Stack - Logging").
package klog

import (
	"fmt"

	"cinder/internal/streams"
)

// Level identifies a log record's severity, matching the four levels
// logger.rs exposes.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Sink is the direct serial writer every record is written through before
// being mirrored onto Stream. Assigned once during boot.
var Sink interface {
	WriteString(string)
}

// Stream receives a truncated copy of every record so the terminal's log
// task can keep recent lines while the `logs` command has them enabled.
// Assigned once during boot, alongside Sink.
var Stream *streams.LogStream

// log formats and dispatches one record. Unlike kernelpanic's fatal paths,
// this is never called from interrupt context, so fmt.Sprintf's
// allocation is fine here.
func log(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := level.String() + ": " + msg + "\n"
	if Sink != nil {
		Sink.WriteString(line)
	}
	if Stream != nil && !Stream.Push(toRecord(line)) {
		if Sink != nil {
			Sink.WriteString("ERROR: log queue full, dropping record\n")
		}
	}
}

func toRecord(line string) streams.LogRecord {
	var rec streams.LogRecord
	n := copy(rec.Bytes[:], line)
	rec.Len = n
	return rec
}

func Debugf(format string, args ...any) { log(Debug, format, args...) }
func Infof(format string, args ...any)  { log(Info, format, args...) }
func Warnf(format string, args ...any)  { log(Warn, format, args...) }
func Errorf(format string, args ...any) { log(Error, format, args...) }

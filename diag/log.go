// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the Log struct and associated methods.  Every compiler
// pass returns a Log, which contains informational messages, warnings, and
// errors generated while processing a QAT program.  Passes accumulate entries
// rather than aborting, so a single run reports as many problems as possible.

// Package diag provides the diagnostic log shared by all compiler passes.
package diag

import (
	"bytes"
	"fmt"

	"github.com/qter-project/qter/span"
)

// Every Entry has a severity: INFO, WARNING, ERROR, or FATAL_ERROR.  An ERROR
// indicates that compilation cannot produce a program, but the pass can keep
// going and report further problems.  A FATAL_ERROR indicates that the pass
// cannot meaningfully continue (e.g., the recursion limit was reached during
// macro expansion).
type Severity int

const (
	INFO Severity = iota
	WARNING
	ERROR
	FATAL_ERROR
)

// An Entry constitutes a single entry in a Log.  Every Entry has a severity
// and a message, and is associated with a position in the source.
type Entry struct {
	Severity Severity
	Message  string
	Span     span.Span
}

// A Log stores informational messages, warnings, and errors to be presented
// to the user after a compiler pass finishes.
type Log struct {
	Entries []Entry
}

// NewLog returns a new, empty Log.
func NewLog() *Log {
	return &Log{}
}

func (e *Entry) String() string {
	var buffer bytes.Buffer
	switch e.Severity {
	case INFO:
		// No prefix
	case WARNING:
		buffer.WriteString("Warning: ")
	case ERROR:
		buffer.WriteString("Error: ")
	case FATAL_ERROR:
		buffer.WriteString("ERROR: ")
	}
	if e.Span.File() != nil {
		buffer.WriteString(e.Span.String())
		buffer.WriteString(": ")
	}
	buffer.WriteString(e.Message)
	return buffer.String()
}

func (l *Log) String() string {
	var buffer bytes.Buffer
	for i := range l.Entries {
		buffer.WriteString(l.Entries[i].String())
		buffer.WriteString("\n")
	}
	return buffer.String()
}

// Infof adds an informational message to the log.
func (l *Log) Infof(s span.Span, format string, args ...any) {
	l.append(INFO, s, format, args)
}

// Warnf adds a warning to the log.
func (l *Log) Warnf(s span.Span, format string, args ...any) {
	l.append(WARNING, s, format, args)
}

// Errorf adds an error to the log.
func (l *Log) Errorf(s span.Span, format string, args ...any) {
	l.append(ERROR, s, format, args)
}

// Fatalf adds a fatal error to the log.
func (l *Log) Fatalf(s span.Span, format string, args ...any) {
	l.append(FATAL_ERROR, s, format, args)
}

func (l *Log) append(sev Severity, s span.Span, format string, args []any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.Entries = append(l.Entries, Entry{Severity: sev, Message: msg, Span: s})
}

// Append moves every entry of other into l.
func (l *Log) Append(other *Log) {
	l.Entries = append(l.Entries, other.Entries...)
	other.Entries = nil
}

// ContainsErrors returns true if the log contains any entries with a severity
// of ERROR or FATAL_ERROR.
func (l *Log) ContainsErrors() bool {
	for i := range l.Entries {
		if l.Entries[i].Severity >= ERROR {
			return true
		}
	}
	return false
}

// IsEmpty returns true if the log contains no entries.
func (l *Log) IsEmpty() bool {
	return len(l.Entries) == 0
}

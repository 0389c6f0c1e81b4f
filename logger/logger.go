// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file configures the process-wide logger used by the interpreter and
// the robot protocol.  Compile-time passes report through diag.Log instead;
// this logger is for runtime tracing only.

// Package logger provides the shared zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.RFC3339,
}).With().Timestamp().Logger()

// Logger returns the configured logger.
func Logger() zerolog.Logger {
	return logger
}

// Set replaces the logger, e.g. to redirect or silence it.
func Set(l zerolog.Logger) {
	logger = l
}

// Disable turns logging off.
func Disable() {
	logger = zerolog.New(io.Discard)
}

// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the compilation pipeline: parse, expand macros to
// primitives, optimize, and assemble the final program.

// Package qter compiles the QAT register-machine language onto twisty
// puzzles and ties together the parser, macro expander, and optimizer.
package qter

import (
	"github.com/qter-project/qter/diag"
	"github.com/qter-project/qter/expand"
	"github.com/qter-project/qter/optimize"
	"github.com/qter-project/qter/parse"
	"github.com/qter-project/qter/prog"
	"github.com/qter-project/qter/span"
)

// Compile turns QAT source into an executable program.  All diagnostics
// produced along the way are returned in the log; the program is nil when
// the log contains errors.
func Compile(file *span.File, opts parse.Options) (*prog.Program, *diag.Log) {
	log := diag.NewLog()

	parsed, parseLog := parse.Parse(file, opts)
	log.Append(parseLog)
	if parsed == nil {
		return nil, log
	}

	expanded, expandLog := expand.Expand(parsed)
	log.Append(expandLog)
	if expanded == nil {
		return nil, log
	}

	program, buildLog := optimize.BuildProgram(expanded)
	log.Append(buildLog)
	if program == nil {
		return nil, log
	}

	return program, log
}

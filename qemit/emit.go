// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file emits Q text: the line-oriented listing of a compiled program
// with numbered instructions and algorithms wrapped at a fixed width.

// Package qemit renders compiled programs as Q text.
package qemit

import (
	"fmt"
	"strings"

	"github.com/qter-project/qter/diag"
	"github.com/qter-project/qter/prog"
	"github.com/qter-project/qter/span"
)

const algMaxWidth = 50

// Emit converts a program into Q text.  The returned file is named
// fileName; one span per instruction locates its line in the output.
//
// Programs with theoretical registers or more than one puzzle cannot be
// rendered as Q.
func Emit(program *prog.Program, fileName string) (*span.File, []span.Span, *diag.Log) {
	log := diag.NewLog()

	for _, instr := range program.Instructions {
		if _, ok := instr.(prog.AddTheoretical); ok {
			log.Errorf(instr.Span(), "Cannot compile a QAT program with theoretical registers")
		}
	}
	if len(program.Theoretical) > 0 && log.IsEmpty() {
		log.Errorf(span.Span{}, "Cannot compile a QAT program with theoretical registers")
	}
	if len(program.Puzzles) > 1 {
		log.Errorf(span.Span{}, "Compiling with multiple puzzles is unsupported (for now)")
	}
	if log.ContainsErrors() {
		return nil, nil, log
	}

	var out strings.Builder
	out.WriteString("Puzzles\n")
	for i, name := range program.PuzzleNames {
		fmt.Fprintf(&out, "%c: %s\n", 'A'+i, name)
	}
	out.WriteString("\n")

	digits := 1
	if n := len(program.Instructions); n > 10 {
		digits = len(fmt.Sprint(n - 1))
	}
	padding := strings.Repeat(" ", digits+3)

	var extents [][2]int

	for i, instr := range program.Instructions {
		num := fmt.Sprintf("%-*d", digits, i)

		var text string
		switch v := instr.(type) {
		case prog.Goto:
			text = fmt.Sprintf("goto %d", v.Idx)

		case prog.SolvedGoto:
			target := v.Target.(prog.PuzzleTarget)
			text = fmt.Sprintf("solved-goto %s %d",
				strings.Join(target.Facelets.Pieces(), " "), v.Idx)

		case prog.Input:
			target := v.Target.(prog.PuzzleTarget)
			text = fmt.Sprintf("input \"%s\"\n%s\n%s      max-input %s",
				v.Message,
				wrapAlg(target.Generator.Moves(), len(padding)+6, true),
				padding, v.MaxInput)

		case prog.Halt:
			if v.Target == nil {
				text = fmt.Sprintf("halt \"%s\"", v.Message)
			} else {
				target := v.Target.(prog.PuzzleTarget)
				text = fmt.Sprintf("halt \"%s\"\n%s\n%s     counting-until %s",
					v.Message,
					wrapAlg(target.Generator.Moves(), len(padding)+5, true),
					padding, strings.Join(target.Facelets.Pieces(), " "))
			}

		case prog.Print:
			if v.Target == nil {
				text = fmt.Sprintf("print \"%s\"", v.Message)
			} else {
				target := v.Target.(prog.PuzzleTarget)
				text = fmt.Sprintf("print \"%s\"\n%s\n%s      counting-until %s",
					v.Message,
					wrapAlg(target.Generator.Moves(), len(padding)+6, true),
					padding, strings.Join(target.Facelets.Pieces(), " "))
			}

		case prog.PerformAlgorithm:
			text = wrapAlg(v.Alg.Moves(), len(padding), false)

		case prog.Solve:
			text = "solve"

		case prog.RepeatUntil:
			text = fmt.Sprintf("repeat until %s solved\n%s",
				strings.Join(v.Facelets.Pieces(), " "),
				wrapAlg(v.Alg.Moves(), len(padding)+7, true))

		default:
			log.Errorf(instr.Span(), "Cannot render %T as Q", instr)
			continue
		}

		start := out.Len()
		fmt.Fprintf(&out, "%s | %s\n", num, text)
		extents = append(extents, [2]int{start, out.Len()})
	}

	if log.ContainsErrors() {
		return nil, nil, log
	}

	file := span.NewFile(fileName, out.String())
	spans := make([]span.Span, len(extents))
	for i, e := range extents {
		spans[i] = span.New(file, e[0], e[1]-e[0])
	}
	return file, spans, log
}

// wrapAlg renders a move sequence across lines within the width limit.
func wrapAlg(moves []string, padding int, padFirst bool) string {
	paddingStr := strings.Repeat(" ", padding)
	lines := splitStrings(moves, algMaxWidth-padding)

	for i, line := range lines {
		if i == 0 && !padFirst {
			continue
		}
		lines[i] = paddingStr + line
	}
	return strings.Join(lines, "\n")
}

// splitStrings separates the strings into lines so that (1) lines stay
// within the width (a string longer than the width gets its own line),
// (2) the number of lines is minimal, and (3) the longest line is as short
// as possible.
func splitStrings(strs []string, lineWidth int) []string {
	var out []string
	rest := strs

	for {
		overlong := -1
		for i, s := range rest {
			if len(s) >= lineWidth {
				overlong = i
				break
			}
		}
		if overlong < 0 {
			break
		}
		out = append(out, splitAllShortEnough(rest[:overlong], lineWidth)...)
		out = append(out, rest[overlong])
		rest = rest[overlong+1:]
	}

	return append(out, splitAllShortEnough(rest, lineWidth)...)
}

// splitAllShortEnough lays out strings all shorter than the width,
// minimizing line count and then the longest line.
func splitAllShortEnough(strs []string, maxLineWidth int) []string {
	if len(strs) == 0 {
		return nil
	}

	// Prefix sums make line lengths O(1).
	cumulative := make([]int, len(strs)+1)
	for i, s := range strs {
		cumulative[i+1] = cumulative[i] + len(s)
	}
	lineLength := func(start, end int) int {
		spaces := end - start - 1
		if spaces < 0 {
			spaces = 0
		}
		return cumulative[end] - cumulative[start] + spaces
	}

	const unset = int(^uint(0) >> 1)

	// lines[i] is the minimal number of lines for the first i strings;
	// longest[i] the smallest achievable longest line at that count.
	lines := make([]int, len(strs)+1)
	longest := make([]int, len(strs)+1)
	parent := make([]int, len(strs)+1)
	for i := 1; i <= len(strs); i++ {
		lines[i] = unset
		longest[i] = unset
	}

	for i := 1; i <= len(strs); i++ {
		for j := i - 1; j >= 0; j-- {
			length := lineLength(j, i)
			if length > maxLineWidth {
				break
			}
			if lines[j] == unset {
				continue
			}
			candLines := lines[j] + 1
			candLongest := max(longest[j], length)
			if candLines < lines[i] || (candLines == lines[i] && candLongest < longest[i]) {
				lines[i] = candLines
				longest[i] = candLongest
				parent[i] = j
			}
		}
	}

	var out []string
	for i := len(strs); i > 0; i = parent[i] {
		out = append(out, strings.Join(strs[parent[i]:i], " "))
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

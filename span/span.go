// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines Files and Spans, which are used to attach source
// positions to every syntactic entity produced by the QAT compiler.  A Span
// consists of a file handle, a 0-based byte offset, and a nonnegative length;
// line and column numbers are computed on demand rather than stored.

// Package span provides immutable source files and byte-extent source
// positions for the QAT toolchain.
package span

import "fmt"

// A File is an immutable named source text.  Files are shared by reference:
// every Span produced while compiling a file points at the same File value.
type File struct {
	name     string
	contents string
}

// NewFile creates a file from its name and contents.
func NewFile(name, contents string) *File {
	return &File{name: name, contents: contents}
}

// Name returns the name the file was created with.
func (f *File) Name() string { return f.name }

// Contents returns the full source text.
func (f *File) Contents() string { return f.contents }

// A Span is a region of a File: a 0-based byte offset and a nonnegative
// length.  For example, in the file "ABCDEFG", the substring CDE is
// Span{offset: 2, length: 3}.
type Span struct {
	file   *File
	offset int
	length int
}

// New creates a span over file at the given offset and length.
func New(file *File, offset, length int) Span {
	return Span{file: file, offset: offset, length: length}
}

// File returns the file this span points into.
func (s Span) File() *File { return s.file }

// Offset returns the 0-based byte offset of the first byte of the span.
func (s Span) Offset() int { return s.offset }

// Length returns the length of the span in bytes.
func (s Span) Length() int { return s.length }

// End returns the offset of the first byte past the end of the span.
func (s Span) End() int { return s.offset + s.length }

// Slice returns the source text covered by the span.
func (s Span) Slice() string {
	if s.file == nil {
		return ""
	}
	end := min(s.End(), len(s.file.contents))
	start := min(s.offset, end)
	return s.file.contents[start:end]
}

// Line returns the 1-based line number of the start of the span.  It is
// computed by scanning the file, so callers that need it repeatedly should
// hold on to the result.
func (s Span) Line() int {
	line, _ := s.LineCol()
	return line
}

// Col returns the 1-based column (in bytes) of the start of the span.
func (s Span) Col() int {
	_, col := s.LineCol()
	return col
}

// LineCol returns the 1-based line and column of the start of the span.
func (s Span) LineCol() (line, col int) {
	line, col = 1, 1
	if s.file == nil {
		return
	}
	limit := min(s.offset, len(s.file.contents))
	for _, b := range []byte(s.file.contents[:limit]) {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}

// Merge returns the smallest span covering both s and other.  Both spans must
// belong to the same file.
func (s Span) Merge(other Span) Span {
	if s.file == nil {
		return other
	}
	if other.file == nil {
		return s
	}
	start := min(s.offset, other.offset)
	end := max(s.End(), other.End())
	return Span{file: s.file, offset: start, length: end - start}
}

// After returns the empty span immediately following s.
func (s Span) After() Span {
	return Span{file: s.file, offset: s.End(), length: 0}
}

func (s Span) String() string {
	if s.file == nil {
		return "<unknown>"
	}
	line, col := s.LineCol()
	return fmt.Sprintf("%s:%d:%d", s.file.name, line, col)
}

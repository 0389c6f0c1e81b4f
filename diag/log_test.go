// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import (
	"testing"

	"github.com/qter-project/qter/span"
)

func TestLogSeverities(t *testing.T) {
	f := span.NewFile("prog.qat", "add a 1\n")
	log := NewLog()
	log.Infof(span.New(f, 0, 3), "note")
	if log.ContainsErrors() {
		t.Fatalf("log with only INFO entries should not contain errors")
	}
	log.Errorf(span.New(f, 4, 1), "bad register %q", "a")
	if !log.ContainsErrors() {
		t.Fatalf("expected ContainsErrors after Errorf")
	}
	if len(log.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(log.Entries))
	}
	want := `Error: prog.qat:1:5: bad register "a"`
	if got := log.Entries[1].String(); got != want {
		t.Fatalf("entry string: expected %q, got %q", want, got)
	}
}

func TestLogAppend(t *testing.T) {
	a, b := NewLog(), NewLog()
	b.Warnf(span.Span{}, "careful")
	a.Append(b)
	if len(a.Entries) != 1 || len(b.Entries) != 0 {
		t.Fatalf("Append should move entries: %d %d", len(a.Entries), len(b.Entries))
	}
	if a.ContainsErrors() {
		t.Fatalf("warnings are not errors")
	}
}

// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package span

import "testing"

func TestSlice(t *testing.T) {
	f := NewFile("x.qat", "ABCDEFG")
	s := New(f, 2, 3)
	if s.Slice() != "CDE" {
		t.Fatalf("Slice: expected CDE, got %q", s.Slice())
	}
	if s.End() != 5 {
		t.Fatalf("End: expected 5, got %d", s.End())
	}
}

func TestLineCol(t *testing.T) {
	f := NewFile("x.qat", "ab\ncde\nf")
	tests := []struct {
		offset, line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{5, 2, 3},
		{7, 3, 1},
	}
	for _, tt := range tests {
		line, col := New(f, tt.offset, 1).LineCol()
		if line != tt.line || col != tt.col {
			t.Errorf("offset %d: expected %d:%d, got %d:%d",
				tt.offset, tt.line, tt.col, line, col)
		}
	}
}

func TestMerge(t *testing.T) {
	f := NewFile("x.qat", "hello world")
	a := New(f, 0, 5)
	b := New(f, 6, 5)
	m := a.Merge(b)
	if m.Offset() != 0 || m.Length() != 11 {
		t.Fatalf("Merge: expected offset 0 length 11, got %d %d", m.Offset(), m.Length())
	}
	if got := b.Merge(a); got != m {
		t.Fatalf("Merge is not symmetric: %v vs %v", got, m)
	}
}

// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package script

import (
	"math/big"
	"testing"

	"github.com/qter-project/qter/expand"
)

func TestCall(t *testing.T) {
	b := New()
	if err := b.AddCode(`
		function double(a) { return a * 2 }
		function greet(name) { return "hello-" + name }
	`); err != nil {
		t.Fatal(err)
	}

	out, err := b.Call("double", []expand.ScriptValue{{Int: big.NewInt(21)}})
	if err != nil {
		t.Fatal(err)
	}
	if out.Int == nil || out.Int.Int64() != 42 {
		t.Fatalf("expected 42, got %#v", out)
	}

	out, err = b.Call("greet", []expand.ScriptValue{{Ident: "world"}})
	if err != nil {
		t.Fatal(err)
	}
	if out.Ident != "hello-world" {
		t.Fatalf("expected hello-world, got %#v", out)
	}
}

func TestBigValuesAsStrings(t *testing.T) {
	b := New()
	if err := b.AddCode(`function echo(a) { return a }`); err != nil {
		t.Fatal(err)
	}

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	out, err := b.Call("echo", []expand.ScriptValue{{Int: huge}})
	if err != nil {
		t.Fatal(err)
	}
	if out.Int == nil || out.Int.Cmp(huge) != 0 {
		t.Fatalf("expected the big value back, got %#v", out)
	}
}

func TestErrors(t *testing.T) {
	b := New()
	if _, err := b.Call("missing", nil); err == nil {
		t.Fatalf("calling an undefined function must fail")
	}

	if err := b.AddCode("syntax error here"); err == nil {
		t.Fatalf("malformed script source must fail")
	}

	if err := b.AddCode(`function half(a) { return a / 2 }`); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Call("half", []expand.ScriptValue{{Int: big.NewInt(3)}}); err == nil {
		t.Fatalf("a fractional result must be rejected")
	}
}

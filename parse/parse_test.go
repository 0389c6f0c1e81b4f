// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/qter-project/qter/expand"
	"github.com/qter-project/qter/span"
)

func parseString(t *testing.T, source string, opts Options) *expand.Parsed {
	t.Helper()
	parsed, log := Parse(span.NewFile("test.qat", source), opts)
	if parsed == nil {
		t.Fatalf("parse failed:\n%s", log)
	}
	return parsed
}

func TestParseRegisters(t *testing.T) {
	parsed := parseString(t, `
.registers {
    A, B <- 3x3 (U, D)
    N <- theoretical 30
}
`, Options{})

	decl := parsed.Info.Registers
	if decl == nil || len(decl.Puzzles) != 2 {
		t.Fatalf("expected 2 puzzles, got %#v", decl)
	}

	real, ok := decl.Puzzles[0].(expand.RealPuzzle)
	if !ok {
		t.Fatalf("expected a real puzzle, got %T", decl.Puzzles[0])
	}
	if len(real.Names) != 2 || real.Names[0] != "A" || real.Names[1] != "B" {
		t.Fatalf("unexpected names %v", real.Names)
	}
	if real.Arch.Registers()[0].Order().Int64() != 4 {
		t.Fatalf("register A should have order 4")
	}

	theo, ok := decl.Puzzles[1].(expand.TheoreticalPuzzle)
	if !ok || theo.Name != "N" || theo.Order.Int64() != 30 {
		t.Fatalf("unexpected theoretical puzzle %#v", decl.Puzzles[1])
	}
}

func TestParseBuiltinPreset(t *testing.T) {
	parsed := parseString(t, `
.registers {
    A, B <- 3x3 builtin (4, 4)
}
`, Options{})

	real := parsed.Info.Registers.Puzzles[0].(expand.RealPuzzle)
	if real.Arch.Registers()[0].Order().Int64() != 4 {
		t.Fatalf("expected the 4/4 preset")
	}
}

func TestParseStatements(t *testing.T) {
	parsed := parseString(t, `
.registers {
    A <- 3x3 (U)
}

.define one 1

start:
add A $one
solved-goto A start
goto start
print "value" A
halt "bye"
$one
`, Options{})

	kinds := []string{}
	for _, tagged := range parsed.Code {
		kinds = append(kinds, fmt.Sprintf("%T", tagged.Instr))
	}
	want := []string{
		"expand.DefineInstr",
		"expand.LabelInstr",
		"expand.CodeInstr",
		"expand.CodeInstr",
		"expand.CodeInstr",
		"expand.CodeInstr",
		"expand.CodeInstr",
		"expand.ConstantInstr",
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, kinds)
		}
	}

	label, ok := parsed.Code[1].Instr.(expand.LabelInstr)
	if !ok || label.Label.Name != "start" {
		t.Fatalf("unexpected label %#v", parsed.Code[1].Instr)
	}
	if got := parsed.Code[1].Pos.Slice(); got != "start:" {
		t.Fatalf("label span should cover the declaration, got %q", got)
	}

	call, ok := parsed.Code[2].Instr.(expand.CodeInstr)
	if !ok || call.Macro == nil || call.Macro.Name != "add" {
		t.Fatalf("unexpected call %#v", parsed.Code[2].Instr)
	}
	if call.Macro.Args[1].Constant != "one" {
		t.Fatalf("the $one argument should be a constant reference, got %#v", call.Macro.Args[1])
	}
}

func TestParseMacro(t *testing.T) {
	parsed := parseString(t, `
.macro inc {
    ($r:reg) => {
        add $r 1
    }
    ($r:reg by $n:int) => {
        add $r $n
    }
}
`, Options{})

	file := parsed.Code // no instructions, only the macro definition
	if len(file) != 0 {
		t.Fatalf("expected no instructions, got %d", len(file))
	}
}

func TestParseMacroConflict(t *testing.T) {
	_, log := Parse(span.NewFile("test.qat", `
.macro bad {
    ($a:int) => { }
    ($b:int) => { }
}
`), Options{})
	if !log.ContainsErrors() {
		t.Fatalf("expected a pattern conflict diagnostic")
	}
	if !strings.Contains(log.String(), "bad 123") {
		t.Fatalf("expected the counterexample, got:\n%s", log)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		".registers { A <- 17x17 (U) }\n",
		".registers { A <- 3x3 (U) }\n.registers { B <- 3x3 (D) }\n",
		".registers { A, B <- 3x3 (U) }\n",
		".registers { A <- 3x3 builtin (9999) }\n",
		"add A ( \n",
	}
	for _, source := range cases {
		_, log := Parse(span.NewFile("test.qat", source), Options{})
		if !log.ContainsErrors() {
			t.Errorf("expected errors for %q", source)
		}
	}
}

func TestParseImport(t *testing.T) {
	library := span.NewFile("lib.qat", `
.macro inc {
    ($r:reg) => {
        add $r 1
    }
}
`)
	parsed := parseString(t, `
.import "lib.qat"

.registers {
    A <- 3x3 (U)
}

inc A
`, Options{
		FindImport: func(path string) (*span.File, error) {
			if path != "lib.qat" {
				return nil, fmt.Errorf("unknown file %q", path)
			}
			return library, nil
		},
	})

	expanded, log := expand.Expand(parsed)
	if expanded == nil {
		t.Fatalf("expansion failed:\n%s", log)
	}
	if len(expanded.Components) != 1 {
		t.Fatalf("expected one primitive, got %d", len(expanded.Components))
	}
	add, ok := expanded.Components[0].Prim.(expand.AddPrim)
	if !ok || add.Reg.Name != "A" || add.Amt.Int64() != 1 {
		t.Fatalf("unexpected expansion %#v", expanded.Components[0])
	}
}

func TestImportsForbiddenByDefault(t *testing.T) {
	_, log := Parse(span.NewFile("test.qat", ".import \"lib.qat\"\n"), Options{})
	if !log.ContainsErrors() {
		t.Fatalf("imports without a resolver must fail")
	}
}

func TestParseScriptDefine(t *testing.T) {
	parsed := parseString(t, `
.registers {
    A <- 3x3 (U)
}

.define n !double 21
add A $n
`, Options{NewScriptBackend: func() expand.ScriptBackend { return stub{} }})

	var define *expand.DefineInstr
	for _, tagged := range parsed.Code {
		if d, ok := tagged.Instr.(expand.DefineInstr); ok {
			define = &d
		}
	}
	if define == nil || define.Value.Script == nil {
		t.Fatalf("expected a script-valued define")
	}
	if define.Value.Script.Fn != "double" {
		t.Fatalf("unexpected script call %#v", define.Value.Script)
	}
}

type stub struct{}

func (stub) AddCode(string) error { return nil }

func (stub) Call(string, []expand.ScriptValue) (expand.ScriptValue, error) {
	return expand.ScriptValue{Int: big.NewInt(42)}, nil
}

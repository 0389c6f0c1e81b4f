// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the expander's view of the scripting bridge.  Each file
// owns one backend; .script directives feed it source, and script calls are
// evaluated during expansion with their results re-entering the program as
// resolved values.

package expand

import (
	"math/big"

	"github.com/qter-project/qter/diag"
	"github.com/qter-project/qter/span"
)

// A ScriptValue crosses the boundary between QAT and the scripting backend:
// an unbounded integer, or an identifier (which is also how registers are
// handed over).
type ScriptValue struct {
	// Exactly one of Int, Ident is meaningful.
	Int   *big.Int
	Ident string
}

// A ScriptBackend evaluates user script code during expansion.
type ScriptBackend interface {
	// AddCode loads script source into the backend.
	AddCode(src string) error
	// Call invokes a function defined by previously added code.
	Call(fn string, args []ScriptValue) (ScriptValue, error)
}

// SetScriptBackend installs the backend evaluating script calls in file.
func (info *Info) SetScriptBackend(file *span.File, backend ScriptBackend) {
	info.Scripts[file] = backend
}

// callScript resolves the call's arguments, invokes the file's backend, and
// converts the result back into a resolved value.
func (info *Info) callScript(call *ScriptCallInstr, block BlockID, at span.Span, log *diag.Log) (ResolvedValue, bool) {
	backend, ok := info.Scripts[call.FnPos.File()]
	if !ok {
		log.Errorf(call.FnPos, "No script code was loaded in this file")
		return ResolvedValue{}, false
	}

	args := make([]ScriptValue, len(call.Args))
	for i, arg := range call.Args {
		resolved, found := info.Blocks.Resolve(block, arg)
		if !found {
			log.Errorf(arg.Pos, "Constant not found in this scope")
			return ResolvedValue{}, false
		}
		switch resolved.Kind {
		case IntValue:
			args[i] = ScriptValue{Int: resolved.Int}
		case IdentValue:
			args[i] = ScriptValue{Ident: resolved.Ident}
		default:
			log.Errorf(arg.Pos, "Code blocks cannot be passed to script functions")
			return ResolvedValue{}, false
		}
	}

	result, err := backend.Call(call.Fn, args)
	if err != nil {
		log.Errorf(at, "Script call failed: %s", err)
		return ResolvedValue{}, false
	}

	switch {
	case result.Int != nil:
		if result.Int.Sign() < 0 {
			log.Errorf(at, "Script returned a negative number")
			return ResolvedValue{}, false
		}
		return ResolvedValue{Kind: IntValue, Int: result.Int}, true
	case result.Ident != "":
		return ResolvedValue{Kind: IdentValue, Ident: result.Ident}, true
	default:
		return ResolvedValue{Kind: IdentValue, Ident: ""}, true
	}
}

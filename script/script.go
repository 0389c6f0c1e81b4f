// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements the expander's script backend on an embedded
// JavaScript engine.  Integers that fit an int64 cross the boundary as
// numbers; larger values travel as decimal strings, and any all-digit
// string coming back is reinterpreted as an integer.

// Package script evaluates .script code for the macro expander.
package script

import (
	"fmt"
	"math"
	"math/big"

	"github.com/dop251/goja"
	"github.com/qter-project/qter/expand"
)

// A Backend wraps one JavaScript runtime per file.
type Backend struct {
	vm *goja.Runtime
}

var _ expand.ScriptBackend = (*Backend)(nil)

// New creates an empty runtime.
func New() *Backend {
	return &Backend{vm: goja.New()}
}

// NewBackend adapts New to the parser's factory signature.
func NewBackend() expand.ScriptBackend {
	return New()
}

// AddCode implements expand.ScriptBackend.
func (b *Backend) AddCode(src string) error {
	_, err := b.vm.RunString(src)
	return err
}

// Call implements expand.ScriptBackend.
func (b *Backend) Call(fn string, args []expand.ScriptValue) (expand.ScriptValue, error) {
	callable, ok := goja.AssertFunction(b.vm.Get(fn))
	if !ok {
		return expand.ScriptValue{}, fmt.Errorf("%q is not a script function", fn)
	}

	values := make([]goja.Value, len(args))
	for i, arg := range args {
		switch {
		case arg.Int != nil:
			if arg.Int.IsInt64() {
				values[i] = b.vm.ToValue(arg.Int.Int64())
			} else {
				values[i] = b.vm.ToValue(arg.Int.String())
			}
		default:
			values[i] = b.vm.ToValue(arg.Ident)
		}
	}

	result, err := callable(goja.Undefined(), values...)
	if err != nil {
		return expand.ScriptValue{}, err
	}

	return convertResult(result)
}

func convertResult(v goja.Value) (expand.ScriptValue, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return expand.ScriptValue{}, nil
	}

	switch exported := v.Export().(type) {
	case int64:
		return expand.ScriptValue{Int: big.NewInt(exported)}, nil
	case float64:
		if exported != math.Trunc(exported) {
			return expand.ScriptValue{}, fmt.Errorf("script returned the non-integer %v", exported)
		}
		bigValue, _ := new(big.Float).SetFloat64(exported).Int(nil)
		return expand.ScriptValue{Int: bigValue}, nil
	case string:
		if value, ok := new(big.Int).SetString(exported, 10); ok {
			return expand.ScriptValue{Int: value}, nil
		}
		return expand.ScriptValue{Ident: exported}, nil
	case bool:
		if exported {
			return expand.ScriptValue{Int: big.NewInt(1)}, nil
		}
		return expand.ScriptValue{Int: big.NewInt(0)}, nil
	default:
		return expand.ScriptValue{}, fmt.Errorf("script returned an unsupported value %T", exported)
	}
}

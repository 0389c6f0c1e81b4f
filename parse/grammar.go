// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the QAT surface grammar.  The grammar is declarative
// (participle) over a small hand-tuned token set; newlines are significant
// as statement terminators, so they are lexed rather than elided.

// Package parse turns QAT source text into the instruction stream consumed
// by the macro expander.
package parse

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var qatLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "PuzzleName", Pattern: `[0-9]+x[0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Arrow", Pattern: `<-|←`},
	{Name: "FatArrow", Pattern: `=>`},
	{Name: "Directive", Pattern: `\.[a-zA-Z][a-zA-Z0-9-]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_'%-]*`},
	{Name: "Punct", Pattern: `[${}():,;!]`},
	{Name: "Newline", Pattern: `[\r\n]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

var qatParser = participle.MustBuild[sourceFile](
	participle.Lexer(qatLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

type sourceFile struct {
	Items []item `(Newline | @@)*`
}

type item struct {
	Registers  *registersDecl  `  @@`
	Define     *defineDecl     `| @@`
	MacroDef   *macroDecl      `| @@`
	Import     *importDecl     `| @@`
	Script     *scriptDecl     `| @@`
	ScriptCall *scriptCallExpr `| @@`
	Splice     *spliceStmt     `| @@`
	Label      *labelStmt      `| @@`
	Call       *callStmt       `| @@`
}

type registersDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Decls []regDecl `".registers" "{" (Newline | @@)* "}"`
}

type regDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Names       []string         `@Ident ("," @Ident)* Arrow`
	Theoretical *theoreticalSpec `( @@`
	Real        *realSpec        `| @@ )`
}

type theoreticalSpec struct {
	Order string `"theoretical" @Int`
}

type realSpec struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Puzzle  string     `( @PuzzleName | @Ident )`
	Builtin *orderList `( "builtin" @@`
	Algs    *algList   `| @@ )`
}

type orderList struct {
	Orders []string `"(" @Int ("," @Int)* ")"`
}

type algList struct {
	Algs []alg `"(" @@ ("," @@)* ")"`
}

type alg struct {
	Moves []string `@Ident+`
}

type defineDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Name  string     `".define" @Ident`
	Value *valueExpr `@@`
}

type valueExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Int        *string         `  @Int`
	Str        *string         `| @String`
	Const      *string         `| "$" @Ident`
	ScriptCall *scriptCallExpr `| @@`
	Block      *blockExpr      `| @@`
	Ident      *string         `| @Ident`
}

type blockExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Items []item `"{" (Newline | @@)* "}"`
}

type macroDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Name     string        `".macro" @Ident`
	Branches []macroBranch `"{" (Newline | @@)* "}"`
}

type macroBranch struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Components []patternComp `"(" @@* ")"`
	Body       *blockExpr    `FatArrow @@`
}

type patternComp struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Arg  *patternArg `( @@`
	Word *string     `| @Ident )`
}

type patternArg struct {
	Name string `"$" @Ident`
	Type string `":" @Ident`
}

type importDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Path string `".import" @String`
}

type scriptDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Code string `".script" @String`
}

type scriptCallExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Fn   string `"!" @Ident`
	Args []arg  `@@*`
}

type spliceStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Name string `"$" @Ident`
}

type labelStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Name string `@Ident ":"`
}

type callStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Name string `@Ident`
	Args []arg  `@@*`
}

type arg struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Int   *string    `  @Int`
	Str   *string    `| @String`
	Const *string    `| "$" @Ident`
	Block *blockExpr `| @@`
	Ident *string    `| @Ident`
}

// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perms

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposeIdentity(t *testing.T) {
	p := FromCycles([][]int{{0, 1, 2}, {4, 5}})

	left := Compose(Identity(), p)
	require.True(t, left.Equal(p))

	right := Compose(p, Identity())
	require.True(t, right.Equal(p))
}

func TestInverse(t *testing.T) {
	p := FromCycles([][]int{{0, 3, 1}, {2, 6}})
	require.True(t, Compose(p, p.Inverse()).IsIdentity())
	require.True(t, Compose(p.Inverse(), p).IsIdentity())
}

func TestExp(t *testing.T) {
	p := FromCycles([][]int{{0, 1, 2, 3}})

	require.True(t, p.Exp(big.NewInt(4)).IsIdentity())
	require.True(t, p.Exp(big.NewInt(0)).IsIdentity())
	require.True(t, p.Exp(big.NewInt(-1)).Equal(p.Inverse()))
	require.True(t, p.Exp(big.NewInt(5)).Equal(p))
	require.True(t, p.Exp(big.NewInt(-3)).Equal(p))
}

func TestCycles(t *testing.T) {
	p := FromCycles([][]int{{5, 7}, {0, 1, 2}})
	cycles := p.Cycles()
	require.Equal(t, [][]int{{0, 1, 2}, {5, 7}}, cycles)

	// Successors come from the mapping itself.
	for _, cycle := range cycles {
		for i, v := range cycle {
			require.Equal(t, cycle[(i+1)%len(cycle)], p.Image(v))
		}
	}

	require.Empty(t, Identity().Cycles())
}

func TestCycleNotation(t *testing.T) {
	p := FromCycles([][]int{{0, 1}})
	require.Equal(t, "(0, 1)", p.String())

	parsed, err := ParsePermutation("(1, 0)")
	require.NoError(t, err)
	require.True(t, parsed.Equal(p))

	parsed, err = ParsePermutation("(0, 1)(4, 3, 2)")
	require.NoError(t, err)
	require.Equal(t, "(0, 1)(2, 4, 3)", parsed.String())
}

func TestParseErrors(t *testing.T) {
	for _, bad := range []string{"(0, 1", "0, 1)", "(a)", "(0, 0)", "(-1, 2)"} {
		_, err := ParsePermutation(bad)
		require.ErrorIs(t, err, ErrParse, "input %q", bad)
	}
}

func testGroup(t *testing.T) *Group {
	t.Helper()
	swap := FromCycles([][]int{{0, 1}})
	cyc := FromCycles([][]int{{2, 3, 4}})
	g, err := NewGroup("toy",
		[]string{"a", "b", "c", "d", "e"},
		[]string{"p0", "p1", "p2", "p3", "p4"},
		[]Generator{
			{Name: "S", Permutation: swap, InverseName: "S"},
			{Name: "C", Permutation: cyc, InverseName: "C'"},
			{Name: "C'", Permutation: cyc.Inverse(), InverseName: "C"},
		})
	require.NoError(t, err)
	return g
}

func TestGroupMoves(t *testing.T) {
	g := testGroup(t)

	_, err := g.Move("X")
	require.ErrorIs(t, err, ErrUnknownMove)

	alg, err := ParseAlgorithm(g, "S C C S")
	require.NoError(t, err)
	require.True(t, alg.Permutation().Equal(FromCycles([][]int{{2, 4, 3}})))

	require.True(t, Compose(alg.Permutation(), alg.Inverse().Permutation()).IsIdentity())
	require.Equal(t, []string{"S", "C'", "C'", "S"}, alg.Inverse().Moves())
}

func TestAlgorithmExp(t *testing.T) {
	g := testGroup(t)
	alg, err := ParseAlgorithm(g, "C")
	require.NoError(t, err)

	cubed := alg.Exp(big.NewInt(3))
	require.True(t, cubed.Permutation().IsIdentity())
	require.Equal(t, []string{"C", "C", "C"}, cubed.Moves())

	inv := alg.Exp(big.NewInt(-1))
	require.Equal(t, []string{"C'"}, inv.Moves())
}

func TestGroupJSONRoundTrip(t *testing.T) {
	g := testGroup(t)
	data, err := g.MarshalJSON()
	require.NoError(t, err)

	var back Group
	require.NoError(t, back.UnmarshalJSON(data))
	require.Equal(t, g.Name(), back.Name())
	require.Equal(t, g.FaceletColors(), back.FaceletColors())
	require.Equal(t, g.GeneratorNames(), back.GeneratorNames())

	p1, err := g.Move("C")
	require.NoError(t, err)
	p2, err := back.Move("C")
	require.NoError(t, err)
	require.True(t, p1.Equal(p2))
}

func TestRepetendLength(t *testing.T) {
	tests := []struct {
		word []string
		want int
	}{
		{[]string{"a", "a", "a", "a"}, 1},
		{[]string{"a", "b", "a", "b"}, 2},
		{[]string{"a", "b", "c", "a"}, 4},
		{[]string{"a", "b", "a", "b", "a"}, 5},
		{[]string{"a", "b", "c", "d", "e"}, 5},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RepetendLength(tt.word), "word %v", tt.word)
	}
}

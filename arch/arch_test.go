// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arch

import (
	"math/big"
	"strings"
	"testing"

	"github.com/qter-project/qter/number"
	"github.com/qter-project/qter/perms"
	"github.com/qter-project/qter/puzzles"
	"github.com/stretchr/testify/require"
)

func split(algs ...string) [][]string {
	out := make([][]string, len(algs))
	for i, alg := range algs {
		out[i] = strings.Fields(alg)
	}
	return out
}

func TestThreeByThreeOrders(t *testing.T) {
	group := puzzles.Cube3()

	tests := []struct {
		algs   []string
		orders []int64
	}{
		{[]string{"U", "D"}, []int64{4, 4}},
		{[]string{"R' F' L U' L U L F U' R", "U F R' D' R2 F R' U' D"}, []int64{90, 90}},
		{[]string{"U R U' D2 B", "B U2 B' L' U2 B U L' B L B2 L"}, []int64{210, 24}},
		{[]string{
			"U L2 B' L U' B' U2 R B' R' B L",
			"R2 L U' R' L2 F' D R' D L B2 D2",
			"L2 F2 U L' F D' F' U' L' F U D L' U'",
		}, []int64{30, 30, 30}},
	}

	for _, tt := range tests {
		a, err := New(group, split(tt.algs...))
		require.NoError(t, err, "algs %v", tt.algs)
		for i, reg := range a.Registers() {
			require.Equal(t, tt.orders[i], reg.Order().Int64(),
				"register %d of %v", i, tt.algs)
		}
	}
}

func TestNoUnsharedCycles(t *testing.T) {
	group := puzzles.Cube3()
	_, err := New(group, split("U", "U2"))
	require.ErrorIs(t, err, ErrNoUnsharedCycles)
}

func TestUnknownMove(t *testing.T) {
	group := puzzles.Cube3()
	_, err := New(group, split("U X"))
	require.ErrorIs(t, err, perms.ErrUnknownMove)
}

func TestDecodeSingleRegister(t *testing.T) {
	group := puzzles.Cube3()
	a, err := New(group, split("U"))
	require.NoError(t, err)

	reg := a.Registers()[0]
	require.Equal(t, int64(4), reg.Order().Int64())

	sig := reg.SignatureFacelets()
	require.NotEmpty(t, sig.Facelets())
	require.Equal(t, int64(4), sig.Order().Int64())

	inverse := reg.Algorithm().Inverse()
	state := perms.Identity()
	for k := int64(0); k < 8; k++ {
		v := Decode(state, sig.Facelets(), reg.Algorithm())
		require.NotNil(t, v, "step %d", k)
		require.Equal(t, k%4, v.Int64(), "step %d", k)
		state.ComposeInto(inverse.Permutation())
	}
}

func TestDecodeFailure(t *testing.T) {
	group := puzzles.Cube3()
	a, err := New(group, split("U"))
	require.NoError(t, err)

	reg := a.Registers()[0]
	sig := reg.SignatureFacelets()

	// Turning R then F moves the signature facelets off the generator's cycles.
	r, err := perms.ParseAlgorithm(group, "R F")
	require.NoError(t, err)
	state := perms.Identity()
	state.ComposeInto(r.Permutation())

	require.Nil(t, Decode(state, sig.Facelets(), reg.Algorithm()))
}

func TestSignatureFaceletsMod(t *testing.T) {
	group := puzzles.Cube3()
	a, err := New(group, split("U"))
	require.NoError(t, err)

	reg := a.Registers()[0]
	require.NotNil(t, reg.SignatureFaceletsMod(big.NewInt(4)))
	require.Nil(t, reg.SignatureFaceletsMod(big.NewInt(2)),
		"no subcycle of U has chromatic order 2")
	require.Nil(t, reg.SignatureFaceletsMod(big.NewInt(3)))
}

func TestDecodingTable(t *testing.T) {
	group := puzzles.Cube3()
	a, err := New(group, split("U", "D"))
	require.NoError(t, err)

	table, err := a.DecodingTable()
	require.NoError(t, err)

	// Identity, U, U', D, D'.
	require.Equal(t, 5, table.Len())

	// The identity entry decodes to all zeros.
	zero := []*big.Int{number.Zero(), number.Zero()}
	achieved, moves := table.ClosestAlg(zero)
	require.Empty(t, moves)
	require.Equal(t, 0, number.Cmp(achieved, zero))
}

func TestClosestAlgIsMinimal(t *testing.T) {
	group := puzzles.Cube3()
	a, err := New(group, split("U", "D"))
	require.NoError(t, err)

	table, err := a.DecodingTable()
	require.NoError(t, err)

	orders := table.Orders()
	bruteForce := func(target []*big.Int) *big.Int {
		var best *big.Int
		for i := 0; i < table.Len(); i++ {
			key, _ := table.Entry(i)
			dist := number.Zero()
			for j := range key {
				dist.Add(dist, number.TorusDistance(key[j], target[j], orders[j]))
			}
			if best == nil || dist.Cmp(best) < 0 {
				best = dist
			}
		}
		return best
	}

	for x := int64(0); x < 4; x++ {
		for y := int64(0); y < 4; y++ {
			target := []*big.Int{big.NewInt(x), big.NewInt(y)}
			achieved, _ := table.ClosestAlg(target)
			dist := number.Zero()
			for j := range achieved {
				dist.Add(dist, number.TorusDistance(achieved[j], target[j], orders[j]))
			}
			require.Equal(t, bruteForce(target).Int64(), dist.Int64(),
				"target (%d, %d)", x, y)
		}
	}
}

func TestNewFromEffect(t *testing.T) {
	group := puzzles.Cube3()
	a, err := New(group, split("U"))
	require.NoError(t, err)

	alg, err := a.NewFromEffect([]RegisterAmount{{Register: 0, Amount: big.NewInt(1)}})
	require.NoError(t, err)
	require.Equal(t, []string{"U'"}, alg.Moves())

	alg, err = a.NewFromEffect([]RegisterAmount{{Register: 0, Amount: big.NewInt(3)}})
	require.NoError(t, err)
	require.Equal(t, []string{"U"}, alg.Moves())
}

func TestNewFromEffectDecodes(t *testing.T) {
	group := puzzles.Cube3()
	a, err := New(group, split("U", "D"))
	require.NoError(t, err)

	effect := []RegisterAmount{
		{Register: 0, Amount: big.NewInt(3)},
		{Register: 1, Amount: big.NewInt(1)},
	}
	alg, err := a.NewFromEffect(effect)
	require.NoError(t, err)

	state := perms.Identity()
	state.ComposeInto(alg.Permutation())
	for i, want := range []int64{3, 1} {
		reg := a.Registers()[i]
		v := Decode(state, reg.SignatureFacelets().Facelets(), reg.Algorithm())
		require.NotNil(t, v)
		require.Equal(t, want, v.Int64(), "register %d", i)
	}
}

func TestTableEncodeRoundTrip(t *testing.T) {
	entries := [][]string{{"U", "D'"}, {"R2"}, nil}
	blob, err := EncodeTable(entries)
	require.NoError(t, err)

	back, err := DecodeTable(blob)
	require.NoError(t, err)
	require.Len(t, back, 3)
	require.Equal(t, entries[0], back[0])
	require.Equal(t, entries[1], back[1])
	require.Empty(t, back[2])
}

func TestOptimizedTableExtendsCoverage(t *testing.T) {
	group := puzzles.Cube3()
	a, err := New(group, split("U", "D"))
	require.NoError(t, err)

	// U D as one entry achieves (3, 3); its inverse is added too.
	blob, err := EncodeTable([][]string{{"U", "D"}})
	require.NoError(t, err)
	a.SetOptimizedTable(blob)

	table, err := a.DecodingTable()
	require.NoError(t, err)
	require.Equal(t, 7, table.Len())

	achieved, moves := table.ClosestAlg([]*big.Int{big.NewInt(3), big.NewInt(3)})
	require.Equal(t, []string{"U", "D"}, moves)
	require.Equal(t, int64(3), achieved[0].Int64())
	require.Equal(t, int64(3), achieved[1].Int64())
}

func TestPresets(t *testing.T) {
	def, err := WithPresets(puzzles.Cube3())
	require.NoError(t, err)
	require.Len(t, def.Presets, 6)

	found := def.GetPreset([]*big.Int{big.NewInt(90), big.NewInt(90)})
	require.NotNil(t, found)
	require.Equal(t, int64(90), found.Registers()[0].Order().Int64())

	// Swizzled order lookup.
	found = def.GetPreset([]*big.Int{big.NewInt(24), big.NewInt(210)})
	require.NotNil(t, found)
	require.Equal(t, int64(24), found.Registers()[0].Order().Int64())
	require.Equal(t, int64(210), found.Registers()[1].Order().Int64())

	require.Nil(t, def.GetPreset([]*big.Int{big.NewInt(7)}))
}

// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the stock register assignments shipped for the 3x3 and
// the lookup that matches a requested list of register orders against them,
// reordering a preset's registers when the caller asks for the same orders
// in a different sequence.

package arch

import (
	"math/big"
	"strings"
	"sync"

	"github.com/qter-project/qter/perms"
)

// A PuzzleDefinition is a puzzle's permutation group plus the preset
// architectures shipped for it.
type PuzzleDefinition struct {
	Group   *perms.Group
	Presets []*Architecture
}

// The stock 3x3 architectures, one algorithm per register.
var cube3PresetAlgs = [][]string{
	{"R U2 D' B D'"},
	{"U", "D"},
	{"R' F' L U' L U L F U' R", "U F R' D' R2 F R' U' D"},
	{"U R U' D2 B", "B U2 B' L' U2 B U L' B L B2 L"},
	{
		"U L2 B' L U' B' U2 R B' R' B L",
		"R2 L U' R' L2 F' D R' D L B2 D2",
		"L2 F2 U L' F D' F' U' L' F U D L' U'",
	},
	{
		"U L B' L B' U R' D U2 L2 F2",
		"D L' F L2 B L' F' L B' D' L'",
		"R' U' L' F2 L F U F R L U'",
		"B2 U2 L F' R B L2 D2 B R' F L",
	},
}

// WithPresets wraps a group with its presets.  Only the 3x3 ships any.
func WithPresets(group *perms.Group) (*PuzzleDefinition, error) {
	def := &PuzzleDefinition{Group: group}
	if group.Name() != "3x3" {
		return def, nil
	}

	presets, err := cube3Presets(group)
	if err != nil {
		return nil, err
	}
	def.Presets = presets
	return def, nil
}

var (
	cube3PresetsOnce sync.Once
	cube3PresetsMemo []*Architecture
	cube3PresetsErr  error
)

func cube3Presets(group *perms.Group) ([]*Architecture, error) {
	cube3PresetsOnce.Do(func() {
		for _, algs := range cube3PresetAlgs {
			split := make([][]string, len(algs))
			for i, alg := range algs {
				split[i] = strings.Fields(alg)
			}
			arch, err := New(group, split)
			if err != nil {
				cube3PresetsErr = err
				return
			}
			cube3PresetsMemo = append(cube3PresetsMemo, arch)
		}
	})
	return cube3PresetsMemo, cube3PresetsErr
}

// GetPreset finds a preset whose registers have exactly the given orders,
// reordered to match.
func (d *PuzzleDefinition) GetPreset(orders []*big.Int) *Architecture {
	for _, preset := range d.Presets {
		if len(preset.registers) != len(orders) {
			continue
		}
		if adapted := adaptArchitecture(preset, orders); adapted != nil {
			return adapted
		}
	}
	return nil
}

// adaptArchitecture permutes the preset's registers so that their orders
// appear in the requested sequence, or returns nil if the orders don't
// match.  The adapted architecture gets a fresh decoding-table cell.
func adaptArchitecture(a *Architecture, orders []*big.Int) *Architecture {
	used := make([]bool, len(orders))
	swizzle := make([]int, len(orders))

	for i, order := range orders {
		found := false
		for j, reg := range a.registers {
			if !used[j] && reg.Order().Cmp(order) == 0 {
				used[j] = true
				swizzle[i] = j
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}

	inOrder := true
	for i, j := range swizzle {
		if i != j {
			inOrder = false
		}
	}
	if inOrder {
		return a
	}

	registers := make([]*CycleGenerator, len(swizzle))
	for i, j := range swizzle {
		registers[i] = a.registers[j]
	}

	return &Architecture{
		group:          a.group,
		registers:      registers,
		sharedFacelets: a.sharedFacelets,
		optimizedTable: a.optimizedTable,
	}
}

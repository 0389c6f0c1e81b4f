// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file constructs the 3x3 cube group.  Rather than hand-entering 18
// facelet cycles, each sticker is assigned an integer lattice coordinate and
// each face turn is a 90-degree rotation of the lattice; the permutations
// fall out of transforming coordinates.  Facelets are numbered face by face,
// U L F R B D, row-major viewed from outside the cube.

// Package puzzles provides the built-in puzzle definitions.
package puzzles

import (
	"fmt"
	"sync"

	"github.com/qter-project/qter/perms"
)

type vec struct{ x, y, z int }

func (v vec) add(w vec) vec   { return vec{v.x + w.x, v.y + w.y, v.z + w.z} }
func (v vec) scale(k int) vec { return vec{v.x * k, v.y * k, v.z * k} }
func (v vec) clamp() vec      { return vec{clamp(v.x), clamp(v.y), clamp(v.z)} }

func clamp(v int) int {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// One face of the cube: its outward normal, the direction rows grow, the
// direction columns grow (both viewed from outside), and its color.
type face struct {
	letter string
	color  string
	normal vec
	urow   vec
	ucol   vec
}

// Axes: x toward R, y toward U, z toward F.
var faces = []face{
	{"U", "white", vec{0, 1, 0}, vec{0, 0, 1}, vec{1, 0, 0}},
	{"L", "orange", vec{-1, 0, 0}, vec{0, -1, 0}, vec{0, 0, 1}},
	{"F", "green", vec{0, 0, 1}, vec{0, -1, 0}, vec{1, 0, 0}},
	{"R", "red", vec{1, 0, 0}, vec{0, -1, 0}, vec{0, 0, -1}},
	{"B", "blue", vec{0, 0, -1}, vec{0, -1, 0}, vec{-1, 0, 0}},
	{"D", "yellow", vec{0, -1, 0}, vec{0, 0, -1}, vec{1, 0, 0}},
}

// A quarter turn: which stickers it moves and how coordinates rotate.
type turn struct {
	letter string
	moves  func(vec) bool
	rotate func(vec) vec
}

var turns = []turn{
	{"U", func(c vec) bool { return c.y >= 1 }, func(c vec) vec { return vec{-c.z, c.y, c.x} }},
	{"D", func(c vec) bool { return c.y <= -1 }, func(c vec) vec { return vec{c.z, c.y, -c.x} }},
	{"R", func(c vec) bool { return c.x >= 1 }, func(c vec) vec { return vec{c.x, c.z, -c.y} }},
	{"L", func(c vec) bool { return c.x <= -1 }, func(c vec) vec { return vec{c.x, -c.z, c.y} }},
	{"F", func(c vec) bool { return c.z >= 1 }, func(c vec) vec { return vec{c.y, -c.x, c.z} }},
	{"B", func(c vec) bool { return c.z <= -1 }, func(c vec) vec { return vec{-c.y, c.x, c.z} }},
}

var (
	cube3Once sync.Once
	cube3     *perms.Group
)

// Cube3 returns the permutation group of the 3x3 cube: 54 facelets and the
// 18 face turns U U' U2 D D' D2 and so on.  The group is built once and
// shared.
func Cube3() *perms.Group {
	cube3Once.Do(func() {
		g, err := buildCube3()
		if err != nil {
			panic(err)
		}
		cube3 = g
	})
	return cube3
}

func buildCube3() (*perms.Group, error) {
	coords := make([]vec, 0, 54)
	colors := make([]string, 0, 54)
	pieces := make([]string, 0, 54)
	index := make(map[vec]int, 54)

	for _, f := range faces {
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				c := f.normal.scale(3).
					add(f.urow.scale(row - 1)).
					add(f.ucol.scale(col - 1))
				index[c] = len(coords)
				coords = append(coords, c)
				colors = append(colors, f.color)
				pieces = append(pieces, pieceName(c.clamp()))
			}
		}
	}

	var generators []perms.Generator
	for _, t := range turns {
		mapping := make([]int, 54)
		for i, c := range coords {
			if t.moves(c) {
				mapping[i] = index[t.rotate(c)]
			} else {
				mapping[i] = i
			}
		}
		quarter, err := perms.FromMapping(mapping)
		if err != nil {
			return nil, fmt.Errorf("turn %s: %w", t.letter, err)
		}
		half := perms.Compose(quarter, quarter)
		generators = append(generators,
			perms.Generator{Name: t.letter, Permutation: quarter, InverseName: t.letter + "'"},
			perms.Generator{Name: t.letter + "'", Permutation: quarter.Inverse(), InverseName: t.letter},
			perms.Generator{Name: t.letter + "2", Permutation: half, InverseName: t.letter + "2"},
		)
	}

	return perms.NewGroup("3x3", colors, pieces, generators)
}

// pieceName names the cubie at the clamped coordinate: "UFR", "UF", "U", and
// so on, U/D before F/B before L/R.
func pieceName(c vec) string {
	name := ""
	switch c.y {
	case 1:
		name += "U"
	case -1:
		name += "D"
	}
	switch c.z {
	case 1:
		name += "F"
	case -1:
		name += "B"
	}
	switch c.x {
	case 1:
		name += "R"
	case -1:
		name += "L"
	}
	return name
}

// Get looks up a built-in puzzle by name.
func Get(name string) (*perms.Group, bool) {
	if name == "3x3" {
		return Cube3(), true
	}
	return nil, false
}

// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines Architecture: a permutation group with an ordered list
// of registers, the facelets shared between them, and a lazily built
// decoding table mapping achieved register offsets to move sequences.

// Package arch assigns registers to twisty puzzles: it discovers cycle
// generators from user algorithms, detects shared facelets, selects
// signature facelets, and synthesizes algorithms for arbitrary register
// effects through a decoding table.
package arch

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/qter-project/qter/number"
	"github.com/qter-project/qter/perms"
)

// An Architecture is a particular assignment of registers to a puzzle.
type Architecture struct {
	group          *perms.Group
	registers      []*CycleGenerator
	sharedFacelets []int
	optimizedTable []byte

	tableOnce sync.Once
	table     *DecodingTable
	tableErr  error
}

// New creates an architecture from a permutation group and one algorithm per
// register.  It fails if an algorithm names an unknown move or if a register
// ends up with no unshared cycles.
func New(group *perms.Group, algorithms [][]string) (*Architecture, error) {
	registers, shared, err := algorithmsToCycleGenerators(group, algorithms)
	if err != nil {
		return nil, err
	}
	return &Architecture{
		group:          group,
		registers:      registers,
		sharedFacelets: shared,
	}, nil
}

// Group returns the underlying permutation group.
func (a *Architecture) Group() *perms.Group { return a.group }

// Registers returns the architecture's registers in declaration order.
func (a *Architecture) Registers() []*CycleGenerator { return a.registers }

// SharedFacelets returns the facelets moved by more than one register.
func (a *Architecture) SharedFacelets() []int { return a.sharedFacelets }

// RegisterOrders returns the order of every register.
func (a *Architecture) RegisterOrders() []*big.Int {
	orders := make([]*big.Int, len(a.registers))
	for i, reg := range a.registers {
		orders[i] = reg.Order()
	}
	return orders
}

// SetOptimizedTable installs a table of optimized algorithms, compressed
// with EncodeTable.  The registers' own generators and their inverses need not be
// included, they are always present; entries later in the table take
// priority over earlier ones.  The table is consulted the first time
// DecodingTable is called.
func (a *Architecture) SetOptimizedTable(encoded []byte) {
	a.optimizedTable = encoded
}

// DecodingTable returns the table of algorithms indexed by how they affect
// each register, building it on first use.  The table is immutable and
// shared once built.
func (a *Architecture) DecodingTable() (*DecodingTable, error) {
	a.tableOnce.Do(func() {
		a.table, a.tableErr = a.buildDecodingTable()
	})
	return a.table, a.tableErr
}

func (a *Architecture) buildDecodingTable() (*DecodingTable, error) {
	var preloaded [][]string
	if a.optimizedTable != nil {
		decoded, err := DecodeTable(a.optimizedTable)
		if err != nil {
			return nil, fmt.Errorf("optimized table: %w", err)
		}
		preloaded = decoded
	}

	type decodeInfo struct {
		facelets        *Facelets
		generator       *perms.Algorithm
		chromaticOrders []*big.Int
	}
	infos := make([]decodeInfo, len(a.registers))
	for i, reg := range a.registers {
		infos[i] = decodeInfo{
			facelets:        reg.SignatureFacelets(),
			generator:       reg.Algorithm(),
			chromaticOrders: perms.ChromaticOrders(reg.Algorithm()),
		}
	}

	builder := newTableBuilder(a.RegisterOrders())

	addEntry := func(moves []string) {
		alg, err := perms.NewAlgorithm(a.group, moves)
		if err != nil {
			// Invalid preloaded entries are ignored.
			return
		}
		offsets := make([]*big.Int, len(infos))
		for i, info := range infos {
			v := decodeWithOrders(alg.Permutation(), info.facelets.Facelets(),
				info.generator, info.chromaticOrders)
			if v == nil {
				return
			}
			offsets[i] = v
		}
		builder.put(offsets, moves)
	}

	// The identity is always present, so synthesis can terminate at zero.
	addEntry(nil)

	for _, reg := range a.registers {
		addEntry(reg.Algorithm().Moves())
		addEntry(reg.Algorithm().Inverse().Moves())
	}

	// Inverses of the preloaded entries double the coverage; the entries
	// themselves are added afterwards so that they win conflicts.
	for _, moves := range preloaded {
		if inverse, err := a.group.InvertMoveSeq(moves); err == nil {
			addEntry(inverse)
		}
	}
	for _, moves := range preloaded {
		addEntry(moves)
	}

	return builder.finish()
}

// NewFromEffect creates an algorithm adding the given amounts to the given
// registers.  It repeatedly takes the table entry closest to the outstanding
// effect and subtracts it until nothing remains.
func (a *Architecture) NewFromEffect(effect []RegisterAmount) (*perms.Algorithm, error) {
	table, err := a.DecodingTable()
	if err != nil {
		return nil, err
	}

	remaining := make([]*big.Int, len(a.registers))
	for i := range remaining {
		remaining[i] = number.Zero()
	}
	for _, e := range effect {
		remaining[e.Register] = number.Mod(e.Amount, a.registers[e.Register].Order())
	}

	var moves []string
	orders := table.Orders()

	for anyNonZero(remaining) {
		achieved, alg := table.ClosestAlg(remaining)

		if !anyNonZero(achieved) {
			return nil, fmt.Errorf("decoding table cannot express effect %v", remaining)
		}

		for i := range remaining {
			if remaining[i].Cmp(achieved[i]) < 0 {
				remaining[i] = new(big.Int).Add(remaining[i], orders[i])
			}
			remaining[i] = new(big.Int).Sub(remaining[i], achieved[i])
		}

		moves = append(moves, alg...)
	}

	return perms.NewAlgorithm(a.group, moves)
}

// A RegisterAmount is one component of a register effect.
type RegisterAmount struct {
	Register int
	Amount   *big.Int
}

func anyNonZero(values []*big.Int) bool {
	for _, v := range values {
		if v.Sign() != 0 {
			return true
		}
	}
	return false
}

// A DecodingTable maps tuples of achieved register offsets to the move
// sequences achieving them, sorted lexicographically by offsets.
type DecodingTable struct {
	orders []*big.Int
	keys   [][]*big.Int
	algs   [][]string
	cache  *lru.Cache[string, int]
}

// Orders returns the register orders the table was built against.
func (t *DecodingTable) Orders() []*big.Int { return t.orders }

// Len returns the number of entries.
func (t *DecodingTable) Len() int { return len(t.keys) }

// Entry returns the i-th entry in lexicographic key order.
func (t *DecodingTable) Entry(i int) (offsets []*big.Int, moves []string) {
	return t.keys[i], t.algs[i]
}

// ClosestAlg finds the entry minimizing the torus-distance sum to target:
// the sum over registers of min(|achieved-target|, order-|achieved-target|).
// It expands radially from the target's position in lexicographic order,
// walking both directions and pruning a direction once the distance along
// the first component alone exceeds the best found so far.
func (t *DecodingTable) ClosestAlg(target []*big.Int) (achieved []*big.Int, moves []string) {
	if len(t.keys) == 0 {
		return nil, nil
	}
	if idx, ok := t.cache.Get(cacheKey(target)); ok {
		return t.keys[idx], t.algs[idx]
	}

	bestIdx := -1
	var bestDist *big.Int

	consider := func(idx int) *big.Int {
		dist := number.Zero()
		for i, achieves := range t.keys[idx] {
			dist.Add(dist, number.TorusDistance(achieves, target[i], t.orders[i]))
		}
		if bestIdx < 0 || bestDist.Cmp(dist) > 0 {
			bestIdx, bestDist = idx, dist
		}
		return bestDist
	}

	// Position of the first key >= target.
	start := sort.Search(len(t.keys), func(i int) bool {
		return number.Cmp(t.keys[i], target) >= 0
	})

	up, down := start, start-1
	takeUp, takeDown := true, true
	taken := 0

	for (takeUp || takeDown) && taken < len(t.keys) {
		if takeDown {
			idx := ((down % len(t.keys)) + len(t.keys)) % len(t.keys)
			down--
			taken++

			minDist := consider(idx)
			linear := new(big.Int).Sub(target[0], t.keys[idx][0])
			if minDist.Cmp(linear.Abs(linear)) < 0 {
				takeDown = false
			}
		}

		if takeUp {
			idx := up % len(t.keys)
			up++
			taken++

			minDist := consider(idx)
			linear := new(big.Int).Sub(t.keys[idx][0], target[0])
			if minDist.Cmp(linear.Abs(linear)) < 0 {
				takeUp = false
			}
		}
	}

	t.cache.Add(cacheKey(target), bestIdx)
	return t.keys[bestIdx], t.algs[bestIdx]
}

func cacheKey(target []*big.Int) string {
	var sb strings.Builder
	for i, v := range target {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(v.String())
	}
	return sb.String()
}

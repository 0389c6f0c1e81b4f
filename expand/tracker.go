// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the block arena.  Blocks form a tree; parent and child
// pointers are arena indices rather than owning references, so instructions
// can carry BlockIDs freely while the tracker owns all block state.

package expand

// BlockInfo holds the per-block expansion state.
type BlockInfo struct {
	Parent   BlockID
	Children []BlockID
	Defines  map[string]ResolvedDefine
	Labels   []Label
}

// A Tracker owns the arena of lexical blocks.  NewTracker allocates the root
// block (id 0).
type Tracker struct {
	blocks []*BlockInfo
}

// NewTracker creates a tracker holding only the root block.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.blocks = append(t.blocks, &BlockInfo{
		Parent:  NoBlock,
		Defines: make(map[string]ResolvedDefine),
	})
	return t
}

// Root returns the root block id.
func (t *Tracker) Root() BlockID { return 0 }

// Block returns the info of a block.
func (t *Tracker) Block(id BlockID) *BlockInfo {
	return t.blocks[id]
}

// NewBlock allocates a child block of parent.
func (t *Tracker) NewBlock(parent BlockID) BlockID {
	id := BlockID(len(t.blocks))
	t.blocks = append(t.blocks, &BlockInfo{
		Parent:  parent,
		Defines: make(map[string]ResolvedDefine),
	})
	t.blocks[parent].Children = append(t.blocks[parent].Children, id)
	return id
}

// GetDefine resolves a name by walking the parent chain from the given
// block.
func (t *Tracker) GetDefine(block BlockID, name string) (ResolvedDefine, bool) {
	for block != NoBlock {
		info := t.blocks[block]
		if def, ok := info.Defines[name]; ok {
			return def, true
		}
		block = info.Parent
	}
	return ResolvedDefine{}, false
}

// Resolve turns a value into a resolved value, looking constants up through
// the parent chain.
func (t *Tracker) Resolve(block BlockID, value Value) (ResolvedValue, bool) {
	if value.Resolved != nil {
		return *value.Resolved, true
	}
	def, ok := t.GetDefine(block, value.Constant)
	if !ok {
		return ResolvedValue{}, false
	}
	return def.Value, true
}

// RecordLabel registers a stamped label in its block.
func (t *Tracker) RecordLabel(label Label) {
	info := t.blocks[label.Block]
	for _, existing := range info.Labels {
		if existing.Name == label.Name && existing.Pos == label.Pos {
			return
		}
	}
	info.Labels = append(info.Labels, label)
}

// ResolveLabel finds the block declaring the referenced label.  Starting at
// the referring block and walking parents, the first block declaring a label
// with the name wins, provided the label's availability set (if any) admits
// the referring block.
func (t *Tracker) ResolveLabel(ref LabelReference) (LabelReference, bool) {
	current := ref.Block
	for current != NoBlock {
		info := t.blocks[current]
		for _, label := range info.Labels {
			if label.Name != ref.Name {
				continue
			}
			if label.AvailableIn != nil && !containsBlock(label.AvailableIn, ref.Block) {
				continue
			}
			return LabelReference{Name: ref.Name, Block: current, Pos: ref.Pos}, true
		}
		current = info.Parent
	}
	return LabelReference{}, false
}

func containsBlock(blocks []BlockID, id BlockID) bool {
	for _, b := range blocks {
		if b == id {
			return true
		}
	}
	return false
}

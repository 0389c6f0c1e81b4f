// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file owns the on-disk format of optimized decoding tables (a
// zstd-compressed CBOR list of move sequences) and the sorted builder the
// architecture uses to assemble a DecodingTable.

package arch

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/fxamacker/cbor/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/qter-project/qter/number"
)

const closestAlgCacheSize = 256

// EncodeTable serializes a list of move sequences into the compressed blob
// format accepted by Architecture.SetOptimizedTable.
func EncodeTable(entries [][]string) ([]byte, error) {
	payload, err := cbor.Marshal(entries)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeTable reverses EncodeTable.
func DecodeTable(blob []byte) ([][]string, error) {
	r, err := zstd.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decompressing table: %w", err)
	}
	defer r.Close()

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing table: %w", err)
	}

	var entries [][]string
	if err := cbor.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("decoding table payload: %w", err)
	}
	return entries, nil
}

// A tableBuilder accumulates entries sorted by offset tuple, later insertions
// replacing earlier ones with the same key.
type tableBuilder struct {
	orders  []*big.Int
	entries *treemap.Map
}

func newTableBuilder(orders []*big.Int) *tableBuilder {
	return &tableBuilder{
		orders: orders,
		entries: treemap.NewWith(func(a, b interface{}) int {
			return number.Cmp(a.([]*big.Int), b.([]*big.Int))
		}),
	}
}

func (b *tableBuilder) put(offsets []*big.Int, moves []string) {
	b.entries.Put(offsets, append([]string(nil), moves...))
}

func (b *tableBuilder) finish() (*DecodingTable, error) {
	cache, err := lru.New[string, int](closestAlgCacheSize)
	if err != nil {
		return nil, err
	}

	table := &DecodingTable{orders: b.orders, cache: cache}
	it := b.entries.Iterator()
	for it.Next() {
		table.keys = append(table.keys, it.Key().([]*big.Int))
		table.algs = append(table.algs, it.Value().([]string))
	}
	return table, nil
}

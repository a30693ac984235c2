/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tlfu

import (
	"encoding/binary"
	"math"

	farm "github.com/dgryski/go-farm"

	"github.com/dgraph-io/tlfu/z"
)

// doorkeeper is a bloom filter guarding the count-min sketch from one-hit
// wonders: a key must be seen twice within a window before it starts
// accumulating an estimated frequency above 1.
type doorkeeper struct {
	bits *z.Bloom
	locs uint64
}

// newDoorkeeper sizes a bloom filter for numEntries expected insertions at
// the given target false-positive rate.
func newDoorkeeper(numEntries uint64, falsePositiveRate float64) *doorkeeper {
	if numEntries == 0 {
		numEntries = 1
	}
	numBits, locs := bloomDimensions(float64(numEntries), falsePositiveRate)
	return &doorkeeper{
		bits: z.NewBloom(numBits),
		locs: locs,
	}
}

// bloomDimensions returns (bit count, hash function count) for the classic
// bloom filter size formula.
func bloomDimensions(numEntries, wrongs float64) (numBits, locs uint64) {
	const ln2Sq = 0.69314718056 * 0.69314718056
	size := -1 * numEntries * math.Log(wrongs) / ln2Sq
	l := math.Ceil(0.69314718056 * size / numEntries)
	if l < 1 {
		l = 1
	}
	return uint64(size), uint64(l)
}

// locations returns two independent 64-bit hashes derived from keyHash via
// go-farm, used as the basis for Kirsch-Mitzenmacher double hashing.
func (d *doorkeeper) locations(keyHash uint64) (h1, h2 uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], keyHash)
	return farm.Hash64WithSeed(buf[:], 0), farm.Hash64WithSeed(buf[:], 1)
}

// contains reports whether keyHash may have been added. It never
// false-negatives a key added since the last reset, but may false-positive.
func (d *doorkeeper) contains(keyHash uint64) bool {
	h1, h2 := d.locations(keyHash)
	mask := d.bits.Mask()
	for i := uint64(0); i < d.locs; i++ {
		if !d.bits.IsSet((h1 + i*h2) & mask) {
			return false
		}
	}
	return true
}

// containsOrAdd returns the prior contains(keyHash) and unconditionally
// sets keyHash's bits.
func (d *doorkeeper) containsOrAdd(keyHash uint64) bool {
	h1, h2 := d.locations(keyHash)
	mask := d.bits.Mask()
	already := true
	for i := uint64(0); i < d.locs; i++ {
		idx := (h1 + i*h2) & mask
		if !d.bits.IsSet(idx) {
			already = false
			d.bits.Set(idx)
		}
	}
	return already
}

// reset clears every bit.
func (d *doorkeeper) reset() {
	d.bits.Clear()
}

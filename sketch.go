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

	"github.com/cespare/xxhash/v2"
)

const cmRows = 4

// cmRow is a row of 4-bit saturating counters, two packed per byte.
type cmRow []byte

func newCmRow(numCounters int64) cmRow {
	// Two 4-bit counters are packed per byte, so a single counter still
	// needs one whole byte to live in.
	width := numCounters / 2
	if width < 1 {
		width = 1
	}
	return make(cmRow, width)
}

func (r cmRow) get(n uint64) byte {
	return byte(r[n/2]>>((n&1)*4)) & 0x0f
}

func (r cmRow) increment(n uint64) {
	i := n / 2
	shift := (n & 1) * 4
	v := (r[i] >> shift) & 0x0f
	if v < 15 {
		r[i] += 1 << shift
	}
}

// reset halves every counter, rounding down.
func (r cmRow) reset() {
	for i := range r {
		r[i] = (r[i] >> 1) & 0x77
	}
}

func (r cmRow) clear() {
	for i := range r {
		r[i] = 0
	}
}

func (r cmRow) string() string {
	s := make([]byte, 0, len(r)*2)
	for i := uint64(0); i < uint64(len(r)*2); i++ {
		s = append(s, '0'+r.get(i))
	}
	return string(s)
}

// cmSketch is a 4-row count-min sketch with 4-bit saturating counters,
// addressed by four independent hashes mixed from a single 64-bit input.
type cmSketch struct {
	rows [cmRows]cmRow
	seed [cmRows]uint64
	mask uint64
}

func nextPow2(x int64) int64 {
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	return x
}

func newCmSketch(numCounters int64) *cmSketch {
	if numCounters == 0 {
		panic("cmSketch: bad numCounters")
	}
	numCounters = nextPow2(numCounters)
	s := &cmSketch{mask: uint64(numCounters - 1)}
	source := newCmSource()
	for i := 0; i < cmRows; i++ {
		s.seed[i] = source()
		s.rows[i] = newCmRow(numCounters)
	}
	return s
}

// newCmSource returns a simple, deterministic-enough stream of per-row
// seeds derived from xxhash of an incrementing counter, so sketch
// construction doesn't need a separate math/rand dependency.
func newCmSource() func() uint64 {
	var n uint64
	return func() uint64 {
		n++
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], n)
		return xxhash.Sum64(buf[:])
	}
}

// index mixes keyHash with the row's seed via a murmur3-style finalizer so
// the four rows address independent cells for the same key.
func index(keyHash, seed, mask uint64) uint64 {
	h := keyHash ^ seed
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h & mask
}

func (s *cmSketch) increment(keyHash uint64) {
	for i := range s.rows {
		s.rows[i].increment(index(keyHash, s.seed[i], s.mask))
	}
}

func (s *cmSketch) estimate(keyHash uint64) int64 {
	min := byte(255)
	for i := range s.rows {
		v := s.rows[i].get(index(keyHash, s.seed[i], s.mask))
		if v < min {
			min = v
		}
	}
	return int64(min)
}

// reset halves every counter in every row. This is the TinyLFU
// "approximate counting" decay step, distinct from clear.
func (s *cmSketch) reset() {
	for _, r := range s.rows {
		r.reset()
	}
}

func (s *cmSketch) clear() {
	for _, r := range s.rows {
		r.clear()
	}
}

func (s *cmSketch) string() string {
	out := ""
	for i := range s.rows {
		out += s.rows[i].string() + "\n"
	}
	return out
}

// The MIT License (MIT)
// Copyright (c) 2014 Andreas Briese, eduToolbox@Bri-C GmbH, Sarstedt

// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

// Package z holds small, dependency-light primitives shared by the policy
// core: a raw bit-array (Bloom) and a histogram (HistogramData). Hashing
// policy lives with the callers; this package only stores and tests bits.
package z

// Bloom is a plain bit array sized to the next power of two at or above the
// requested number of bits. Callers own hash-to-bit-index mapping.
type Bloom struct {
	bitset []uint64
	size   uint64 // size-1, used as a mask
}

// NewBloom allocates a bit array with at least numBits bits.
func NewBloom(numBits uint64) *Bloom {
	size := nextPow2(numBits)
	return &Bloom{
		bitset: make([]uint64, size>>6),
		size:   size - 1,
	}
}

func nextPow2(n uint64) uint64 {
	if n < 512 {
		n = 512
	}
	size := uint64(1)
	for size < n {
		size <<= 1
	}
	return size
}

// NumBits returns the bit array's capacity (always a power of two, ≥ 512).
func (bl *Bloom) NumBits() uint64 {
	return bl.size + 1
}

// Mask returns NumBits()-1, handy for callers folding a hash into range.
func (bl *Bloom) Mask() uint64 {
	return bl.size
}

// Set sets bit idx (idx must be < NumBits()).
func (bl *Bloom) Set(idx uint64) {
	bl.bitset[idx>>6] |= 1 << (idx & 63)
}

// IsSet reports whether bit idx is set.
func (bl *Bloom) IsSet(idx uint64) bool {
	return bl.bitset[idx>>6]&(1<<(idx&63)) != 0
}

// Clear zeroes every bit.
func (bl *Bloom) Clear() {
	for i := range bl.bitset {
		bl.bitset[i] = 0
	}
}

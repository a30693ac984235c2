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

// defaultFalsePositiveRate is the doorkeeper's target false-positive rate
// absent a WithFalsePositiveRate option.
const defaultFalsePositiveRate = 0.01

// tinyLFU estimates how often a key has been seen recently, combining a
// doorkeeper (absorbs one-hit wonders) with a count-min sketch (tracks
// frequency for anything seen at least twice in the current window).
type tinyLFU struct {
	door    *doorkeeper
	sketch  *cmSketch
	samples int64
	w       int64
}

func newTinyLFU(numCounters int64, falsePositiveRate float64) *tinyLFU {
	return &tinyLFU{
		door:    newDoorkeeper(uint64(numCounters), falsePositiveRate),
		sketch:  newCmSketch(numCounters),
		samples: numCounters,
	}
}

// estimate returns the combined frequency estimate for keyHash: the
// sketch's count plus 1 if the doorkeeper has also seen it this window.
func (t *tinyLFU) estimate(keyHash uint64) int64 {
	hits := t.sketch.estimate(keyHash)
	if t.door.contains(keyHash) {
		hits++
	}
	return hits
}

// increment records one observation of keyHash: the first observation
// within a window only sets the doorkeeper bit; the second and later
// observations increment the sketch.
func (t *tinyLFU) increment(keyHash uint64) {
	if t.door.containsOrAdd(keyHash) {
		t.sketch.increment(keyHash)
	}
	t.tryReset()
}

// increments applies increment to each key hash in keys.
func (t *tinyLFU) increments(keys []uint64) {
	for _, k := range keys {
		t.increment(k)
	}
}

// tryReset decays state every t.samples increments.
func (t *tinyLFU) tryReset() {
	t.w++
	if t.w >= t.samples {
		t.reset()
	}
}

func (t *tinyLFU) reset() {
	t.w = 0
	t.door.reset()
	t.sketch.reset()
}

// clear zeroes all state immediately, independent of the window counter.
func (t *tinyLFU) clear() {
	t.w = 0
	t.door.reset()
	t.sketch.clear()
}

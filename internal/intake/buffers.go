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

package intake

// Buffers stripes several rings across Rows to spread contention when many
// goroutines are observing key hashes concurrently.
type Buffers struct {
	Config *Config

	rows []*Buffer
	mask uint64
}

func NewBuffers(config *Config) *Buffers {
	buffers := &Buffers{
		Config: config,
		rows:   make([]*Buffer, config.Rows),
		mask:   config.Rows - 1,
	}

	for i := range buffers.rows {
		buffers.rows[i] = NewBuffer(config)
	}

	return buffers
}

// Add stripes on the key hash itself, so related accesses to the same key
// tend to land in the same row.
func (b *Buffers) Add(keyHash uint64) {
	row := keyHash & b.mask

	for {
		if b.rows[row].Add(keyHash) {
			return
		}
		row = (row + 1) & b.mask
	}
}

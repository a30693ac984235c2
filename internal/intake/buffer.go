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

// Package intake coalesces individually observed key hashes into batches
// before they're handed to a policy's ingestion channel. It exists for
// callers (such as a cache's Get path) that see one key hash at a time but
// want to call Push with a batch, matching the policy core's ingestion
// contract. It is not part of the policy API itself.
package intake

import "sync/atomic"

// Buffer is a single ring of key hashes. It is safe for concurrent Add
// calls but drains lossily: a goroutine racing a drain may still be
// writing into a slot that's about to be cleared, so an occasional key
// hash is dropped rather than double counted. That's an acceptable loss
// for an approximate frequency sketch.
type Buffer struct {
	Config *Config

	data []uint64
	head int32
	busy int32
}

// NewBuffer allocates a ring of Config.Size key hashes.
func NewBuffer(config *Config) *Buffer {
	return &Buffer{
		Config: config,
		data:   make([]uint64, config.Size),
		head:   -1,
	}
}

// Add appends a key hash to the ring, draining to the Consumer when full.
// Returns false if another goroutine is already draining this ring and the
// caller should retry on a different one.
func (b *Buffer) Add(keyHash uint64) bool {
	if head := atomic.AddInt32(&b.head, 1); head >= b.Config.Size {
		if atomic.CompareAndSwapInt32(&b.busy, 0, 1) {
			// The consumer's Wrap must serialize all calls to Push so the
			// caller can batch them under one lock acquisition.
			b.Config.Consumer.Wrap(func() {
				batch := make([]uint64, 0, len(b.data))
				for i := range b.data {
					if b.data[i] != 0 {
						batch = append(batch, b.data[i])
					}
					b.data[i] = 0
				}
				b.Config.Consumer.Push(batch)
			})

			b.data[0] = keyHash
			atomic.StoreInt32(&b.head, 0)
			atomic.StoreInt32(&b.busy, 0)
			return true
		}

		return false
	}

	b.data[head] = keyHash
	return true
}

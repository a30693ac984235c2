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
	"sync/atomic"
	"time"
)

// defaultSamples is the number of candidates drawn per eviction round.
const defaultSamples = 5

// pair is a (key hash, cost) tuple sampled from the cost set as an eviction
// candidate.
type pair struct {
	key  uint64
	cost int64
}

// sampledLFU tracks the cost of every resident key and the running total,
// so the policy can answer "is there room for one more item of cost c"
// without walking the whole set.
type sampledLFU struct {
	maxCost    int64 // accessed atomically; MaxCost/UpdateMaxCost skip the policy's lock
	used       int64
	samples    int
	keyCosts   map[uint64]int64
	admittedAt map[uint64]time.Time
	metrics    Sink
}

func newSampledLFU(maxCost int64, samples int, metrics Sink) *sampledLFU {
	return &sampledLFU{
		maxCost:    maxCost,
		samples:    samples,
		keyCosts:   make(map[uint64]int64),
		admittedAt: make(map[uint64]time.Time),
		metrics:    metrics,
	}
}

func (c *sampledLFU) getMaxCost() int64 {
	return atomic.LoadInt64(&c.maxCost)
}

func (c *sampledLFU) updateMaxCost(maxCost int64) {
	atomic.StoreInt64(&c.maxCost, maxCost)
}

// roomLeft returns how much capacity would remain if cost were admitted on
// top of what's already used. A negative result means eviction is needed.
func (c *sampledLFU) roomLeft(cost int64) int64 {
	return c.getMaxCost() - (c.used + cost)
}

// fillSample tops sample up to c.samples entries drawn from keyCosts,
// skipping anything already present in sample.
func (c *sampledLFU) fillSample(sample []*pair) []*pair {
	if len(sample) >= c.samples {
		return sample
	}
outer:
	for key, cost := range c.keyCosts {
		for _, p := range sample {
			if p.key == key {
				continue outer
			}
		}
		sample = append(sample, &pair{key: key, cost: cost})
		if len(sample) >= c.samples {
			return sample
		}
	}
	return sample
}

// add inserts a brand new key. The caller must have already verified the
// key isn't present.
func (c *sampledLFU) add(key uint64, cost int64) {
	c.keyCosts[key] = cost
	c.admittedAt[key] = time.Now()
	c.used += cost
}

// lifetimeSeconds returns how long key has been resident, or 0 if key was
// never recorded as admitted.
func (c *sampledLFU) lifetimeSeconds(key uint64) int64 {
	admitted, ok := c.admittedAt[key]
	if !ok {
		return 0
	}
	return int64(time.Since(admitted).Seconds())
}

// updateIfHas replaces an existing key's cost, adjusting used accordingly,
// and reports whether the key was present.
func (c *sampledLFU) updateIfHas(key uint64, cost int64) bool {
	prev, ok := c.keyCosts[key]
	if !ok {
		return false
	}
	c.metrics.Add(KeyUpdate, key, 1)
	switch {
	case prev > cost:
		c.metrics.Add(CostAdd, key, uint64(prev-cost))
	case cost > prev:
		c.metrics.Add(CostAdd, key, uint64(cost-prev))
	}
	c.used += cost - prev
	c.keyCosts[key] = cost
	return true
}

// del removes key, returning the cost it held and whether it was present.
func (c *sampledLFU) del(key uint64) (int64, bool) {
	cost, ok := c.keyCosts[key]
	if !ok {
		return 0, false
	}
	delete(c.keyCosts, key)
	delete(c.admittedAt, key)
	c.used -= cost
	return cost, true
}

func (c *sampledLFU) contains(key uint64) bool {
	_, ok := c.keyCosts[key]
	return ok
}

func (c *sampledLFU) cost(key uint64) int64 {
	if cost, ok := c.keyCosts[key]; ok {
		return cost
	}
	return -1
}

func (c *sampledLFU) clear() {
	c.used = 0
	c.keyCosts = make(map[uint64]int64)
	c.admittedAt = make(map[uint64]time.Time)
}
